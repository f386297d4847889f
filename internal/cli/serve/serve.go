// Package serve runs the kiosk: camera, service and HTTP server. It links the
// GStreamer camera and is kept apart from the offline commands.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/okian/bainoculars/internal/adapters/camera/gstcam"
	"github.com/okian/bainoculars/internal/adapters/http/api"
	"github.com/okian/bainoculars/internal/adapters/http/site"
	"github.com/okian/bainoculars/internal/adapters/http/swagger"
	app "github.com/okian/bainoculars/internal/app"
	"github.com/okian/bainoculars/internal/cli"
	"github.com/okian/bainoculars/internal/config"
	"github.com/okian/bainoculars/pkg/logger"
	"github.com/okian/bainoculars/pkg/metrics"
)

// HTTP server timeout constants. No write timeout: /stream is long-lived.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// NewCommand returns the serve command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the kiosk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := cli.LoadConfig(ctx)
			if err != nil {
				return err
			}
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	opts := []app.Option{app.WithConfig(cfg), app.WithLogger(log.Named("service"))}
	if cfg.CameraBackend == "gstreamer" {
		cam, err := gstcam.Open(ctx, gstcam.Config{
			Device: cfg.CameraDevice,
			Width:  cfg.FrameWidth,
			Height: cfg.FrameHeight,
		})
		if err != nil {
			return fmt.Errorf("failed to open camera: %w", err)
		}
		// The service owns the camera from here. It closes it on exit and on a
		// failed Start.
		opts = append(opts, app.WithSource(cam))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	apiServer := api.NewServer(svc, cfg.LeaderboardSize,
		api.WithStream(svc.Display(), svc.Display().ServeSnapshot),
		api.WithRoutes(func(r chi.Router) { swagger.Register(ctx, r) }),
		api.WithRoutes(func(r chi.Router) { site.Register(ctx, r) }),
		api.WithLogger(log.Named("api")),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(),
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info(ctx, "shutdown signal received")
	case <-svc.Quit():
		log.Info(ctx, "quit requested from the kiosk")
	case err := <-serveErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return runErr
}

// startServiceMetricsUpdater refreshes gauges that are only sampled by GetStats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-svc.Quit():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
