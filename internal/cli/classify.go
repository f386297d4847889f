package cli

import (
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/bainoculars/internal/app"
	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/internal/domain/policy"
)

var classifyOutput string

type classification struct {
	File        string             `json:"file" yaml:"file"`
	Label       string             `json:"label" yaml:"label"`
	Confidence  float64            `json:"confidence" yaml:"confidence"`
	Predictions []model.Prediction `json:"predictions" yaml:"predictions"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify <image>",
	Short: "Classify an image file with the configured classifier and decision policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := LoadConfig(ctx)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", args[0], err)
		}

		cls, err := app.NewClassifier(cfg)
		if err != nil {
			return err
		}
		preds, err := cls.Classify(ctx, model.FrameFromImage(img, time.Now(), 0))
		if err != nil {
			return err
		}

		decider := policy.New(
			policy.WithThreshold(cfg.ConfidenceThreshold),
			policy.WithExcludedLabels(cfg.ExcludedLabels...),
		)
		label, conf := decider.Decide(preds)
		res := classification{File: args[0], Label: label, Confidence: conf, Predictions: preds}

		out := cmd.OutOrStdout()
		if done, err := writeStructured(out, classifyOutput, res); done {
			return err
		}
		for _, p := range preds {
			fmt.Fprintf(out, "%6.2f%%  %s\n", p.Confidence, p.Label)
		}
		fmt.Fprintf(out, "=> %s (%.0f%%)\n", label, conf)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&classifyOutput, "output", "o", "text", "output format: text, yaml, json")
}
