// Package storage persists captured frames as JPEG files, one directory per
// mode. File names double as the capture index: <Label>_<YYYYmmdd_HHMMSS>.jpg.
package storage

import (
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/okian/bainoculars/internal/domain/capture"
	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/logger"
)

const (
	defaultQuality = 90
	dirPerm        = 0o755
)

// Entry is one stored capture parsed from its file name.
type Entry struct {
	Mode      model.Mode `json:"mode" yaml:"mode"`
	Label     string     `json:"label" yaml:"label"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
	Path      string     `json:"path" yaml:"path"`
	Size      int64      `json:"size" yaml:"size"`
	// Pending marks a provisional file whose classification never finished.
	Pending bool `json:"pending,omitempty" yaml:"pending,omitempty"`
}

// Local stores captures on the local filesystem.
type Local struct {
	root    string
	quality int
	logger  logger.Logger
}

// Option configures Local.
type Option func(*Local)

// WithQuality sets the JPEG quality (1-100).
func WithQuality(q int) Option {
	return func(l *Local) {
		if q >= 1 && q <= 100 {
			l.quality = q
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Local) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLocal creates the root directory if needed.
func NewLocal(root string, opts ...Option) (*Local, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("%w: empty root", ErrInvalidPath)
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	l := &Local{
		root:    root,
		quality: defaultQuality,
		logger:  logger.Get().Named("storage"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Root returns the capture root directory.
func (l *Local) Root() string { return l.root }

func (l *Local) modeDir(mode model.Mode) string {
	return filepath.Join(l.root, mode.String())
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return nil
}

// Save encodes f as JPEG at <root>/<mode>/<name>.
func (l *Local) Save(ctx context.Context, f model.Frame, mode model.Mode, name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if f.Empty() {
		return "", fmt.Errorf("%w: empty frame", ErrSaveFailed)
	}
	dir := l.modeDir(mode)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	full := filepath.Join(dir, name)
	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if err := jpeg.Encode(dst, f.Image(), &jpeg.Options{Quality: l.quality}); err != nil {
		_ = dst.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("%w: encode: %w", ErrSaveFailed, err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	l.logger.Debug(ctx, "capture saved", logger.String("path", full))
	return full, nil
}

// Rename moves a stored capture to newName within its directory.
func (l *Local) Rename(ctx context.Context, path, newName string) (string, error) {
	if err := validName(newName); err != nil {
		return "", err
	}
	if !l.within(path) {
		return "", fmt.Errorf("%w: %q outside %q", ErrInvalidPath, path, l.root)
	}
	target := filepath.Join(filepath.Dir(path), newName)
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRenameFailed, err)
	}
	l.logger.Debug(ctx, "capture renamed", logger.String("from", path), logger.String("to", target))
	return target, nil
}

func (l *Local) within(path string) bool {
	rel, err := filepath.Rel(l.root, filepath.Clean(path))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// List returns the captures stored under the given modes, newest first.
// With no modes both Explore and Arcade are listed.
func (l *Local) List(modes ...model.Mode) ([]Entry, error) {
	if len(modes) == 0 {
		modes = []model.Mode{model.ModeExplore, model.ModeArcade}
	}
	var out []Entry
	for _, mode := range modes {
		dir := l.modeDir(mode)
		items, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		for _, it := range items {
			if it.IsDir() {
				continue
			}
			label, ts, ok := capture.ParseFileName(it.Name())
			if !ok {
				continue
			}
			e := Entry{
				Mode:      mode,
				Label:     strings.ReplaceAll(label, "_", " "),
				Timestamp: ts,
				Path:      filepath.Join(dir, it.Name()),
				Pending:   label == capture.ProvisionalPrefix,
			}
			if info, err := it.Info(); err == nil {
				e.Size = info.Size()
			}
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
