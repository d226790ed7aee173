// Package actuator performs the OS side effects behind voice commands:
// launching programs, changing the master volume and power actions.
// Everything is best effort. Power actions and launches are fire and forget.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/afero"

	"voxd/internal/osexec"
)

var (
	ErrUnsupported = errors.New("unsupported on this platform")
	ErrNotFound    = errors.New("not found")
)

type PowerKind int

const (
	Shutdown PowerKind = iota
	Restart
	Sleep
)

func (k PowerKind) String() string {
	switch k {
	case Shutdown:
		return "shutdown"
	case Restart:
		return "restart"
	case Sleep:
		return "sleep"
	default:
		return fmt.Sprintf("power(%d)", int(k))
	}
}

// Volume is a master volume backend. Levels are scalars in [0, 1].
type Volume interface {
	Level(ctx context.Context) (float64, error)
	SetLevel(ctx context.Context, level float64) error
	Muted(ctx context.Context) (bool, error)
	SetMuted(ctx context.Context, muted bool) error
}

type Config struct {
	Platform Platform
	Runner   osexec.Runner
	FS       afero.Fs
	Logger   *slog.Logger
}

type System struct {
	platform Platform
	run      osexec.Runner
	fs       afero.Fs
	log      *slog.Logger
}

func New(cfg Config) *System {
	if cfg.Runner == nil {
		cfg.Runner = osexec.Exec{Logger: cfg.Logger}
	}
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &System{
		platform: cfg.Platform,
		run:      cfg.Runner,
		fs:       cfg.FS,
		log:      cfg.Logger,
	}
}

func (s *System) Platform() string { return s.platform.Name }

// Launch starts the program at path and returns without waiting for it.
func (s *System) Launch(_ context.Context, path string) error {
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("launch %s: %w", path, ErrNotFound)
	}

	argv := s.platform.launchArgv(path)
	if err := s.run.Start(argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("launch %s: %w", path, err)
	}

	s.log.Info("Opening application", "path", path)
	return nil
}

// AdjustVolume reads the current level, adds delta and writes the result
// clamped to [0, 1] at whole-percent precision. It returns the new level.
func (s *System) AdjustVolume(ctx context.Context, delta float64) (float64, error) {
	vol := s.platform.Volume
	if vol == nil {
		return 0, fmt.Errorf("volume control: %w", ErrUnsupported)
	}

	cur, err := vol.Level(ctx)
	if err != nil {
		return 0, fmt.Errorf("read volume: %w", err)
	}

	next := clampLevel(cur + delta)
	if err := vol.SetLevel(ctx, next); err != nil {
		return 0, fmt.Errorf("set volume: %w", err)
	}

	s.log.Info("Volume set", "percent", int(math.Round(next*100)))
	return next, nil
}

// ToggleMute flips the mute flag and returns the new state.
func (s *System) ToggleMute(ctx context.Context) (bool, error) {
	vol := s.platform.Volume
	if vol == nil {
		return false, fmt.Errorf("volume control: %w", ErrUnsupported)
	}

	muted, err := vol.Muted(ctx)
	if err != nil {
		return false, fmt.Errorf("read mute: %w", err)
	}
	if err := vol.SetMuted(ctx, !muted); err != nil {
		return false, fmt.Errorf("set mute: %w", err)
	}

	s.log.Info("Mute toggled", "muted", !muted)
	return !muted, nil
}

// Power issues the platform command for kind. It does not wait for the OS to
// act on it.
func (s *System) Power(_ context.Context, kind PowerKind) error {
	argv, ok := s.platform.Power[kind]
	if !ok || len(argv) == 0 {
		return fmt.Errorf("%s: %w", kind, ErrUnsupported)
	}

	s.log.Info("Power action", "kind", kind.String(), "cmd", argv)
	if err := s.run.Start(argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}

func clampLevel(v float64) float64 {
	v = math.Round(v*100) / 100
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
