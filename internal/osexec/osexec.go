// Package osexec is the single place where voxd spawns OS processes.
// Actuators and confirmation dialogs talk to a Runner so tests can
// record invocations instead of touching the host.
package osexec

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

type Runner interface {
	// Run executes the command and waits for it to exit.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches the command without waiting for it.
	Start(name string, args ...string) error
	// LookPath reports whether a tool is available.
	LookPath(name string) (string, error)
}

type Exec struct {
	Logger *slog.Logger
}

func (e Exec) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

func (e Exec) Run(ctx context.Context, name string, args ...string) error {
	e.logger().Debug("exec", "cmd", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (e Exec) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	e.logger().Debug("exec", "cmd", name, "args", args)
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// Start detaches the child. A goroutine reaps it so no zombie is left behind.
func (e Exec) Start(name string, args ...string) error {
	e.logger().Debug("spawn", "cmd", name, "args", args)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			e.logger().Debug("child exited", "cmd", name, "err", err)
		}
	}()

	return nil
}

func (Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
