// Package listen feeds recognized text to the dispatcher.
//
// A Source produces one utterance per Listen call and blocks until it has
// one. Loop pulls from a single Source and interprets each utterance on the
// same goroutine, so commands never overlap.
package listen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"voxd/internal/dispatch"
)

// ErrRecognition marks an utterance that could not be transcribed. The loop
// logs it and moves on.
var ErrRecognition = errors.New("recognition failed")

// Source yields recognized text. io.EOF ends a finite source.
type Source interface {
	Listen(ctx context.Context) (string, error)
}

type Interpreter interface {
	Interpret(ctx context.Context, text string) dispatch.Result
}

const defaultBackoff = time.Second

type Loop struct {
	Source      Source
	Interpreter Interpreter
	Logger      *slog.Logger
	// Backoff is the pause after an unexpected source error.
	Backoff time.Duration
}

// Run pulls utterances until ctx is done or the source is exhausted. A
// failing utterance never stops the loop.
func (l *Loop) Run(ctx context.Context) error {
	log := l.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	backoff := l.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	log.Info("Listening loop started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := l.Source.Listen(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, io.EOF):
			log.Info("Input exhausted, stopping")
			return nil
		case errors.Is(err, ErrRecognition):
			log.Warn("Could not understand audio", "err", err)
			continue
		case err != nil:
			log.Error("Listen failed", "err", err)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}

		if text == "" {
			continue
		}

		log.Debug("Heard", "text", text)
		l.interpret(ctx, log, text)
	}
}

func (l *Loop) interpret(ctx context.Context, log *slog.Logger, text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Interpreter panicked", "text", text, "panic", fmt.Sprint(r))
		}
	}()

	res := l.Interpreter.Interpret(ctx, text)
	if res.Outcome != dispatch.Ignored {
		log.Debug("Handled", "verb", res.Command.Verb, "outcome", res.Outcome.String())
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
