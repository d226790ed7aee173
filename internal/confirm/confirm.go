// Package confirm implements the yes/no prompts shown before destructive
// commands. All prompts serialize themselves so the listening goroutine
// can call them while another goroutine owns the terminal or display.
package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"voxd/internal/dispatch"
)

// Console asks on a terminal. Anything but y/yes is a no.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in *bufio.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out}
}

func (c *Console) Confirm(ctx context.Context, req dispatch.Request) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s: %s [y/N] ", req.Title, req.Message)

	answer := make(chan string, 1)
	go func() {
		line, _ := c.in.ReadString('\n')
		answer <- line
	}()

	select {
	case <-ctx.Done():
		return false
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

// Spoken reads the question aloud before delegating to Next.
type Spoken struct {
	Speak  func(text string) error
	Next   dispatch.Confirmer
	Logger *slog.Logger
}

func (s Spoken) Confirm(ctx context.Context, req dispatch.Request) bool {
	if err := s.Speak(req.Message); err != nil && s.Logger != nil {
		s.Logger.Warn("Failed to voice out", "err", err)
	}
	return s.Next.Confirm(ctx, req)
}
