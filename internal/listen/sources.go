package listen

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"voxd/internal/ipc"
)

type Recorder interface {
	Record(ctx context.Context) ([]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
}

// Ducker quiets other playback while the microphone is open.
type Ducker interface {
	DuckOthers(ctx context.Context, factor float64, fade time.Duration) error
	UnduckOthers(ctx context.Context, fade time.Duration) error
}

const (
	duckFactor = 0.3
	duckFade   = 150 * time.Millisecond
)

// Mic records one utterance per call and transcribes it.
type Mic struct {
	Recorder    Recorder
	Transcriber Transcriber
	// Cue, if set, is played before recording starts.
	Cue func() error
	// Duck, if set, lowers other audio during the recording.
	Duck   Ducker
	Logger *slog.Logger
}

func (m *Mic) Listen(ctx context.Context) (string, error) {
	if m.Cue != nil {
		if err := m.Cue(); err != nil {
			m.debug("Cue failed", err)
		}
	}

	if m.Duck != nil {
		if err := m.Duck.DuckOthers(ctx, duckFactor, duckFade); err != nil {
			m.debug("Duck failed", err)
		}
	}

	pcm, err := m.Recorder.Record(ctx)

	if m.Duck != nil {
		if err := m.Duck.UnduckOthers(context.WithoutCancel(ctx), duckFade); err != nil {
			m.debug("Unduck failed", err)
		}
	}

	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	if len(pcm) == 0 {
		return "", fmt.Errorf("no speech captured: %w", ErrRecognition)
	}

	return transcribe(ctx, m.Transcriber, pcm)
}

func (m *Mic) debug(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Debug(msg, "err", err)
	}
}

// Replay transcribes a fixed list of audio files, one per call.
type Replay struct {
	Files       []string
	Decode      func(ctx context.Context, path string) ([]float32, error)
	Transcriber Transcriber

	next int
}

func (r *Replay) Listen(ctx context.Context) (string, error) {
	if r.next >= len(r.Files) {
		return "", io.EOF
	}
	path := r.Files[r.next]
	r.next++

	pcm, err := r.Decode(ctx, path)
	if err != nil {
		return "", fmt.Errorf("decode %s: %v: %w", path, err, ErrRecognition)
	}

	return transcribe(ctx, r.Transcriber, pcm)
}

// Lines reads one utterance per line, for typing commands instead of
// speaking them.
type Lines struct {
	In *bufio.Reader
}

func (l *Lines) Listen(context.Context) (string, error) {
	line, err := l.In.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Control is push-to-talk: it waits for a control message, then either
// captures from Capture ("trigger") or returns the text carried by "say".
type Control struct {
	Messages <-chan ipc.ControlMessage
	Capture  Source
	Logger   *slog.Logger
}

func (c *Control) Listen(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case msg, ok := <-c.Messages:
		if !ok {
			return "", io.EOF
		}

		switch msg.Cmd {
		case ipc.CmdTrigger:
			if c.Capture == nil {
				return "", fmt.Errorf("trigger without a capture source: %w", ErrRecognition)
			}
			return c.Capture.Listen(ctx)
		case ipc.CmdSay:
			return msg.Text, nil
		default:
			if c.Logger != nil {
				c.Logger.Warn("Unknown command", "cmd", msg.Cmd)
			}
			return "", nil
		}
	}
}

// annotationRe matches the non-speech markers whisper emits, such as
// [BLANK_AUDIO] or (music).
var annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

func transcribe(ctx context.Context, tr Transcriber, pcm []float32) (string, error) {
	text, err := tr.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe: %v: %w", err, ErrRecognition)
	}

	text = strings.Join(strings.Fields(annotationRe.ReplaceAllString(text, " ")), " ")
	if text == "" {
		return "", fmt.Errorf("empty transcript: %w", ErrRecognition)
	}
	return text, nil
}
