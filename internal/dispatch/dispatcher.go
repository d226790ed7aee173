// Package dispatch turns recognized speech into exactly one action.
//
// Interpret normalizes the text (lowercase, wake word stripped), picks the
// first command whose verb prefixes it and runs the bound action. Failures
// end at Interpret: they are logged and reported as an Outcome, never
// returned as errors, so the listening loop keeps going.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"voxd/internal/actuator"
)

const DefaultVolumeStep = 0.1

type Locator interface {
	Find(query string) (string, bool)
}

// Suggester is optionally implemented by a Locator to improve not-found
// warnings.
type Suggester interface {
	Suggest(query string) (string, bool)
}

type Actuator interface {
	Launch(ctx context.Context, path string) error
	AdjustVolume(ctx context.Context, delta float64) (float64, error)
	ToggleMute(ctx context.Context) (bool, error)
	Power(ctx context.Context, kind actuator.PowerKind) error
}

// Confirmer asks the user a yes/no question. It is called from the
// listening goroutine and must be safe for that.
type Confirmer interface {
	Confirm(ctx context.Context, req Request) bool
}

type ConfirmFunc func(ctx context.Context, req Request) bool

func (f ConfirmFunc) Confirm(ctx context.Context, req Request) bool { return f(ctx, req) }

// Rewriter maps free-form speech to a canonical command phrase.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}

type Config struct {
	Locator  Locator
	Actuator Actuator

	// Confirmer gates destructive commands. Nil means proceed without asking.
	Confirmer Confirmer
	// Rewriter is consulted once when no verb matches.
	Rewriter Rewriter

	// Commands defaults to DefaultCommands.
	Commands []Command
	// WakeWords defaults to DefaultWakeWords.
	WakeWords []string
	// RequireWakeWord drops text that does not start with a wake word.
	RequireWakeWord bool
	// VolumeStep defaults to DefaultVolumeStep.
	VolumeStep float64

	Logger *slog.Logger
}

type Outcome int

const (
	Ignored Outcome = iota
	Dispatched
	Cancelled
	NotFound
	Unsupported
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Dispatched:
		return "dispatched"
	case Cancelled:
		return "cancelled"
	case NotFound:
		return "not_found"
	case Unsupported:
		return "unsupported"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Result struct {
	Outcome Outcome
	// Command is the matched command; zero when Outcome is Ignored.
	Command Command
	Arg     string
}

type Dispatcher struct {
	// mu keeps dispatch non-reentrant when text arrives from more than one
	// goroutine.
	mu sync.Mutex

	locator   Locator
	actuator  Actuator
	confirmer Confirmer
	rewriter  Rewriter
	commands  []Command
	norm      normalizer
	requireWW bool
	step      float64
	log       *slog.Logger
}

func New(cfg Config) (*Dispatcher, error) {
	if cfg.Locator == nil {
		return nil, errors.New("dispatch: nil locator")
	}
	if cfg.Actuator == nil {
		return nil, errors.New("dispatch: nil actuator")
	}

	cmds := cfg.Commands
	if cmds == nil {
		cmds = DefaultCommands()
	}
	if err := validateCommands(cmds); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	wake := cfg.WakeWords
	if len(wake) == 0 {
		wake = DefaultWakeWords
	}

	step := cfg.VolumeStep
	if step <= 0 {
		step = DefaultVolumeStep
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Dispatcher{
		locator:   cfg.Locator,
		actuator:  cfg.Actuator,
		confirmer: cfg.Confirmer,
		rewriter:  cfg.Rewriter,
		commands:  append([]Command(nil), cmds...),
		norm:      newNormalizer(wake),
		requireWW: cfg.RequireWakeWord,
		step:      step,
		log:       log,
	}, nil
}

// Commands returns the command table in priority order.
func (d *Dispatcher) Commands() []Command {
	return append([]Command(nil), d.commands...)
}

// Interpret handles one recognized utterance. Unrecognized text is silently
// ignored.
func (d *Dispatcher) Interpret(ctx context.Context, raw string) (res Result) {
	if raw == "" {
		return Result{Outcome: Ignored}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	log := d.log.With("utterance", uuid.NewString())

	defer func() {
		if r := recover(); r != nil {
			log.Error("Command panicked", "verb", res.Command.Verb, "panic", r)
			res.Outcome = Failed
		}
	}()

	text, woke := d.norm.normalize(raw)
	if d.requireWW && !woke {
		log.Debug("No wake word", "text", text)
		return Result{Outcome: Ignored}
	}

	cmd, ok := match(d.commands, text)
	if !ok && d.rewriter != nil {
		text, ok = d.rewrite(ctx, log, text)
		if ok {
			cmd, ok = match(d.commands, text)
		}
	}
	if !ok {
		return Result{Outcome: Ignored}
	}

	res = Result{Command: cmd}
	if cmd.RequiresArgument {
		res.Arg = trimArg(text[len(cmd.Verb):])
	}

	log.Info("Command recognized", "verb", cmd.Verb, "arg", res.Arg)
	res.Outcome = d.run(ctx, log, cmd, res.Arg)
	return res
}

func (d *Dispatcher) rewrite(ctx context.Context, log *slog.Logger, text string) (string, bool) {
	if text == "" {
		return "", false
	}

	out, err := d.rewriter.Rewrite(ctx, text)
	if err != nil {
		log.Debug("Rewrite failed", "text", text, "err", err)
		return "", false
	}

	out, _ = d.norm.normalize(out)
	if out == "" || out == text {
		return "", false
	}

	log.Debug("Rewrote utterance", "from", text, "to", out)
	return out, true
}

func (d *Dispatcher) run(ctx context.Context, log *slog.Logger, cmd Command, arg string) Outcome {
	if cmd.RequiresConfirmation() && d.confirmer != nil {
		if !d.confirmer.Confirm(ctx, *cmd.Confirmation) {
			log.Info("Command cancelled", "verb", cmd.Verb)
			return Cancelled
		}
	}

	var err error
	switch cmd.Action {
	case ActionOpen:
		return d.open(ctx, log, cmd, arg)
	case ActionVolumeUp:
		_, err = d.actuator.AdjustVolume(ctx, d.step)
	case ActionVolumeDown:
		_, err = d.actuator.AdjustVolume(ctx, -d.step)
	case ActionMute:
		_, err = d.actuator.ToggleMute(ctx)
	case ActionShutdown:
		err = d.actuator.Power(ctx, actuator.Shutdown)
	case ActionRestart:
		err = d.actuator.Power(ctx, actuator.Restart)
	case ActionSleep:
		err = d.actuator.Power(ctx, actuator.Sleep)
	default:
		log.Error("Command has no action", "verb", cmd.Verb, "action", cmd.Action)
		return Failed
	}

	return d.report(log, cmd, err)
}

func (d *Dispatcher) open(ctx context.Context, log *slog.Logger, cmd Command, query string) Outcome {
	path, ok := d.locator.Find(query)
	if !ok {
		attrs := []any{"app", query}
		if s, isSuggester := d.locator.(Suggester); isSuggester {
			if name, found := s.Suggest(query); found {
				attrs = append(attrs, "did_you_mean", name)
			}
		}
		log.Warn("Application not found", attrs...)
		return NotFound
	}

	err := d.actuator.Launch(ctx, path)
	return d.report(log, cmd, err)
}

func (d *Dispatcher) report(log *slog.Logger, cmd Command, err error) Outcome {
	switch {
	case err == nil:
		return Dispatched
	case errors.Is(err, actuator.ErrUnsupported):
		log.Warn("Command not supported on this OS", "verb", cmd.Verb, "err", err)
		return Unsupported
	case errors.Is(err, actuator.ErrNotFound):
		log.Warn("Command target not found", "verb", cmd.Verb, "err", err)
		return NotFound
	default:
		log.Error("Command failed", "verb", cmd.Verb, "err", err)
		return Failed
	}
}

// trimArg drops surrounding blanks and the sentence punctuation that
// transcribers append.
func trimArg(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".!?"))
}
