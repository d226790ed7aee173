package actuator

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"voxd/internal/osexec"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

const defaultSink = "@DEFAULT_SINK@"

// Pactl drives the PulseAudio/PipeWire default sink.
type Pactl struct {
	Runner osexec.Runner
}

func (p *Pactl) Level(ctx context.Context) (float64, error) {
	out, err := p.Runner.Output(ctx, "pactl", "get-sink-volume", defaultSink)
	if err != nil {
		return 0, err
	}

	// Volume: front-left: 32768 /  50% / -18.06 dB,   front-right: ...
	m := percentRe.FindStringSubmatch(string(out))
	if len(m) < 2 {
		return 0, fmt.Errorf("pactl: no volume in %q", strings.TrimSpace(string(out)))
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("pactl: %w", err)
	}

	return float64(v) / 100, nil
}

func (p *Pactl) SetLevel(ctx context.Context, level float64) error {
	arg := fmt.Sprintf("%d%%", toPercent(level))
	return p.Runner.Run(ctx, "pactl", "set-sink-volume", defaultSink, arg)
}

func (p *Pactl) Muted(ctx context.Context) (bool, error) {
	out, err := p.Runner.Output(ctx, "pactl", "get-sink-mute", defaultSink)
	if err != nil {
		return false, err
	}

	// Mute: yes
	s := strings.TrimSpace(string(out))
	_, val, ok := strings.Cut(s, ":")
	if !ok {
		return false, fmt.Errorf("pactl: unexpected mute output %q", s)
	}

	switch strings.TrimSpace(val) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("pactl: unexpected mute output %q", s)
	}
}

func (p *Pactl) SetMuted(ctx context.Context, muted bool) error {
	flag := "0"
	if muted {
		flag = "1"
	}
	return p.Runner.Run(ctx, "pactl", "set-sink-mute", defaultSink, flag)
}

// AppleScript drives the macOS output volume through osascript.
type AppleScript struct {
	Runner osexec.Runner
}

func (a *AppleScript) eval(ctx context.Context, script string) (string, error) {
	out, err := a.Runner.Output(ctx, "osascript", "-e", script)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (a *AppleScript) Level(ctx context.Context) (float64, error) {
	out, err := a.eval(ctx, "output volume of (get volume settings)")
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("osascript: volume %q: %w", out, err)
	}
	return float64(v) / 100, nil
}

func (a *AppleScript) SetLevel(ctx context.Context, level float64) error {
	_, err := a.eval(ctx, fmt.Sprintf("set volume output volume %d", toPercent(level)))
	return err
}

func (a *AppleScript) Muted(ctx context.Context) (bool, error) {
	out, err := a.eval(ctx, "output muted of (get volume settings)")
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(out)
	if err != nil {
		return false, fmt.Errorf("osascript: muted %q: %w", out, err)
	}
	return b, nil
}

func (a *AppleScript) SetMuted(ctx context.Context, muted bool) error {
	_, err := a.eval(ctx, fmt.Sprintf("set volume output muted %t", muted))
	return err
}

func toPercent(level float64) int {
	return int(math.Round(level * 100))
}
