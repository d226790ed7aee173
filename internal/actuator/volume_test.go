package actuator

import (
	"context"
	"slices"
	"testing"

	"voxd/internal/osexec/osexectest"
)

func TestPactl(t *testing.T) {
	rec := (&osexectest.Recorder{}).
		Set("pactl get-sink-volume @DEFAULT_SINK@",
			"Volume: front-left: 32768 /  50% / -18.06 dB,   front-right: 32768 /  50% / -18.06 dB\n        balance 0.00\n").
		Set("pactl get-sink-mute @DEFAULT_SINK@", "Mute: no\n")

	sys := New(Config{Platform: Platform{Volume: &Pactl{Runner: rec}}, Runner: rec})
	ctx := context.Background()

	level, err := sys.AdjustVolume(ctx, 0.1)
	if err != nil || level != 0.6 {
		t.Fatalf("AdjustVolume = %v, %v", level, err)
	}
	muted, err := sys.ToggleMute(ctx)
	if err != nil || !muted {
		t.Fatalf("ToggleMute = %v, %v", muted, err)
	}

	want := []string{
		"pactl get-sink-volume @DEFAULT_SINK@",
		"pactl set-sink-volume @DEFAULT_SINK@ 60%",
		"pactl get-sink-mute @DEFAULT_SINK@",
		"pactl set-sink-mute @DEFAULT_SINK@ 1",
	}
	if got := rec.Lines(); !slices.Equal(got, want) {
		t.Fatalf("calls:\n%q\nwant:\n%q", got, want)
	}
}

func TestPactlBadOutput(t *testing.T) {
	rec := (&osexectest.Recorder{}).
		Set("pactl get-sink-volume @DEFAULT_SINK@", "garbage").
		Set("pactl get-sink-mute @DEFAULT_SINK@", "Mute: maybe")
	p := &Pactl{Runner: rec}

	if _, err := p.Level(context.Background()); err == nil {
		t.Errorf("Level accepted garbage")
	}
	if _, err := p.Muted(context.Background()); err == nil {
		t.Errorf("Muted accepted garbage")
	}
}

func TestAppleScript(t *testing.T) {
	rec := (&osexectest.Recorder{}).
		Set("osascript -e output volume of (get volume settings)", "95\n").
		Set("osascript -e set volume output volume 100", "").
		Set("osascript -e output muted of (get volume settings)", "true\n").
		Set("osascript -e set volume output muted false", "")

	sys := New(Config{Platform: Platform{Volume: &AppleScript{Runner: rec}}, Runner: rec})
	ctx := context.Background()

	level, err := sys.AdjustVolume(ctx, 0.1)
	if err != nil || level != 1.0 {
		t.Fatalf("AdjustVolume = %v, %v", level, err)
	}
	muted, err := sys.ToggleMute(ctx)
	if err != nil || muted {
		t.Fatalf("ToggleMute = %v, %v", muted, err)
	}
}

type fakeMixer struct {
	percent int
	muted   bool
	sets    []int
}

func (m *fakeMixer) GetVolume() (int, error) { return m.percent, nil }
func (m *fakeMixer) SetVolume(p int) error {
	m.percent = p
	m.sets = append(m.sets, p)
	return nil
}
func (m *fakeMixer) GetMuted() (bool, error) { return m.muted, nil }
func (m *fakeMixer) Mute() error {
	m.muted = true
	return nil
}
func (m *fakeMixer) Unmute() error {
	m.muted = false
	return nil
}

func TestCoreAudio(t *testing.T) {
	mix := &fakeMixer{percent: 95}
	sys := New(Config{Platform: Platform{Volume: &CoreAudio{Mixer: mix}}})
	ctx := context.Background()

	level, err := sys.AdjustVolume(ctx, 0.1)
	if err != nil || level != 1.0 {
		t.Fatalf("AdjustVolume up = %v, %v", level, err)
	}
	level, err = sys.AdjustVolume(ctx, -0.1)
	if err != nil || level != 0.9 {
		t.Fatalf("AdjustVolume down = %v, %v", level, err)
	}
	if want := []int{100, 90}; !slices.Equal(mix.sets, want) {
		t.Fatalf("sets = %v, want %v", mix.sets, want)
	}

	for _, want := range []bool{true, false} {
		muted, err := sys.ToggleMute(ctx)
		if err != nil || muted != want || mix.muted != want {
			t.Fatalf("ToggleMute = %v, %v; mixer muted %v; want %v", muted, err, mix.muted, want)
		}
	}
}
