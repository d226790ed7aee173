package actuator

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"voxd/internal/osexec/osexectest"
)

type memVolume struct {
	level float64
	muted bool
	sets  []float64
}

func (m *memVolume) Level(context.Context) (float64, error) { return m.level, nil }

func (m *memVolume) SetLevel(_ context.Context, v float64) error {
	m.level = v
	m.sets = append(m.sets, v)
	return nil
}

func (m *memVolume) Muted(context.Context) (bool, error) { return m.muted, nil }

func (m *memVolume) SetMuted(_ context.Context, v bool) error {
	m.muted = v
	return nil
}

func TestAdjustVolume(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		delta float64
		want  float64
	}{
		{"up", 0.5, 0.1, 0.6},
		{"down", 0.5, -0.1, 0.4},
		{"clamped high", 0.95, 0.1, 1.0},
		{"clamped low", 0.05, -0.1, 0},
		{"already max", 1.0, 0.1, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := &memVolume{level: tt.start}
			sys := New(Config{Platform: Platform{Name: "test", Volume: vol}, Runner: &osexectest.Recorder{}})

			got, err := sys.AdjustVolume(context.Background(), tt.delta)
			if err != nil {
				t.Fatalf("AdjustVolume: %v", err)
			}
			if got != tt.want || vol.level != tt.want {
				t.Fatalf("AdjustVolume(%v) from %v = %v (stored %v), want %v", tt.delta, tt.start, got, vol.level, tt.want)
			}
		})
	}
}

func TestVolumeUnsupported(t *testing.T) {
	sys := New(Config{Platform: Platform{Name: "plan9"}, Runner: &osexectest.Recorder{}})

	if _, err := sys.AdjustVolume(context.Background(), 0.1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("AdjustVolume err = %v, want ErrUnsupported", err)
	}
	if _, err := sys.ToggleMute(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ToggleMute err = %v, want ErrUnsupported", err)
	}
}

func TestToggleMuteTwiceRestores(t *testing.T) {
	vol := &memVolume{muted: false}
	sys := New(Config{Platform: Platform{Volume: vol}, Runner: &osexectest.Recorder{}})
	ctx := context.Background()

	first, err := sys.ToggleMute(ctx)
	if err != nil || !first {
		t.Fatalf("first toggle = %v, %v", first, err)
	}
	second, err := sys.ToggleMute(ctx)
	if err != nil || second {
		t.Fatalf("second toggle = %v, %v", second, err)
	}
	if vol.muted {
		t.Fatalf("mute state not restored")
	}
}

func TestPower(t *testing.T) {
	tests := []struct {
		goos string
		kind PowerKind
		want string
	}{
		{"windows", Shutdown, "shutdown /s /t 1"},
		{"windows", Restart, "shutdown /r /t 1"},
		{"windows", Sleep, "rundll32.exe powrprof.dll,SetSuspendState 0,1,0"},
		{"linux", Sleep, "systemctl suspend"},
		{"darwin", Sleep, "pmset sleepnow"},
		{"darwin", Restart, "shutdown -r now"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.kind.String(), func(t *testing.T) {
			rec := &osexectest.Recorder{}
			sys := New(Config{Platform: Detect(tt.goos, rec), Runner: rec})

			if err := sys.Power(context.Background(), tt.kind); err != nil {
				t.Fatalf("Power: %v", err)
			}
			if got := rec.Lines(); !slices.Equal(got, []string{tt.want}) {
				t.Fatalf("calls = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPowerUnsupported(t *testing.T) {
	rec := &osexectest.Recorder{}
	sys := New(Config{Platform: Detect("plan9", rec), Runner: rec})

	if err := sys.Power(context.Background(), Shutdown); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
	if len(rec.Calls) != 0 {
		t.Fatalf("unexpected calls %v", rec.Lines())
	}
}

func TestLaunch(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_ = afero.WriteFile(fsys, "/usr/share/applications/firefox.desktop", nil, 0o644)
	_ = afero.WriteFile(fsys, "/opt/bin/tool", nil, 0o755)

	rec := &osexectest.Recorder{}
	sys := New(Config{Platform: Detect("linux", rec), Runner: rec, FS: fsys})
	ctx := context.Background()

	if err := sys.Launch(ctx, "/usr/share/applications/firefox.desktop"); err != nil {
		t.Fatalf("Launch desktop: %v", err)
	}
	if err := sys.Launch(ctx, "/opt/bin/tool"); err != nil {
		t.Fatalf("Launch binary: %v", err)
	}
	if err := sys.Launch(ctx, "/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Launch missing err = %v, want ErrNotFound", err)
	}

	want := []string{"gio launch /usr/share/applications/firefox.desktop", "/opt/bin/tool"}
	if got := rec.Lines(); !slices.Equal(got, want) {
		t.Fatalf("calls = %q, want %q", got, want)
	}
}

func TestDetectProbesVolumeTool(t *testing.T) {
	if p := Detect("linux", &osexectest.Recorder{}); p.Volume != nil {
		t.Errorf("linux without pactl has a volume backend")
	}
	if p := Detect("linux", &osexectest.Recorder{Tools: map[string]bool{"pactl": true}}); p.Volume == nil {
		t.Errorf("linux with pactl has no volume backend")
	}
	if p := Detect("windows", &osexectest.Recorder{}); p.Volume == nil {
		t.Errorf("windows has no volume backend")
	}
}
