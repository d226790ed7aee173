package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func load(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	fs := pflag.NewFlagSet("voxd", pflag.ContinueOnError)
	Flags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return Load(fs)
}

func TestDefaults(t *testing.T) {
	c, err := load(t)
	if err != nil {
		t.Fatal(err)
	}
	if c.Input != InputMic || c.Confirm != ConfirmDialog || c.VolumeStep != 0.1 || c.Log != "info" {
		t.Errorf("defaults = %+v", c)
	}
}

func TestLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxd.toml")
	data := `
input = "stdin"
confirm = "console"
volume_step = 0.05

[apps]
extra_dirs = ["/opt/apps"]

[apps.aliases]
editor = "/usr/bin/vim"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("VOXD_CONFIRM", "none")

	c, err := load(t, "--config", path, "--volume_step", "0.2")
	if err != nil {
		t.Fatal(err)
	}

	if c.Input != "stdin" {
		t.Errorf("input = %q, want from file", c.Input)
	}
	if c.Confirm != ConfirmNone {
		t.Errorf("confirm = %q, want env override", c.Confirm)
	}
	if c.VolumeStep != 0.2 {
		t.Errorf("volume_step = %v, want flag override", c.VolumeStep)
	}
	if c.Apps.Aliases["editor"] != "/usr/bin/vim" || len(c.Apps.ExtraDirs) != 1 {
		t.Errorf("apps = %+v", c.Apps)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad log level", []string{"--log", "verbose"}},
		{"bad input", []string{"--input", "telepathy"}},
		{"bad confirm", []string{"--confirm", "maybe"}},
		{"replay without files", []string{"--input", "replay"}},
		{"zero step", []string{"--volume_step", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
