package dispatch

import (
	"strings"
	"testing"
)

// The verb order is part of the contract: it decides which command wins
// when several could match.
func TestDefaultCommandOrder(t *testing.T) {
	want := []string{"open", "volume up", "volume down", "mute", "shutdown", "restart", "sleep"}

	cmds := DefaultCommands()
	if len(cmds) != len(want) {
		t.Fatalf("got %d commands, want %d", len(cmds), len(want))
	}
	for i, c := range cmds {
		if c.Verb != want[i] {
			t.Errorf("command %d = %q, want %q", i, c.Verb, want[i])
		}
	}
	if err := validateCommands(cmds); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
}

func TestDefaultConfirmationFlags(t *testing.T) {
	for _, c := range DefaultCommands() {
		destructive := c.Action == ActionShutdown || c.Action == ActionRestart
		if c.RequiresConfirmation() != destructive {
			t.Errorf("%q: RequiresConfirmation = %v", c.Verb, c.RequiresConfirmation())
		}
		if c.RequiresArgument != (c.Action == ActionOpen) {
			t.Errorf("%q: RequiresArgument = %v", c.Verb, c.RequiresArgument)
		}
	}
}

func TestValidateCommands(t *testing.T) {
	tests := []struct {
		name    string
		cmds    []Command
		wantErr string
	}{
		{"empty verb", []Command{{Verb: ""}}, "empty verb"},
		{"uppercase", []Command{{Verb: "Open"}}, "lowercase"},
		{"duplicate", []Command{{Verb: "mute"}, {Verb: "mute"}}, "shadowed"},
		{"shadowed", []Command{{Verb: "open"}, {Verb: "open file"}}, "shadowed"},
		{"longer first is fine", []Command{{Verb: "open file"}, {Verb: "open"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCommands(tt.cmds)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFirstMatchWins(t *testing.T) {
	cmds := []Command{
		{Verb: "open file", Action: ActionSleep},
		{Verb: "open", Action: ActionOpen},
	}

	c, ok := match(cmds, "open file manager")
	if !ok || c.Verb != "open file" {
		t.Fatalf("match = %q, %v", c.Verb, ok)
	}
	c, ok = match(cmds, "open firefox")
	if !ok || c.Verb != "open" {
		t.Fatalf("match = %q, %v", c.Verb, ok)
	}
}

func TestNormalize(t *testing.T) {
	n := newNormalizer([]string{"hey", "hey windows", " Hey, Windows "})

	tests := []struct {
		in       string
		want     string
		wantWoke bool
	}{
		{"Hey Windows open chrome", "open chrome", true},
		{"hey, windows mute", "mute", true},
		{"hey mute", "mute", true},
		{"VOLUME UP", "volume up", false},
		{"  sleep  ", "sleep", false},
	}
	for _, tt := range tests {
		got, woke := n.normalize(tt.in)
		if got != tt.want || woke != tt.wantWoke {
			t.Errorf("normalize(%q) = %q, %v; want %q, %v", tt.in, got, woke, tt.want, tt.wantWoke)
		}
	}
}
