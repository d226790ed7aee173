package confirm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"voxd/internal/dispatch"
	"voxd/internal/osexec/osexectest"
)

var shutdownReq = dispatch.Request{Title: "Shutdown Confirmation", Message: "Are you sure you want to shut down?"}

func TestConsole(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		c := NewConsole(bufio.NewReader(strings.NewReader(tt.input)), &out)

		if got := c.Confirm(context.Background(), shutdownReq); got != tt.want {
			t.Errorf("input %q: got %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Are you sure you want to shut down? [y/N]") {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestConsoleCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	c := NewConsole(bufio.NewReader(pr), io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if c.Confirm(ctx, shutdownReq) {
		t.Fatal("cancelled prompt answered yes")
	}
}

func TestDialog(t *testing.T) {
	tests := []struct {
		name string
		goos string
		rec  *osexectest.Recorder
		want bool
	}{
		{
			name: "linux yes",
			goos: "linux",
			rec:  &osexectest.Recorder{},
			want: true,
		},
		{
			name: "linux no",
			goos: "linux",
			rec: &osexectest.Recorder{Fail: map[string]error{
				"zenity --question --title Shutdown Confirmation --text Are you sure you want to shut down?": errors.New("exit status 1"),
			}},
			want: false,
		},
		{
			name: "darwin yes",
			goos: "darwin",
			rec: (&osexectest.Recorder{}).Set(
				`osascript -e display dialog "Are you sure you want to shut down?" with title "Shutdown Confirmation" buttons {"No", "Yes"} default button "No"`,
				"button returned:Yes\n"),
			want: true,
		},
		{
			name: "windows no",
			goos: "windows",
			rec: (&osexectest.Recorder{}).Set(
				"powershell -NoProfile -Command Add-Type -AssemblyName PresentationFramework; [System.Windows.MessageBox]::Show('Are you sure you want to shut down?', 'Shutdown Confirmation', 'YesNo')",
				"No\r\n"),
			want: false,
		},
		{
			name: "unknown os declines",
			goos: "plan9",
			rec:  &osexectest.Recorder{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDialog(tt.goos, tt.rec, nil)
			if got := d.Confirm(context.Background(), shutdownReq); got != tt.want {
				t.Fatalf("Confirm = %v, want %v (calls %q)", got, tt.want, tt.rec.Lines())
			}
		})
	}
}

func TestSpoken(t *testing.T) {
	var spoken []string
	s := Spoken{
		Speak: func(text string) error {
			spoken = append(spoken, text)
			return errors.New("no audio")
		},
		Next: dispatch.ConfirmFunc(func(context.Context, dispatch.Request) bool { return true }),
	}

	if !s.Confirm(context.Background(), shutdownReq) {
		t.Fatal("Spoken did not delegate")
	}
	if len(spoken) != 1 || spoken[0] != shutdownReq.Message {
		t.Fatalf("spoken = %q", spoken)
	}
}

func TestDialogSupported(t *testing.T) {
	if NewDialog("linux", &osexectest.Recorder{}, nil).Supported() {
		t.Error("linux without zenity reported supported")
	}
	if !NewDialog("linux", &osexectest.Recorder{Tools: map[string]bool{"zenity": true}}, nil).Supported() {
		t.Error("linux with zenity reported unsupported")
	}
}
