package confirm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"voxd/internal/dispatch"
	"voxd/internal/osexec"
)

// Dialog shows a native modal question box through the platform's
// scripting tool.
type Dialog struct {
	mu   sync.Mutex
	goos string
	run  osexec.Runner
	log  *slog.Logger
}

func NewDialog(goos string, run osexec.Runner, logger *slog.Logger) *Dialog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dialog{goos: goos, run: run, log: logger}
}

// Supported reports whether the platform has a dialog tool.
func (d *Dialog) Supported() bool {
	tool := map[string]string{"linux": "zenity", "darwin": "osascript", "windows": "powershell"}[d.goos]
	if tool == "" {
		return false
	}
	_, err := d.run.LookPath(tool)
	return err == nil
}

func (d *Dialog) Confirm(ctx context.Context, req dispatch.Request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.goos {
	case "linux":
		// zenity exits 0 on Yes and 1 on No or close.
		err := d.run.Run(ctx, "zenity", "--question", "--title", req.Title, "--text", req.Message)
		return err == nil

	case "darwin":
		script := fmt.Sprintf(`display dialog "%s" with title "%s" buttons {"No", "Yes"} default button "No"`,
			appleQuote(req.Message), appleQuote(req.Title))
		out, err := d.run.Output(ctx, "osascript", "-e", script)
		if err != nil {
			return false
		}
		return strings.Contains(string(out), "button returned:Yes")

	case "windows":
		script := fmt.Sprintf(
			"Add-Type -AssemblyName PresentationFramework; [System.Windows.MessageBox]::Show('%s', '%s', 'YesNo')",
			psQuote(req.Message), psQuote(req.Title))
		out, err := d.run.Output(ctx, "powershell", "-NoProfile", "-Command", script)
		if err != nil {
			return false
		}
		return strings.TrimSpace(string(out)) == "Yes"

	default:
		d.log.Warn("No confirmation dialog on this OS, declining", "os", d.goos, "title", req.Title)
		return false
	}
}

func appleQuote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
