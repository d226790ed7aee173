package actuator

import (
	"path/filepath"
	"strings"

	"voxd/internal/osexec"
)

// Platform bundles the backends for one OS. It is chosen once at startup by
// Detect.
type Platform struct {
	Name string
	// Volume is nil when no backend is available.
	Volume Volume
	Power  map[PowerKind][]string
	Launch func(path string) []string
}

func (p Platform) launchArgv(path string) []string {
	if p.Launch == nil {
		return []string{path}
	}
	return p.Launch(path)
}

// Detect selects the backends for goos, probing run for the volume tool.
func Detect(goos string, run osexec.Runner) Platform {
	switch goos {
	case "linux":
		p := Platform{
			Name: goos,
			Power: map[PowerKind][]string{
				Shutdown: {"systemctl", "poweroff"},
				Restart:  {"systemctl", "reboot"},
				Sleep:    {"systemctl", "suspend"},
			},
			Launch: linuxLaunch,
		}
		if _, err := run.LookPath("pactl"); err == nil {
			p.Volume = &Pactl{Runner: run}
		}
		return p

	case "darwin":
		p := Platform{
			Name: goos,
			Power: map[PowerKind][]string{
				Shutdown: {"shutdown", "-h", "now"},
				Restart:  {"shutdown", "-r", "now"},
				Sleep:    {"pmset", "sleepnow"},
			},
			Launch: func(path string) []string { return []string{"open", path} },
		}
		if _, err := run.LookPath("osascript"); err == nil {
			p.Volume = &AppleScript{Runner: run}
		}
		return p

	case "windows":
		return Platform{
			Name:   goos,
			Volume: &CoreAudio{},
			Power: map[PowerKind][]string{
				Shutdown: {"shutdown", "/s", "/t", "1"},
				Restart:  {"shutdown", "/r", "/t", "1"},
				Sleep:    {"rundll32.exe", "powrprof.dll,SetSuspendState", "0,1,0"},
			},
			// start resolves .lnk shortcuts; the empty string is the window title.
			Launch: func(path string) []string { return []string{"cmd", "/c", "start", "", path} },
		}

	default:
		return Platform{Name: goos}
	}
}

func linuxLaunch(path string) []string {
	if strings.EqualFold(filepath.Ext(path), ".desktop") {
		return []string{"gio", "launch", path}
	}
	return []string{path}
}
