package apps

import (
	"path/filepath"
	"strings"
)

type layout struct {
	exts  map[string]bool
	roots func(getenv func(string) string) []string
}

func layoutFor(goos string) layout {
	switch goos {
	case "windows":
		return layout{exts: set(".lnk", ".exe"), roots: windowsRoots}
	case "linux", "freebsd", "openbsd", "netbsd":
		return layout{exts: set(".desktop", ".appimage"), roots: xdgRoots}
	case "darwin":
		return layout{exts: set(".app"), roots: darwinRoots}
	default:
		return layout{exts: set(), roots: func(func(string) string) []string { return nil }}
	}
}

// windowsRoots returns the user desktop, public desktop, user start menu and
// system start menu, in that order. A root whose variable is unset is
// skipped.
func windowsRoots(getenv func(string) string) []string {
	var roots []string
	add := func(env string, elem ...string) {
		base := getenv(env)
		if base == "" {
			return
		}
		roots = append(roots, filepath.Join(append([]string{base}, elem...)...))
	}

	startMenu := []string{"Microsoft", "Windows", "Start Menu", "Programs"}

	add("USERPROFILE", "Desktop")
	add("PUBLIC", "Desktop")
	add("APPDATA", startMenu...)
	add("PROGRAMDATA", startMenu...)

	return roots
}

// xdgRoots scans system data dirs first so user entries overwrite them.
func xdgRoots(getenv func(string) string) []string {
	var roots []string

	// XDG lists data dirs most important first.
	dirs := strings.Split(getenv("XDG_DATA_DIRS"), string(filepath.ListSeparator))
	for i := len(dirs) - 1; i >= 0; i-- {
		if d := strings.TrimSpace(dirs[i]); d != "" {
			roots = append(roots, filepath.Join(d, "applications"))
		}
	}

	home := getenv("HOME")
	switch dataHome := getenv("XDG_DATA_HOME"); {
	case dataHome != "":
		roots = append(roots, filepath.Join(dataHome, "applications"))
	case home != "":
		roots = append(roots, filepath.Join(home, ".local", "share", "applications"))
	}

	if home != "" {
		roots = append(roots, filepath.Join(home, "Desktop"))
	}

	return roots
}

func darwinRoots(getenv func(string) string) []string {
	roots := []string{"/Applications", "/System/Applications"}
	if home := getenv("HOME"); home != "" {
		roots = append(roots, filepath.Join(home, "Applications"))
	}
	return roots
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
