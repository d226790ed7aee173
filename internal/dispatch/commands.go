package dispatch

import (
	"fmt"
	"strings"
)

type Action int

const (
	ActionOpen Action = iota
	ActionVolumeUp
	ActionVolumeDown
	ActionMute
	ActionShutdown
	ActionRestart
	ActionSleep
)

func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "open"
	case ActionVolumeUp:
		return "volume_up"
	case ActionVolumeDown:
		return "volume_down"
	case ActionMute:
		return "mute"
	case ActionShutdown:
		return "shutdown"
	case ActionRestart:
		return "restart"
	case ActionSleep:
		return "sleep"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Request is what the confirmation prompt shows.
type Request struct {
	Title   string
	Message string
}

// Command binds a spoken verb to an action. The first command whose verb
// prefixes the normalized text wins, so table order is priority order.
type Command struct {
	Verb   string
	Action Action
	// RequiresArgument commands take the rest of the utterance as input.
	RequiresArgument bool
	// Confirmation, when set, gates the action behind the Confirmer.
	Confirmation *Request
}

func (c Command) RequiresConfirmation() bool { return c.Confirmation != nil }

func DefaultCommands() []Command {
	return []Command{
		{Verb: "open", Action: ActionOpen, RequiresArgument: true},
		{Verb: "volume up", Action: ActionVolumeUp},
		{Verb: "volume down", Action: ActionVolumeDown},
		{Verb: "mute", Action: ActionMute},
		{
			Verb:   "shutdown",
			Action: ActionShutdown,
			Confirmation: &Request{
				Title:   "Shutdown Confirmation",
				Message: "Are you sure you want to shut down?",
			},
		},
		{
			Verb:   "restart",
			Action: ActionRestart,
			Confirmation: &Request{
				Title:   "Restart Confirmation",
				Message: "Are you sure you want to restart?",
			},
		},
		{Verb: "sleep", Action: ActionSleep},
	}
}

// validateCommands rejects empty, non-normalized and duplicate verbs, and
// verbs that an earlier verb shadows.
func validateCommands(cmds []Command) error {
	for i, c := range cmds {
		if c.Verb == "" {
			return fmt.Errorf("command %d: empty verb", i)
		}
		if c.Verb != strings.ToLower(strings.TrimSpace(c.Verb)) {
			return fmt.Errorf("command %q: verb must be lowercase and trimmed", c.Verb)
		}
		for _, prev := range cmds[:i] {
			if strings.HasPrefix(c.Verb, prev.Verb) {
				return fmt.Errorf("command %q is shadowed by earlier verb %q", c.Verb, prev.Verb)
			}
		}
	}
	return nil
}

func match(cmds []Command, text string) (Command, bool) {
	for _, c := range cmds {
		if strings.HasPrefix(text, c.Verb) {
			return c, true
		}
	}
	return Command{}, false
}
