package actuator

import (
	"context"

	"github.com/itchyny/volume-go"
)

// Mixer is the master-volume surface of github.com/itchyny/volume-go, in
// whole percent.
type Mixer interface {
	GetVolume() (int, error)
	SetVolume(percent int) error
	GetMuted() (bool, error)
	Mute() error
	Unmute() error
}

type systemMixer struct{}

func (systemMixer) GetVolume() (int, error) { return volume.GetVolume() }
func (systemMixer) SetVolume(p int) error { return volume.SetVolume(p) }
func (systemMixer) GetMuted() (bool, error) { return volume.GetMuted() }
func (systemMixer) Mute() error { return volume.Mute() }
func (systemMixer) Unmute() error { return volume.Unmute() }

// CoreAudio drives the Windows default render endpoint.
type CoreAudio struct {
	// Mixer defaults to the system mixer.
	Mixer Mixer
}

func (c *CoreAudio) mixer() Mixer {
	if c.Mixer == nil {
		return systemMixer{}
	}
	return c.Mixer
}

func (c *CoreAudio) Level(context.Context) (float64, error) {
	v, err := c.mixer().GetVolume()
	if err != nil {
		return 0, err
	}
	return float64(v) / 100, nil
}

func (c *CoreAudio) SetLevel(_ context.Context, level float64) error {
	return c.mixer().SetVolume(toPercent(level))
}

func (c *CoreAudio) Muted(context.Context) (bool, error) {
	return c.mixer().GetMuted()
}

func (c *CoreAudio) SetMuted(_ context.Context, muted bool) error {
	if muted {
		return c.mixer().Mute()
	}
	return c.mixer().Unmute()
}
