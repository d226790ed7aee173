package audio

import (
	"context"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
)

// Options tune utterance endpointing.
type Options struct {
	SilenceRMS float64       // frames above this count as speech
	Silence    time.Duration // trailing silence that ends an utterance
	MaxLength  time.Duration // hard cap on one recording
	// WaitForSpeech caps how long Record waits for speech to begin. Zero
	// waits up to MaxLength.
	WaitForSpeech time.Duration
}

func DefaultOptions() Options {
	return Options{
		SilenceRMS: 0.015,
		Silence:    600 * time.Millisecond,
		MaxLength:  10 * time.Second,
	}
}

type Recorder struct {
	opt Options
}

func NewRecorder(opt Options) *Recorder { return &Recorder{opt: opt} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record captures one utterance from the default input device: it starts
// keeping audio at the first loud frame and stops after the configured
// trailing silence. It returns nil samples when nobody spoke.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	var (
		speaking      bool
		silenceFrames int
	)

	frameDur := time.Second * frameSize / SampleRate
	maxFrames := int(r.opt.MaxLength / frameDur)
	waitFrames := maxFrames
	if r.opt.WaitForSpeech > 0 {
		waitFrames = int(r.opt.WaitForSpeech / frameDur)
	}
	endFrames := int(r.opt.Silence / frameDur)

	for i := 0; i < maxFrames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}

		if frameRMS(buf) > r.opt.SilenceRMS {
			speaking = true
			silenceFrames = 0
			out = append(out, buf...)
			continue
		}

		if !speaking {
			if i >= waitFrames {
				return nil, nil
			}
			continue
		}

		silenceFrames++
		out = append(out, buf...)
		if silenceFrames >= endFrames {
			break
		}
	}

	if !speaking {
		return nil, nil
	}
	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
