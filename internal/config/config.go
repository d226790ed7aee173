// Package config merges voxd settings from defaults, a config file, VOXD_
// environment variables and command-line flags, in rising priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	InputMic    = "mic"
	InputPTT    = "ptt"
	InputStdin  = "stdin"
	InputReplay = "replay"

	ConfirmDialog  = "dialog"
	ConfirmConsole = "console"
	ConfirmNone    = "none"
)

// LogLevels maps the --log values to slog levels.
var LogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

type Config struct {
	Log             string   `mapstructure:"log"`
	Input           string   `mapstructure:"input"`
	Model           string   `mapstructure:"model"`
	Language        string   `mapstructure:"language"`
	Confirm         string   `mapstructure:"confirm"`
	Speak           bool     `mapstructure:"speak"`
	Chime           string   `mapstructure:"chime"`
	Hub             string   `mapstructure:"hub"`
	Proxy           string   `mapstructure:"proxy"`
	NLU             bool     `mapstructure:"nlu"`
	NLUModel        string   `mapstructure:"nlu_model"`
	VolumeStep      float64  `mapstructure:"volume_step"`
	RequireWakeWord bool     `mapstructure:"require_wake_word"`
	WakeWords       []string `mapstructure:"wake_words"`
	Replay          []string `mapstructure:"replay"`
	Socket          string   `mapstructure:"socket"`
	Apps            Apps     `mapstructure:"apps"`
}

type Apps struct {
	Aliases   map[string]string `mapstructure:"aliases"`
	ExtraDirs []string          `mapstructure:"extra_dirs"`
}

// Flags registers every command-line flag Load understands.
func Flags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "Config file (toml or yaml)")
	fs.StringP("log", "l", "info", "Log level")
	fs.StringP("input", "i", InputMic, "Input source: mic, ptt, stdin or replay")
	fs.StringP("model", "m", "third_party/whisper.cpp/models/ggml-base.en.bin", "Whisper model path")
	fs.String("language", "en", "Recognition language")
	fs.String("confirm", ConfirmDialog, "Confirmation: dialog, console or none")
	fs.Bool("speak", false, "Read confirmation prompts aloud")
	fs.String("chime", "", "mp3 played before listening")
	fs.StringP("hub", "u", "", "Websocket hub receiving log events")
	fs.StringP("proxy", "p", "", "Socks proxy address for the NLU client")
	fs.Bool("nlu", false, "Rewrite unmatched utterances with a chat model")
	fs.String("nlu_model", "", "Chat model used by --nlu")
	fs.Float64("volume_step", 0.1, "Volume change per command")
	fs.Bool("require_wake_word", false, "Ignore utterances without a wake word")
	fs.StringSlice("wake_words", nil, "Wake words, replacing the defaults")
	fs.StringSlice("replay", nil, "Audio files transcribed by --input replay")
	fs.String("socket", "", "Control socket path")
}

// Load reads configuration. fs must have been prepared with Flags and parsed.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault("log", "info")
	v.SetDefault("input", InputMic)
	v.SetDefault("confirm", ConfirmDialog)
	v.SetDefault("language", "en")
	v.SetDefault("volume_step", 0.1)

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix("VOXD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "voxd"))
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, c.validate()
}

func (c Config) validate() error {
	if _, ok := LogLevels[c.Log]; !ok {
		return fmt.Errorf("unknown log level %q", c.Log)
	}

	switch c.Input {
	case InputMic, InputPTT, InputStdin, InputReplay:
	default:
		return fmt.Errorf("unknown input %q", c.Input)
	}

	switch c.Confirm {
	case ConfirmDialog, ConfirmConsole, ConfirmNone:
	default:
		return fmt.Errorf("unknown confirm mode %q", c.Confirm)
	}

	if c.Input == InputReplay && len(c.Replay) == 0 {
		return errors.New("replay input needs at least one file")
	}
	if c.VolumeStep <= 0 || c.VolumeStep > 1 {
		return fmt.Errorf("volume_step %v out of range (0,1]", c.VolumeStep)
	}
	return nil
}
