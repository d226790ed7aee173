package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spf13/afero"

	"voxd/internal/actuator"
	"voxd/internal/apps"
	"voxd/internal/audio"
	"voxd/internal/config"
	"voxd/internal/confirm"
	"voxd/internal/dispatch"
	"voxd/internal/duck"
	"voxd/internal/eventlog"
	"voxd/internal/ipc"
	"voxd/internal/listen"
	"voxd/internal/nlu"
	"voxd/internal/notify"
	"voxd/internal/osexec"
	"voxd/internal/proxy"
	"voxd/internal/tts"
	"voxd/pkg/audioconv"
	"voxd/pkg/stt"
)

func main() {
	os.Exit(daemon())
}

// daemon runs voxd and returns the exit code. Returning instead of exiting
// lets the hub sink flush the final records.
func daemon() int {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	config.Flags(cli.CommandLine)
	cli.Parse()

	godotenv.Load(*envFile)

	cfg, err := config.Load(cli.CommandLine)
	if err != nil {
		fmt.Fprintln(os.Stderr, "voxd:", err)
		return 2
	}

	level := config.LogLevels[cfg.Log]
	var handler log.Handler = tint.NewHandler(os.Stdout, &tint.Options{
		Level: level,
	})

	if cfg.Hub != "" {
		bus, err := eventlog.Dial(cfg.Hub, "voxd")
		if err != nil {
			log.New(handler).Warn("Failed to connect to hub, logging locally", "url", cfg.Hub, "err", err)
		} else {
			async := eventlog.NewAsync(bus.Handler(level), 256)
			defer bus.Close()
			defer async.Close()
			handler = eventlog.Fanout{handler, async}
		}
	}

	logger := log.New(handler)
	log.SetDefault(logger)

	log.Info("Booting up", "input", cfg.Input, "platform", runtime.GOOS)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Stopped", "err", err)
		return 1
	}

	log.Info("Shut down")
	return 0
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	fsys := afero.NewOsFs()
	runner := osexec.Exec{Logger: logger}
	stdin := bufio.NewReader(os.Stdin)

	index := apps.Build(apps.Config{
		FS:        fsys,
		GOOS:      runtime.GOOS,
		Getenv:    os.Getenv,
		ExtraDirs: cfg.Apps.ExtraDirs,
		Aliases:   cfg.Apps.Aliases,
		Logger:    logger,
	})
	log.Info("Indexed applications", "count", index.Len())

	platform := actuator.Detect(runtime.GOOS, runner)
	system := actuator.New(actuator.Config{
		Platform: platform,
		Runner:   runner,
		FS:       fsys,
		Logger:   logger,
	})

	verbs := make([]string, 0, 8)
	for _, c := range dispatch.DefaultCommands() {
		verbs = append(verbs, c.Verb)
	}

	dcfg := dispatch.Config{
		Locator:         index,
		Actuator:        system,
		WakeWords:       cfg.WakeWords,
		RequireWakeWord: cfg.RequireWakeWord,
		VolumeStep:      cfg.VolumeStep,
		Logger:          logger,
	}

	if c := newConfirmer(cfg, runner, stdin, logger); c != nil {
		dcfg.Confirmer = c
	}

	if cfg.NLU {
		rw, err := newRewriter(cfg, verbs, logger)
		if err != nil {
			return err
		}
		dcfg.Rewriter = rw
		log.Debug("Loaded NLU", "model", cfg.NLUModel)
	}

	dispatcher, err := dispatch.New(dcfg)
	if err != nil {
		return fmt.Errorf("build dispatcher: %w", err)
	}

	src, closeSrc, err := newSource(ctx, cfg, verbs, runner, stdin, logger)
	if err != nil {
		return err
	}
	defer closeSrc()

	log.Info("Boot up - successful")

	loop := &listen.Loop{
		Source:      src,
		Interpreter: dispatcher,
		Logger:      logger,
	}
	return loop.Run(ctx)
}

func newConfirmer(cfg config.Config, runner osexec.Runner, stdin *bufio.Reader, logger *log.Logger) dispatch.Confirmer {
	var c dispatch.Confirmer

	switch cfg.Confirm {
	case config.ConfirmDialog:
		d := confirm.NewDialog(runtime.GOOS, runner, logger)
		if d.Supported() {
			c = d
		} else {
			log.Warn("No dialog tool found, confirming on the console")
			c = confirm.NewConsole(stdin, os.Stdout)
		}
	case config.ConfirmConsole:
		c = confirm.NewConsole(stdin, os.Stdout)
	case config.ConfirmNone:
		log.Warn("Confirmation disabled, power commands run immediately")
		return nil
	}

	if cfg.Speak {
		c = confirm.Spoken{
			Speak:  tts.Voice{Language: cfg.Language}.Speak,
			Next:   c,
			Logger: logger,
		}
	}
	return c
}

func newRewriter(cfg config.Config, verbs []string, logger *log.Logger) (*nlu.Rewriter, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}

	httpClient, err := proxy.NewClient(cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("dial socks proxy %s: %w", cfg.Proxy, err)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	)

	return nlu.NewRewriter(nlu.Config{
		Client:   client,
		Model:    cfg.NLUModel,
		Commands: verbs,
		Logger:   logger,
	}), nil
}

func newSource(ctx context.Context, cfg config.Config, verbs []string, runner osexec.Runner, stdin *bufio.Reader, logger *log.Logger) (listen.Source, func(), error) {
	if cfg.Input == config.InputStdin {
		log.Info("Reading commands from stdin")
		return &listen.Lines{In: stdin}, func() {}, nil
	}

	whisper, err := stt.NewTranscriber(cfg.Model, stt.Options{
		Language:      cfg.Language,
		InitialPrompt: strings.Join(verbs, ", "),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init whisper: %w", err)
	}
	log.Debug("Loaded whisper", "model", cfg.Model)

	if cfg.Input == config.InputReplay {
		src := &listen.Replay{
			Files:       cfg.Replay,
			Decode:      audioconv.DecodeFile,
			Transcriber: whisper,
		}
		return src, func() { whisper.Close() }, nil
	}

	rec := audio.NewRecorder(audio.DefaultOptions())
	if err := rec.Init(); err != nil {
		whisper.Close()
		return nil, nil, fmt.Errorf("init audio: %w", err)
	}
	log.Debug("Loaded recorder")

	cleanup := func() {
		rec.Close()
		whisper.Close()
	}

	mic := &listen.Mic{
		Recorder:    rec,
		Transcriber: whisper,
		Logger:      logger,
	}
	if cfg.Chime != "" {
		mic.Cue = notify.NewChime(cfg.Chime).Play
	}
	if _, err := runner.LookPath("pactl"); err == nil {
		mic.Duck = duck.NewDucker(runner, []string{"voxd"}, 5)
	}

	if cfg.Input == config.InputMic {
		return mic, cleanup, nil
	}

	socket := cfg.Socket
	if socket == "" {
		socket = ipc.DefaultSocketPath()
	}
	srv, err := ipc.Listen(ctx, socket, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ipc server: %w", err)
	}
	log.Info("Waiting for triggers", "socket", socket)

	return &listen.Control{
		Messages: srv.Messages(),
		Capture:  mic,
		Logger:   logger,
	}, cleanup, nil
}
