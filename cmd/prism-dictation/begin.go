package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prismworks/prism-dictation/internal/audio"
	"github.com/prismworks/prism-dictation/internal/config"
	"github.com/prismworks/prism-dictation/internal/control"
	"github.com/prismworks/prism-dictation/internal/history"
	"github.com/prismworks/prism-dictation/internal/output"
	"github.com/prismworks/prism-dictation/internal/recognizer"
	"github.com/prismworks/prism-dictation/internal/session"
	"github.com/prismworks/prism-dictation/internal/textproc"
)

var beginFlags struct {
	modelDir        string
	timeout         float64
	idleTime        float64
	delayExit       float64
	output          string
	inputTool       string
	inputMethod     string
	pulseDevice     string
	sampleRate      int
	numbersAsDigits bool
	numbersSep      bool
	numbersMinValue int
	numbersNoSuffix bool
	fullSentence    bool
	punctuate       float64
	continuous      bool
	deferOutput     bool
	suspendOnStart  bool
	verbose         bool
}

var beginCmd = &cobra.Command{
	Use:   "begin",
	Short: "Start a dictation session and listen until ended",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fail(exitFailure, err)
		}
		applyBeginFlags(cmd, &cfg)
		runBegin(cfg)
	},
}

func init() {
	f := beginCmd.Flags()
	f.StringVar(&beginFlags.modelDir, "vosk-model-dir", "", "path to the speech model directory")
	f.Float64Var(&beginFlags.timeout, "timeout", 0, "end the session after this many seconds of silence (0 disables)")
	f.Float64Var(&beginFlags.idleTime, "idle-time", 0, "sleep between polls, in seconds (lower is more responsive)")
	f.Float64Var(&beginFlags.delayExit, "delay-exit", 0, "keep processing audio this many seconds after end is requested")
	f.StringVar(&beginFlags.output, "output", "", "output mode: simulate or stdout")
	f.StringVar(&beginFlags.inputTool, "simulate-input-tool", "", "keystroke tool: xdotool, ydotool, dotool, dotoolc, wtype, stdout, exec")
	f.StringVar(&beginFlags.inputMethod, "input", "", "audio capture method: parec, sox or exec")
	f.StringVar(&beginFlags.pulseDevice, "pulse-device-name", "", "pulseaudio device to record from")
	f.IntVar(&beginFlags.sampleRate, "sample-rate", 0, "audio sample rate in Hz")
	f.BoolVar(&beginFlags.numbersAsDigits, "numbers-as-digits", false, "convert spoken numbers to digits")
	f.BoolVar(&beginFlags.numbersSep, "numbers-use-separator", false, "group digits with commas")
	f.IntVar(&beginFlags.numbersMinValue, "numbers-min-value", 0, "keep numbers below this value as words")
	f.BoolVar(&beginFlags.numbersNoSuffix, "numbers-no-suffix", false, "leave ordinals and plurals as words")
	f.BoolVar(&beginFlags.fullSentence, "full-sentence", false, "capitalize and add a full stop to each utterance")
	f.Float64Var(&beginFlags.punctuate, "punctuate-from-previous-timeout", 0, "join utterances this close together with a comma")
	f.BoolVar(&beginFlags.continuous, "continuous", false, "type each utterance independently instead of accumulating")
	f.BoolVar(&beginFlags.deferOutput, "defer-output", false, "type nothing until the session ends")
	f.BoolVar(&beginFlags.suspendOnStart, "suspend-on-start", false, "start suspended; resume begins recording")
	f.BoolVar(&beginFlags.verbose, "verbose", false, "enable debug logging")
}

// applyBeginFlags layers explicitly-set flags over the loaded config.
func applyBeginFlags(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("vosk-model-dir") {
		cfg.Model.Dir = beginFlags.modelDir
	}
	if set("timeout") {
		cfg.Session.Timeout = beginFlags.timeout
	}
	if set("idle-time") {
		cfg.Session.IdleTime = beginFlags.idleTime
	}
	if set("delay-exit") {
		cfg.Session.DelayExit = beginFlags.delayExit
	}
	if set("output") {
		cfg.Output.Mode = beginFlags.output
	}
	if set("simulate-input-tool") {
		cfg.Output.Tool = beginFlags.inputTool
	}
	if set("input") {
		cfg.Audio.Method = beginFlags.inputMethod
	}
	if set("pulse-device-name") {
		cfg.Audio.PulseDevice = beginFlags.pulseDevice
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = beginFlags.sampleRate
	}
	if set("numbers-as-digits") {
		cfg.Numbers.AsDigits = beginFlags.numbersAsDigits
	}
	if set("numbers-use-separator") {
		cfg.Numbers.UseSeparator = beginFlags.numbersSep
	}
	if set("numbers-min-value") {
		v := beginFlags.numbersMinValue
		cfg.Numbers.MinValue = &v
	}
	if set("numbers-no-suffix") {
		cfg.Numbers.NoSuffix = beginFlags.numbersNoSuffix
	}
	if set("full-sentence") {
		cfg.Text.FullSentence = beginFlags.fullSentence
	}
	if set("punctuate-from-previous-timeout") {
		cfg.Text.PunctuateFromPrevious = beginFlags.punctuate
	}
	if set("continuous") {
		cfg.Session.Continuous = beginFlags.continuous
	}
	if set("defer-output") {
		cfg.Session.DeferOutput = beginFlags.deferOutput
	}
	if set("suspend-on-start") {
		cfg.Session.SuspendOnStart = beginFlags.suspendOnStart
	}
	if set("verbose") && beginFlags.verbose {
		cfg.LogLevel = "debug"
	}
}

func runBegin(cfg config.Config) {
	log := newLogger(cfg.LogLevel)

	srv, err := control.NewServer(cfg.Socket.Path, log)
	if err != nil {
		if err == control.ErrSocketBusy {
			fail(exitAlreadyActive, session.ErrAlreadyActive)
		}
		fail(exitFailure, err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := history.Open(ctx, cfg.History, log)
	if err != nil {
		fail(exitFailure, err)
	}
	defer store.Close()

	rec, err := recognizer.New(cfg.Recognizer, cfg.Model, cfg.Audio.SampleRate, log)
	if err != nil {
		fail(exitFailure, err)
	}

	source, err := audio.NewSource(cfg.Audio, log)
	if err != nil {
		fail(exitFailure, err)
	}
	sink, err := output.New(cfg.Output, log)
	if err != nil {
		fail(exitFailure, err)
	}
	pipe, err := textproc.New(cfg.Text, cfg.Numbers, log)
	if err != nil {
		fail(exitFailure, err)
	}

	var dump *audio.Dump
	if cfg.Audio.DumpWAVPath != "" {
		dump, err = audio.NewDump(cfg.Audio.DumpWAVPath, cfg.Audio.SampleRate)
		if err != nil {
			log.Warn("wav dump disabled", slog.String("error", err.Error()))
		}
	}

	ctl := session.New(cfg, session.Deps{
		Source: source,
		Rec:    rec,
		Pipe:   pipe,
		Sink:   sink,
		Store:  store,
		Dump:   dump,
	}, log)

	if err := ctl.Run(ctx, srv.Requests()); err != nil {
		log.Error("session failed", slog.String("error", err.Error()))
		srv.Close()
		fail(exitFailure, err)
	}
}
