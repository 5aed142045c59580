// Command eegwolf runs the real-time EEG lateralization pipeline end
// to end: it connects to a serial endpoint (or auto-detects one),
// windows the incoming stream, and appends decision/quality records to
// a CSV log (and, optionally, the console) until interrupted or its
// duration elapses.
//
// Grounded on cmd/direwolf/main.go's pflag-based CLI — the option set
// is eegwolf's own (spec.md §6), but the flag declaration, Usage
// override, and explicit os.Exit code style are the teacher's.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/eegwolf/eegwolf/internal/config"
	"github.com/eegwolf/eegwolf/internal/filter"
	"github.com/eegwolf/eegwolf/internal/scheduler"
	"github.com/eegwolf/eegwolf/internal/sink"
	"github.com/eegwolf/eegwolf/internal/source"
	"github.com/eegwolf/eegwolf/internal/telemetry"
	"github.com/spf13/pflag"
)

// version is set to a release tag by the build process via
// `-ldflags "-X main.version=X"`; "dev" outside a tagged build.
var version = "dev"

// getBuildSettingOrDefault reads one named key out of debug.BuildInfo's
// Settings slice, grounded on src/version.go's helper of the same name.
func getBuildSettingOrDefault(bi *debug.BuildInfo, key, defaultValue string) string {
	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}
	return defaultValue
}

// printVersion reports the release version plus VCS build info, the
// same revision/dirty/build-time shape src/version.go's printVersion
// reports for direwolf, adapted from Samoyed's APRS-equipment-ID
// identity to eegwolf's own.
func printVersion() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Println("eegwolf", version, "(no build info available)")
		return
	}

	buildCommit := getBuildSettingOrDefault(buildInfo, "vcs.revision", "UNKNOWN")
	buildTimeStr := getBuildSettingOrDefault(buildInfo, "vcs.time", "UNKNOWN")
	buildDirtyStr := getBuildSettingOrDefault(buildInfo, "vcs.modified", "INVALID")

	buildDirty, buildDirtyErr := strconv.ParseBool(buildDirtyStr)
	switch {
	case buildDirty:
		buildCommit += "-DIRTY"
	case buildDirtyErr != nil:
		buildCommit += "-UNKNOWNDIRTY"
	}

	fmt.Printf("eegwolf - Version %s (revision %s, built at %s)\n", version, buildCommit, buildTimeStr)
}

const (
	exitOK            = 0
	exitSourceFailure = 1
	exitBadInvocation = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("eegwolf", pflag.ContinueOnError)

	durationSeconds := flags.Float64("duration", 0, "run for this many seconds, then exit cleanly (0 = run until interrupted)")
	configPath := flags.String("config", "", "path to a YAML config file overriding the documented defaults")
	showVersion := flags.Bool("version", false, "print the version and exit")
	logLevel := flags.String("log-level", "info", "log level: debug, info, warn, error")
	console := flags.Bool("console", false, "also write window records to the console log")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "eegwolf - real-time two-channel EEG lateralization pipeline.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: eegwolf [options] [endpoint]\n\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nendpoint overrides serial.port (use \"auto\" to auto-detect).\n")
	}

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitOK
		}
		flags.Usage()
		return exitBadInvocation
	}

	if *showVersion {
		printVersion()
		return exitOK
	}

	if flags.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "eegwolf: at most one positional argument (endpoint) is accepted")
		flags.Usage()
		return exitBadInvocation
	}

	logger := telemetry.New(os.Stderr, *logLevel)

	builder := config.NewBuilder()
	if *configPath != "" {
		if err := builder.LoadFile(*configPath); err != nil {
			logger.Error("failed to load config file", "path", *configPath, "err", err)
			return exitBadInvocation
		}
	}

	if flags.NArg() == 1 {
		builder.WithSerialPort(flags.Arg(0))
	}

	cfg, err := builder.Build()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		return exitBadInvocation
	}

	bank, err := filter.NewBank(filter.BankParams{
		FS:          cfg.Signal.SamplingRateHz,
		NotchFreq:   cfg.Signal.NotchFreqHz,
		NotchQ:      cfg.Signal.NotchQ,
		BandpassLow: cfg.Signal.BandpassLowHz, BandpassHigh: cfg.Signal.BandpassHighHz,
		AlphaLow: cfg.Signal.AlphaLowHz, AlphaHigh: cfg.Signal.AlphaHighHz,
		BetaLow: cfg.Signal.BetaLowHz, BetaHigh: cfg.Signal.BetaHighHz,
		Order: cfg.Signal.FilterOrder,
	})
	if err != nil {
		logger.Error("invalid filter bank configuration", "err", err)
		return exitBadInvocation
	}

	snk, err := buildSink(cfg, *console)
	if err != nil {
		logger.Error("failed to open sink", "err", err)
		return exitBadInvocation
	}

	src := source.New(source.Config{
		Port:                 cfg.Serial.Port,
		BaudRate:             cfg.Serial.BaudRate,
		ReadTimeout:          cfg.ReadTimeout(),
		MaxReconnectAttempts: cfg.Serial.MaxReconnectAttempts,
		ReconnectDelay:       cfg.ReconnectDelay(),
		ADCMax:               cfg.Signal.ADCMax,
	}, source.SerialDialer{}, logger)

	sched := scheduler.New(cfg, src, bank, snk, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	duration := time.Duration(*durationSeconds * float64(time.Second))
	outcome := sched.Run(ctx, duration)

	stats := sched.Stats()
	logger.Info("run finished",
		"reason", outcome.Reason,
		"windows_emitted", stats.WindowsEmitted,
		"packets_received", stats.SourceStats.PacketsReceived,
		"packets_corrupted", stats.SourceStats.PacketsCorrupted,
	)

	if outcome.Kind == scheduler.FatalError {
		return exitSourceFailure
	}
	return exitOK
}

func buildSink(cfg config.Config, console bool) (sink.Sink, error) {
	var sinks []sink.Sink
	if cfg.Logging.EnableCSV {
		csvSink, err := sink.NewCSVSink(cfg.Logging.Filename, cfg.Logging.FlushIntervalRecord)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, csvSink)
	}
	if console {
		sinks = append(sinks, sink.NewConsoleSink(telemetry.New(os.Stdout, "info")))
	}
	if len(sinks) == 0 {
		return sink.NewConsoleSink(telemetry.New(os.Stdout, "info")), nil
	}
	return sink.NewMulti(sinks...), nil
}
