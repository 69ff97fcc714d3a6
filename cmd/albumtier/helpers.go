package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abelbrown/albumtier/internal/config"
	"github.com/abelbrown/albumtier/internal/logging"
	"github.com/abelbrown/albumtier/internal/metrics"
	"github.com/abelbrown/albumtier/internal/otel"
	"github.com/abelbrown/albumtier/internal/scoring"
	"github.com/abelbrown/albumtier/internal/store"
)

// fatalf prints to stderr and exits 1.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig loads the config file and environment or exits.
func loadConfig() *config.Config {
	cfg, errs := config.Load(config.DefaultPath())
	if cfg == nil {
		fatalf("%v", errs[0])
	}
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
	return cfg
}

// scoringFlags are the scoring overrides shared by rank and rescore.
type scoringFlags struct {
	fs           *flag.FlagSet
	thresholds   *string
	clampMin     *float64
	clampMax     *float64
	quarterRound *bool
	interpolate  *bool
}

func addScoringFlags(fs *flag.FlagSet) *scoringFlags {
	return &scoringFlags{
		fs:           fs,
		thresholds:   fs.String("thresholds", "", `Percentile -> score dict, e.g. '{"90%": 9.5, "50%": 7.5}'`),
		clampMin:     fs.Float64("clamp-min", scoring.DefaultClampMin, "Lowest possible score"),
		clampMax:     fs.Float64("clamp-max", scoring.DefaultClampMax, "Highest possible score"),
		quarterRound: fs.Bool("quarter-round", true, "Round scores to the nearest 0.25"),
		interpolate:  fs.Bool("interpolate", false, "Interpolate linearly between thresholds"),
	}
}

// apply copies the flags the user actually passed onto cfg, so unset
// flags never shadow the config file or environment.
func (s *scoringFlags) apply(cfg *config.Config) {
	s.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "thresholds":
			cfg.Thresholds = *s.thresholds
		case "clamp-min":
			cfg.ClampMin = *s.clampMin
		case "clamp-max":
			cfg.ClampMax = *s.clampMax
		case "quarter-round":
			cfg.QuarterRound = *s.quarterRound
		case "interpolate":
			cfg.Interpolate = *s.interpolate
		}
	})
}

// startLogging initializes the file logger (or stderr when verbose) and the
// event log. The returned func flushes both.
func startLogging(cfg *config.Config, verbose bool) (*otel.Logger, func()) {
	var err error
	if verbose {
		err = logging.InitWriter(os.Stderr, cfg.LogLevel)
	} else {
		err = logging.Init(cfg.LogDir(), cfg.LogLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}

	events, err := otel.OpenFile(cfg.EventsPath())
	if err != nil {
		logging.Warn("event log disabled", "path", cfg.EventsPath(), "err", err)
		events = otel.NewNullLogger()
	}
	events.SetTrace(os.Getenv("ALBUMTIER_TRACE") != "")
	sys := events.Scope("main", "")
	sys.Info(otel.KindStartup, strings.Join(os.Args, " "))

	return events, func() {
		// Count is the number of events this run wrote before shutdown
		sys.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Count: int(events.Emitted())})
		events.Close()
		logging.Close()
	}
}

// resolver builds the score resolver, reporting every fallback.
func resolver(cfg *config.Config, events *otel.Logger) scoring.Resolver {
	r, warnings := cfg.Resolve()
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %v\n", w)
		logging.Warn("scoring fallback", "err", w)
		events.Scope("score", "").Warn(otel.KindScoreFallback, w.Error())
	}
	return r
}

// openStore opens the session database or exits.
func openStore(cfg *config.Config) *store.Store {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		fatalf("create data directory: %v", err)
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		fatalf("open session store: %v", err)
	}
	return st
}

// writeMetrics exports m when a metrics file is configured.
func writeMetrics(cfg *config.Config, m *metrics.Metrics) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := m.WriteFile(cfg.MetricsFile); err != nil {
		logging.Warn("metrics export failed", "path", cfg.MetricsFile, "err", err)
	}
}
