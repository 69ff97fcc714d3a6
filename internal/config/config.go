// Package config loads albumtier settings.
// Precedence: defaults, then ~/.albumtier/config.yaml, then ALBUMTIER_*
// environment variables. Command-line flags are applied on top by cmd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/abelbrown/albumtier/internal/scoring"
)

// Defaults.
const (
	DefaultMinTracks = 4
	DefaultLogLevel  = "info"
)

// Validation errors.
var (
	ErrInvalidMinTracks = errors.New("min_tracks must be at least 1")
	ErrInvalidLogLevel  = errors.New("log_level must be one of debug, info, warn, error")
	ErrInvalidClamp     = errors.New("clamp_min must be below clamp_max")
)

// Config is the persistent application configuration.
type Config struct {
	// Fetch
	Playlist  string `koanf:"playlist"` // default playlist link for rank
	MinTracks int    `koanf:"min_tracks"`

	// Scoring. Thresholds is the raw percentile -> score dict, parsed by Resolve.
	Thresholds   string  `koanf:"thresholds"`
	ClampMin     float64 `koanf:"clamp_min"`
	ClampMax     float64 `koanf:"clamp_max"`
	QuarterRound bool    `koanf:"quarter_round"`
	Interpolate  bool    `koanf:"interpolate"`

	// Files
	DataDir     string `koanf:"data_dir"`
	DBPath      string `koanf:"db_path"`
	MetricsFile string `koanf:"metrics_file"` // empty disables metrics export

	LogLevel string `koanf:"log_level"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	dir := DefaultDataDir()
	return &Config{
		MinTracks:    DefaultMinTracks,
		ClampMin:     scoring.DefaultClampMin,
		ClampMax:     scoring.DefaultClampMax,
		QuarterRound: true,
		Interpolate:  false,
		DataDir:      dir,
		DBPath:       filepath.Join(dir, "albumtier.db"),
		LogLevel:     DefaultLogLevel,
	}
}

// DefaultDataDir is ~/.albumtier, or .albumtier when there is no home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".albumtier"
	}
	return filepath.Join(home, ".albumtier")
}

// DefaultPath returns the config file location, honouring ALBUMTIER_CONFIG.
func DefaultPath() string {
	if p := os.Getenv("ALBUMTIER_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load reads configuration from an optional YAML file and the environment.
// A missing file is not an error; a malformed one is. The returned slice
// holds validation problems and is empty when the config is usable.
func Load(path string) (*Config, []error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
				return nil, []error{fmt.Errorf("load config file %s: %w", path, err)}
			}
		} else if !os.IsNotExist(err) {
			return nil, []error{fmt.Errorf("stat config file %s: %w", path, err)}
		}
	}

	def := DefaultConfig()
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		Playlist:    getEnvOrKoanf("ALBUMTIER_PLAYLIST", k, "playlist", def.Playlist),
		Thresholds:  getEnvOrKoanf("ALBUMTIER_THRESHOLDS", k, "thresholds", def.Thresholds),
		DataDir:     getEnvOrKoanf("ALBUMTIER_DATA_DIR", k, "data_dir", def.DataDir),
		MetricsFile: getEnvOrKoanf("ALBUMTIER_METRICS_FILE", k, "metrics_file", def.MetricsFile),
		LogLevel:    strings.ToLower(getEnvOrKoanf("ALBUMTIER_LOG_LEVEL", k, "log_level", def.LogLevel)),
	}
	if v := k.Get("thresholds"); v != nil && os.Getenv("ALBUMTIER_THRESHOLDS") == "" {
		if _, ok := v.(string); !ok {
			// Resolve reports anything that still does not parse
			cfg.Thresholds = thresholdsText(path, v)
		}
	}

	// db_path follows data_dir unless set explicitly
	cfg.DBPath = getEnvOrKoanf("ALBUMTIER_DB", k, "db_path", filepath.Join(cfg.DataDir, "albumtier.db"))

	var err error
	cfg.MinTracks, err = getEnvIntOrKoanf("ALBUMTIER_MIN_TRACKS", k, "min_tracks", def.MinTracks)
	collect(err)
	cfg.ClampMin, err = getEnvFloatOrKoanf("ALBUMTIER_CLAMP_MIN", k, "clamp_min", def.ClampMin)
	collect(err)
	cfg.ClampMax, err = getEnvFloatOrKoanf("ALBUMTIER_CLAMP_MAX", k, "clamp_max", def.ClampMax)
	collect(err)
	cfg.QuarterRound, err = getEnvBoolOrKoanf("ALBUMTIER_QUARTER_ROUND", k, "quarter_round", def.QuarterRound)
	collect(err)
	cfg.Interpolate, err = getEnvBoolOrKoanf("ALBUMTIER_INTERPOLATE", k, "interpolate", def.Interpolate)
	collect(err)

	errs = append(errs, cfg.Validate()...)
	return cfg, errs
}

// Validate checks settings that cannot be repaired at the boundary.
// A bad clamp range is not reported here; Resolve falls back instead.
func (c *Config) Validate() []error {
	var errs []error
	if c.MinTracks < 1 {
		errs = append(errs, fmt.Errorf("%w (got %d)", ErrInvalidMinTracks, c.MinTracks))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w (got %q)", ErrInvalidLogLevel, c.LogLevel))
	}
	return errs
}

// Resolve builds the score resolver. Unparseable thresholds fall back to
// the default set and a degenerate clamp range to 6.0/10.0; each fallback
// is reported in warnings and the session continues.
func (c *Config) Resolve() (scoring.Resolver, []error) {
	var warnings []error

	r := scoring.DefaultResolver()
	r.QuarterRound = c.QuarterRound
	r.Interpolate = c.Interpolate

	th, err := scoring.ParseThresholds(c.Thresholds)
	if err != nil {
		warnings = append(warnings, fmt.Errorf("thresholds %q: %w; using defaults", c.Thresholds, err))
	} else {
		r.Thresholds = th
	}

	if c.ClampMin < c.ClampMax {
		r.ClampMin, r.ClampMax = c.ClampMin, c.ClampMax
	} else {
		warnings = append(warnings, fmt.Errorf("%w (got %g >= %g); using %g/%g",
			ErrInvalidClamp, c.ClampMin, c.ClampMax, scoring.DefaultClampMin, scoring.DefaultClampMax))
	}
	return r, warnings
}

// thresholdsText re-encodes a thresholds block written as a YAML mapping
// into flow text for scoring.ParseThresholds. The koanf value cannot be
// used: it loses key order and splits keys such as 0.9 on the dot.
func thresholdsText(path string, v any) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprint(v)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return fmt.Sprint(v)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Sprint(v)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "thresholds" {
			continue
		}
		node := root.Content[i+1]
		setFlowStyle(node)
		out, err := yaml.Marshal(node)
		if err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimSpace(string(out))
	}
	return fmt.Sprint(v)
}

func setFlowStyle(n *yaml.Node) {
	n.Style |= yaml.FlowStyle
	for _, c := range n.Content {
		if c.Kind == yaml.MappingNode || c.Kind == yaml.SequenceNode {
			setFlowStyle(c)
		}
	}
}

// EventsPath is the JSONL event log location.
func (c *Config) EventsPath() string {
	return filepath.Join(c.DataDir, "events.jsonl")
}

// LogDir is where dated log files are written.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// getEnvOrKoanf returns the environment variable if set, otherwise the
// koanf value if present, otherwise def.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, key, def string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if k.Exists(key) {
		return k.String(key)
	}
	return def
}

func getEnvIntOrKoanf(envKey string, k *koanf.Koanf, key string, def int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return def, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if k.Exists(key) {
		return k.Int(key), nil
	}
	return def, nil
}

func getEnvFloatOrKoanf(envKey string, k *koanf.Koanf, key string, def float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return def, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if k.Exists(key) {
		return k.Float64(key), nil
	}
	return def, nil
}

func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, key string, def bool) (bool, error) {
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return def, fmt.Errorf("%s must be a boolean, got %q", envKey, val)
	}
	if k.Exists(key) {
		return k.Bool(key), nil
	}
	return def, nil
}
