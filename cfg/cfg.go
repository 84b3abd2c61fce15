// Package cfg loads runtime settings for the transit CLI and any
// embedding service. A YAML file is the primary source; environment
// variables override it, so containerized deployments can tune single
// values without shipping a file.
package cfg

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orbitalml/transit/contract"
	"github.com/orbitalml/transit/pkg/errors"
)

// Env variable names.
const (
	EnvConfigFile   = "TRANSIT_CONFIG_FILE"
	EnvArtifactsDir = "TRANSIT_ARTIFACTS_DIR"
	EnvLogLevel     = "TRANSIT_LOG_LEVEL"
	EnvMetricsAddr  = "TRANSIT_METRICS_ADDR"
	EnvPreload      = "TRANSIT_PRELOAD"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	// ArtifactsDir is the base directory holding one bundle directory per
	// variant.
	ArtifactsDir string `yaml:"artifactsDir"`

	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string `yaml:"logLevel"`

	// MetricsAddr, when set, exposes Prometheus metrics on this address
	// during long-running commands (e.g. ":9090").
	MetricsAddr string `yaml:"metricsAddr"`

	// Preload lists variants to load eagerly at startup. Empty means load
	// on first use.
	Preload []string `yaml:"preload"`
}

func defaults() Settings {
	return Settings{
		ArtifactsDir: "artifacts",
		LogLevel:     "info",
	}
}

// Load resolves settings from the given YAML path (or TRANSIT_CONFIG_FILE
// when empty), then applies environment overrides. A missing file is fine;
// a malformed one is not.
func Load(path string) (Settings, error) {
	s := defaults()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Settings{}, errors.Wrapf(err, "transit: reading config %s", path)
			}
		} else if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, errors.Wrapf(err, "transit: parsing config %s", path)
		}
	}

	applyEnv(&s)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func applyEnv(s *Settings) {
	if v := os.Getenv(EnvArtifactsDir); v != "" {
		s.ArtifactsDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		s.MetricsAddr = v
	}
	if v := os.Getenv(EnvPreload); v != "" {
		s.Preload = splitList(v)
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects settings the process cannot start with.
func (s Settings) Validate() error {
	if s.ArtifactsDir == "" {
		return errors.New("transit: artifactsDir must not be empty")
	}
	for _, p := range s.Preload {
		v, err := contract.ParseVariant(p)
		if err != nil {
			return err
		}
		if v == contract.Auto {
			return errors.NewInputError("preload entries must name a concrete variant").
				WithValues([]string{p}, nil).Err()
		}
	}
	return nil
}

// PreloadVariants returns the parsed preload list.
func (s Settings) PreloadVariants() []contract.Variant {
	out := make([]contract.Variant, 0, len(s.Preload))
	for _, p := range s.Preload {
		v, err := contract.ParseVariant(p)
		if err != nil || v == contract.Auto {
			continue // Validate already rejected these
		}
		out = append(out, v)
	}
	return out
}
