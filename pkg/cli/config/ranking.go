package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/studyhall/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// RankingFile is the TOML representation of the ranking constants.
// Absent keys keep their defaults.
type RankingFile struct {
	ExcludedNames          *[]string `toml:"excluded_names"`
	MaxTopRanks            *int      `toml:"max_top_ranks"`
	DefaultLimit           *int      `toml:"default_limit"`
	MaxDisplayableDuration *int      `toml:"max_displayable_duration"`
}

// Validate checks value ranges
func (f *RankingFile) Validate() error {
	if f.MaxTopRanks != nil && *f.MaxTopRanks < 1 {
		return goerr.Wrap(ErrInvalidConfig, "max_top_ranks must be positive", goerr.V(FieldKey, "max_top_ranks"), goerr.V("value", *f.MaxTopRanks))
	}
	if f.DefaultLimit != nil && *f.DefaultLimit < 1 {
		return goerr.Wrap(ErrInvalidConfig, "default_limit must be positive", goerr.V(FieldKey, "default_limit"), goerr.V("value", *f.DefaultLimit))
	}
	if f.MaxDisplayableDuration != nil && *f.MaxDisplayableDuration < 1 {
		return goerr.Wrap(ErrInvalidConfig, "max_displayable_duration must be positive", goerr.V(FieldKey, "max_displayable_duration"), goerr.V("value", *f.MaxDisplayableDuration))
	}
	if f.ExcludedNames != nil {
		for i, name := range *f.ExcludedNames {
			if strings.TrimSpace(name) == "" {
				return goerr.Wrap(ErrInvalidConfig, "excluded name must not be blank", goerr.V(FieldKey, "excluded_names"), goerr.V("index", i))
			}
		}
	}
	return nil
}

// Apply overlays the file onto cfg
func (f *RankingFile) Apply(cfg *domainConfig.RankingConfig) {
	if f.ExcludedNames != nil {
		cfg.ExcludedNames = append([]string{}, *f.ExcludedNames...)
	}
	if f.MaxTopRanks != nil {
		cfg.MaxTopRanks = *f.MaxTopRanks
	}
	if f.DefaultLimit != nil {
		cfg.DefaultLimit = *f.DefaultLimit
	}
	if f.MaxDisplayableDuration != nil {
		cfg.MaxDisplayableDuration = *f.MaxDisplayableDuration
	}
}

// LoadRankingConfig reads a TOML file on top of the defaults
func LoadRankingConfig(path string) (*domainConfig.RankingConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "ranking config file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file RankingFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config", goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}
	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	cfg := domainConfig.DefaultRankingConfig()
	file.Apply(cfg)
	return cfg, nil
}

// Ranking holds the flags of the ranking constants
type Ranking struct {
	path                   string
	maxDisplayableDuration int
}

func (x *Ranking) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the ranking TOML file (excluded_names, max_top_ranks, default_limit, max_displayable_duration)",
			Category:    "Ranking",
			Sources:     cli.EnvVars("STUDYHALL_CONFIG"),
			Destination: &x.path,
		},
		&cli.IntFlag{
			Name:        "max-displayable-duration",
			Usage:       "Public-view ceiling in minutes; overrides the config file",
			Category:    "Ranking",
			Sources:     cli.EnvVars("STUDYHALL_MAX_DISPLAYABLE_DURATION"),
			Destination: &x.maxDisplayableDuration,
		},
	}
}

func (x Ranking) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", x.path),
		slog.Int("max_displayable_duration", x.maxDisplayableDuration),
	)
}

// NewRankingForTest creates a Ranking config without flag parsing
func NewRankingForTest(path string, maxDisplayableDuration int) *Ranking {
	return &Ranking{path: path, maxDisplayableDuration: maxDisplayableDuration}
}

// Configure returns the defaults, overlaid by the file and then the flag
func (x *Ranking) Configure() (*domainConfig.RankingConfig, error) {
	cfg := domainConfig.DefaultRankingConfig()
	if x.path != "" {
		loaded, err := LoadRankingConfig(x.path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if x.maxDisplayableDuration < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "max-displayable-duration must not be negative", goerr.V("value", x.maxDisplayableDuration))
	}
	if x.maxDisplayableDuration > 0 {
		cfg.MaxDisplayableDuration = x.maxDisplayableDuration
	}
	return cfg, nil
}
