package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/xplore/pkg/xplore/internalerr"
	"github.com/cognicore/xplore/pkg/xplore/label"
	"github.com/cognicore/xplore/pkg/xplore/relation"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// Config is the on-disk configuration of an extraction run
type Config struct {
	Taxonomy     Taxonomy          `yaml:"taxonomy"`
	Labels       Labels            `yaml:"labels"`
	Markers      relation.Markers  `yaml:"markers"`
	Placeholders xbrl.Placeholders `yaml:"placeholders"`
	Workers      int               `yaml:"workers"`
	Store        Store             `yaml:"store"`
}

// Taxonomy locates the documents of one taxonomy. LabelDir, RelationDir
// and Schema are relative to Root unless absolute.
type Taxonomy struct {
	Root        string `yaml:"root"`
	Schema      string `yaml:"schema"`
	LabelDir    string `yaml:"label_dir"`
	RelationDir string `yaml:"relation_dir"`
}

// Labels configures label linkbase discovery
type Labels struct {
	Patterns []string `yaml:"patterns"`
}

// Store configures run persistence. An empty Path disables it.
type Store struct {
	Path      string `yaml:"path"`
	CacheSize int    `yaml:"cache_size"`
}

// Default returns the configuration of the JPPFS 2024-11-01 taxonomy.
func Default() *Config {
	return &Config{
		Taxonomy: Taxonomy{
			Root:        filepath.Join("タクソノミ", "taxonomy", "jppfs", "2024-11-01"),
			Schema:      "jppfs_cor_2024-11-01.xsd",
			LabelDir:    "label",
			RelationDir: "r",
		},
		Labels:       Labels{Patterns: append([]string(nil), label.DefaultPatterns...)},
		Markers:      relation.DefaultMarkers(),
		Placeholders: xbrl.DefaultPlaceholders(),
		Workers:      4,
		Store:        Store{CacheSize: 1024},
	}
}

// Load reads a YAML file on top of Default(). Keys absent from the file
// keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	cfg.Placeholders = cfg.Placeholders.WithDefaults()
	return cfg, nil
}

// Environment variables read by ApplyEnv
const (
	EnvRoot    = "XPLORE_ROOT"
	EnvSchema  = "XPLORE_SCHEMA"
	EnvDB      = "XPLORE_DB"
	EnvWorkers = "XPLORE_WORKERS"
)

// ApplyEnv overrides fields from the environment; getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvRoot); v != "" {
		c.Taxonomy.Root = v
	}
	if v := getenv(EnvSchema); v != "" {
		c.Taxonomy.Schema = v
	}
	if v := getenv(EnvDB); v != "" {
		c.Store.Path = v
	}
	if v := getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", internalerr.ErrInvalidConfig, EnvWorkers, v, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Taxonomy.Root == "" {
		errs = append(errs, errors.New("taxonomy.root is required"))
	}
	if c.Taxonomy.Schema == "" {
		errs = append(errs, errors.New("taxonomy.schema is required"))
	}
	if len(c.Labels.Patterns) == 0 {
		errs = append(errs, errors.New("labels.patterns must not be empty"))
	}
	for _, p := range c.Labels.Patterns {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("labels.patterns: invalid pattern %q", p))
		}
	}
	if c.Markers.Presentation == "" {
		errs = append(errs, errors.New("markers.presentation is required"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.Store.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("store.cache_size must be >= 0, got %d", c.Store.CacheSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", internalerr.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// SchemaPath returns the schema location.
func (t Taxonomy) SchemaPath() string { return t.resolve(t.Schema) }

// LabelPath returns the label folder location.
func (t Taxonomy) LabelPath() string { return t.resolve(t.LabelDir) }

// RelationPath returns the relationship folder location.
func (t Taxonomy) RelationPath() string { return t.resolve(t.RelationDir) }

func (t Taxonomy) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(t.Root, p)
}
