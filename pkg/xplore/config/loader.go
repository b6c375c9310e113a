package config

import (
	"fmt"
	"log/slog"

	"github.com/cognicore/xplore/pkg/xplore/pipeline"
)

// Loader assembles a Config from defaults, an optional YAML file and the
// environment.
type Loader struct {
	ConfigPath string
	Getenv     func(string) string
}

// Load returns the validated configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.ConfigPath != "" {
		loaded, err := Load(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if l.Getenv != nil {
		if err := cfg.ApplyEnv(l.Getenv); err != nil {
			return nil, fmt.Errorf("apply env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PipelineOptions converts the configuration into pipeline options.
func (c *Config) PipelineOptions(logger *slog.Logger) pipeline.Options {
	return pipeline.Options{
		Layout: pipeline.Layout{
			Schema:      c.Taxonomy.SchemaPath(),
			LabelDir:    c.Taxonomy.LabelPath(),
			RelationDir: c.Taxonomy.RelationPath(),
		},
		LabelPatterns: c.Labels.Patterns,
		Markers:       c.Markers,
		Placeholders:  c.Placeholders,
		Workers:       c.Workers,
		Logger:        logger,
	}
}
