package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderDefaultsOnly(t *testing.T) {
	loader := Loader{}

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}
	if cfg.Taxonomy.Schema != Default().Taxonomy.Schema {
		t.Errorf("Expected default schema, got %q", cfg.Taxonomy.Schema)
	}
}

func TestLoaderNonExistentConfig(t *testing.T) {
	loader := Loader{ConfigPath: "/nonexistent/xplore.yaml"}

	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent config")
	}
}

func TestLoaderEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xplore.yaml")
	if err := os.WriteFile(path, []byte("taxonomy:\n  root: /from/file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := Loader{
		ConfigPath: path,
		Getenv: func(k string) string {
			if k == EnvRoot {
				return "/from/env"
			}
			return ""
		},
	}
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Taxonomy.Root != "/from/env" {
		t.Errorf("Env should win over file, got %q", cfg.Taxonomy.Root)
	}
}

func TestLoaderRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xplore.yaml")
	if err := os.WriteFile(path, []byte("workers: -3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := (&Loader{ConfigPath: path}).Load(); err == nil {
		t.Error("Should reject negative workers")
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := Default()
	cfg.Taxonomy.Root = "/tax"
	cfg.Workers = 3

	opts := cfg.PipelineOptions(nil)
	if opts.Layout.Schema != filepath.Join("/tax", cfg.Taxonomy.Schema) {
		t.Errorf("Schema = %q", opts.Layout.Schema)
	}
	if opts.Layout.RelationDir != filepath.Join("/tax", "r") {
		t.Errorf("RelationDir = %q", opts.Layout.RelationDir)
	}
	if opts.Workers != 3 || opts.Markers != cfg.Markers {
		t.Errorf("Options not carried over: %+v", opts)
	}
}
