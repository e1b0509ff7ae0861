// Package config loads the optional YAML settings file layered underneath
// the CLI flags: any field left unset on the command line falls back to the
// file, and any field left unset in the file falls back to a hardcoded
// default.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/c360/xmltrace/internal/xerrors"
)

// File is the subset of ambient settings loadable from --config, all
// optional. CLI flags always take precedence over a value set here.
type File struct {
	Workers      int    `yaml:"workers,omitempty"`
	LogLevel     string `yaml:"log_level,omitempty"`
	LogFormat    string `yaml:"log_format,omitempty"`
	MetricsAddr  string `yaml:"metrics_addr,omitempty"`
	FastPath     *bool  `yaml:"fast_path,omitempty"`
	ReorderRange int64  `yaml:"reorder_tolerance_micros,omitempty"`
}

// Defaults returns the hardcoded fallback values used when neither the CLI
// nor the config file set a field.
func Defaults() File {
	return File{
		Workers:      16,
		LogLevel:     "info",
		LogFormat:    "json",
		MetricsAddr:  "",
		FastPath:     boolPtr(true),
		ReorderRange: 1_000_000,
	}
}

// Load reads and parses a YAML config file. A missing path is not an error:
// it simply returns an empty File so the caller falls through to defaults.
func Load(path string) (File, error) {
	if path == "" {
		return File{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return File{}, xerrors.WrapArgument(err, "config", "Load", "read config file "+path)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, xerrors.WrapArgument(err, "config", "Load", "parse config file "+path)
	}
	return f, nil
}

// Merge layers override on top of base: any zero-valued field in override
// is left as base's value.
func Merge(base, override File) File {
	out := base
	if override.Workers != 0 {
		out.Workers = override.Workers
	}
	if override.LogLevel != "" {
		out.LogLevel = override.LogLevel
	}
	if override.LogFormat != "" {
		out.LogFormat = override.LogFormat
	}
	if override.MetricsAddr != "" {
		out.MetricsAddr = override.MetricsAddr
	}
	if override.FastPath != nil {
		out.FastPath = override.FastPath
	}
	if override.ReorderRange != 0 {
		out.ReorderRange = override.ReorderRange
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
