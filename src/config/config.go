// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads validator configuration from JSON or YAML files,
// selected by file extension.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat indicates a configuration file extension that is
// neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Config holds operator-tunable settings for the trust validator.
// The zero value is not useful; start from [Default].
type Config struct {
	Client struct {
		// TimeoutSeconds bounds HTTP and probe connections.
		TimeoutSeconds int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	} `json:"client" yaml:"client"`

	Trust struct {
		// ExtraAnchorsFile optionally points at a PEM bundle of additional
		// trust anchors appended after the embedded roots.
		ExtraAnchorsFile string `json:"extraAnchorsFile,omitempty" yaml:"extraAnchorsFile,omitempty"`
	} `json:"trust" yaml:"trust"`

	Logging struct {
		// JSON switches output to structured JSON logging.
		JSON bool `json:"json" yaml:"json"`
	} `json:"logging" yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Client.TimeoutSeconds = 10
	return cfg
}

// Load reads a configuration file, dispatching on the file extension.
// Supported extensions: .json, .yaml, .yml. Settings absent from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if cfg.Client.TimeoutSeconds <= 0 {
		cfg.Client.TimeoutSeconds = Default().Client.TimeoutSeconds
	}

	return cfg, nil
}
