// Package config loads the engine's optional YAML configuration file:
// database location, trash root, safe mode, and tokenization overrides
// layered on top of the schema-driven defaults in internal/normalize.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/modgrove/modcore/internal/normalize"
)

// Tokenization overrides the token-level normalization defaults. All
// fields are additive except MinTokenLength, which replaces the default
// when positive.
type Tokenization struct {
	MinTokenLength      int      `yaml:"min_token_length"`
	ExtraStopwords      []string `yaml:"extra_stopwords"`
	ShortTokenWhitelist []string `yaml:"short_token_whitelist"`
}

// Configuration is the top-level document.
type Configuration struct {
	DBPath         string       `yaml:"db_path"`
	MaxConnections int          `yaml:"max_connections"`
	TrashRoot      string       `yaml:"trash_root"`
	SafeMode       bool         `yaml:"safe_mode"`
	Tokenization   Tokenization `yaml:"tokenization"`
}

// Load reads and parses the configuration file at path. A missing file is
// not an error: it yields a zero Configuration, since every field has a
// flag- or default-level fallback.
func Load(path string) (Configuration, error) {
	var c Configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, errors.Wrap(err, "unable to read configuration file")
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(err, "unable to parse configuration file")
	}
	return c, nil
}

// NormalizeConfig layers the tokenization overrides onto
// normalize.DefaultConfig.
func (c Configuration) NormalizeConfig() normalize.Config {
	cfg := normalize.DefaultConfig()
	if c.Tokenization.MinTokenLength > 0 {
		cfg.MinTokenLength = c.Tokenization.MinTokenLength
	}
	for _, w := range c.Tokenization.ExtraStopwords {
		cfg.Stopwords[w] = true
	}
	for _, w := range c.Tokenization.ShortTokenWhitelist {
		cfg.ShortTokenWhitelist[w] = true
	}
	return cfg
}
