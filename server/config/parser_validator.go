// Package config parses and validates the builder config file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/config/raw"
	"github.com/runatlantis/packagebuilder/server/config/valid"
	yaml "gopkg.in/yaml.v2"
)

// ParserValidator parses and validates builder configuration.
type ParserValidator struct{}

// ParseBuilderCfg reads the YAML file at configFile, validates it and
// overlays it on top of defaultCfg.
func (p *ParserValidator) ParseBuilderCfg(configFile string, defaultCfg valid.BuilderCfg) (valid.BuilderCfg, error) {
	configData, err := os.ReadFile(configFile) // nolint: gosec
	if err != nil {
		return defaultCfg, errors.Wrapf(err, "unable to read %s file", configFile)
	}
	if len(configData) == 0 {
		return defaultCfg, nil
	}

	ext := strings.ToLower(filepath.Ext(configFile))
	if ext != ".yaml" && ext != ".yml" {
		return defaultCfg, errors.Errorf("config file %s must be yaml", configFile)
	}

	return p.ParseBuilderCfgData(configData, defaultCfg)
}

func (p *ParserValidator) ParseBuilderCfgData(configData []byte, defaultCfg valid.BuilderCfg) (valid.BuilderCfg, error) {
	var rawCfg raw.BuilderCfg
	if err := yaml.UnmarshalStrict(configData, &rawCfg); err != nil {
		return defaultCfg, err
	}

	if err := rawCfg.Validate(); err != nil {
		return defaultCfg, err
	}

	return rawCfg.ToValid(defaultCfg)
}
