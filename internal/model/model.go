// Package model defines the YAML model schema for proforma and includes
// functions for loading, validating, and converting models into engine
// snapshots.
package model

import (
	"bytes"
	"fmt"

	"github.com/spf13/viper"
)

// Model holds one complete model definition: the period sequence, line
// items, generator configurations, and application settings.
type Model struct {
	Periods    []int             `yaml:"periods"`
	LineItems  []LineItemConfig  `yaml:"lineItems"`
	Generators []GeneratorConfig `yaml:"generators,omitempty"`
	Logging    LoggingConfig     `yaml:"logging,omitempty"`
	Output     OutputConfig      `yaml:"output,omitempty"`
	Server     ServerConfig      `yaml:"server,omitempty"`
}

// LineItemConfig defines one named per-period quantity. Values and Formula
// may both be present; a literal value takes precedence for its period.
type LineItemConfig struct {
	Name        string          `yaml:"name"`
	Category    string          `yaml:"category,omitempty"`
	Label       string          `yaml:"label,omitempty"`
	Values      map[int]float64 `yaml:"values,omitempty"`
	Formula     string          `yaml:"formula,omitempty"`
	ValueFormat string          `yaml:"valueFormat,omitempty"`
}

// GeneratorConfig names a generator instance, its registered type, and the
// type-specific configuration passed to the constructor.
type GeneratorConfig struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:"config,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// ServerConfig holds HTTP API configuration options
type ServerConfig struct {
	Address        string `yaml:"address,omitempty"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes,omitempty"`
}

// Load takes a file path as input and loads the YAML-formatted model there.
func Load(path string) (*Model, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading model file, %s", err)
	}

	var m Model
	if err := v.Unmarshal(&m); err != nil {
		return nil, fmt.Errorf("unable to decode model into struct, %s", err)
	}
	return &m, nil
}

// Parse decodes a model from raw YAML bytes, e.g. an HTTP upload.
func Parse(data []byte) (*Model, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error reading model, %s", err)
	}

	var m Model
	if err := v.Unmarshal(&m); err != nil {
		return nil, fmt.Errorf("unable to decode model into struct, %s", err)
	}
	return &m, nil
}
