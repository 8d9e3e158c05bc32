// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/tbcdecode/pkg/source"
	"github.com/user/tbcdecode/pkg/tbc"
)

// Config represents a decode preset loaded from a YAML file. Field
// defaults match the decode_4fsc_video function surface.
type Config struct {
	// Decoder selection
	Decoder string `yaml:"decoder"` // ntsc1d..mono, or auto

	// Chroma handling
	ChromaGain  float64 `yaml:"chroma_gain"`
	ChromaPhase float64 `yaml:"chroma_phase"`
	ChromaNR    float64 `yaml:"chroma_nr"`
	LumaNR      float64 `yaml:"luma_nr"`

	// Geometry and field handling
	PaddingMultiple   int  `yaml:"padding_multiple"`
	ReverseFields     bool `yaml:"reverse_fields"`
	PhaseCompensation bool `yaml:"phase_compensation"`

	// Frame-rate override
	FPSNum int64 `yaml:"fpsnum"`
	FPSDen int64 `yaml:"fpsden"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Decoder:         "auto",
		ChromaGain:      1.0,
		PaddingMultiple: 8,
		FPSNum:          -1,
		FPSDen:          1,
		LogLevel:        "info",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.PaddingMultiple < 0 {
		return fmt.Errorf("padding_multiple must be 0 or greater")
	}
	if c.FPSDen < 1 {
		return fmt.Errorf("fpsden must be 1 or greater")
	}
	return nil
}

// ToOptions converts the preset to source open options.
func (c Config) ToOptions() source.Options {
	return source.Options{
		Configuration: tbc.Configuration{
			ChromaGain:        c.ChromaGain,
			ChromaPhase:       c.ChromaPhase,
			ChromaNR:          c.ChromaNR,
			LumaNR:            c.LumaNR,
			PaddingMultiple:   c.PaddingMultiple,
			ReverseFields:     c.ReverseFields,
			PhaseCompensation: c.PhaseCompensation,
			Decoder:           tbc.ParseDecoderName(c.Decoder),
		},
		FPSNum: c.FPSNum,
		FPSDen: c.FPSDen,
	}
}
