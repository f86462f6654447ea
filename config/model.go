package config

import (
	"fmt"

	"github.com/meterwise/hotspot/core/gbt"
)

// ModelConfig defines the training split and booster hyperparameters.
type ModelConfig struct {
	ArtifactsDir string     `json:"artifacts_dir"`
	TestSize     float64    `json:"test_size"`
	ValSize      float64    `json:"val_size"`
	Seed         int64      `json:"seed"`
	Params       gbt.Params `json:"params"`
}

// SetDefaults applies sane defaults.
func (c *ModelConfig) SetDefaults() {
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = "models/occupancy"
	}
	if c.TestSize == 0 {
		c.TestSize = 0.15
	}
	if c.ValSize == 0 {
		c.ValSize = 0.15
	}
	if c.Seed == 0 {
		c.Seed = 2025
	}
	c.Params.SetDefaults()
}

// Validate checks mandatory fields.
func (c ModelConfig) Validate() error {
	if c.TestSize <= 0 || c.ValSize <= 0 || c.TestSize+c.ValSize >= 1 {
		return fmt.Errorf("test_size and val_size must be positive and sum below 1")
	}
	return c.Params.Validate()
}

// RiskConfig defines the citation dataset and risk model locations.
type RiskConfig struct {
	// CitationsPath is a CSV of parking citations. Empty disables the risk
	// model.
	CitationsPath string `json:"citations_path"`
	ModelDir      string `json:"model_dir"`
	// Column names in the citations CSV.
	DatetimeColumn  string `json:"datetime_column"`
	BlockColumn     string `json:"block_column"`
	LatitudeColumn  string `json:"latitude_column"`
	LongitudeColumn string `json:"longitude_column"`
}

// SetDefaults applies sane defaults.
func (c *RiskConfig) SetDefaults() {
	if c.ModelDir == "" {
		c.ModelDir = "models/risk"
	}
	if c.DatetimeColumn == "" {
		c.DatetimeColumn = "ISSUE_DATETIME"
	}
	if c.BlockColumn == "" {
		c.BlockColumn = "block_normalized"
	}
	if c.LatitudeColumn == "" {
		c.LatitudeColumn = "LATITUDE"
	}
	if c.LongitudeColumn == "" {
		c.LongitudeColumn = "LONGITUDE"
	}
}

// ServerConfig defines the dashboard listener.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8501"
	}
}
