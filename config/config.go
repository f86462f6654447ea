package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/meterwise/hotspot/core/metrics"
	"github.com/meterwise/hotspot/infra/notify"
)

// Config is the root configuration for all hotspot commands.
type Config struct {
	Data     DataConfig     `json:"data"`
	Features FeaturesConfig `json:"features"`
	Model    ModelConfig    `json:"model"`
	Risk     RiskConfig     `json:"risk"`
	Server   ServerConfig   `json:"server"`
	Metrics  metrics.Config `json:"metrics"`
	Runlog   RunlogConfig   `json:"runlog"`
	Notify   notify.Config  `json:"notify"`
	Logging  LoggingConfig  `json:"logging"`
}

// Load reads the configuration file, applies HOTSPOT_ environment overrides
// and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. HOTSPOT_METRICS__INFLUX_TOKEN.
	if err := k.Load(env.Provider("HOTSPOT_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "hotspot_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Data.SetDefaults()
	cfg.Features.SetDefaults()
	cfg.Model.SetDefaults()
	cfg.Risk.SetDefaults()
	cfg.Server.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Runlog.SetDefaults()
	if err := cfg.Data.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Runlog.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
