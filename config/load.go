package config

import (
	"margin/core"

	"github.com/fox-one/pkg/config"
)

// Load load config file
func Load(cfgFile string, cfg *core.Config) error {
	config.AutomaticLoadEnv("MARGIN")
	if err := config.LoadYaml(cfgFile, cfg); err != nil {
		return err
	}

	defaults(cfg)
	return nil
}

func defaults(cfg *core.Config) {
	if cfg.App.AccrualInterval == "" {
		cfg.App.AccrualInterval = "10s"
	}

	if cfg.App.ScanInterval == "" {
		cfg.App.ScanInterval = "30s"
	}
}
