package service

import (
	"github.com/smallbiznis/tally/internal/capacity/domain"
	appconfig "github.com/smallbiznis/tally/internal/config"
)

type Config struct {
	PageSize int
}

func DefaultConfig() Config {
	return Config{PageSize: domain.DefaultPageSize}
}

func ConfigFromApp(cfg appconfig.Config) Config {
	return Config{PageSize: cfg.CapacityReconcilePageSize}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultConfig().PageSize
	}
	return c
}
