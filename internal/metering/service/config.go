package service

import "time"

// Config controls batching and query resolution of metric collection.
type Config struct {
	EventBatchSize int
	Step           time.Duration
	// QueryParams are passed to every query template.
	QueryParams map[string]string
}

func DefaultConfig() Config {
	return Config{
		EventBatchSize: 1000,
		Step:           time.Hour,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.EventBatchSize <= 0 {
		c.EventBatchSize = defaults.EventBatchSize
	}
	if c.Step <= 0 {
		c.Step = defaults.Step
	}
	return c
}
