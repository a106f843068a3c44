package taskqueue

import (
	"strings"
	"time"

	appconfig "github.com/smallbiznis/tally/internal/config"
)

// Config controls the redis task queue and its consumer loop.
type Config struct {
	KeyPrefix      string
	BlockTimeout   time.Duration
	HandlerTimeout time.Duration
	Concurrency    int
	LockTTL        time.Duration
}

func DefaultConfig() Config {
	return Config{
		KeyPrefix:      "tally:tasks",
		BlockTimeout:   5 * time.Second,
		HandlerTimeout: 10 * time.Minute,
		Concurrency:    2,
		LockTTL:        15 * time.Minute,
	}
}

// ConfigFromApp maps the env-driven application config onto the queue config.
func ConfigFromApp(cfg appconfig.Config) Config {
	return Config{KeyPrefix: cfg.Redis.KeyPrefix}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	c.KeyPrefix = strings.TrimRight(strings.TrimSpace(c.KeyPrefix), ":")
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaults.KeyPrefix
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = defaults.BlockTimeout
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = defaults.HandlerTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}

func (c Config) topicKey(topic string) string {
	return c.KeyPrefix + ":" + topic
}
