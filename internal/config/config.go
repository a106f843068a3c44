package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	InstanceID  int64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis       RedisConfig
	Entitlement EntitlementConfig
	Prometheus  PrometheusConfig

	DenylistPath   string
	TagProfilePath string
	MeteringPath   string

	CapacityReconcilePageSize int
	MetricsAddr               string

	// RetentionDuration is zero when no retention policy is configured.
	RetentionDuration time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// EntitlementConfig points at the upstream subscription and product APIs.
type EntitlementConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
	PageSize     int
}

type PrometheusConfig struct {
	URL     string
	Timeout time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "tally"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		InstanceID:  getenvInt64("INSTANCE_ID", 1),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "tally"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),

		Redis: RedisConfig{
			Addr:      getenv("REDIS_ADDR", "localhost:6379"),
			Password:  strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:        int(getenvInt64("REDIS_DB", 0)),
			KeyPrefix: getenv("TASK_QUEUE_PREFIX", "tally:tasks"),
		},
		Entitlement: EntitlementConfig{
			BaseURL:      strings.TrimRight(strings.TrimSpace(getenv("ENTITLEMENT_URL", "http://localhost:8101")), "/"),
			TokenURL:     strings.TrimSpace(getenv("ENTITLEMENT_TOKEN_URL", "")),
			ClientID:     strings.TrimSpace(getenv("ENTITLEMENT_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(getenv("ENTITLEMENT_CLIENT_SECRET", "")),
			Scopes:       parseList(getenv("ENTITLEMENT_SCOPES", "")),
			Timeout:      getenvDuration("ENTITLEMENT_TIMEOUT", 30*time.Second),
			PageSize:     int(getenvInt64("ENTITLEMENT_PAGE_SIZE", 500)),
		},
		Prometheus: PrometheusConfig{
			URL:     strings.TrimSpace(getenv("PROMETHEUS_URL", "http://localhost:9090")),
			Timeout: getenvDuration("PROMETHEUS_TIMEOUT", time.Minute),
		},

		DenylistPath:   getenv("PRODUCT_DENYLIST_PATH", "config/product_denylist.yaml"),
		TagProfilePath: getenv("TAG_PROFILE_PATH", "config/tag_profile.yaml"),
		MeteringPath:   getenv("METERING_CONFIG_PATH", "config/metering.yaml"),

		CapacityReconcilePageSize: int(getenvInt64("CAPACITY_RECONCILE_PAGE_SIZE", 100)),
		MetricsAddr:               getenv("METRICS_ADDR", ":2112"),

		RetentionDuration: getenvDuration("RETENTION_DURATION", 0),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
