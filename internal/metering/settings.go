package metering

import (
	"fmt"
	"time"

	"github.com/smallbiznis/tally/internal/config"
	"github.com/smallbiznis/tally/internal/metering/promql"
	"github.com/smallbiznis/tally/internal/metering/service"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Settings is the decoded metering file. Viper lower cases map keys, so
// template keys and parameter names are matched in lower case.
type Settings struct {
	EventBatchSize         int               `mapstructure:"eventBatchSize"`
	Step                   time.Duration     `mapstructure:"step"`
	TemplateParameterDepth int               `mapstructure:"templateParameterDepth"`
	QueryTemplates         map[string]string `mapstructure:"queryTemplates"`
	QueryParams            map[string]string `mapstructure:"queryParams"`
}

func DefaultSettings() Settings {
	return Settings{
		EventBatchSize:         service.DefaultConfig().EventBatchSize,
		Step:                   service.DefaultConfig().Step,
		TemplateParameterDepth: 3,
		QueryTemplates: map[string]string{
			promql.DefaultQueryKey: `sum_over_time(cluster:usage:workload:capacity_physical_cpu_cores:max:5m{_id!="", ebs_account="{{ .AccountID }}"}[1h:5m]) / 12`,
		},
	}
}

func LoadSettings(cfg config.Config, log *zap.Logger) (Settings, error) {
	holder, err := config.LoadFile(config.FileSource[Settings]{
		Path:     cfg.MeteringPath,
		Defaults: DefaultSettings(),
		Decode:   decodeSettings,
		Validate: validateSettings,
		Optional: true,
		Log:      log.Named("metering.settings"),
	})
	if err != nil {
		return Settings{}, err
	}
	return holder.Get(), nil
}

func decodeSettings(v *viper.Viper) (Settings, error) {
	s := DefaultSettings()
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func validateSettings(s Settings) error {
	if _, ok := s.QueryTemplates[promql.DefaultQueryKey]; !ok {
		return fmt.Errorf("%w: metering file", promql.ErrMissingDefault)
	}
	if s.TemplateParameterDepth < 0 {
		return fmt.Errorf("templateParameterDepth must not be negative, got %d", s.TemplateParameterDepth)
	}
	return nil
}

func (s Settings) ServiceConfig() service.Config {
	return service.Config{
		EventBatchSize: s.EventBatchSize,
		Step:           s.Step,
		QueryParams:    s.QueryParams,
	}
}

func (s Settings) Builder() (*promql.Builder, error) {
	return promql.NewBuilder(s.QueryTemplates, s.TemplateParameterDepth)
}
