package metering

import (
	"github.com/smallbiznis/tally/internal/metering/domain"
	"github.com/smallbiznis/tally/internal/metering/prometheus"
	"github.com/smallbiznis/tally/internal/metering/repository"
	"github.com/smallbiznis/tally/internal/metering/service"
	"github.com/smallbiznis/tally/internal/taskqueue"
	"go.uber.org/fx"
)

var Module = fx.Module("metering.service",
	fx.Provide(LoadSettings),
	fx.Provide(Settings.ServiceConfig),
	fx.Provide(Settings.Builder),
	fx.Provide(repository.Provide),
	fx.Provide(prometheus.New),
	fx.Provide(func(c *prometheus.Client) domain.Backend { return c }),
	fx.Provide(service.New),
	fx.Provide(func(s *service.Service) domain.Service { return s }),
	fx.Provide(taskqueue.AsHandler(service.NewHandler)),
)
