package subscription

import (
	"github.com/smallbiznis/tally/internal/denylist"
	"github.com/smallbiznis/tally/internal/entitlement"
	"github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/smallbiznis/tally/internal/subscription/repository"
	"github.com/smallbiznis/tally/internal/subscription/service"
	"github.com/smallbiznis/tally/internal/taskqueue"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideOrgConfig),
	fx.Provide(
		func(c *entitlement.Client) domain.RemoteService { return c },
		func(d *denylist.Denylist) service.Denylist { return d },
	),
	fx.Provide(service.New),
	fx.Provide(taskqueue.AsHandler(service.NewHandler)),
)
