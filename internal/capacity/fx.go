package capacity

import (
	"github.com/smallbiznis/tally/internal/capacity/domain"
	"github.com/smallbiznis/tally/internal/capacity/service"
	"github.com/smallbiznis/tally/internal/denylist"
	offeringdomain "github.com/smallbiznis/tally/internal/offering/domain"
	subscriptiondomain "github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/smallbiznis/tally/internal/taskqueue"
	"go.uber.org/fx"
)

var Module = fx.Module("capacity.service",
	fx.Provide(service.ConfigFromApp),
	fx.Provide(service.NewProductExtractor),
	fx.Provide(func(d *denylist.Denylist) domain.Denylist { return d }),
	fx.Provide(service.New),
	fx.Provide(
		func(s *service.Service) domain.Service { return s },
		func(s *service.Service) subscriptiondomain.CapacityReconciler { return s },
		func(s *service.Service) offeringdomain.CapacityEnqueuer { return s },
	),
	fx.Provide(taskqueue.AsHandler(service.NewHandler)),
)
