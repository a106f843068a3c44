package offering

import (
	"github.com/smallbiznis/tally/internal/entitlement"
	"github.com/smallbiznis/tally/internal/offering/domain"
	"github.com/smallbiznis/tally/internal/offering/repository"
	"github.com/smallbiznis/tally/internal/offering/service"
	"go.uber.org/fx"
)

var Module = fx.Module("offering.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(c *entitlement.Client) service.CatalogSource { return c }),
	fx.Provide(service.NewSyncer),
	fx.Provide(func(s *service.Syncer) domain.Syncer { return s }),
)
