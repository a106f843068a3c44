package service

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tally/internal/clock"
	"github.com/smallbiznis/tally/internal/observability/metrics"
	offeringdomain "github.com/smallbiznis/tally/internal/offering/domain"
	"github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/smallbiznis/tally/internal/tagprofile"
	"github.com/smallbiznis/tally/internal/taskqueue"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Denylist suppresses syncing of matching SKUs.
type Denylist interface {
	ProductIDMatches(sku string) bool
}

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	GenID         *snowflake.Node
	Repo          domain.Repository
	OrgConfigRepo domain.OrgConfigRepository
	OfferingRepo  offeringdomain.Repository
	OfferingSync  offeringdomain.Syncer
	Capacity      domain.CapacityReconciler
	Remote        domain.RemoteService
	Denylist      Denylist
	Profile       tagprofile.Lookup
	Queue         taskqueue.Queue
	Metrics       *metrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	genID         *snowflake.Node
	repo          domain.Repository
	orgConfigRepo domain.OrgConfigRepository
	offeringRepo  offeringdomain.Repository
	offeringSync  offeringdomain.Syncer
	capacity      domain.CapacityReconciler
	remote        domain.RemoteService
	denylist      Denylist
	profile       tagprofile.Lookup
	queue         taskqueue.Queue
	metrics       *metrics.Metrics

	orgSync singleflight.Group
}

func New(p Params) domain.Service {
	return NewService(p)
}

func NewService(p Params) *Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("subscription.service"),
		clock:         p.Clock,
		genID:         p.GenID,
		repo:          p.Repo,
		orgConfigRepo: p.OrgConfigRepo,
		offeringRepo:  p.OfferingRepo,
		offeringSync:  p.OfferingSync,
		capacity:      p.Capacity,
		remote:        p.Remote,
		denylist:      p.Denylist,
		profile:       p.Profile,
		queue:         p.Queue,
		metrics:       p.Metrics,
	}
}
