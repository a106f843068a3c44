package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tally/internal/capacity"
	"github.com/smallbiznis/tally/internal/clock"
	"github.com/smallbiznis/tally/internal/config"
	"github.com/smallbiznis/tally/internal/denylist"
	"github.com/smallbiznis/tally/internal/entitlement"
	"github.com/smallbiznis/tally/internal/metering"
	"github.com/smallbiznis/tally/internal/observability"
	"github.com/smallbiznis/tally/internal/offering"
	"github.com/smallbiznis/tally/internal/retention"
	"github.com/smallbiznis/tally/internal/subscription"
	"github.com/smallbiznis/tally/internal/tagprofile"
	"github.com/smallbiznis/tally/internal/taskqueue"
	"github.com/smallbiznis/tally/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// coreModules wires everything a command may need. Commands add their own
// runners on top.
func coreModules() []fx.Option {
	return []fx.Option{
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		taskqueue.Module,

		// Reference data
		denylist.Module,
		tagprofile.Module,
		entitlement.Module,

		// Functional Domains
		offering.Module,
		capacity.Module,
		subscription.Module,
		metering.Module,
		retention.Module,
	}
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.InstanceID, err)
	}
	return node, nil
}

// oneShot starts an app populating targets and returns a function that
// stops it.
func oneShot(ctx context.Context, extra []fx.Option, targets ...any) (func(), error) {
	opts := append(coreModules(), extra...)
	opts = append(opts, fx.Populate(targets...))
	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return nil, err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return nil, err
	}
	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
		defer cancel()
		_ = app.Stop(stopCtx)
	}, nil
}
