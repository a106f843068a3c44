package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tally/internal/clock"
	appconfig "github.com/smallbiznis/tally/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// listCmdable is the subset of redis commands the queue relies on.
type listCmdable interface {
	Ping(ctx context.Context) *redis.StatusCmd
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// RedisQueue stores tasks in one redis list per topic.
type RedisQueue struct {
	store listCmdable
	cfg   Config
	clock clock.Clock
}

func NewRedisQueue(store listCmdable, cfg Config, clk clock.Clock) *RedisQueue {
	if clk == nil {
		clk = clock.New()
	}
	return &RedisQueue{store: store, cfg: cfg.withDefaults(), clock: clk}
}

func (q *RedisQueue) Send(ctx context.Context, topic string, payload any) error {
	if q == nil || q.store == nil {
		return ErrNotConfigured
	}
	env, err := newEnvelope(topic, payload, q.clock.Now())
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return q.store.LPush(ctx, q.cfg.topicKey(env.Topic), raw).Err()
}

// Receive blocks up to the configured timeout for the next task of any topic.
// It returns false when nothing arrived.
func (q *RedisQueue) Receive(ctx context.Context, topics []string) (Envelope, bool, error) {
	if q == nil || q.store == nil {
		return Envelope{}, false, ErrNotConfigured
	}
	if len(topics) == 0 {
		return Envelope{}, false, ErrEmptyTopic
	}
	keys := make([]string, 0, len(topics))
	for _, topic := range topics {
		keys = append(keys, q.cfg.topicKey(topic))
	}

	res, err := q.store.BRPop(ctx, q.cfg.BlockTimeout, keys...).Result()
	if errors.Is(err, redis.Nil) {
		return Envelope{}, false, nil
	}
	if err != nil {
		return Envelope{}, false, err
	}
	if len(res) != 2 {
		return Envelope{}, false, ErrInvalidTask
	}
	env, err := decodeEnvelope(res[1])
	if err != nil {
		return Envelope{}, false, err
	}
	return env, true, nil
}

type RedisParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	AppConfig appconfig.Config
	Log       *zap.Logger
}

// NewRedisClient opens the redis connection used by the queue.
func NewRedisClient(p RedisParams) (*redis.Client, error) {
	addr := strings.TrimSpace(p.AppConfig.Redis.Addr)
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: p.AppConfig.Redis.Password,
		DB:       p.AppConfig.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	p.Log.Info("redis connected", zap.String("addr", addr), zap.Int("db", p.AppConfig.Redis.DB))
	return client, nil
}

func provideRedisQueue(client *redis.Client, cfg Config, clk clock.Clock) *RedisQueue {
	return NewRedisQueue(client, cfg, clk)
}
