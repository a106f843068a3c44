// Package prometheus adapts the Prometheus HTTP API to the metering backend.
package prometheus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/smallbiznis/tally/internal/config"
	"github.com/smallbiznis/tally/internal/metering/domain"
	"go.uber.org/zap"
)

type Client struct {
	api     v1.API
	timeout time.Duration
	log     *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) (*Client, error) {
	return NewClient(cfg.Prometheus.URL, cfg.Prometheus.Timeout, log)
}

func NewClient(address string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("prometheus_url_required")
	}
	c, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("prometheus client: %w", err)
	}
	return &Client{
		api:     v1.NewAPI(c),
		timeout: timeout,
		log:     log.Named("metering.prometheus"),
	}, nil
}

// QueryRange runs query over [start, end]. An error reported by the API is
// returned as a result with StatusError; transport failures are returned as
// errors.
func (c *Client) QueryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) (domain.QueryResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	value, warnings, err := c.api.QueryRange(ctx, query, v1.Range{Start: start, End: end, Step: step})
	if len(warnings) > 0 {
		c.log.Warn("prometheus query returned warnings", zap.Strings("warnings", warnings))
	}
	if err != nil {
		var apiErr *v1.Error
		if errors.As(err, &apiErr) && apiErr.Type != v1.ErrClient && apiErr.Type != v1.ErrTimeout && apiErr.Type != v1.ErrCanceled {
			return domain.QueryResult{Status: domain.StatusError, Error: apiErr.Msg}, nil
		}
		return domain.QueryResult{}, fmt.Errorf("prometheus query range: %w", err)
	}

	matrix, ok := value.(model.Matrix)
	if !ok {
		return domain.QueryResult{
			Status: domain.StatusError,
			Error:  fmt.Sprintf("unexpected result type %s", value.Type()),
		}, nil
	}
	return domain.QueryResult{Status: domain.StatusSuccess, Series: fromMatrix(matrix)}, nil
}

func fromMatrix(matrix model.Matrix) []domain.Series {
	out := make([]domain.Series, 0, len(matrix))
	for _, stream := range matrix {
		labels := make(map[string]string, len(stream.Metric))
		for name, value := range stream.Metric {
			labels[string(name)] = string(value)
		}
		samples := make([]domain.Sample, 0, len(stream.Values))
		for _, pair := range stream.Values {
			samples = append(samples, domain.Sample{
				Time:  pair.Timestamp.Time().UTC(),
				Value: float64(pair.Value),
			})
		}
		out = append(out, domain.Series{Labels: labels, Samples: samples})
	}
	return out
}
