package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/tally/internal/metering/domain"
	"github.com/smallbiznis/tally/internal/metering/promql"
	"github.com/smallbiznis/tally/internal/observability/metrics"
	"github.com/smallbiznis/tally/internal/tagprofile"
	"github.com/smallbiznis/tally/internal/taskqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type backendMock struct {
	mock.Mock
}

func (m *backendMock) QueryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) (domain.QueryResult, error) {
	args := m.Called(ctx, query, start, end, step)
	return args.Get(0).(domain.QueryResult), args.Error(1)
}

// recordingRepo keeps every batch passed to SaveAll.
type recordingRepo struct {
	batches [][]domain.UsageEvent
	err     error
}

func (r *recordingRepo) SaveAll(_ context.Context, _ *gorm.DB, events []domain.UsageEvent) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, events)
	return nil
}

func (r *recordingRepo) DeleteOlderThan(context.Context, *gorm.DB, time.Time) (int64, error) {
	return 0, nil
}

func (r *recordingRepo) CountByAccount(context.Context, *gorm.DB, string) (int64, error) {
	return 0, nil
}

type fixture struct {
	svc     *Service
	backend *backendMock
	repo    *recordingRepo
	queue   *taskqueue.MemoryQueue
}

func newFixture(t *testing.T, batchSize int) *fixture {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	builder, err := promql.NewBuilder(map[string]string{
		promql.DefaultQueryKey: `cores{ebs_account="{{ .AccountID }}"}`,
		"rhosak":               `kafka{ebs_account="{{ .AccountID }}"}`,
	}, 1)
	require.NoError(t, err)
	profile, err := tagprofile.NewProfile([]tagprofile.TagDefinition{
		{Tag: "OpenShift-metrics", MetricQueryKey: "default"},
		{Tag: "rhosak", MetricQueryKey: "rhosak"},
	})
	require.NoError(t, err)

	f := &fixture{
		backend: &backendMock{},
		repo:    &recordingRepo{},
		queue:   taskqueue.NewMemoryQueue(nil),
	}
	f.svc = New(Params{
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    f.repo,
		Backend: f.backend,
		Builder: builder,
		Profile: tagprofile.NewStatic(profile),
		Queue:   f.queue,
		Config:  Config{EventBatchSize: batchSize},
	})
	return f
}

var hour = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func seriesWith(id, support string, samples int) domain.Series {
	s := domain.Series{Labels: map[string]string{}}
	if id != "" {
		s.Labels["_id"] = id
	}
	if support != "" {
		s.Labels["support"] = support
	}
	for i := 0; i < samples; i++ {
		s.Samples = append(s.Samples, domain.Sample{Time: hour.Add(time.Duration(i) * time.Hour), Value: float64(i)})
	}
	return s
}

func TestCollectMetricsAlignsWindowToHour(t *testing.T) {
	f := newFixture(t, 10)
	start := hour.Add(25 * time.Minute)
	end := hour.Add(3*time.Hour + 59*time.Minute)
	f.backend.On("QueryRange", mock.Anything, `cores{ebs_account="acct"}`, hour, hour.Add(3*time.Hour), time.Hour).
		Return(domain.QueryResult{Status: domain.StatusSuccess}, nil)

	saved, err := f.svc.CollectMetrics(context.Background(), "acct", "OpenShift-metrics", start, end)
	require.NoError(t, err)
	assert.Zero(t, saved)
	assert.Empty(t, f.repo.batches)
	f.backend.AssertExpectations(t)
}

func TestCollectMetricsBatches(t *testing.T) {
	tests := []struct {
		samples   []int
		batchSize int
		want      []int
	}{
		{samples: []int{3}, batchSize: 5, want: []int{3}},
		{samples: []int{5}, batchSize: 5, want: []int{5}},
		{samples: []int{4, 3}, batchSize: 3, want: []int{3, 3, 1}},
		{samples: []int{6, 6}, batchSize: 4, want: []int{4, 4, 4}},
		{samples: []int{1, 1, 1}, batchSize: 1, want: []int{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v_by_%d", tt.samples, tt.batchSize), func(t *testing.T) {
			f := newFixture(t, tt.batchSize)
			result := domain.QueryResult{Status: domain.StatusSuccess}
			total := 0
			for i, n := range tt.samples {
				result.Series = append(result.Series, seriesWith(fmt.Sprintf("cluster-%d", i), "Premium", n))
				total += n
			}
			f.backend.On("QueryRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(result, nil)

			saved, err := f.svc.CollectMetrics(context.Background(), "acct", "OpenShift-metrics", hour, hour.Add(6*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, total, saved)

			sizes := make([]int, 0, len(f.repo.batches))
			var all []domain.UsageEvent
			for _, b := range f.repo.batches {
				sizes = append(sizes, len(b))
				all = append(all, b...)
			}
			assert.Equal(t, tt.want, sizes)
			require.Len(t, all, total)

			ids := map[snowflake.ID]struct{}{}
			for _, e := range all {
				ids[e.ID] = struct{}{}
			}
			assert.Len(t, ids, total)

			// series order, then sample order
			assert.Equal(t, "cluster-0", all[0].ClusterID)
			assert.Equal(t, fmt.Sprintf("cluster-%d", len(tt.samples)-1), all[total-1].ClusterID)
		})
	}
}

func TestCollectMetricsEventFields(t *testing.T) {
	f := newFixture(t, 10)
	f.backend.On("QueryRange", mock.Anything, `kafka{ebs_account="acct"}`, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.QueryResult{Status: domain.StatusSuccess, Series: []domain.Series{
			seriesWith("c1", "Premium", 2),
			seriesWith("", "", 1),
		}}, nil)

	_, err := f.svc.CollectMetrics(context.Background(), "acct", "rhosak", hour, hour.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, f.repo.batches, 1)
	events := f.repo.batches[0]
	require.Len(t, events, 3)

	assert.Equal(t, "acct", events[0].AccountID)
	assert.Equal(t, "c1", events[0].ClusterID)
	assert.Equal(t, "Premium", events[0].ServiceLevel)
	assert.Equal(t, "rhosak", events[0].MetricKind)
	assert.Equal(t, hour, events[0].OccurredAt)
	assert.Equal(t, hour.Add(time.Hour), events[1].OccurredAt)
	assert.Equal(t, 1.0, events[1].Value)
	assert.Equal(t, "c1", events[0].Labels["_id"])

	assert.Empty(t, events[2].ClusterID)
	assert.Empty(t, events[2].ServiceLevel)
}

func TestCollectMetricsErrorStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, 10)
	f.svc.metrics = metrics.NewForRegistry(reg, metrics.Config{})
	f.backend.On("QueryRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.QueryResult{Status: domain.StatusError, Error: "FORCED"}, nil)

	_, err := f.svc.CollectMetrics(context.Background(), "acct", "OpenShift-metrics", hour, hour)
	require.Error(t, err)
	assert.True(t, domain.IsMeteringError(err))
	assert.EqualError(t, err, "Unable to fetch OpenShift-metrics metrics: FORCED")
	assert.Empty(t, f.repo.batches)

	expected := `
# HELP tally_metering_query_errors_total Metering queries that returned an error status.
# TYPE tally_metering_query_errors_total counter
tally_metering_query_errors_total{env="unknown",product_tag="OpenShift-metrics",service="tally"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tally_metering_query_errors_total"))
}

func TestCollectMetricsTransportError(t *testing.T) {
	f := newFixture(t, 10)
	boom := errors.New("connection refused")
	f.backend.On("QueryRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.QueryResult{}, boom)

	_, err := f.svc.CollectMetrics(context.Background(), "acct", "OpenShift-metrics", hour, hour)
	assert.ErrorIs(t, err, boom)
	assert.False(t, domain.IsMeteringError(err))
}

func TestCollectMetricsStopsOnSaveError(t *testing.T) {
	f := newFixture(t, 2)
	f.repo.err = errors.New("disk full")
	f.backend.On("QueryRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.QueryResult{Status: domain.StatusSuccess, Series: []domain.Series{seriesWith("c", "", 5)}}, nil)

	saved, err := f.svc.CollectMetrics(context.Background(), "acct", "OpenShift-metrics", hour, hour.Add(5*time.Hour))
	assert.EqualError(t, err, "disk full")
	assert.Zero(t, saved)
}

func TestCollectMetricsValidation(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	_, err := f.svc.CollectMetrics(ctx, "", "OpenShift-metrics", hour, hour)
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)
	_, err = f.svc.CollectMetrics(ctx, "acct", " ", hour, hour)
	assert.ErrorIs(t, err, domain.ErrInvalidMetricKind)
	_, err = f.svc.CollectMetrics(ctx, "acct", "OpenShift-metrics", hour, hour.Add(-2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	assert.Empty(t, f.backend.Calls)
}

func TestEnqueueAndHandle(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	task := domain.MeteringTask{AccountID: "acct", MetricKind: "OpenShift-metrics", Start: hour, End: hour.Add(time.Hour)}
	require.NoError(t, f.svc.EnqueueCollectMetrics(ctx, task))

	sent := f.queue.Sent(domain.TopicMetering)
	require.Len(t, sent, 1)
	var decoded domain.MeteringTask
	require.NoError(t, json.Unmarshal(sent[0].Payload, &decoded))
	assert.Equal(t, "acct", decoded.AccountID)

	f.backend.On("QueryRange", mock.Anything, mock.Anything, hour, hour.Add(time.Hour), mock.Anything).
		Return(domain.QueryResult{Status: domain.StatusSuccess, Series: []domain.Series{seriesWith("c", "", 1)}}, nil)
	h := NewHandler(f.svc, zap.NewNop())
	assert.Equal(t, domain.TopicMetering, h.Topic())
	require.NoError(t, h.Handle(ctx, sent[0].Payload))
	assert.Len(t, f.repo.batches, 1)

	err := h.Handle(ctx, []byte(`{"accountId":"acct"}`))
	assert.ErrorIs(t, err, metrics.ErrDecode)
	assert.ErrorIs(t, err, domain.ErrInvalidMetricKind)

	assert.ErrorIs(t, f.svc.EnqueueCollectMetrics(ctx, domain.MeteringTask{MetricKind: "x"}), domain.ErrInvalidAccount)
}
