package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name string
	err  error
	runs atomic.Int64
}

func (j *fakeJob) Name() string        { return j.name }
func (j *fakeJob) Description() string { return "fake job for tests" }

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	return NewScheduler(DefaultSchedulerConfig())
}

func TestScheduler_Register(t *testing.T) {
	s := newTestScheduler(t)
	job := &fakeJob{name: "alpha"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	err := s.Register(&fakeJob{name: "alpha"}, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&fakeJob{name: "beta"}, nil), ErrNilSchedule)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.True(t, infos[0].Enabled)
	assert.Equal(t, "@every 1h0m0s", infos[0].Schedule)
	assert.False(t, infos[0].NextRun.IsZero())
}

func TestScheduler_EnableDisable(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register(&fakeJob{name: "alpha"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.DisableJob("alpha"))
	assert.False(t, s.ListJobs()[0].Enabled)

	require.NoError(t, s.EnableJob("alpha"))
	assert.True(t, s.ListJobs()[0].Enabled)

	assert.ErrorIs(t, s.DisableJob("missing"), ErrJobNotFound)
	assert.ErrorIs(t, s.EnableJob("missing"), ErrJobNotFound)
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler(t)
	job := &fakeJob{name: "alpha"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "alpha")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNowRecordsFailure(t *testing.T) {
	s := newTestScheduler(t)
	jobErr := errors.New("boom")
	job := &fakeJob{name: "alpha", err: jobErr}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "alpha")
	assert.ErrorIs(t, err, jobErr)
	require.NotNil(t, result)
	assert.False(t, result.Success)

	snapshot := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalExecutions)
	assert.Equal(t, int64(1), snapshot.TotalFailures)

	require.NotNil(t, s.ListJobs()[0].LastResult)
	assert.False(t, s.ListJobs()[0].LastResult.Success)
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register(&fakeJob{name: "alpha"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}
