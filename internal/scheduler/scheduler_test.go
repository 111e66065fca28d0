package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/magicformula/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	failures int32
	calls    atomic.Int32
	block    bool
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if j.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if n <= j.failures {
		return errors.New("boom")
	}
	return nil
}

func newTestScheduler(retries int) *Scheduler {
	return New(logger.Nop(), WithRetry(retries, 0))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler(0)

	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))
	require.NoError(t, s.AddJob(&stubJob{name: "b", schedule: "0 */5 * * * *"}))

	err := s.AddJob(&stubJob{name: "a", schedule: "@hourly"})
	assert.ErrorContains(t, err, "already exists")

	err = s.AddJob(&stubJob{name: "c", schedule: "not a cron"})
	assert.ErrorContains(t, err, "failed to schedule job c")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler(0)
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))

	_, err := s.GetJobHistory("a")
	assert.Error(t, err)
}

func TestRunJobSync_Success(t *testing.T) {
	s := newTestScheduler(3)
	job := &stubJob{name: "ok", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("ok")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, result.Error)
	assert.EqualValues(t, 1, job.calls.Load())
}

func TestRunJobSync_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler(3)
	job := &stubJob{name: "flaky", schedule: "@hourly", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("flaky")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
}

func TestRunJobSync_FailsAfterRetries(t *testing.T) {
	s := newTestScheduler(2)
	job := &stubJob{name: "broken", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("broken")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "boom", result.Error)

	history, err := s.GetJobHistory("broken")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
}

func TestRunJobSync_Unknown(t *testing.T) {
	s := newTestScheduler(0)
	_, err := s.RunJobSync("missing")
	assert.ErrorContains(t, err, "not found")
	assert.Error(t, s.RunJob("missing"))
}

func TestGetJobStats(t *testing.T) {
	s := newTestScheduler(0)
	job := &stubJob{name: "mixed", schedule: "@hourly", failures: 1}
	require.NoError(t, s.AddJob(job))

	_, err := s.RunJobSync("mixed")
	require.NoError(t, err)
	_, err = s.RunJobSync("mixed")
	require.NoError(t, err)

	stats := s.GetJobStats()
	require.Contains(t, stats, "mixed")
	st := stats["mixed"]

	assert.Equal(t, "@hourly", st.Schedule)
	assert.Equal(t, 2, st.TotalRuns)
	assert.Equal(t, 1, st.SuccessCount)
	assert.Equal(t, 1, st.FailureCount)
	assert.InDelta(t, 0.5, st.SuccessRate, 1e-9)
	require.NotNil(t, st.LastRun)
	require.NotNil(t, st.LastSuccess)
	require.NotNil(t, st.LastFailure)
	assert.False(t, st.LastSuccess.Before(*st.LastFailure))
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := newTestScheduler(3)
	job := &stubJob{name: "long", schedule: "@hourly", block: true}
	require.NoError(t, s.AddJob(job))
	s.Start()

	require.NoError(t, s.RunJob("long"))
	require.Eventually(t, func() bool { return job.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	history, err := s.GetJobHistory("long")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Equal(t, 1, history.Results[0].Attempts)
}

func TestJobHistory_Bounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+20; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Len(t, h.GetLatestResults(1000), maxHistory)
	assert.Empty(t, h.GetLatestResults(0))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Equal(t, 0.0, (&JobHistory{}).GetSuccessRate())
}
