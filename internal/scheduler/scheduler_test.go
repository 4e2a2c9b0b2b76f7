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

func TestSchedulerRunsJobs(t *testing.T) {
	var runs int32
	s := New(nil, Job{
		Name:     "count",
		Interval: 20 * time.Millisecond,
		Run: func(context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	})
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerJobErrorKeepsRunning(t *testing.T) {
	var runs int32
	s := New(nil)
	s.Add(Job{
		Name:     "failing",
		Interval: 20 * time.Millisecond,
		Run: func(context.Context) error {
			atomic.AddInt32(&runs, 1)
			return errors.New("boom")
		},
	})
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerRejectsBadJob(t *testing.T) {
	s := New(nil, Job{Name: "bad"})
	assert.Error(t, s.Start())
}

func TestSchedulerNoJobs(t *testing.T) {
	s := New(nil)
	assert.NoError(t, s.Start())
	s.Stop()
}
