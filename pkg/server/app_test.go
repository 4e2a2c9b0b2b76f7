package server

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EVDemand/internal/scheduler"
	xhttp "EVDemand/pkg/http"
)

func TestAppRunAndStop(t *testing.T) {
	var jobs, closed int32
	sched := scheduler.New(nil, scheduler.Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			atomic.AddInt32(&jobs, 1)
			return nil
		},
	})
	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0), xhttp.WithMetrics(""))
	app := New(nil, srv, sched, nil, nil, Closer{Name: "res", Close: func() error {
		atomic.AddInt32(&closed, 1)
		return nil
	}})

	done := make(chan error, 1)
	go func() { done <- app.Run() }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&jobs) > 0 }, time.Second, 5*time.Millisecond)
	app.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&closed))
}
