package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAt_Fires(t *testing.T) {
	s := New()
	defer s.Close()

	fired := make(chan struct{})
	s.At(time.Now().Add(20*time.Millisecond), func(ctx context.Context) {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("callback did not fire")
	}
}

func TestAt_PastDeadlineFiresImmediately(t *testing.T) {
	s := New()
	defer s.Close()

	fired := make(chan struct{})
	s.At(time.Now().Add(-time.Minute), func(ctx context.Context) {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("callback did not fire")
	}
}

func TestClose_CancelsPendingTimers(t *testing.T) {
	s := New()

	var fired atomic.Bool
	s.At(time.Now().Add(time.Hour), func(ctx context.Context) {
		fired.Store(true)
	})

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return")
	}
	assert.False(t, fired.Load())
}

func TestEvery_Ticks(t *testing.T) {
	s := New()
	defer s.Close()

	var ticks atomic.Int64
	s.Every(10*time.Millisecond, func(ctx context.Context) {
		ticks.Add(1)
	})

	assert.Eventually(t, func() bool {
		return ticks.Load() >= 3
	}, 5*time.Second, 10*time.Millisecond)
}

func TestClose_WaitsForInFlightCallback(t *testing.T) {
	s := New()

	started := make(chan struct{})
	var finished atomic.Bool
	s.At(time.Now(), func(ctx context.Context) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	s.Close()
	assert.True(t, finished.Load())
}
