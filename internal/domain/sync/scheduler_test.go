package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_TicksOnInterval(t *testing.T) {
	s := NewScheduler(10*time.Millisecond, testLogger())

	var ticks int32
	s.Start(context.Background(), func(ctx context.Context) {
		atomic.AddInt32(&ticks, 1)
	})
	defer s.Stop()

	assert.True(t, s.Running())
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ticks) >= 2
	}, time.Second, 2*time.Millisecond)
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	s := NewScheduler(10*time.Millisecond, testLogger())

	var first, second int32
	s.Start(context.Background(), func(ctx context.Context) {
		atomic.AddInt32(&first, 1)
	})
	// A gateway reconnect fires guild-ready again; it must not spawn a
	// second timer.
	s.Start(context.Background(), func(ctx context.Context) {
		atomic.AddInt32(&second, 1)
	})
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&first) >= 2
	}, time.Second, 2*time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&second))
}

func TestScheduler_StopSuppressesFutureTicks(t *testing.T) {
	s := NewScheduler(5*time.Millisecond, testLogger())

	var ticks int32
	s.Start(context.Background(), func(ctx context.Context) {
		atomic.AddInt32(&ticks, 1)
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ticks) >= 1
	}, time.Second, time.Millisecond)

	s.Stop()
	after := atomic.LoadInt32(&ticks)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&ticks))
}

// Stop must wait for a tick already in flight and must not cancel the
// context that tick runs under; only future ticks are suppressed.
func TestScheduler_StopDoesNotCancelInFlightTick(t *testing.T) {
	s := NewScheduler(5*time.Millisecond, testLogger())

	entered := make(chan struct{})
	release := make(chan struct{})
	var first int32
	var interrupted int32

	s.Start(context.Background(), func(ctx context.Context) {
		if !atomic.CompareAndSwapInt32(&first, 0, 1) {
			return
		}
		close(entered)
		select {
		case <-ctx.Done():
			atomic.AddInt32(&interrupted, 1)
		case <-release:
		}
	})

	<-entered
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	// Stop blocks while the tick is still running.
	select {
	case <-stopped:
		t.Fatal("Stop returned while a tick was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-stopped
	assert.EqualValues(t, 0, atomic.LoadInt32(&interrupted))
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler(time.Hour, testLogger())
	assert.False(t, s.Running())
	s.Stop() // must not panic or block
}

func TestScheduler_ParentContextCancellation(t *testing.T) {
	s := NewScheduler(5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	var ticks int32
	s.Start(ctx, func(ctx context.Context) {
		atomic.AddInt32(&ticks, 1)
	})

	cancel()
	s.Stop() // returns once the loop observed cancellation

	after := atomic.LoadInt32(&ticks)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&ticks))
}
