package sync

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCoordinator_RunsWhenIdle(t *testing.T) {
	c := NewCoordinator(testLogger())

	var calls int32
	err := c.RunExclusive(context.Background(), "g1", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	st := c.Status("g1")
	assert.False(t, st.InProgress)
	assert.False(t, st.LastFullSyncAt.IsZero())
}

func TestCoordinator_CoalescesRequestDuringInFlightSync(t *testing.T) {
	c := NewCoordinator(testLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	var holderRuns, deferredRuns int32

	done := make(chan error, 1)
	go func() {
		done <- c.RunExclusive(context.Background(), "g1", func(ctx context.Context) error {
			atomic.AddInt32(&holderRuns, 1)
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	assert.True(t, c.Status("g1").InProgress)

	// Request arriving mid-flight defers; its run happens after the holder.
	err := c.RunExclusive(context.Background(), "g1", func(ctx context.Context) error {
		atomic.AddInt32(&deferredRuns, 1)
		return nil
	})
	assert.ErrorIs(t, err, ErrSyncDeferred)
	assert.EqualValues(t, 0, atomic.LoadInt32(&deferredRuns))

	close(release)
	require.NoError(t, <-done)

	// The holder executed the deferred request itself, exactly once.
	assert.EqualValues(t, 1, atomic.LoadInt32(&holderRuns))
	assert.EqualValues(t, 1, atomic.LoadInt32(&deferredRuns))
	assert.False(t, c.Status("g1").InProgress)
}

// A member sync deferred behind a role sync must still sync members, not
// repeat the role sync.
func TestCoordinator_FollowUpRunsTheDeferredRequest(t *testing.T) {
	c := NewCoordinator(testLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	var roleRuns, memberRuns int32

	done := make(chan error, 1)
	go func() {
		done <- c.RunExclusive(context.Background(), "g1", func(ctx context.Context) error {
			atomic.AddInt32(&roleRuns, 1)
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	err := c.RunExclusive(context.Background(), "g1", func(ctx context.Context) error {
		atomic.AddInt32(&memberRuns, 1)
		return nil
	})
	assert.ErrorIs(t, err, ErrSyncDeferred)

	close(release)
	require.NoError(t, <-done)

	assert.EqualValues(t, 1, atomic.LoadInt32(&roleRuns))
	assert.EqualValues(t, 1, atomic.LoadInt32(&memberRuns))
}

func TestCoordinator_ManyDeferredRequestsCoalesceIntoOneFollowUp(t *testing.T) {
	c := NewCoordinator(testLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	var followUps int32
	var lastRan int32

	done := make(chan error, 1)
	go func() {
		done <- c.RunExclusive(context.Background(), "g1", func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	for i := 1; i <= 5; i++ {
		i := i
		err := c.RunExclusive(context.Background(), "g1", func(ctx context.Context) error {
			atomic.AddInt32(&followUps, 1)
			atomic.StoreInt32(&lastRan, int32(i))
			return nil
		})
		assert.ErrorIs(t, err, ErrSyncDeferred)
	}

	close(release)
	require.NoError(t, <-done)

	// The most recent deferred request supersedes the earlier ones.
	assert.EqualValues(t, 1, atomic.LoadInt32(&followUps))
	assert.EqualValues(t, 5, atomic.LoadInt32(&lastRan))
}

func TestCoordinator_ReleasesGuardOnFailure(t *testing.T) {
	c := NewCoordinator(testLogger())

	wantErr := errors.New("remote store unavailable")
	err := c.RunExclusive(context.Background(), "g1", func(ctx context.Context) error {
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)

	st := c.Status("g1")
	assert.False(t, st.InProgress)
	// Only successful runs count as a completed full sync.
	assert.True(t, st.LastFullSyncAt.IsZero())

	// The guard must be reusable after a failure.
	require.NoError(t, c.RunExclusive(context.Background(), "g1", func(ctx context.Context) error {
		return nil
	}))
}

func TestCoordinator_GuildsAreIndependent(t *testing.T) {
	c := NewCoordinator(testLogger())

	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = c.RunExclusive(context.Background(), "g1", func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	defer close(release)

	var ran bool
	err := c.RunExclusive(context.Background(), "g2", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestCoordinator_DropsFollowUpOnCancelledContext(t *testing.T) {
	c := NewCoordinator(testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	done := make(chan error, 1)
	go func() {
		done <- c.RunExclusive(ctx, "g1", func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	assert.ErrorIs(t, c.RunExclusive(ctx, "g1", func(ctx context.Context) error { return nil }), ErrSyncDeferred)

	cancel()
	close(release)
	require.NoError(t, <-done)

	// Shutdown suppresses the pending follow-up; the in-flight run still completed.
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.False(t, c.Status("g1").InProgress)
}

// Cancelling the caller's context must not abort the remote call already in
// flight; it only suppresses the pending follow-up.
func TestCoordinator_CancellationDoesNotReachInFlightRun(t *testing.T) {
	c := NewCoordinator(testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	var interrupted int32

	err := c.RunExclusive(ctx, "g1", func(runCtx context.Context) error {
		cancel()
		select {
		case <-runCtx.Done():
			atomic.AddInt32(&interrupted, 1)
		case <-time.After(20 * time.Millisecond):
		}
		return nil
	})

	require.NoError(t, err)
	assert.EqualValues(t, 0, atomic.LoadInt32(&interrupted))
	assert.False(t, c.Status("g1").InProgress)
}
