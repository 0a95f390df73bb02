package sync

import (
	"context"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"
)

// Coordinator serializes full-guild syncs. At most one full-guild sync per
// guild is in flight at any time; a request arriving while one is running is
// coalesced into a single pending follow-up executed by the in-flight holder
// immediately after its own run returns. Single-member syncs are narrow-scope
// operations and are not gated here.
//
// The guard is an explicit mutex-protected flag because handlers, the
// scheduler and commands run on genuinely parallel goroutines.
type Coordinator struct {
	log *slog.Logger

	mu     gosync.Mutex
	guilds map[string]*guildState
}

// guildState is created lazily on the first sync attempt for a guild and
// lives for the process lifetime. pending holds the most recently deferred
// request; an older deferred request is superseded, never queued behind it.
type guildState struct {
	inProgress   bool
	pending      func(context.Context) error
	lastFullSync time.Time
}

func NewCoordinator(log *slog.Logger) *Coordinator {
	return &Coordinator{
		log:    log.With(slog.String("component", "sync_coordinator")),
		guilds: make(map[string]*guildState),
	}
}

// RunExclusive admits fn as the single in-flight full-guild sync for guildID.
// If a sync is already running the request returns ErrSyncDeferred and fn is
// parked as the pending follow-up; the holder runs it right after its own run
// returns, so a deferred member sync behind a role sync still syncs members.
// Follow-up failures are logged, not returned. The guard is released
// unconditionally, success or failure.
//
// fn runs under a context that survives cancellation of ctx: an in-flight
// remote call finishes or times out on its own deadline even during shutdown.
func (c *Coordinator) RunExclusive(ctx context.Context, guildID string, fn func(context.Context) error) error {
	if !c.acquire(guildID, fn) {
		c.log.Info("full-guild sync already in flight, coalescing request",
			slog.String("guild_id", guildID),
		)
		return ErrSyncDeferred
	}

	err := fn(context.WithoutCancel(ctx))
	if err == nil {
		c.markSynced(guildID)
	}

	for {
		followUp := c.release(guildID)
		if followUp == nil {
			return err
		}
		if ctx.Err() != nil {
			// Shutting down: the follow-up is dropped, the next
			// reconciliation pass covers it.
			c.clear(guildID)
			return err
		}
		c.log.Info("running coalesced follow-up sync", slog.String("guild_id", guildID))
		if ferr := followUp(context.WithoutCancel(ctx)); ferr != nil {
			c.log.Error("coalesced follow-up sync failed",
				slog.String("guild_id", guildID),
				slog.Any("error", ferr),
			)
		} else {
			c.markSynced(guildID)
		}
	}
}

// Status reports the process-local sync state for guildID.
func (c *Coordinator) Status(guildID string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(guildID)
	return Status{
		GuildID:        guildID,
		InProgress:     st.inProgress,
		LastFullSyncAt: st.lastFullSync,
	}
}

func (c *Coordinator) acquire(guildID string, fn func(context.Context) error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(guildID)
	if st.inProgress {
		st.pending = fn
		return false
	}
	st.inProgress = true
	return true
}

// release clears the in-progress flag unless a coalesced follow-up is
// pending, in which case the holder keeps the guard and receives the
// deferred request to run.
func (c *Coordinator) release(guildID string) func(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(guildID)
	if st.pending != nil {
		followUp := st.pending
		st.pending = nil
		return followUp
	}
	st.inProgress = false
	return nil
}

func (c *Coordinator) clear(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state(guildID)
	st.inProgress = false
	st.pending = nil
}

func (c *Coordinator) markSynced(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state(guildID).lastFullSync = time.Now()
}

// state must be called with c.mu held.
func (c *Coordinator) state(guildID string) *guildState {
	st, ok := c.guilds[guildID]
	if !ok {
		st = &guildState{}
		c.guilds[guildID] = st
	}
	return st
}
