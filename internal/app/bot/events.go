package bot

import (
	"context"
	"errors"
	gosync "sync"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/exp/slog"

	"racebot/internal/domain/guild"
	"racebot/internal/domain/sync"
)

// eventHandlers wires gateway events into sync requests. Role update events
// carry no before-state, so a process-local role mirror keeps the last seen
// snapshot per role; it is seeded on guild-ready and maintained per event.
type eventHandlers struct {
	service    *sync.Service
	classifier *sync.Classifier
	scheduler  *sync.Scheduler
	log        *slog.Logger

	botUserID string

	mu         gosync.Mutex
	roleMirror map[string]guild.RoleSnapshot

	ctx context.Context
}

func newEventHandlers(ctx context.Context, service *sync.Service, classifier *sync.Classifier, scheduler *sync.Scheduler, log *slog.Logger) *eventHandlers {
	return &eventHandlers{
		service:    service,
		classifier: classifier,
		scheduler:  scheduler,
		log:        log.With(slog.String("component", "events")),
		roleMirror: make(map[string]guild.RoleSnapshot),
		ctx:        ctx,
	}
}

func (h *eventHandlers) register(s *discordgo.Session) {
	s.AddHandler(h.onReady)
	s.AddHandler(h.onGuildCreate)
	s.AddHandler(h.onGuildRoleCreate)
	s.AddHandler(h.onGuildRoleUpdate)
	s.AddHandler(h.onGuildRoleDelete)
	s.AddHandler(h.onGuildMemberUpdate)
}

func (h *eventHandlers) onReady(s *discordgo.Session, r *discordgo.Ready) {
	h.mu.Lock()
	h.botUserID = r.User.ID
	h.mu.Unlock()

	h.log.Info("gateway connected",
		slog.String("bot_user", r.User.Username),
		slog.Int("guilds", len(r.Guilds)),
	)
}

func (h *eventHandlers) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	req := h.classifier.GuildReady(g.ID)
	if req.Kind == sync.RequestNone {
		return
	}

	h.seedRoleMirror(g.Roles)

	h.log.Info("guild available",
		slog.String("guild_id", g.ID),
		slog.Int("roles", len(g.Roles)),
		slog.Int("members", g.MemberCount),
	)

	h.dispatch(req)

	// The periodic reconciliation starts only once the guild is ready; a
	// reconnect fires this event again and Start is a no-op then.
	h.scheduler.Start(h.ctx, func(ctx context.Context) {
		if _, err := h.service.SyncGuildRoles(ctx, h.actingUserID()); err != nil && !errors.Is(err, sync.ErrSyncDeferred) {
			h.log.Error("scheduled role sync failed", slog.Any("error", err))
		}
	})
}

func (h *eventHandlers) onGuildRoleCreate(s *discordgo.Session, e *discordgo.GuildRoleCreate) {
	req := h.classifier.RoleCreated(e.GuildID)
	if req.Kind == sync.RequestNone {
		return
	}

	h.storeRole(roleSnapshot(e.Role))
	h.dispatch(req)
}

func (h *eventHandlers) onGuildRoleUpdate(s *discordgo.Session, e *discordgo.GuildRoleUpdate) {
	after := roleSnapshot(e.Role)
	before := h.swapRole(after)

	req := h.classifier.RoleUpdated(e.GuildID, before, after)
	if req.Kind == sync.RequestNone {
		return
	}
	h.dispatch(req)
}

func (h *eventHandlers) onGuildRoleDelete(s *discordgo.Session, e *discordgo.GuildRoleDelete) {
	req := h.classifier.RoleDeleted(e.GuildID)
	if req.Kind == sync.RequestNone {
		return
	}

	h.dropRole(e.RoleID)
	h.dispatch(req)
}

func (h *eventHandlers) onGuildMemberUpdate(s *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	var before *guild.MemberSnapshot
	if e.BeforeUpdate != nil {
		b := memberSnapshot(e.BeforeUpdate)
		before = &b
	}
	after := memberSnapshot(e.Member)

	req := h.classifier.MemberUpdated(e.GuildID, before, after)
	if req.Kind == sync.RequestNone {
		return
	}
	h.dispatch(req)
}

// dispatch runs the classified request off the gateway event goroutine so
// slow remote calls never stall event delivery. Deferred full syncs are
// expected and only logged.
func (h *eventHandlers) dispatch(req sync.Request) {
	go func() {
		var err error
		switch req.Kind {
		case sync.RequestFullRoleSync:
			_, err = h.service.SyncGuildRoles(h.ctx, h.actingUserID())
		case sync.RequestMemberRoleSync:
			// Shutdown never aborts a member sync mid-call; its own
			// deadline bounds it.
			_, err = h.service.SyncMemberRoles(context.WithoutCancel(h.ctx), req.MemberID, req.RoleIDs)
		default:
			return
		}

		if errors.Is(err, sync.ErrSyncDeferred) {
			h.log.Debug("sync coalesced into in-flight run", slog.String("reason", req.Reason))
			return
		}
		if err != nil {
			h.log.Error("event-driven sync failed",
				slog.String("reason", req.Reason),
				slog.Any("error", err),
			)
		}
	}()
}

func (h *eventHandlers) actingUserID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.botUserID
}

func (h *eventHandlers) seedRoleMirror(roles []*discordgo.Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roleMirror = make(map[string]guild.RoleSnapshot, len(roles))
	for _, r := range roles {
		h.roleMirror[r.ID] = roleSnapshot(r)
	}
}

func (h *eventHandlers) storeRole(snap guild.RoleSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roleMirror[snap.ID] = snap
}

// swapRole stores the new snapshot and returns the previous one, or nil when
// the role was never seen.
func (h *eventHandlers) swapRole(snap guild.RoleSnapshot) *guild.RoleSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	var before *guild.RoleSnapshot
	if prev, ok := h.roleMirror[snap.ID]; ok {
		before = &prev
	}
	h.roleMirror[snap.ID] = snap
	return before
}

func (h *eventHandlers) dropRole(roleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.roleMirror, roleID)
}
