package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"racebot/internal/domain/guild"
)

// Source supplies fresh snapshots from the live gateway state. Snapshots are
// taken at the moment a sync request is admitted and are never cached or
// diffed against a locally stored prior version.
type Source interface {
	Roles(guildID string) ([]guild.RoleSnapshot, error)
	Members(guildID string) ([]guild.MemberSnapshot, error)
}

// Client performs the remote store calls. Implementations attempt each call
// exactly once under its fixed deadline and classify every failure as a
// *Failure value.
type Client interface {
	SyncGuildRoles(ctx context.Context, actingUserID string, roles []guild.RoleSnapshot) (*RoleSyncResult, error)
	SyncGuildMembers(ctx context.Context, actingUserID string, members []guild.MemberSnapshot) (*MemberSyncResult, error)
	SyncUserRoles(ctx context.Context, memberID string, roleIDs []string) (*UserRoleSyncResult, error)
}

// Service orchestrates guild state synchronization: it snapshots the live
// source, runs full-guild syncs under the coordinator guard and passes
// single-member syncs straight through. Results are returned to the caller
// only; nothing is persisted locally.
type Service struct {
	guildID string
	source  Source
	client  Client
	coord   *Coordinator
	log     *slog.Logger
}

func NewService(guildID string, source Source, client Client, coord *Coordinator, log *slog.Logger) *Service {
	return &Service{
		guildID: guildID,
		source:  source,
		client:  client,
		coord:   coord,
		log:     log.With(slog.String("component", "sync_service")),
	}
}

// SyncGuildRoles sends the complete current role list to the remote store
// under the per-guild mutual exclusion guard. A request admitted while a
// full-guild sync is in flight returns (nil, ErrSyncDeferred) and is
// coalesced into one follow-up run.
func (s *Service) SyncGuildRoles(ctx context.Context, actingUserID string) (*RoleSyncResult, error) {
	var result *RoleSyncResult
	err := s.coord.RunExclusive(ctx, s.guildID, func(ctx context.Context) error {
		syncID := uuid.NewString()

		roles, err := s.source.Roles(s.guildID)
		if err != nil {
			s.log.Error("failed to snapshot guild roles",
				slog.String("sync_id", syncID),
				slog.String("guild_id", s.guildID),
				slog.Any("error", err),
			)
			return fmt.Errorf("snapshot guild roles: %w", err)
		}

		res, err := s.client.SyncGuildRoles(ctx, actingUserID, roles)
		if err != nil {
			return err
		}

		s.log.Info("synced guild roles",
			slog.String("sync_id", syncID),
			slog.String("guild_id", s.guildID),
			slog.Int("created", res.Created),
			slog.Int("updated", res.Updated),
			slog.Int("deleted", res.Deleted),
			slog.Int("total", res.Total),
		)
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SyncGuildMembers sends the complete current member list to the remote
// store, gated by the same per-guild guard as the role sync.
func (s *Service) SyncGuildMembers(ctx context.Context, actingUserID string) (*MemberSyncResult, error) {
	var result *MemberSyncResult
	err := s.coord.RunExclusive(ctx, s.guildID, func(ctx context.Context) error {
		syncID := uuid.NewString()

		members, err := s.source.Members(s.guildID)
		if err != nil {
			s.log.Error("failed to snapshot guild members",
				slog.String("sync_id", syncID),
				slog.String("guild_id", s.guildID),
				slog.Any("error", err),
			)
			return fmt.Errorf("snapshot guild members: %w", err)
		}

		s.log.Info("syncing guild members",
			slog.String("sync_id", syncID),
			slog.String("guild_id", s.guildID),
			slog.Int("member_count", len(members)),
		)

		res, err := s.client.SyncGuildMembers(ctx, actingUserID, members)
		if err != nil {
			return err
		}

		s.log.Info("synced guild members",
			slog.String("sync_id", syncID),
			slog.Int("created", res.Created),
			slog.Int("updated", res.Updated),
			slog.Int("rejoined", res.Rejoined),
			slog.Int("left", res.Left),
			slog.Int("linked", res.Linked),
			slog.Int("total_active", res.TotalActive),
		)
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SyncMemberRoles updates one member's role set remotely. It is not gated by
// the coordinator: single-member syncs may run concurrently with a full-guild
// sync and with each other, with no ordering guarantee between them.
func (s *Service) SyncMemberRoles(ctx context.Context, memberID string, roleIDs []string) (*UserRoleSyncResult, error) {
	res, err := s.client.SyncUserRoles(ctx, memberID, roleIDs)
	if err != nil {
		return nil, err
	}
	if !res.Linked {
		// Expected for members without a remote account; keep quiet.
		s.log.Debug("member has no linked account, sync skipped",
			slog.String("member_id", memberID),
		)
		return res, nil
	}
	s.log.Info("synced member roles",
		slog.String("member_id", memberID),
		slog.Int("roles_synced", res.RolesSynced),
	)
	return res, nil
}

// Status reports the process-local sync state for the configured guild.
func (s *Service) Status() Status {
	return s.coord.Status(s.guildID)
}

// GuildID returns the statically configured target guild.
func (s *Service) GuildID() string { return s.guildID }
