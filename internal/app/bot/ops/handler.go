package ops

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"racebot/internal/domain/sync"
)

// StatusProvider exposes the bot state the ops endpoints report.
type StatusProvider interface {
	Status() sync.Status
	Connected() bool
}

type Handler struct {
	log        *slog.Logger
	provider   StatusProvider
	middleware huma.Middlewares
	startedAt  time.Time
}

func NewHandler(provider StatusProvider, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		log:        log,
		provider:   provider,
		middleware: middleware,
		startedAt:  time.Now(),
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
	huma.Register(api, h.statusOp(), h.status)
}

func (h *Handler) healthCheck(_ context.Context, _ *HealthInput) (*HealthOutput, error) {
	h.log.Debug("health check request received")

	return &HealthOutput{
		Body: HealthResponse{
			Status: "OK",
		},
	}, nil
}

func (h *Handler) status(_ context.Context, _ *StatusInput) (*StatusOutput, error) {
	st := h.provider.Status()

	resp := StatusResponse{
		Connected:      h.provider.Connected(),
		GuildID:        st.GuildID,
		SyncInProgress: st.InProgress,
		UptimeSeconds:  int64(time.Since(h.startedAt).Seconds()),
	}
	if !st.LastFullSyncAt.IsZero() {
		resp.LastFullSync = st.LastFullSyncAt.UTC().Format(time.RFC3339)
	}

	return &StatusOutput{Body: resp}, nil
}
