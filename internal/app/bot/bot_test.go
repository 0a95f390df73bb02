package bot

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"racebot/internal/app/bot/config"
)

func newTestApp(t *testing.T, logBuf *bytes.Buffer) *App {
	t.Helper()
	cfg := &config.Config{
		Env:          config.EnvLocal,
		Token:        "test-token",
		GuildID:      "g1",
		APIURL:       "http://localhost:0",
		APIKey:       "k",
		SyncInterval: time.Hour,
	}
	app, err := New(cfg, slog.New(slog.NewTextHandler(logBuf, nil)))
	require.NoError(t, err)
	return app
}

func TestApp_CloseGatewayOnUnopenedSession(t *testing.T) {
	var logBuf bytes.Buffer
	app := newTestApp(t, &logBuf)

	// Teardown on a never-opened session neither panics nor logs an error.
	app.closeGateway()
	assert.NotContains(t, logBuf.String(), "gateway close failed")
}

func TestApp_ConnectedTracksGatewayState(t *testing.T) {
	var logBuf bytes.Buffer
	app := newTestApp(t, &logBuf)

	assert.False(t, app.Connected())
	app.onConnect(app.session, nil)
	assert.True(t, app.Connected())
	app.onDisconnect(app.session, nil)
	assert.False(t, app.Connected())
}
