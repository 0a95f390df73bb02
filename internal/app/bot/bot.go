package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/exp/slog"

	"racebot/internal/app/bot/apiclient"
	"racebot/internal/app/bot/config"
	"racebot/internal/app/bot/ops"
	"racebot/internal/domain/sync"
)

const shutdownTimeout = 10 * time.Second

// App owns the gateway session, the sync service and the optional ops
// server, and ties their lifecycles together.
type App struct {
	config  *config.Config
	log     *slog.Logger
	session *discordgo.Session
	api     *apiclient.Client
	service *sync.Service

	scheduler *sync.Scheduler
	events    *eventHandlers
	commands  *commandHandlers
	opsServer *ops.Server

	connected bool
	mu        gosync.RWMutex
	wg        gosync.WaitGroup
	cancel    context.CancelFunc
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	session, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	api := apiclient.New(cfg, log)
	source := NewGatewaySource(session)
	coordinator := sync.NewCoordinator(log)
	service := sync.NewService(cfg.GuildID, source, api, coordinator, log)
	classifier := sync.NewClassifier(cfg.GuildID)
	scheduler := sync.NewScheduler(cfg.SyncInterval, log)

	app := &App{
		config:    cfg,
		log:       log,
		session:   session,
		api:       api,
		service:   service,
		scheduler: scheduler,
		cancel:    cancel,
	}

	app.events = newEventHandlers(ctx, service, classifier, scheduler, log)
	app.commands = newCommandHandlers(ctx, service, api, cfg, log)

	if cfg.OpsAddress != "" {
		app.opsServer = ops.NewServer(cfg.OpsAddress, app, log)
	}

	return app, nil
}

// NewSession builds a gateway session with the intents the sync pipeline
// needs: guild structure events and the privileged members intent.
func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	session.StateEnabled = true

	return session, nil
}

// Run connects to the gateway and blocks until a termination signal.
func (a *App) Run() error {
	a.events.register(a.session)
	a.commands.register(a.session)
	a.session.AddHandler(a.onConnect)
	a.session.AddHandler(a.onDisconnect)

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("open gateway connection: %w", err)
	}

	if err := a.commands.registerCommands(a.session); err != nil {
		a.closeGateway()
		return err
	}

	if a.opsServer != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.opsServer.Start(); err != nil {
				a.log.Error("ops server failed", slog.Any("error", err))
			}
		}()
	}

	a.log.Info("bot started",
		slog.String("guild_id", a.config.GuildID),
		slog.String("env", a.config.Env),
		slog.Duration("sync_interval", a.config.SyncInterval),
	)

	a.handleSignals()
	a.Shutdown()
	return nil
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigChan
	a.log.Info("received termination signal", slog.String("signal", sig.String()))
}

// Shutdown stops the reconciliation loop, closes the gateway connection and
// drains the ops server, in that order. Syncs already in flight finish or
// time out on their own deadlines; only pending follow-ups are dropped.
func (a *App) Shutdown() {
	a.log.Info("shutting down...")

	a.scheduler.Stop()

	// Close the gateway before cancelling so no new events dispatch after
	// the follow-up guard is torn down.
	a.closeGateway()
	a.cancel()

	if a.opsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.opsServer.Shutdown(ctx); err != nil {
			a.log.Error("ops server shutdown failed", slog.Any("error", err))
		}
	}

	a.wg.Wait()
	a.log.Info("bot stopped")
}

// closeGateway closes the session and logs, rather than returns, any error;
// every caller is already on a teardown path.
func (a *App) closeGateway() {
	if err := a.session.Close(); err != nil {
		a.log.Error("gateway close failed", slog.Any("error", err))
	}
}

// Status implements ops.StatusProvider.
func (a *App) Status() sync.Status {
	return a.service.Status()
}

// Connected implements ops.StatusProvider.
func (a *App) Connected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

func (a *App) onConnect(s *discordgo.Session, _ *discordgo.Connect) {
	a.mu.Lock()
	a.connected = true
	a.mu.Unlock()
}

func (a *App) onDisconnect(s *discordgo.Session, _ *discordgo.Disconnect) {
	a.mu.Lock()
	a.connected = false
	a.mu.Unlock()

	a.log.Warn("gateway disconnected, reconnect pending")
}

// Service exposes the sync service for the one-shot CLI commands.
func (a *App) Service() *sync.Service { return a.service }

// Session exposes the gateway session for the one-shot CLI commands.
func (a *App) Session() *discordgo.Session { return a.session }
