package logger

import (
	"os"

	"golang.org/x/exp/slog"

	"racebot/internal/app/bot/config"
)

// New builds the application logger for the given environment: pretty
// colorized output for local runs, JSON for dev and prod. Prod logs at
// Info, everything else at Debug.
func New(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
