// Command persistor consumes engine events off AMQP and writes them to
// SQLite.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fenrir/internal/config"
	"fenrir/internal/persistor"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("persistor exited")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configDir := os.Getenv("FENRIR_CONFIG_DIR")
	if configDir == "" {
		configDir = "configuration"
	}
	settings, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := persistor.Open(settings.Database.File, settings.Engine.BaseCurrency, settings.Engine.QuoteCurrency)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	consumer, err := persistor.Dial(settings.AMQP, store)
	if err != nil {
		return fmt.Errorf("connect to amqp: %w", err)
	}
	defer consumer.Close()

	return consumer.Run(ctx)
}
