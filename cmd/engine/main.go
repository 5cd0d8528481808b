// Command engine runs the matching engine process: it accepts commands
// from the gateway over TCP, matches them against a single in-memory
// order book, and publishes resulting events to AMQP for the persistor.
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
	"fenrir/internal/engine"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("engine exited")
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

	sink, err := engine.DialAMQPSink(settings.AMQP)
	if err != nil {
		return fmt.Errorf("connect to amqp: %w", err)
	}
	defer sink.Close()

	eng := engine.New()

	errs := make(chan error, 2)
	go func() {
		errs <- engine.Broadcast(eng, sink)
	}()
	go func() {
		addr := fmt.Sprintf("%s:%d", settings.Engine.Host, settings.Engine.Port)
		errs <- engine.ListenAndServe(ctx, addr, eng)
	}()
	go func() {
		errs <- eng.Run()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errs:
		return err
	}
}
