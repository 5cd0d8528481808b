// Command gateway runs the HTTP API surface: it accepts order placement
// and cancellation requests and forwards them to the matching engine over
// a reconnecting TCP connection.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fenrir/internal/config"
	"fenrir/internal/gateway"
)

// shutdownTimeout bounds how long in-flight requests get to finish once
// the process is asked to stop.
const shutdownTimeout = 5 * time.Second

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("gateway exited")
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

	queue := gateway.NewQueue()
	engineAddr := fmt.Sprintf("%s:%d", settings.Engine.Host, settings.Engine.Port)
	manager := gateway.NewConnectionManager(engineAddr, queue)
	go manager.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	gateway.NewHandlers(queue).Register(router)

	addr := fmt.Sprintf("%s:%d", settings.Application.Host, settings.Application.Port)
	server := &http.Server{Addr: addr, Handler: router}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("gateway: serve: %w", err)
			return
		}
		errs <- nil
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway: shutdown: %w", err)
		}
		return nil
	}
}
