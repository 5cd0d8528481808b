package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/wire"
	"fenrir/internal/workerpool"
)

// MaxConnections bounds concurrent gateway connections the engine will
// service. The gateway is expected to hold one long-lived connection per
// process, so this is generous headroom rather than a tight budget.
const MaxConnections = 64

// ListenAndServe accepts connections on addr and feeds every decoded
// command frame into e.Commands until ctx is cancelled or the listener
// fails. Each connection is read by its own goroutine under t, so a slow
// or wedged client never blocks another.
func ListenAndServe(ctx context.Context, addr string, e *Engine) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("engine: listen on %s: %w", addr, err)
	}

	t, ctx := tomb.WithContext(ctx)
	pool := workerpool.New(t, MaxConnections)

	t.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})

	t.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
					return fmt.Errorf("engine: accept: %w", err)
				}
			}

			sessionID := uuid.NewString()
			log.Info().
				Str("session_id", sessionID).
				Str("remote", conn.RemoteAddr().String()).
				Msg("gateway connection accepted")
			pool.Spawn(func() error {
				return readConnection(t, sessionID, conn, e.Commands)
			})
		}
	})

	return t.Wait()
}

// readConnection decodes length-prefixed WireMessage frames off conn until
// it closes or the tomb dies. ReadFrame always consumes the full payload
// before reporting ErrDecode, so a malformed frame (bad oneof field,
// truncated inner message, length prefix over MaxFrameSize) leaves the
// stream frame-synchronized: it is logged and skipped, and the connection
// stays open. A frame cut short by the end of the stream, or any other
// read error, drops the connection. sessionID ties every log line for this connection
// together without exposing the ephemeral remote address as the
// correlation key.
func readConnection(t *tomb.Tomb, sessionID string, conn net.Conn, commands chan<- wire.WireMessage) error {
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("error closing gateway connection")
		}
	}()

	for {
		msg, err := wire.ReadFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Info().Str("session_id", sessionID).Msg("gateway connection closed")
				return nil
			}
			if errors.Is(err, wire.ErrDecode) {
				log.Error().Err(err).Str("session_id", sessionID).Msg("malformed frame, skipping")
				continue
			}
			log.Error().Err(err).Str("session_id", sessionID).Msg("error reading frame, dropping connection")
			return nil
		}

		if !msg.IsCommand() {
			log.Warn().Str("session_id", sessionID).Msg("received non-command frame, ignoring")
			continue
		}

		select {
		case commands <- msg:
		case <-t.Dying():
			return nil
		}
	}
}
