package gateway

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"fenrir/internal/wire"
)

const (
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 30 * time.Second
	jitterMax      = 100 * time.Millisecond
)

// ConnectionManager owns the single TCP connection to the matching
// engine: it dequeues commands and writes them as length-framed
// WireMessages, reconnecting with exponential backoff on any failure.
// Buffered commands survive a reconnect; they simply wait in the queue
// until a connection is available again.
type ConnectionManager struct {
	addr  string
	queue *Queue
}

// NewConnectionManager returns a manager that will dial addr on Run.
func NewConnectionManager(addr string, queue *Queue) *ConnectionManager {
	return &ConnectionManager{addr: addr, queue: queue}
}

// Run drives the reconnect loop until ctx is cancelled.
func (c *ConnectionManager) Run(ctx context.Context) {
	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		log.Info().Str("addr", c.addr).Msg("attempting to connect to matching engine")
		conn, err := net.Dial("tcp", c.addr)
		if err != nil {
			log.Error().Err(err).Dur("backoff", backoff).Msg("failed to connect to matching engine, retrying")
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		tcpConn, ok := conn.(*net.TCPConn)
		if ok {
			if err := setKeepalive(tcpConn); err != nil {
				log.Error().Err(err).Msg("failed to configure keepalive, continuing without it")
			}
		}

		log.Info().Str("addr", c.addr).Msg("connected to matching engine")
		backoff = initialBackoff
		c.drain(ctx, conn)
		conn.Close()
	}
}

// drain writes queued commands to conn until a write fails or ctx is
// cancelled, then returns so Run can reconnect.
func (c *ConnectionManager) drain(ctx context.Context, conn net.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.queue.Dequeue():
			if err := wire.WriteFrame(conn, cmd); err != nil {
				log.Error().Err(err).Msg("failed to write command to matching engine, reconnecting")
				return
			}
		}
	}
}

func nextBackoff(b time.Duration) time.Duration {
	// b may carry the jitter added by the previous step. Every un-jittered
	// step is a multiple of initialBackoff, so truncating drops it and the
	// jitter is added once per step instead of being doubled along with b.
	b = b.Truncate(initialBackoff) * 2
	if b > maxBackoff {
		b = maxBackoff
	}
	return b + time.Duration(rand.Int63n(int64(jitterMax)))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
