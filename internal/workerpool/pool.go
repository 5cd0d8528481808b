// Package workerpool supervises a bounded set of long-lived goroutines
// under a single tomb.Tomb, so a fatal error in any one of them tears down
// the rest. It generalizes the fixed-size task-queue pool the rest of the
// corpus uses to the engine's actual shape: one goroutine per TCP
// connection, running for the connection's lifetime rather than one task
// at a time.
package workerpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Pool bounds concurrent long-lived goroutines (e.g. one per accepted
// connection) to size slots, and ties their lifetime to t.
type Pool struct {
	tomb *tomb.Tomb
	slot chan struct{}
}

// New returns a Pool that runs goroutines under t, at most size
// concurrently. Spawn blocks the caller (typically an accept loop) once
// size is reached, which is the intended backpressure: a connection flood
// stalls new accepts rather than spawning unbounded goroutines.
func New(t *tomb.Tomb, size int) *Pool {
	return &Pool{
		tomb: t,
		slot: make(chan struct{}, size),
	}
}

// Spawn runs fn under the pool's tomb once a slot is free. It returns
// false without running fn if the tomb is already dying.
func (p *Pool) Spawn(fn func() error) bool {
	select {
	case <-p.tomb.Dying():
		return false
	default:
	}

	select {
	case <-p.tomb.Dying():
		return false
	case p.slot <- struct{}{}:
	}

	p.tomb.Go(func() error {
		defer func() { <-p.slot }()
		if err := fn(); err != nil {
			log.Error().Err(err).Msg("worker exited with error")
			return err
		}
		return nil
	})
	return true
}
