package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"fenrir/internal/wire"
)

// Sink receives every event the engine emits. The AMQP publisher wired in
// cmd/engine is the only sink this repo registers, but the fan-out itself
// is sink-count-agnostic.
type Sink interface {
	Publish(wire.WireMessage) error
}

// Broadcast drains e.Events and republishes each event to every sink, in
// order, until the channel closes. A publish failure on any sink aborts
// the whole fan-out: the engine has no way to know which sink's failure
// is recoverable, so none is assumed.
func Broadcast(e *Engine, sinks ...Sink) error {
	for evt := range e.Events {
		for _, sink := range sinks {
			if err := sink.Publish(evt); err != nil {
				return fmt.Errorf("engine: fan-out to sink failed: %w", err)
			}
		}
		log.Debug().Interface("payload", evt.Payload).Int("sinks", len(sinks)).Msg("event published")
	}
	return nil
}
