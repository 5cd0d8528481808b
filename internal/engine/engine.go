// Package engine drives the order book from a single goroutine: it reads
// commands off an inbound channel, applies them to one book.OrderBook, and
// writes events to an outbound channel, an OrderAccepted always preceding
// the trades that command produced.
package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"fenrir/internal/book"
	"fenrir/internal/wire"
)

// CommandQueueSize bounds the multi-producer command channel feeding the
// engine goroutine. TCP readers block on send once it fills, which is the
// natural backpressure point for the ingest side.
const CommandQueueSize = 4096

// EventQueueSize bounds the engine's single-producer event channel.
const EventQueueSize = 4096

// Engine owns the book and the command/event channel pair. Commands is
// written to by every TCP reader goroutine (multi-producer); Events is
// read by exactly one fan-out goroutine (single-consumer broadcast).
type Engine struct {
	Commands chan wire.WireMessage
	Events   chan wire.WireMessage

	book *book.OrderBook
}

// New constructs an Engine with an empty book. The book has process
// lifetime only: it is never persisted or replayed across restarts.
func New() *Engine {
	return &Engine{
		Commands: make(chan wire.WireMessage, CommandQueueSize),
		Events:   make(chan wire.WireMessage, EventQueueSize),
		book:     book.New(),
	}
}

// Run drains Commands and applies them to the book until the channel is
// closed. It never suspends except on the Commands receive and the Events
// send: book mutation itself is synchronous. A send failure on Events is
// fatal and Run returns it so the caller can exit the process rather than
// let some events go unpublished.
func (e *Engine) Run() error {
	log.Info().Msg("matching engine started, ready to receive commands")
	for cmd := range e.Commands {
		if err := e.apply(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) apply(cmd wire.WireMessage) error {
	switch p := cmd.Payload.(type) {
	case wire.PlaceLimitOrder:
		return e.placeLimitOrder(p)
	case wire.CancelOrder:
		return e.cancelOrder(p)
	default:
		log.Warn().Type("payload", cmd.Payload).Msg("engine received a non-command payload, dropping")
		return nil
	}
}

func (e *Engine) placeLimitOrder(cmd wire.PlaceLimitOrder) error {
	orderID, trades := e.book.AddLimitOrder(cmd.Side, cmd.Price, cmd.Quantity)

	if err := e.emit(wire.WireMessage{Payload: wire.OrderAccepted{
		OrderID:  orderID,
		UserID:   cmd.UserID,
		Side:     cmd.Side,
		Price:    cmd.Price,
		Quantity: cmd.Quantity,
	}}); err != nil {
		return err
	}

	for _, t := range trades {
		if err := e.emit(wire.WireMessage{Payload: wire.TradeOccurred{
			TakerOrderID: t.TakerOrderID,
			MakerOrderID: t.MakerOrderID,
			Price:        t.Price,
			Quantity:     t.Quantity,
		}}); err != nil {
			return err
		}
	}

	log.Debug().
		Uint64("order_id", orderID).
		Str("side", cmd.Side.String()).
		Uint64("price", cmd.Price).
		Uint64("quantity", cmd.Quantity).
		Int("trades", len(trades)).
		Msg("placed limit order")
	return nil
}

func (e *Engine) cancelOrder(cmd wire.CancelOrder) error {
	if err := e.book.CancelOrder(cmd.OrderID); err != nil {
		log.Error().Err(err).Uint64("order_id", cmd.OrderID).Msg("failed to cancel order")
		return nil
	}
	return e.emit(wire.WireMessage{Payload: wire.OrderCancelled{OrderID: cmd.OrderID}})
}

// emit sends an event downstream. Events is expected to close only after
// Run has returned, so a panic here means something violated that
// contract and is treated as fatal.
func (e *Engine) emit(evt wire.WireMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: event channel closed under the engine: %v", r)
		}
	}()
	e.Events <- evt
	return nil
}
