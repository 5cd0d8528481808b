package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/wire"
)

func drainEvents(t *testing.T, e *Engine, n int) []wire.WireMessage {
	t.Helper()
	var events []wire.WireMessage
	for i := 0; i < n; i++ {
		select {
		case evt := <-e.Events:
			events = append(events, evt)
		default:
			t.Fatalf("expected %d events, got %d", n, i)
		}
	}
	return events
}

func TestPlaceLimitOrder_EmitsAcceptedBeforeTrades(t *testing.T) {
	e := New()

	require.NoError(t, e.apply(wire.WireMessage{Payload: wire.PlaceLimitOrder{
		UserID: 1, Side: wire.SideSell, Price: 100, Quantity: 10,
	}}))
	drainEvents(t, e, 1)

	require.NoError(t, e.apply(wire.WireMessage{Payload: wire.PlaceLimitOrder{
		UserID: 2, Side: wire.SideBuy, Price: 100, Quantity: 10,
	}}))
	events := drainEvents(t, e, 2)

	accepted, ok := events[0].Payload.(wire.OrderAccepted)
	require.True(t, ok, "first event must be OrderAccepted")
	assert.Equal(t, uint64(2), accepted.UserID)

	trade, ok := events[1].Payload.(wire.TradeOccurred)
	require.True(t, ok, "second event must be the resulting trade")
	assert.Equal(t, uint64(10), trade.Quantity)
}

func TestCancelOrder_EmitsCancelledEvent(t *testing.T) {
	e := New()
	require.NoError(t, e.apply(wire.WireMessage{Payload: wire.PlaceLimitOrder{
		UserID: 1, Side: wire.SideBuy, Price: 100, Quantity: 5,
	}}))
	accepted := drainEvents(t, e, 1)[0].Payload.(wire.OrderAccepted)

	require.NoError(t, e.apply(wire.WireMessage{Payload: wire.CancelOrder{OrderID: accepted.OrderID}}))
	events := drainEvents(t, e, 1)
	cancelled, ok := events[0].Payload.(wire.OrderCancelled)
	require.True(t, ok)
	assert.Equal(t, accepted.OrderID, cancelled.OrderID)
}

// TestCancelOrder_UnknownIDEmitsNoEvent matches the engine's contract of
// logging and swallowing a failed cancel rather than emitting anything.
func TestCancelOrder_UnknownIDEmitsNoEvent(t *testing.T) {
	e := New()
	require.NoError(t, e.apply(wire.WireMessage{Payload: wire.CancelOrder{OrderID: 999}}))
	select {
	case evt := <-e.Events:
		t.Fatalf("expected no event, got %#v", evt)
	default:
	}
}

type fakeSink struct {
	received []wire.WireMessage
	failAt   int
}

func (f *fakeSink) Publish(msg wire.WireMessage) error {
	if f.failAt >= 0 && len(f.received) == f.failAt {
		return errors.New("sink unavailable")
	}
	f.received = append(f.received, msg)
	return nil
}

func TestBroadcast_FansOutToEverySink(t *testing.T) {
	e := New()
	a := &fakeSink{failAt: -1}
	b := &fakeSink{failAt: -1}

	e.Events <- wire.WireMessage{Payload: wire.OrderCancelled{OrderID: 1}}
	e.Events <- wire.WireMessage{Payload: wire.OrderCancelled{OrderID: 2}}
	close(e.Events)

	require.NoError(t, Broadcast(e, a, b))
	assert.Len(t, a.received, 2)
	assert.Len(t, b.received, 2)
}

func TestBroadcast_AbortsOnFirstSinkFailure(t *testing.T) {
	e := New()
	good := &fakeSink{failAt: -1}
	bad := &fakeSink{failAt: 0}

	e.Events <- wire.WireMessage{Payload: wire.OrderCancelled{OrderID: 1}}
	close(e.Events)

	err := Broadcast(e, good, bad)
	assert.Error(t, err)
}
