package persistor

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/wire"
)

// fakeAcknowledger records whichever of Ack/Nack/Reject was called instead
// of talking to a broker, so handle's branching can be tested in isolation.
type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return nil
}

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", "BTC", "USD")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHandle_AcksOnSuccessfulPersist(t *testing.T) {
	c := &Consumer{store: newStore(t)}
	body, err := wire.Marshal(wire.WireMessage{Payload: wire.OrderAccepted{
		OrderID: 1, UserID: 1, Side: wire.SideBuy, Price: 100, Quantity: 5,
	}})
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	c.handle(amqp.Delivery{Acknowledger: ack, Body: body})

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestHandle_NacksWithoutRequeueOnUndecodableBody(t *testing.T) {
	c := &Consumer{store: newStore(t)}
	ack := &fakeAcknowledger{}
	c.handle(amqp.Delivery{Acknowledger: ack, Body: []byte{0xff, 0xff, 0xff}})

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	assert.False(t, ack.acked)
}

func TestHandle_NacksWithoutRequeueOnUnexpectedPayload(t *testing.T) {
	c := &Consumer{store: newStore(t)}
	body, err := wire.Marshal(wire.WireMessage{Payload: wire.CancelOrder{OrderID: 1}})
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	c.handle(amqp.Delivery{Acknowledger: ack, Body: body})

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}

func TestHandle_NacksWithRequeueOnTransientStoreError(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.db.Close())

	c := &Consumer{store: store}
	body, err := wire.Marshal(wire.WireMessage{Payload: wire.OrderAccepted{
		OrderID: 1, UserID: 1, Side: wire.SideBuy, Price: 100, Quantity: 5,
	}})
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	c.handle(amqp.Delivery{Acknowledger: ack, Body: body})

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)
}
