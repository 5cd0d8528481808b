package wire_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/wire"
)

func TestRoundTrip(t *testing.T) {
	cases := []wire.WireMessage{
		{Payload: wire.PlaceLimitOrder{UserID: 1, Side: wire.SideBuy, Price: 10000, Quantity: 5}},
		{Payload: wire.CancelOrder{OrderID: 42}},
		{Payload: wire.OrderAccepted{OrderID: 7, UserID: 1, Side: wire.SideSell, Price: 9000, Quantity: 3}},
		{Payload: wire.OrderCancelled{OrderID: 7}},
		{Payload: wire.TradeOccurred{TakerOrderID: 9, MakerOrderID: 7, Price: 9000, Quantity: 3}},
	}

	for _, want := range cases {
		encoded, err := wire.Marshal(want)
		require.NoError(t, err)

		got, err := wire.Unmarshal(encoded)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msgs := []wire.WireMessage{
		{Payload: wire.PlaceLimitOrder{UserID: 1, Side: wire.SideBuy, Price: 100, Quantity: 1}},
		{Payload: wire.CancelOrder{OrderID: 1}},
	}

	for _, m := range msgs {
		require.NoError(t, wire.WriteFrame(&buf, m))
	}

	for _, want := range msgs {
		got, err := wire.ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := wire.ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, buf.WriteByte(0))
	require.NoError(t, buf.WriteByte(0))
	require.NoError(t, buf.WriteByte(0))
	require.NoError(t, buf.WriteByte(10)) // claims 10 bytes, supplies none
	_, err := wire.ReadFrame(&buf)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestIsCommandIsEvent(t *testing.T) {
	cmd := wire.WireMessage{Payload: wire.PlaceLimitOrder{}}
	assert.True(t, cmd.IsCommand())
	assert.False(t, cmd.IsEvent())

	evt := wire.WireMessage{Payload: wire.TradeOccurred{}}
	assert.True(t, evt.IsEvent())
	assert.False(t, evt.IsCommand())
}
