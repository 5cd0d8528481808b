package engine

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/wire"
)

// TestReadConnection_MalformedFrameKeepsConnectionOpen verifies that a
// frame whose payload fails to decode is skipped, not treated as a
// reason to drop the connection: the next, well-formed frame must still
// reach commands.
func TestReadConnection_MalformedFrameKeepsConnectionOpen(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	var tb tomb.Tomb
	commands := make(chan wire.WireMessage, 1)
	tb.Go(func() error {
		return readConnection(&tb, "test-session", server, commands)
	})

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], 3)
	_, err := client.Write(header[:])
	require.NoError(t, err)
	_, err = client.Write([]byte{0xff, 0xff, 0xff})
	require.NoError(t, err)

	require.NoError(t, wire.WriteFrame(client, wire.WireMessage{
		Payload: wire.PlaceLimitOrder{UserID: 1, Side: wire.SideBuy, Price: 100, Quantity: 1},
	}))

	select {
	case msg := <-commands:
		placed, ok := msg.Payload.(wire.PlaceLimitOrder)
		require.True(t, ok)
		assert.Equal(t, uint64(1), placed.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the well-formed frame following the malformed one to still arrive")
	}
}
