package gateway

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Keepalive tuning (idle=4s, interval=1s, retries=4): dead engine
// connections are detected quickly instead of hanging until a write times
// out on its own.
const (
	keepaliveIdleSeconds     = 4
	keepaliveIntervalSeconds = 1
	keepaliveRetries         = 4
)

// setKeepalive enables TCP keepalive on conn with the tuning above, via
// raw setsockopt since net.TCPConn exposes only a single idle-time knob.
func setKeepalive(conn *net.TCPConn) error {
	if err := conn.SetKeepAlive(true); err != nil {
		return fmt.Errorf("gateway: enable keepalive: %w", err)
	}

	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("gateway: get raw conn: %w", err)
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, keepaliveIdleSeconds); e != nil {
			sockErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, keepaliveIntervalSeconds); e != nil {
			sockErr = e
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPCNT, keepaliveRetries)
	})
	if err != nil {
		return fmt.Errorf("gateway: control raw conn: %w", err)
	}
	return sockErr
}
