package sockopt

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

// PortInUse reports whether something accepts TCP connections on host:port.
// A refused connection means the port is free; any other dial failure is
// returned since it says nothing about the port.
func PortInUse(ctx context.Context, host string, port int, timeout time.Duration) (bool, error) {
	conn, err := Dial(ctx, "tcp", "", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err == nil {
		conn.Close()
		return true, nil
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return false, nil
	}
	return false, err
}
