//go:build !linux

package sockopt

import (
	"net"
	"syscall"
)

func control(network, address string, c syscall.RawConn) error {
	return nil
}

func setQuickAck(c *net.TCPConn, on bool) error {
	return nil
}
