// Package sockopt opens listeners and dialers with the socket options the
// ping and web servers rely on.
package sockopt

import (
	"context"
	"fmt"
	"net"
	"time"
)

// ResolveAddr resolves address for the given network family.
func ResolveAddr(network, address string) (net.Addr, error) {
	switch network {
	default:
		return nil, net.UnknownNetworkError(network)
	case "tcp", "tcp4", "tcp6":
		return net.ResolveTCPAddr(network, address)
	case "udp", "udp4", "udp6":
		return net.ResolveUDPAddr(network, address)
	}
}

var listenConfig = net.ListenConfig{
	Control: control,
}

// Listen listens at the given network and address, see net.Listen.
// The socket has SO_REUSEADDR and SO_REUSEPORT set where supported, so a
// restarted server can rebind its port immediately.
func Listen(ctx context.Context, network, address string) (net.Listener, error) {
	return listenConfig.Listen(ctx, network, address)
}

// ListenPacket is Listen for datagram sockets, see net.ListenPacket.
func ListenPacket(ctx context.Context, network, address string) (net.PacketConn, error) {
	return listenConfig.ListenPacket(ctx, network, address)
}

// Dial connects to raddr, optionally from laddr. A zero timeout means no
// connect timeout beyond what ctx imposes.
func Dial(ctx context.Context, network, laddr, raddr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{
		Timeout: timeout,
	}
	if laddr != "" {
		nla, err := ResolveAddr(network, laddr)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve local addr: %w", err)
		}
		d.LocalAddr = nla
		d.Control = control
	}
	return d.DialContext(ctx, network, raddr)
}

// ConnOptions are per-connection TCP knobs applied after accept.
type ConnOptions struct {
	NoDelay  bool
	QuickAck bool
}

// SetTCPConnOptions applies opts to c. The socket keeps the default linger
// behaviour: responses are written then the peer reads until EOF, and an
// abortive close would discard unsent bytes.
func SetTCPConnOptions(c *net.TCPConn, opts ConnOptions) error {
	if err := c.SetNoDelay(opts.NoDelay); err != nil {
		return err
	}
	return setQuickAck(c, opts.QuickAck)
}
