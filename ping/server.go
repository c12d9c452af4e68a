package ping

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/google/logger"

	"netlab/sockopt"
	"netlab/timing"
)

// ServerConfig configures a ping server. Addr defaults to port DefaultPort
// on all interfaces. Loss and Clock default to a randomly seeded
// LossSimulator with the default threshold and the system clock.
type ServerConfig struct {
	Addr  string
	Loss  *LossSimulator
	Clock timing.Clock
}

// ServerStats is a snapshot of the server counters.
type ServerStats struct {
	Received  uint64
	Dropped   uint64
	Replied   uint64
	Malformed uint64
}

// Server answers probes with the delay it observed since the probe's
// timestamp, pretending to lose some of them.
type Server struct {
	cfg   ServerConfig
	loss  *LossSimulator
	clock timing.Clock
	conn  net.PacketConn

	received  atomic.Uint64
	dropped   atomic.Uint64
	replied   atomic.Uint64
	malformed atomic.Uint64
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = fmt.Sprintf(":%d", DefaultPort)
	}
	s := &Server{cfg: cfg, loss: cfg.Loss, clock: cfg.Clock}
	if s.loss == nil {
		s.loss = NewLossSimulator(nil, DefaultDropThreshold, DefaultDrawCeiling)
	}
	if s.clock == nil {
		s.clock = timing.System{}
	}
	return s
}

// Listen binds the server socket. Serve calls it if it has not been called.
func (s *Server) Listen(ctx context.Context) error {
	conn, err := sockopt.ListenPacket(ctx, "udp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.conn = conn
	return nil
}

// Addr is the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

func (s *Server) Stats() ServerStats {
	return ServerStats{
		Received:  s.received.Load(),
		Dropped:   s.dropped.Load(),
		Replied:   s.replied.Load(),
		Malformed: s.malformed.Load(),
	}
}

// Serve receives and answers probes until ctx is cancelled. A bad datagram
// or a failed read or write only affects that datagram.
func (s *Server) Serve(ctx context.Context) error {
	if s.conn == nil {
		if err := s.Listen(ctx); err != nil {
			return err
		}
	}
	defer s.conn.Close()
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	logger.Infof("ping server listening on %s", s.conn.LocalAddr())

	buf := make([]byte, MaxPktLen)
	for {
		n, raddr, err := s.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Errorf("read error: %v", err)
			continue
		}
		logger.V(2).Infof("%d bytes from %s", n, raddr)
		logger.V(3).Infof("probe from %s: %q", raddr, buf[:n])

		reply, err := s.process(buf[:n])
		if err != nil {
			logger.Warningf("probe from %s: %v", raddr, err)
			continue
		}
		if reply == nil {
			logger.V(1).Infof("dropped probe from %s", raddr)
			continue
		}
		if _, err := s.conn.WriteTo(reply, raddr); err != nil {
			logger.Errorf("write to %s: %v", raddr, err)
			continue
		}
		s.replied.Add(1)
		logger.V(2).Infof("sent %d bytes to %s", len(reply), raddr)
		logger.V(3).Infof("reply to %s: %q", raddr, reply)
	}
}

// process turns one probe payload into a reply. A nil reply with a nil
// error means the probe was dropped on purpose. The loss draw happens for
// every datagram, well formed or not, so the drop pattern depends only on
// arrival order.
func (s *Server) process(payload []byte) ([]byte, error) {
	s.received.Add(1)
	drop := s.loss.Drop()

	h, err := ParseProbe(payload)
	if err != nil {
		s.malformed.Add(1)
		return nil, err
	}
	delay := s.clock.Now().Sub(h.Sent)

	if drop {
		s.dropped.Add(1)
		return nil, nil
	}
	return MarshalReply(h, delay), nil
}
