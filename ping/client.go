package ping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/google/logger"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"netlab/sockopt"
	"netlab/timing"
)

const (
	DefaultCount   = 10
	DefaultTimeout = time.Second
	// DefaultMaxMisses is the consecutive-miss limit used when the caller
	// asks for a run that stops on a dead server.
	DefaultMaxMisses = 3
)

// ClientConfig configures one ping run. Zero values of Server, Count and
// Timeout pick localhost:DefaultPort, DefaultCount and DefaultTimeout.
type ClientConfig struct {
	Server string // host:port
	Local  string // optional local bind address
	// Count is the number of probes. Zero with MaxConsecutiveMisses set
	// means unbounded; zero without it means DefaultCount.
	Count    int
	Timeout  time.Duration
	Interval time.Duration
	// MaxConsecutiveMisses stops the run after that many timeouts in a row.
	// Zero disables the limit.
	MaxConsecutiveMisses int
	TTL                  int // hop limit for IPv6, 0 leaves the system default
	TOS                  int // traffic class for IPv6
	Clock                timing.Clock
	// Out receives one line per probe; nil discards them.
	Out io.Writer
}

func (cfg ClientConfig) validate() error {
	if cfg.Count < 0 || cfg.MaxConsecutiveMisses < 0 {
		return errors.New("count and miss limit must not be negative")
	}
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

type Client struct {
	cfg   ClientConfig
	clock timing.Clock
	out   io.Writer
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Server == "" {
		cfg.Server = net.JoinHostPort("localhost", strconv.Itoa(DefaultPort))
	}
	if cfg.Count == 0 && cfg.MaxConsecutiveMisses == 0 {
		cfg.Count = DefaultCount
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{cfg: cfg, clock: cfg.Clock, out: cfg.Out}
	if c.clock == nil {
		c.clock = timing.System{}
	}
	if c.out == nil {
		c.out = io.Discard
	}
	return c
}

// Run sends the probes one at a time, waiting up to the timeout for each
// reply. Timeouts count as loss. Any other socket error stops the run and
// is returned together with the statistics gathered so far. Cancelling ctx
// ends the run early with Stat.Interrupted set.
func (c *Client) Run(ctx context.Context) (*Stat, error) {
	if err := c.cfg.validate(); err != nil {
		return nil, err
	}
	raddr, err := net.ResolveUDPAddr("udp", c.cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", c.cfg.Server, err)
	}
	if raddr.IP == nil {
		raddr.IP = net.IPv4(127, 0, 0, 1)
	}
	network := "udp4"
	if raddr.IP.To4() == nil {
		network = "udp6"
	}

	local := c.cfg.Local
	if local == "" {
		local = ":0"
	}
	pc, err := sockopt.ListenPacket(ctx, network, local)
	if err != nil {
		return nil, fmt.Errorf("open socket: %w", err)
	}
	defer pc.Close()
	conn := pc.(*net.UDPConn)
	if err := c.setIPOptions(conn, network); err != nil {
		return nil, err
	}

	// wake a blocked read as soon as ctx is done
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	stat := &Stat{Server: raddr.String(), Target: c.cfg.Count}
	start := c.clock.Now()
	defer func() { stat.Elapsed = timing.Elapsed(start, c.clock.Now()) }()

	logger.V(1).Infof("pinging %s from %s, count=%d timeout=%s", raddr, conn.LocalAddr(), c.cfg.Count, c.cfg.Timeout)

	buf := make([]byte, MaxPktLen)
	for seq := uint64(0); c.cfg.Count == 0 || seq < uint64(c.cfg.Count); seq++ {
		if ctx.Err() != nil {
			stat.Interrupted = true
			break
		}
		now := c.clock.Now()
		probe := Probe{Seq: seq, SentWall: now, SentAt: now}
		payload := probe.Marshal()
		if _, err := conn.WriteToUDP(payload, raddr); err != nil {
			return stat, fmt.Errorf("send seq=%d: %w", seq, err)
		}
		stat.Transmitted++
		logger.V(2).Infof("sent seq=%d to %s", seq, raddr)
		logger.V(3).Infof("probe to %s: %q", raddr, payload)

		resp, err := c.await(ctx, conn, raddr, probe, buf)
		switch {
		case err == nil:
			stat.addSample(resp)
			fmt.Fprintf(c.out, "%d bytes from %s: seq=%d time=%s\n", len(resp.Reply), raddr, resp.Seq, resp.Rtt)
		case ctx.Err() != nil:
			stat.addLoss()
			stat.Interrupted = true
		case isTimeout(err):
			stat.addLoss()
			fmt.Fprintf(c.out, "seq=%d packet lost\n", seq)
		default:
			return stat, fmt.Errorf("receive seq=%d: %w", seq, err)
		}
		if stat.Interrupted {
			break
		}
		if c.cfg.MaxConsecutiveMisses > 0 && stat.Misses >= c.cfg.MaxConsecutiveMisses {
			stat.Aborted = true
			logger.Warningf("%s stopped responding after %d probes", raddr, stat.Transmitted)
			break
		}

		if c.cfg.Count != 0 && seq+1 >= uint64(c.cfg.Count) {
			break
		}
		if err := timing.Sleep(ctx, c.cfg.Interval); err != nil {
			stat.Interrupted = true
			break
		}
	}
	return stat, nil
}

// await reads until the reply to p arrives or the timeout passes. Datagrams
// from other peers and replies to earlier probes are skipped without
// extending the deadline.
func (c *Client) await(ctx context.Context, conn *net.UDPConn, raddr *net.UDPAddr, p Probe, buf []byte) (RespStat, error) {
	if err := conn.SetReadDeadline(time.Now().Add(c.cfg.Timeout)); err != nil {
		return RespStat{}, err
	}
	if err := ctx.Err(); err != nil {
		return RespStat{}, err
	}
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			return RespStat{}, err
		}
		received := c.clock.Now()
		logger.V(3).Infof("%d bytes from %s: %q", n, from, buf[:n])
		if !from.IP.Equal(raddr.IP) || from.Port != raddr.Port {
			logger.V(2).Infof("ignoring %d bytes from %s", n, from)
			continue
		}
		if seq, ok := ReplySeq(buf[:n]); ok && seq != p.Seq {
			logger.V(1).Infof("stale reply for seq=%d while waiting for seq=%d", seq, p.Seq)
			continue
		}
		return RespStat{
			Seq:   p.Seq,
			Rtt:   timing.Elapsed(p.SentAt, received),
			Reply: string(buf[:n]),
		}, nil
	}
}

// setIPOptions applies TTL and TOS; for IPv6 they become hop limit and
// traffic class.
func (c *Client) setIPOptions(conn *net.UDPConn, network string) error {
	if c.cfg.TTL != 0 {
		var err error
		if network == "udp4" {
			err = ipv4.NewPacketConn(conn).SetTTL(c.cfg.TTL)
		} else {
			err = ipv6.NewPacketConn(conn).SetHopLimit(c.cfg.TTL)
		}
		if err != nil {
			return fmt.Errorf("set ttl %d: %w", c.cfg.TTL, err)
		}
	}
	if c.cfg.TOS != 0 {
		var err error
		if network == "udp4" {
			err = ipv4.NewPacketConn(conn).SetTOS(c.cfg.TOS)
		} else {
			err = ipv6.NewPacketConn(conn).SetTrafficClass(c.cfg.TOS)
		}
		if err != nil {
			return fmt.Errorf("set tos %d: %w", c.cfg.TOS, err)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
