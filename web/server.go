package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/logger"

	"netlab/sockopt"
	"netlab/timing"
)

const (
	DefaultPort        = 6789
	DefaultWorkers     = 16
	DefaultReadTimeout = 5 * time.Second
)

// Mode selects how accepted connections are dispatched.
type Mode int

const (
	// Serial handles each connection to completion before accepting the next.
	Serial Mode = iota
	// Concurrent hands connections to a fixed pool of workers.
	Concurrent
)

func (m Mode) String() string {
	switch m {
	case Serial:
		return "serial"
	case Concurrent:
		return "concurrent"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "serial":
		return Serial, nil
	case "concurrent":
		return Concurrent, nil
	}
	return Serial, fmt.Errorf("unknown mode %q", s)
}

type ServerConfig struct {
	Addr string
	Root string
	Mode Mode
	// Workers is the pool size in Concurrent mode.
	Workers int
	// Delay is slept before each request is read, to imitate a slow backend.
	Delay       time.Duration
	ReadTimeout time.Duration
}

type Server struct {
	cfg       ServerConfig
	responder FileResponder
	lis       net.Listener
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = fmt.Sprintf(":%d", DefaultPort)
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	return &Server{cfg: cfg, responder: FileResponder{Root: cfg.Root}}
}

func (s *Server) Listen(ctx context.Context) error {
	lis, err := sockopt.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.lis = lis
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Serve accepts connections until ctx is cancelled, then closes the listener
// and waits for connections already being handled.
func (s *Server) Serve(ctx context.Context) error {
	if s.lis == nil {
		if err := s.Listen(ctx); err != nil {
			return err
		}
	}
	defer s.lis.Close()
	stop := context.AfterFunc(ctx, func() { s.lis.Close() })
	defer stop()

	logger.Infof("web server (%s) serving %s on %s", s.cfg.Mode, s.cfg.Root, s.lis.Addr())

	if s.cfg.Mode == Serial {
		return s.acceptLoop(ctx, func(conn net.Conn) { s.handleConn(ctx, conn) })
	}

	conns := make(chan net.Conn)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for conn := range conns {
				s.handleConn(ctx, conn)
			}
		}()
	}
	err := s.acceptLoop(ctx, func(conn net.Conn) {
		select {
		case conns <- conn:
		case <-ctx.Done():
			conn.Close()
		}
	})
	close(conns)
	wg.Wait()
	return err
}

func (s *Server) acceptLoop(ctx context.Context, dispatch func(net.Conn)) error {
	for {
		conn, err := s.lis.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Errorf("accept error: %v", err)
			continue
		}
		logger.V(2).Infof("accepted a connection from %s", conn.RemoteAddr())
		if tc, ok := conn.(*net.TCPConn); ok {
			if err := sockopt.SetTCPConnOptions(tc, sockopt.ConnOptions{NoDelay: true, QuickAck: true}); err != nil {
				logger.V(1).Infof("set options on %s: %v", conn.RemoteAddr(), err)
			}
		}
		dispatch(conn)
	}
}

// handleConn serves exactly one request and closes conn.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	raddr := conn.RemoteAddr()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("handler for %s panicked: %v", raddr, r)
			NewResponse(StatusInternalServerError).WriteTo(conn)
		}
	}()

	if s.cfg.Delay > 0 {
		logger.V(1).Infof("delaying request from %s by %s", raddr, s.cfg.Delay)
		if err := timing.Sleep(ctx, s.cfg.Delay); err != nil {
			return
		}
	}

	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		logger.Warningf("set read deadline on %s: %v", raddr, err)
	}
	buf, err := ReadRequest(conn, MaxRequestLen)
	if err != nil {
		var ne net.Error
		if !errors.As(err, &ne) || !ne.Timeout() {
			logger.Warningf("read from %s: %v", raddr, err)
			return
		}
	}
	logger.V(3).Infof("request from %s: %q", raddr, buf)

	resp := s.respond(buf)
	if _, err := resp.WriteTo(conn); err != nil {
		logger.Warningf("write to %s: %v", raddr, err)
		return
	}
	logger.V(1).Infof("%s: %s", raddr, resp.StatusLine())
}

func (s *Server) respond(buf []byte) *Response {
	req, err := ParseRequest(buf)
	if err != nil {
		logger.V(1).Infof("%v", err)
		return NewResponse(StatusBadRequest)
	}
	logger.V(2).Infof("%s %s", req.Method, req.Path)
	return s.responder.Respond(req)
}
