package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/google/logger"

	"netlab/sockopt"
)

const (
	DefaultDialTimeout = 5 * time.Second
	readChunk          = 1024
)

// Client fetches one file per connection.
type Client struct {
	Local       string // optional local bind address
	DialTimeout time.Duration
}

// BuildRequest renders the GET request sent for file on host.
func BuildRequest(host, file string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "GET /%s HTTP/1.1\r\n", file)
	fmt.Fprintf(&b, "Host: %s\r\n", host)
	b.WriteString("Connection: close\r\n")
	b.WriteString("\r\n")
	return b.Bytes()
}

// Get requests file from host:port and returns everything the server sent
// before closing the connection.
func (c *Client) Get(ctx context.Context, host string, port int, file string) ([]byte, error) {
	timeout := c.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := sockopt.Dial(ctx, "tcp", c.Local, addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	req := BuildRequest(host, file)
	logger.V(2).Infof("sending to %s:\n%s", addr, req)
	if _, err := conn.Write(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	var resp []byte
	chunk := make([]byte, readChunk)
	for {
		n, err := conn.Read(chunk)
		resp = append(resp, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return resp, fmt.Errorf("read response: %w", err)
		}
	}
	logger.V(1).Infof("received %d bytes from %s", len(resp), addr)
	return resp, nil
}
