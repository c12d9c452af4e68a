// Package web is a deliberately small HTTP/1.1 file server and client that
// speak directly over TCP sockets. One request per connection, GET only in
// practice, Connection: close always.
package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxRequestLen bounds how much of a request the server reads.
const MaxRequestLen = 1024

var ErrBadRequest = errors.New("bad request")

// Request is the request line of one HTTP request.
type Request struct {
	Method string
	Path   string
}

// ParseRequest takes the method and path from the first two
// whitespace-separated tokens of buf.
func ParseRequest(buf []byte) (Request, error) {
	fields := strings.Fields(string(buf))
	if len(fields) < 2 {
		return Request{}, fmt.Errorf("%w: %d tokens", ErrBadRequest, len(fields))
	}
	return Request{Method: fields[0], Path: fields[1]}, nil
}

// Target is the path with its single leading separator removed, the form
// used for the filesystem lookup.
func (r Request) Target() string {
	return strings.TrimPrefix(r.Path, "/")
}

// ReadRequest reads from r until the header block ends with a blank line,
// the peer stops sending, or max bytes have arrived. Whatever was read is
// returned; a clean EOF is not an error.
func ReadRequest(r io.Reader, max int) ([]byte, error) {
	if max <= 0 {
		max = MaxRequestLen
	}
	buf := make([]byte, 0, max)
	chunk := make([]byte, max)
	for len(buf) < max {
		n, err := r.Read(chunk[:max-len(buf)])
		buf = append(buf, chunk[:n]...)
		if headerDone(buf) {
			return buf, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf, nil
			}
			return buf, err
		}
	}
	return buf, nil
}

func headerDone(b []byte) bool {
	return bytes.Contains(b, []byte("\r\n\r\n")) || bytes.Contains(b, []byte("\n\n"))
}
