package web

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusInternalServerError = 500
)

var statusText = map[int]string{
	StatusOK:                  "OK",
	StatusBadRequest:          "Bad Request",
	StatusNotFound:            "Not Found",
	StatusInternalServerError: "Internal Server Error",
}

func StatusText(code int) string {
	return statusText[code]
}

type Header struct {
	Name  string
	Value string
}

// Response is written once to a connection and then dropped. Headers keep
// their order on the wire.
type Response struct {
	StatusCode int
	Headers    []Header
	Body       []byte
}

// NewResponse returns an empty response carrying Connection: close.
func NewResponse(code int) *Response {
	return &Response{
		StatusCode: code,
		Headers:    []Header{{"Connection", "close"}},
	}
}

func (r *Response) StatusLine() string {
	return fmt.Sprintf("HTTP/1.1 %d %s", r.StatusCode, StatusText(r.StatusCode))
}

// Get returns the first header value named name, case-insensitively.
func (r *Response) Get(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// WriteTo serializes the response. The body follows the blank line
// unchanged.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	b.WriteString(r.StatusLine())
	b.WriteString("\r\n")
	for _, h := range r.Headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.Write(r.Body)
	return b.WriteTo(w)
}

// ParseResponse splits a raw response, as read until the server closed the
// connection, into status, headers and body.
func ParseResponse(raw []byte) (*Response, error) {
	head, body, found := bytes.Cut(raw, []byte("\r\n\r\n"))
	if !found {
		return nil, errors.New("response has no header terminator")
	}
	sc := bufio.NewScanner(bytes.NewReader(head))
	if !sc.Scan() {
		return nil, errors.New("empty response")
	}
	status := strings.Fields(sc.Text())
	if len(status) < 2 || !strings.HasPrefix(status[0], "HTTP/") {
		return nil, fmt.Errorf("bad status line %q", sc.Text())
	}
	code, err := strconv.Atoi(status[1])
	if err != nil {
		return nil, fmt.Errorf("bad status code %q", status[1])
	}

	resp := &Response{StatusCode: code, Body: body}
	for sc.Scan() {
		name, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		resp.Headers = append(resp.Headers, Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return resp, nil
}
