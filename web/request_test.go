package web

import (
	"errors"
	"strings"
	"testing"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		in      string
		method  string
		path    string
		target  string
		wantErr bool
	}{
		{"GET /index.html HTTP/1.1\r\nHost: x\r\n\r\n", "GET", "/index.html", "index.html", false},
		{"GET / HTTP/1.1\r\n\r\n", "GET", "/", "", false},
		{"POST /a/b.txt", "POST", "/a/b.txt", "a/b.txt", false},
		{"GET //etc/passwd HTTP/1.1", "GET", "//etc/passwd", "/etc/passwd", false},
		{"", "", "", "", true},
		{"   \r\n", "", "", "", true},
		{"GET", "", "", "", true},
	}
	for _, tt := range tests {
		req, err := ParseRequest([]byte(tt.in))
		if tt.wantErr {
			if !errors.Is(err, ErrBadRequest) {
				t.Errorf("ParseRequest(%q) err = %v, want ErrBadRequest", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRequest(%q): %v", tt.in, err)
			continue
		}
		if req.Method != tt.method || req.Path != tt.path || req.Target() != tt.target {
			t.Errorf("ParseRequest(%q) = %+v target %q", tt.in, req, req.Target())
		}
	}
}

func TestReadRequestStopsAtBlankLine(t *testing.T) {
	raw := "GET /a HTTP/1.1\r\nHost: x\r\n\r\n"
	// a reader that would block forever after the headers is simulated by
	// handing the bytes one at a time
	r := &oneByteReader{s: raw + "trailing"}
	got, err := ReadRequest(r, MaxRequestLen)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if string(got) != raw {
		t.Errorf("ReadRequest = %q, want %q", got, raw)
	}
}

func TestReadRequestLimits(t *testing.T) {
	got, err := ReadRequest(strings.NewReader(strings.Repeat("a", 5000)), 100)
	if err != nil || len(got) != 100 {
		t.Errorf("ReadRequest over limit = %d bytes, %v", len(got), err)
	}
	got, err = ReadRequest(strings.NewReader(""), 100)
	if err != nil || len(got) != 0 {
		t.Errorf("ReadRequest on empty input = %q, %v", got, err)
	}
}

type oneByteReader struct {
	s string
	i int
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.s) {
		return 0, errors.New("read past end")
	}
	p[0] = r.s[r.i]
	r.i++
	return 1, nil
}
