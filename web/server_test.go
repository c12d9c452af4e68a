package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

func startServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	cfg.Addr = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(cfg)
	if err := srv.Listen(ctx); err != nil {
		cancel()
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	return srv
}

// roundTrip writes raw on a fresh connection and reads until the server
// closes it. It is called from several goroutines, so failures are reported
// with Errorf.
func roundTrip(t *testing.T, addr net.Addr, raw string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Errorf("dial: %v", err)
		return ""
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	if raw != "" {
		if _, err := io.WriteString(conn, raw); err != nil {
			t.Errorf("write: %v", err)
			return ""
		}
	}
	conn.(*net.TCPConn).CloseWrite()
	resp, err := io.ReadAll(conn)
	if err != nil {
		t.Errorf("read: %v", err)
	}
	return string(resp)
}

func TestServeFile(t *testing.T) {
	root := t.TempDir()
	body := "<h1>index</h1>"
	writeFile(t, root, "index.html", body)

	for _, mode := range []Mode{Serial, Concurrent} {
		t.Run(mode.String(), func(t *testing.T) {
			srv := startServer(t, ServerConfig{Root: root, Mode: mode, Workers: 2})

			got := roundTrip(t, srv.Addr(), "GET /index.html HTTP/1.1\r\nHost: x\r\n\r\n")
			if !strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n") {
				t.Fatalf("response = %q", got)
			}
			resp, err := ParseResponse([]byte(got))
			if err != nil {
				t.Fatal(err)
			}
			if string(resp.Body) != body {
				t.Errorf("body = %q, want %q", resp.Body, body)
			}

			got = roundTrip(t, srv.Addr(), "GET /missing.html HTTP/1.1\r\n\r\n")
			if !strings.HasPrefix(got, "HTTP/1.1 404 Not Found\r\n") || !strings.HasSuffix(got, "\r\n\r\n") {
				t.Errorf("missing file response = %q", got)
			}

			for _, raw := range []string{"", "GET\r\n\r\n"} {
				got = roundTrip(t, srv.Addr(), raw)
				if !strings.HasPrefix(got, "HTTP/1.1 400 Bad Request\r\n") {
					t.Errorf("request %q: response = %q", raw, got)
				}
			}
		})
	}
}

func TestConcurrentNoCrossTalk(t *testing.T) {
	root := t.TempDir()
	const n = 8
	for i := 0; i < n; i++ {
		writeFile(t, root, fmt.Sprintf("f%d.html", i), strings.Repeat(strconv.Itoa(i), 1000+i))
	}
	srv := startServer(t, ServerConfig{Root: root, Mode: Concurrent, Workers: 4, Delay: 20 * time.Millisecond})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got := roundTrip(t, srv.Addr(), fmt.Sprintf("GET /f%d.html HTTP/1.1\r\n\r\n", i))
			resp, err := ParseResponse([]byte(got))
			if err != nil {
				t.Errorf("f%d: %v", i, err)
				return
			}
			want := strings.Repeat(strconv.Itoa(i), 1000+i)
			if string(resp.Body) != want {
				t.Errorf("f%d: got %d bytes of the wrong content", i, len(resp.Body))
			}
		}(i)
	}
	wg.Wait()
}

// With a delay per request, a serial server takes at least the sum of the
// delays while a concurrent one overlaps them.
func TestDispatchModes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.html", "a")
	const delay = 150 * time.Millisecond

	elapsed := func(mode Mode) time.Duration {
		srv := startServer(t, ServerConfig{Root: root, Mode: mode, Workers: 4, Delay: delay})
		start := time.Now()
		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				roundTrip(t, srv.Addr(), "GET /a.html HTTP/1.1\r\n\r\n")
			}()
		}
		wg.Wait()
		return time.Since(start)
	}

	if d := elapsed(Serial); d < 3*delay {
		t.Errorf("serial mode served 3 delayed requests in %v, want at least %v", d, 3*delay)
	}
	if d := elapsed(Concurrent); d >= 3*delay {
		t.Errorf("concurrent mode took %v, want under %v", d, 3*delay)
	}
}

func TestClientGet(t *testing.T) {
	root := t.TempDir()
	body := "line one\nline two\n" + strings.Repeat("x", 3000)
	writeFile(t, root, "page.html", body)
	srv := startServer(t, ServerConfig{Root: root, Mode: Concurrent})

	addr := srv.Addr().(*net.TCPAddr)
	raw, err := (&Client{}).Get(context.Background(), "127.0.0.1", addr.Port, "page.html")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp, err := ParseResponse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != StatusOK || !bytes.Equal(resp.Body, []byte(body)) {
		t.Errorf("status %d, %d body bytes", resp.StatusCode, len(resp.Body))
	}
}

func TestBuildRequest(t *testing.T) {
	want := "GET /index.html HTTP/1.1\r\nHost: example.org\r\nConnection: close\r\n\r\n"
	if got := string(BuildRequest("example.org", "index.html")); got != want {
		t.Errorf("BuildRequest = %q, want %q", got, want)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"serial": Serial, "Concurrent": Concurrent} {
		if got, err := ParseMode(in); err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("threaded"); err == nil {
		t.Error("ParseMode accepted an unknown mode")
	}
}
