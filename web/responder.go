package web

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrOutsideRoot is returned for targets that would resolve outside the
	// served directory.
	ErrOutsideRoot = errors.New("path outside server root")
)

// FileResponder serves files below Root.
type FileResponder struct {
	Root string
}

// Respond maps a request to a response: the file's bytes with 200, 404 when
// the file cannot be opened, 400 for targets escaping Root, 500 when reading
// fails part way.
func (fr FileResponder) Respond(req Request) *Response {
	body, err := fr.ReadFile(req.Target())
	switch {
	case err == nil:
		resp := &Response{
			StatusCode: StatusOK,
			Headers: []Header{
				{"Content-Type", "text/html"},
				{"Content-Length", strconv.Itoa(len(body))},
				{"Connection", "close"},
			},
			Body: body,
		}
		return resp
	case errors.Is(err, ErrOutsideRoot):
		return NewResponse(StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		return NewResponse(StatusNotFound)
	default:
		return NewResponse(StatusInternalServerError)
	}
}

// ReadFile reads target relative to Root. Absolute targets and targets with
// a ".." segment are refused before touching the filesystem, and the open
// itself goes through os.OpenInRoot so symlinks cannot lead outside Root.
func (fr FileResponder) ReadFile(target string) ([]byte, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: empty target", ErrNotFound)
	}
	if err := checkTarget(target); err != nil {
		return nil, err
	}

	f, err := os.OpenInRoot(fr.Root, target)
	if err != nil {
		// absent, unreadable, or a link out of the root all look the same
		// to the client
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, target)
	}
	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	return body, nil
}

func checkTarget(target string) error {
	if !filepath.IsLocal(target) {
		return fmt.Errorf("%w: %q", ErrOutsideRoot, target)
	}
	for _, seg := range strings.Split(filepath.ToSlash(target), "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %q", ErrOutsideRoot, target)
		}
	}
	return nil
}
