// Package timing samples clocks and does the duration arithmetic behind RTT
// and server-side delay measurement.
package timing

import (
	"context"
	"sync"
	"time"
)

// WallLayout is the timestamp format carried inside probes. It renders to
// exactly WallWidth characters, the same shape as "%Y-%m-%d %H:%M:%S.%f".
const WallLayout = "2006-01-02 15:04:05.000000"

// WallWidth is the length of a timestamp formatted with WallLayout.
const WallWidth = len(WallLayout)

// parse layout without the fraction; time.Parse accepts a trailing fractional
// second anyway, so "12:00:00" and "12:00:00.000123" both parse.
const wallParseLayout = "2006-01-02 15:04:05"

// Clock is the time source used by the ping client and server.
type Clock interface {
	Now() time.Time
}

// System reads the process clock. Values returned by Now carry a monotonic
// reading, so differences between them are immune to wall-clock steps.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual is a clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Elapsed returns end-start, never negative.
func Elapsed(start, end time.Time) time.Duration {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

func FormatWall(t time.Time) string {
	return t.Format(WallLayout)
}

// ParseWall parses a timestamp produced by FormatWall in the local zone.
func ParseWall(s string) (time.Time, error) {
	return time.ParseInLocation(wallParseLayout, s, time.Local)
}

// Sleep waits for d or until ctx is done, whichever comes first. It returns
// ctx.Err() when interrupted.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
