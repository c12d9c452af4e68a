package ping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"netlab/timing"
)

const (
	DefaultPort = 12000
	// MaxPktLen bounds both probe and reply datagrams.
	MaxPktLen = 4096
)

const (
	seqField  = "Ping_Number: "
	timeField = " Time: "
	delayText = " Time difference is "
)

var ErrMalformedProbe = errors.New("malformed probe")

// Probe is one outbound ping. SentWall is what goes on the wire, SentAt is
// the monotonic instant used for the RTT.
type Probe struct {
	Seq      uint64
	SentWall time.Time
	SentAt   time.Time
}

// Marshal renders the probe payload:
//
//	Ping_Number: 3 Time: 2024-10-05 14:03:09.123456
func (p Probe) Marshal() []byte {
	return []byte(seqField + strconv.FormatUint(p.Seq, 10) + timeField + timing.FormatWall(p.SentWall))
}

// ProbeHeader is what a server recovers from a probe payload. HasSeq is
// false for legacy payloads that only carry the timestamp suffix.
type ProbeHeader struct {
	Seq    uint64
	HasSeq bool
	Sent   time.Time
}

// ParseProbe decodes a probe payload. The timestamp is taken from the
// " Time: " field; payloads without that field fall back to the legacy
// layout where the last timing.WallWidth bytes are the timestamp.
func ParseProbe(b []byte) (ProbeHeader, error) {
	var h ProbeHeader
	s := string(b)
	head, stamp, found := strings.Cut(s, timeField)
	if !found {
		if len(s) < timing.WallWidth {
			return h, fmt.Errorf("%w: %d bytes, no timestamp", ErrMalformedProbe, len(b))
		}
		head, stamp = s[:len(s)-timing.WallWidth], s[len(s)-timing.WallWidth:]
	}

	sent, err := timing.ParseWall(strings.TrimSpace(stamp))
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrMalformedProbe, err)
	}
	h.Sent = sent
	h.Seq, h.HasSeq = parseSeq(head)
	return h, nil
}

// parseSeq accepts "Ping_Number: 3" as well as a bare leading number.
func parseSeq(s string) (uint64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), strings.TrimSpace(seqField)))
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	seq, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// MarshalReply renders the server's answer to a probe.
func MarshalReply(h ProbeHeader, delay time.Duration) []byte {
	if !h.HasSeq {
		return []byte(strings.TrimPrefix(delayText, " ") + delay.String())
	}
	return []byte(seqField + strconv.FormatUint(h.Seq, 10) + delayText + delay.String())
}

// ReplySeq extracts the sequence number a reply answers, if it names one.
func ReplySeq(b []byte) (uint64, bool) {
	s := string(b)
	if !strings.HasPrefix(s, seqField) {
		return 0, false
	}
	head, _, _ := strings.Cut(s, delayText)
	return parseSeq(head)
}
