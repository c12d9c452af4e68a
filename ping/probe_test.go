package ping

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestProbeMarshalParse(t *testing.T) {
	sent := time.Date(2024, 10, 5, 14, 3, 9, 123456000, time.Local)
	p := Probe{Seq: 7, SentWall: sent, SentAt: sent}

	payload := p.Marshal()
	if want := "Ping_Number: 7 Time: 2024-10-05 14:03:09.123456"; string(payload) != want {
		t.Fatalf("Marshal() = %q, want %q", payload, want)
	}

	h, err := ParseProbe(payload)
	if err != nil {
		t.Fatalf("ParseProbe: %v", err)
	}
	if !h.HasSeq || h.Seq != 7 {
		t.Errorf("seq = %d (has %v), want 7", h.Seq, h.HasSeq)
	}
	if !h.Sent.Equal(sent) {
		t.Errorf("sent = %v, want %v", h.Sent, sent)
	}
}

func TestParseProbeLegacySuffix(t *testing.T) {
	// older clients put the timestamp in the last 26 bytes with no field name
	h, err := ParseProbe([]byte("Ping 3 2024-10-05 14:03:09.000001"))
	if err != nil {
		t.Fatalf("ParseProbe: %v", err)
	}
	if h.HasSeq {
		t.Errorf("HasSeq = true for payload without a Ping_Number field")
	}
	want := time.Date(2024, 10, 5, 14, 3, 9, 1000, time.Local)
	if !h.Sent.Equal(want) {
		t.Errorf("sent = %v, want %v", h.Sent, want)
	}
}

func TestParseProbeMalformed(t *testing.T) {
	for _, payload := range []string{
		"",
		"hello",
		"Ping_Number: 1 Time: yesterday",
		strings.Repeat("x", 40),
	} {
		if _, err := ParseProbe([]byte(payload)); !errors.Is(err, ErrMalformedProbe) {
			t.Errorf("ParseProbe(%q) err = %v, want ErrMalformedProbe", payload, err)
		}
	}
}

func TestReplySeq(t *testing.T) {
	reply := MarshalReply(ProbeHeader{Seq: 12, HasSeq: true}, 1500*time.Microsecond)
	if want := "Ping_Number: 12 Time difference is 1.5ms"; string(reply) != want {
		t.Fatalf("MarshalReply() = %q, want %q", reply, want)
	}
	seq, ok := ReplySeq(reply)
	if !ok || seq != 12 {
		t.Errorf("ReplySeq(%q) = %d, %v", reply, seq, ok)
	}

	bare := MarshalReply(ProbeHeader{}, time.Millisecond)
	if string(bare) != "Time difference is 1ms" {
		t.Errorf("MarshalReply without seq = %q", bare)
	}
	if _, ok := ReplySeq(bare); ok {
		t.Errorf("ReplySeq(%q) reported a sequence number", bare)
	}
}
