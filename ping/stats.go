package ping

import (
	"fmt"
	"io"
	"time"
)

// RespStat is one answered probe.
type RespStat struct {
	Seq   uint64
	Rtt   time.Duration
	Reply string
}

// Stat accumulates one client run. Samples are appended in arrival order,
// which is send order since the client waits on each probe in turn.
type Stat struct {
	Server      string
	Target      int // configured probe count, 0 when the run is unbounded
	Transmitted int
	Received    int
	Lost        int
	// Misses is the current run of consecutive unanswered probes.
	Misses      int
	Aborted     bool // stopped by the consecutive-miss limit
	Interrupted bool // stopped by context cancellation
	Samples     []RespStat
	Elapsed     time.Duration
}

func (s *Stat) addSample(r RespStat) {
	s.Samples = append(s.Samples, r)
	s.Received++
	s.Misses = 0
}

func (s *Stat) addLoss() {
	s.Lost++
	s.Misses++
}

func (s *Stat) Sum() time.Duration {
	var total time.Duration
	for _, r := range s.Samples {
		total += r.Rtt
	}
	return total
}

// Avg is the mean RTT over answered probes, 0 if none were answered.
func (s *Stat) Avg() time.Duration {
	if len(s.Samples) == 0 {
		return 0
	}
	return s.Sum() / time.Duration(len(s.Samples))
}

func (s *Stat) Min() time.Duration {
	if len(s.Samples) == 0 {
		return 0
	}
	lo := s.Samples[0].Rtt
	for _, r := range s.Samples[1:] {
		if r.Rtt < lo {
			lo = r.Rtt
		}
	}
	return lo
}

func (s *Stat) Max() time.Duration {
	var hi time.Duration
	for _, r := range s.Samples {
		if r.Rtt > hi {
			hi = r.Rtt
		}
	}
	return hi
}

// LossPercent is lost/transmitted*100. The base is the number of probes
// actually sent, so a run cut short by the miss limit still reads sensibly.
func (s *Stat) LossPercent() float64 {
	if s.Transmitted == 0 {
		return 0
	}
	return float64(s.Lost) / float64(s.Transmitted) * 100
}

// WriteSummary prints the end-of-run report in ping(8) style:
//
//	--- 127.0.0.1:12000 ping statistics ---
//	10 packets transmitted, 7 received, 30.0% packet loss, time 9012ms
//	rtt min/avg/max = 0.120/0.310/0.998 ms
func (s *Stat) WriteSummary(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "--- %s ping statistics ---\n", s.Server)
	fmt.Fprintf(w, "%d packets transmitted, %d received, %.1f%% packet loss, time %dms\n",
		s.Transmitted, s.Received, s.LossPercent(), s.Elapsed.Milliseconds())
	fmt.Fprintf(w, "rtt min/avg/max = %.3f/%.3f/%.3f ms\n",
		ms(s.Min()), ms(s.Avg()), ms(s.Max()))
	switch {
	case s.Aborted:
		fmt.Fprintf(w, "stopped after %d consecutive timeouts\n", s.Misses)
	case s.Interrupted:
		fmt.Fprintln(w, "interrupted")
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
