package ping

import (
	"encoding/json"
	"fmt"
	"os"
)

// Report is the machine-readable form of a Stat. Durations are in
// milliseconds.
type Report struct {
	Server      string    `json:"server"`
	Target      int       `json:"target"`
	Transmitted int       `json:"transmitted"`
	Received    int       `json:"received"`
	Lost        int       `json:"lost"`
	LossPercent float64   `json:"loss_percent"`
	MinMs       float64   `json:"min_ms"`
	AvgMs       float64   `json:"avg_ms"`
	MaxMs       float64   `json:"max_ms"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	Aborted     bool      `json:"aborted"`
	Interrupted bool      `json:"interrupted"`
	RttMs       []float64 `json:"rtt_ms"`
}

func (s *Stat) Report() Report {
	r := Report{
		Server:      s.Server,
		Target:      s.Target,
		Transmitted: s.Transmitted,
		Received:    s.Received,
		Lost:        s.Lost,
		LossPercent: s.LossPercent(),
		MinMs:       ms(s.Min()),
		AvgMs:       ms(s.Avg()),
		MaxMs:       ms(s.Max()),
		ElapsedMs:   s.Elapsed.Milliseconds(),
		Aborted:     s.Aborted,
		Interrupted: s.Interrupted,
		RttMs:       make([]float64, 0, len(s.Samples)),
	}
	for _, sample := range s.Samples {
		r.RttMs = append(r.RttMs, ms(sample.Rtt))
	}
	return r
}

// WriteReport saves the run's statistics as indented JSON.
func WriteReport(fileName string, s *Stat) error {
	data, err := json.MarshalIndent(s.Report(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		return fmt.Errorf("write report %s: %w", fileName, err)
	}
	return nil
}
