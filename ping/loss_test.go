package ping

import "testing"

func TestSeededLossIsDeterministic(t *testing.T) {
	a := SeededLossSimulator(42, DefaultDropThreshold, DefaultDrawCeiling)
	b := SeededLossSimulator(42, DefaultDropThreshold, DefaultDrawCeiling)

	var drops int
	for i := 0; i < 1000; i++ {
		da, db := a.Drop(), b.Drop()
		if da != db {
			t.Fatalf("draw %d: simulators with the same seed disagree", i)
		}
		if da {
			drops++
		}
	}
	// 4 of 11 outcomes drop, roughly 364 of 1000
	if drops < 250 || drops > 480 {
		t.Errorf("dropped %d of 1000, want about 364", drops)
	}
}

func TestLossDrawRange(t *testing.T) {
	l := SeededLossSimulator(7, DefaultDropThreshold, DefaultDrawCeiling)
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		d := l.Draw()
		if d < 0 || d > DefaultDrawCeiling {
			t.Fatalf("Draw() = %d, outside [0, %d]", d, DefaultDrawCeiling)
		}
		seen[d] = true
	}
	if len(seen) != DefaultDrawCeiling+1 {
		t.Errorf("saw %d distinct draws, want %d", len(seen), DefaultDrawCeiling+1)
	}
}

func TestLossThresholdBounds(t *testing.T) {
	never := SeededLossSimulator(1, 0, DefaultDrawCeiling)
	always := SeededLossSimulator(1, DefaultDrawCeiling+1, DefaultDrawCeiling)
	for i := 0; i < 100; i++ {
		if never.Drop() {
			t.Fatal("threshold 0 dropped a probe")
		}
		if !always.Drop() {
			t.Fatal("threshold above the ceiling kept a probe")
		}
	}
}
