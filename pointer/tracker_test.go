package pointer_test

import (
	"testing"
	"time"

	"github.com/tx2tx/tx2tx/pointer"
	"github.com/tx2tx/tx2tx/types"
)

func at(seconds float64) time.Time {
	return time.Unix(0, 0).Add(time.Duration(seconds * float64(time.Second)))
}

func TestVelocityZeroWithFewerThanTwoSamples(t *testing.T) {
	tr := pointer.NewTracker(100)
	if v := tr.Velocity(); v != 0 {
		t.Fatalf("velocity with 0 samples = %v, want 0", v)
	}
	tr.Sample(types.NewPosition(10, 10), at(0))
	if v := tr.Velocity(); v != 0 {
		t.Fatalf("velocity with 1 sample = %v, want 0", v)
	}
}

func TestVelocityMatchesManhattanOverDelta(t *testing.T) {
	tr := pointer.NewTracker(100)
	tr.Sample(types.NewPosition(0, 0), at(0))
	tr.Sample(types.NewPosition(100, 50), at(1))
	want := 150.0
	if v := tr.Velocity(); v != want {
		t.Fatalf("velocity = %v, want %v", v, want)
	}
}

func TestNoTransitionBelowVelocityThreshold(t *testing.T) {
	screen := types.NewScreen(1920, 1080)
	tr := pointer.NewTracker(100)
	// Slow crawl to the edge: well under threshold.
	tr.Sample(types.NewPosition(5, 540), at(0))
	tr.Sample(types.NewPosition(0, 540), at(1))
	tr.Sample(types.NewPosition(0, 540), at(2))
	if _, ok := tr.Detect(screen, at(2)); ok {
		t.Fatal("expected no transition below velocity threshold")
	}
}

func TestNoTransitionFromSingleEdgeSample(t *testing.T) {
	screen := types.NewScreen(1920, 1080)
	tr := pointer.NewTracker(100)
	tr.Sample(types.NewPosition(400, 540), at(0))
	tr.Sample(types.NewPosition(0, 540), at(0.05))
	if _, ok := tr.Detect(screen, at(0.05)); ok {
		t.Fatal("expected no transition from a single edge sample")
	}
}

func TestDwellGating(t *testing.T) {
	screen := types.NewScreen(1920, 1080)
	tr := pointer.NewTracker(100)
	tr.Sample(types.NewPosition(400, 540), at(0))
	tr.Sample(types.NewPosition(200, 540), at(0.05))
	tr.Sample(types.NewPosition(0, 540), at(0.09))
	tr.Sample(types.NewPosition(0, 540), at(0.11))
	if _, ok := tr.Detect(screen, at(0.11)); ok {
		t.Fatal("expected no transition before dwell elapses")
	}
	tr.Sample(types.NewPosition(0, 540), at(0.20))
	transition, ok := tr.Detect(screen, at(0.20))
	if !ok {
		t.Fatal("expected transition once dwell elapses on the same edge")
	}
	if transition.Direction != types.Left {
		t.Fatalf("direction = %v, want Left", transition.Direction)
	}
}

func TestCornerTieBreakPrefersLeft(t *testing.T) {
	screen := types.NewScreen(1920, 1080)
	tr := pointer.NewTracker(100)
	tr.Sample(types.NewPosition(0, 0), at(0))
	tr.Sample(types.NewPosition(0, 0), at(0.05))
	tr.Sample(types.NewPosition(0, 0), at(0.2))
	// Velocity is 0 here (stationary in the corner); feed an earlier
	// fast approach so the gate is satisfied.
	tr2 := pointer.NewTracker(100)
	tr2.Sample(types.NewPosition(400, 400), at(0))
	tr2.Sample(types.NewPosition(0, 0), at(0.05))
	tr2.Sample(types.NewPosition(0, 0), at(0.2))
	transition, ok := tr2.Detect(screen, at(0.2))
	if !ok {
		t.Fatal("expected a transition at the corner")
	}
	if transition.Direction != types.Left {
		t.Fatalf("direction = %v, want Left (tie-break priority)", transition.Direction)
	}
	_ = tr
}

func TestResetClearsRingAndDwell(t *testing.T) {
	screen := types.NewScreen(1920, 1080)
	tr := pointer.NewTracker(100)
	tr.Sample(types.NewPosition(400, 540), at(0))
	tr.Sample(types.NewPosition(0, 540), at(0.05))
	tr.Sample(types.NewPosition(0, 540), at(0.3))
	if _, ok := tr.Detect(screen, at(0.3)); !ok {
		t.Fatal("setup: expected a transition before reset")
	}
	tr.Reset()
	// Immediately after reset, a single sample on the edge must not
	// trigger (dwell/confirmation state must not survive the warp).
	tr.Sample(types.NewPosition(0, 540), at(0.31))
	if _, ok := tr.Detect(screen, at(0.31)); ok {
		t.Fatal("expected Reset to clear dwell/confirmation accumulators")
	}
}

func TestBoundaryRequiresStrictEdgePixel(t *testing.T) {
	screen := types.NewScreen(1920, 1080)
	tr := pointer.NewTracker(100)
	tr.Sample(types.NewPosition(400, 540), at(0))
	tr.Sample(types.NewPosition(1, 540), at(0.05))
	tr.Sample(types.NewPosition(1, 540), at(0.3))
	if _, ok := tr.Detect(screen, at(0.3)); ok {
		t.Fatal("x=1 is within threshold but not the strict edge pixel")
	}
}
