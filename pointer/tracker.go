// Package pointer implements the velocity-filtered, dwell-confirmed
// edge detector that the server context engine polls once per tick. It
// mirrors the fixed-capacity ring buffer and edge-contact accounting a
// hardware-facing edge detector needs, the same shape bnema/waymon's
// EdgeDetector uses, adapted here to a pure, lock-free struct since the
// engine is single-threaded.
package pointer

import (
	"time"

	"github.com/tx2tx/tx2tx/types"
)

const (
	// RingCapacity is the fixed sample window used for velocity
	// calculation.
	RingCapacity = 5

	// EdgeConfirmationSamples is the minimum number of the most recent
	// samples that must be on the same edge before a transition fires.
	EdgeConfirmationSamples = 2

	// EdgeDwellSeconds is the minimum continuous edge-contact duration
	// required for a transition.
	EdgeDwellSeconds = 0.08
)

type sample struct {
	pos types.Position
	at  time.Time
}

// Tracker accumulates pointer samples and detects edge-triggered
// transitions under velocity + confirmation + dwell gates.
type Tracker struct {
	velocityThreshold float64

	ring  [RingCapacity]sample
	count int
	head  int // index of the most recently written sample

	// dwell/confirmation accounting, cleared by Reset, not just the
	// ring, so a post-warp tick doesn't inherit stale edge contact.
	edgeContactSince map[types.Direction]time.Time
}

// NewTracker builds a Tracker gated at velocityThreshold pixels/second.
func NewTracker(velocityThreshold float64) *Tracker {
	return &Tracker{
		velocityThreshold: velocityThreshold,
		edgeContactSince:  make(map[types.Direction]time.Time, 4),
	}
}

// Reset clears the sample ring and all dwell/confirmation state. Call
// this after every context transition so velocity spikes from warps
// don't trip a spurious transition on the next tick.
func (t *Tracker) Reset() {
	t.count = 0
	t.head = 0
	t.ring = [RingCapacity]sample{}
	for k := range t.edgeContactSince {
		delete(t.edgeContactSince, k)
	}
}

// Sample appends a new (position, timestamp) observation.
func (t *Tracker) Sample(pos types.Position, at time.Time) {
	t.head = (t.head + 1) % RingCapacity
	t.ring[t.head] = sample{pos: pos, at: at}
	if t.count < RingCapacity {
		t.count++
	}
}

// oldest returns the least-recent sample still held, given count.
func (t *Tracker) oldest() sample {
	idx := (t.head - (t.count - 1) + RingCapacity) % RingCapacity
	return t.ring[idx]
}

func (t *Tracker) newest() sample {
	return t.ring[t.head]
}

// Velocity returns the Manhattan velocity in pixels/second between the
// oldest and newest held samples, or 0 with fewer than two samples or
// a non-positive elapsed time.
func (t *Tracker) Velocity() float64 {
	if t.count < 2 {
		return 0
	}
	oldest, newest := t.oldest(), t.newest()
	dt := newest.at.Sub(oldest.at).Seconds()
	if dt <= 0 {
		return 0
	}
	return float64(oldest.pos.Manhattan(newest.pos)) / dt
}

// nthMostRecent returns the sample i back from the newest (0 = newest).
// ok is false if fewer than i+1 samples are held.
func (t *Tracker) nthMostRecent(i int) (sample, bool) {
	if i >= t.count {
		return sample{}, false
	}
	idx := (t.head - i + RingCapacity) % RingCapacity
	return t.ring[idx], true
}

// edgeOf returns the direction whose strict edge pixel pos touches, in
// tie-break priority LEFT, RIGHT, TOP, BOTTOM, and ok=false if pos
// touches no edge.
func edgeOf(pos types.Position, screen types.Screen) (types.Direction, bool) {
	switch {
	case pos.X == 0:
		return types.Left, true
	case pos.X == screen.Width-1:
		return types.Right, true
	case pos.Y == 0:
		return types.Top, true
	case pos.Y == screen.Height-1:
		return types.Bottom, true
	default:
		return 0, false
	}
}

// Detect evaluates the boundary_detect gates against the most recently
// sampled position and returns a ScreenTransition iff all of velocity,
// confirmation-sample-count, and dwell are satisfied.
//
// now must be >= the timestamp of the most recent Sample call; it is
// passed explicitly (rather than time.Now()) so dwell can be evaluated
// against the same clock the caller used to produce samples.
func (t *Tracker) Detect(screen types.Screen, now time.Time) (types.ScreenTransition, bool) {
	if t.count == 0 {
		return types.ScreenTransition{}, false
	}
	cur := t.newest()
	edge, touching := edgeOf(cur.pos, screen)
	if !touching {
		// Contact broken: forget dwell accounting for every edge.
		for k := range t.edgeContactSince {
			delete(t.edgeContactSince, k)
		}
		return types.ScreenTransition{}, false
	}

	// Dwell is counted from the first sample on this edge, regardless
	// of whether confirmation/velocity have been satisfied yet.
	since, tracking := t.edgeContactSince[edge]
	if !tracking {
		since = cur.at
		for i := 1; i < t.count; i++ {
			s, ok := t.nthMostRecent(i)
			if !ok {
				break
			}
			if e, on := edgeOf(s.pos, screen); !on || e != edge {
				break
			}
			since = s.at
		}
		t.edgeContactSince = map[types.Direction]time.Time{edge: since}
	}

	if t.Velocity() < t.velocityThreshold {
		return types.ScreenTransition{}, false
	}

	confirmed := 0
	for i := 0; i < t.count; i++ {
		s, ok := t.nthMostRecent(i)
		if !ok {
			break
		}
		if e, on := edgeOf(s.pos, screen); on && e == edge {
			confirmed++
		} else {
			break
		}
	}
	if confirmed < EdgeConfirmationSamples {
		return types.ScreenTransition{}, false
	}

	if now.Sub(since).Seconds() < EdgeDwellSeconds {
		return types.ScreenTransition{}, false
	}

	return types.ScreenTransition{Direction: edge, Position: cur.pos}, true
}
