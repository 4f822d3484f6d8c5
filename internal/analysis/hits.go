package analysis

import "github.com/tomz197/hardisks/internal/board"

// Hit is one obstacle collision. Count is its ordinal among the hits of the
// same series, starting at 1.
type Hit struct {
	Time     float64
	Particle int64
	Count    int64
}

// ObstacleHits counts collisions with the obstacle, both in total and the
// first hit of each distinct particle.
type ObstacleHits struct {
	all   []Hit
	first []Hit
	seen  map[int64]struct{}
}

// NewObstacleHits creates an empty counter.
func NewObstacleHits() *ObstacleHits {
	return &ObstacleHits{seen: make(map[int64]struct{})}
}

// Observe implements loop.Observer.
func (h *ObstacleHits) Observe(ev board.Event, _ *board.Board) {
	if ev.Kind == board.KindObstacle {
		h.Record(ev.A, ev.At)
	}
}

// Record adds a hit of particle id at time at.
func (h *ObstacleHits) Record(id int64, at float64) {
	h.all = append(h.all, Hit{Time: at, Particle: id, Count: int64(len(h.all)) + 1})
	if _, ok := h.seen[id]; ok {
		return
	}
	h.seen[id] = struct{}{}
	h.first = append(h.first, Hit{Time: at, Particle: id, Count: int64(len(h.first)) + 1})
}

// Total returns the number of obstacle hits.
func (h *ObstacleHits) Total() int64 {
	return int64(len(h.all))
}

// Distinct returns the number of particles that hit the obstacle.
func (h *ObstacleHits) Distinct() int {
	return len(h.first)
}

// Hits returns every hit in order.
func (h *ObstacleHits) Hits() []Hit {
	return h.all
}

// FirstHits returns the first hit of each particle, in order.
func (h *ObstacleHits) FirstHits() []Hit {
	return h.first
}

// TimeToFraction returns when the given fraction of n particles had hit the
// obstacle at least once. ok is false if that never happened.
func (h *ObstacleHits) TimeToFraction(fraction float64, n int) (float64, bool) {
	need := int(fraction*float64(n) + 0.5)
	if need < 1 {
		need = 1
	}
	if need > len(h.first) {
		return 0, false
	}
	return h.first[need-1].Time, true
}

// Every returns every k-th hit of hits, the sampling used for plots.
func Every(hits []Hit, k int) []Hit {
	if k <= 1 {
		return hits
	}
	var out []Hit
	for _, hit := range hits {
		if hit.Count%int64(k) == 0 {
			out = append(out, hit)
		}
	}
	return out
}
