// Package progress accumulates per-fragment byte counts from concurrent
// fetchers and serves consistent snapshots to renderers.
package progress

import (
	"sort"
	"sync"
	"time"
)

// Source is anything a renderer can poll for progress.
type Source interface {
	Snapshot() Snapshot
}

// FragmentSnapshot is a point-in-time copy of one fragment's state.
type FragmentSnapshot struct {
	Index      int
	Downloaded int64
	Total      int64 // -1 when the size is unknown
	Elapsed    time.Duration
	Speed      float64 // bytes per second
	Percent    float64
}

// Snapshot is a consistent read of every registered fragment.
type Snapshot struct {
	TotalDownloaded int64
	TotalExpected   int64
	Percent         float64
	Fragments       []FragmentSnapshot
	Pending         int // planned fragments that have not registered yet
	Taken           time.Time
}

// FragmentCount is the number of planned fragments, registered or not.
func (s Snapshot) FragmentCount() int {
	return len(s.Fragments) + s.Pending
}

// Speed is the sum of the instantaneous fragment speeds.
func (s Snapshot) Speed() float64 {
	var speed float64
	for _, f := range s.Fragments {
		speed += f.Speed
	}
	return speed
}

// Completed counts fragments that reached their declared total.
func (s Snapshot) Completed() int {
	completed := 0
	for _, f := range s.Fragments {
		if f.Total > 0 && f.Downloaded >= f.Total {
			completed++
		}
	}
	return completed
}

type fragmentState struct {
	index      int
	downloaded int64
	total      int64
	started    time.Time
	updated    time.Time
	speed      float64
}

// Aggregator is shared by all fetchers of one job and the renderer.
// Every method takes the same lock.
type Aggregator struct {
	mu        sync.Mutex
	now       func() time.Time
	expected  int
	fragments map[int]*fragmentState
}

type Option func(*Aggregator)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator prepares an aggregator for the given number of fragments.
func NewAggregator(expected int, opts ...Option) *Aggregator {
	a := &Aggregator{
		now:       time.Now,
		expected:  expected,
		fragments: make(map[int]*fragmentState, expected),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize registers a fragment and starts its clock. Registering an index
// again resets it.
func (a *Aggregator) Initialize(index int, total int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	a.fragments[index] = &fragmentState{
		index:   index,
		total:   total,
		started: now,
		updated: now,
	}
}

// Update overwrites the running byte count of a fragment and recomputes its
// throughput. Counts above a known total are clamped to it.
func (a *Aggregator) Update(index int, downloaded int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state, ok := a.fragments[index]
	if !ok {
		return
	}
	if downloaded < 0 {
		downloaded = 0
	}
	if state.total >= 0 && downloaded > state.total {
		downloaded = state.total
	}
	state.downloaded = downloaded
	state.updated = a.now()
	elapsed := state.updated.Sub(state.started).Seconds()
	if elapsed > 0 {
		state.speed = float64(downloaded) / elapsed
	} else {
		state.speed = 0
	}
}

// Snapshot returns copies of all registered fragments ordered by index.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	snap := Snapshot{
		Fragments: make([]FragmentSnapshot, 0, len(a.fragments)),
		Taken:     now,
	}
	snap.Pending = max(a.expected-len(a.fragments), 0)
	unknown := false
	for _, state := range a.fragments {
		fs := FragmentSnapshot{
			Index:      state.index,
			Downloaded: state.downloaded,
			Total:      state.total,
			Elapsed:    now.Sub(state.started),
			Speed:      state.speed,
		}
		if state.total > 0 {
			fs.Percent = float64(state.downloaded) / float64(state.total) * 100
		}
		if state.total < 0 {
			unknown = true
		} else {
			snap.TotalExpected += state.total
		}
		snap.TotalDownloaded += state.downloaded
		snap.Fragments = append(snap.Fragments, fs)
	}
	sort.Slice(snap.Fragments, func(i, j int) bool {
		return snap.Fragments[i].Index < snap.Fragments[j].Index
	})
	if unknown {
		snap.TotalExpected = -1
	} else if snap.TotalExpected > 0 {
		snap.Percent = float64(snap.TotalDownloaded) / float64(snap.TotalExpected) * 100
	}
	return snap
}
