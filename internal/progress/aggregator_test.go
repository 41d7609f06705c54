package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAggregatorUpdate(t *testing.T) {
	t.Run("speed is bytes over elapsed", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		agg := NewAggregator(1, WithClock(clock.Now))
		agg.Initialize(0, 1000)
		clock.Advance(2 * time.Second)
		agg.Update(0, 500)

		snap := agg.Snapshot()
		require.Len(t, snap.Fragments, 1)
		assert.Equal(t, int64(500), snap.Fragments[0].Downloaded)
		assert.InDelta(t, 250.0, snap.Fragments[0].Speed, 0.001)
		assert.InDelta(t, 50.0, snap.Fragments[0].Percent, 0.001)
		assert.Equal(t, 2*time.Second, snap.Fragments[0].Elapsed)
	})

	t.Run("zero elapsed gives zero speed", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		agg := NewAggregator(1, WithClock(clock.Now))
		agg.Initialize(0, 1000)
		agg.Update(0, 100)
		assert.Zero(t, agg.Snapshot().Fragments[0].Speed)
	})

	t.Run("update overwrites rather than adds", func(t *testing.T) {
		agg := NewAggregator(1)
		agg.Initialize(0, 100)
		agg.Update(0, 60)
		agg.Update(0, 10)
		assert.Equal(t, int64(10), agg.Snapshot().TotalDownloaded)
	})

	t.Run("count is clamped to declared total", func(t *testing.T) {
		agg := NewAggregator(1)
		agg.Initialize(0, 100)
		agg.Update(0, 150)
		assert.Equal(t, int64(100), agg.Snapshot().Fragments[0].Downloaded)
	})

	t.Run("unregistered index is ignored", func(t *testing.T) {
		agg := NewAggregator(2)
		agg.Update(1, 42)
		assert.Empty(t, agg.Snapshot().Fragments)
	})
}

func TestAggregatorSnapshot(t *testing.T) {
	t.Run("ordered by index with totals", func(t *testing.T) {
		agg := NewAggregator(3)
		agg.Initialize(2, 100)
		agg.Initialize(0, 100)
		agg.Initialize(1, 50)
		agg.Update(0, 100)
		agg.Update(1, 25)

		snap := agg.Snapshot()
		require.Len(t, snap.Fragments, 3)
		for i, f := range snap.Fragments {
			assert.Equal(t, i, f.Index)
		}
		assert.Equal(t, int64(125), snap.TotalDownloaded)
		assert.Equal(t, int64(250), snap.TotalExpected)
		assert.InDelta(t, 50.0, snap.Percent, 0.001)
		assert.Equal(t, 1, snap.Completed())
	})

	t.Run("unknown total", func(t *testing.T) {
		agg := NewAggregator(1)
		agg.Initialize(0, -1)
		agg.Update(0, 4096)
		snap := agg.Snapshot()
		assert.Equal(t, int64(-1), snap.TotalExpected)
		assert.Equal(t, int64(4096), snap.TotalDownloaded)
		assert.Zero(t, snap.Percent)
		assert.Zero(t, snap.Completed())
	})

	t.Run("planned fragments not yet registered are pending", func(t *testing.T) {
		agg := NewAggregator(4)
		assert.Equal(t, 4, agg.Snapshot().Pending)
		agg.Initialize(0, 10)
		agg.Initialize(3, 10)
		snap := agg.Snapshot()
		assert.Equal(t, 2, snap.Pending)
		assert.Equal(t, 4, snap.FragmentCount())
		agg.Initialize(1, 10)
		agg.Initialize(2, 10)
		assert.Zero(t, agg.Snapshot().Pending)
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		agg := NewAggregator(1)
		agg.Initialize(0, 10)
		snap := agg.Snapshot()
		snap.Fragments[0].Downloaded = 9
		assert.Zero(t, agg.Snapshot().Fragments[0].Downloaded)
	})
}

func TestAggregatorConcurrentReadersNeverSeeOverflow(t *testing.T) {
	const fragments = 8
	const total = int64(10_000)
	agg := NewAggregator(fragments)
	for i := range fragments {
		agg.Initialize(i, total)
	}

	var writers sync.WaitGroup
	for i := range fragments {
		writers.Add(1)
		go func(index int) {
			defer writers.Done()
			for n := int64(0); n <= total+500; n += 7 {
				agg.Update(index, n)
			}
		}(i)
	}

	done := make(chan struct{})
	var reader sync.WaitGroup
	reader.Add(1)
	go func() {
		defer reader.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			snap := agg.Snapshot()
			for _, f := range snap.Fragments {
				if f.Downloaded > f.Total {
					t.Errorf("fragment %d: downloaded %d > total %d", f.Index, f.Downloaded, f.Total)
					return
				}
			}
			if snap.TotalDownloaded > snap.TotalExpected {
				t.Errorf("aggregate overflow: %d > %d", snap.TotalDownloaded, snap.TotalExpected)
				return
			}
		}
	}()

	writers.Wait()
	close(done)
	reader.Wait()
	assert.Equal(t, total*fragments, agg.Snapshot().TotalDownloaded)
}
