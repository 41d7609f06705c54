package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanq16/fragget/internal/progress"
	"github.com/tanq16/fragget/internal/utils"
)

// DefaultGrace bounds how long Stop waits for an in-flight draw.
const DefaultGrace = 600 * time.Millisecond

// Display polls a progress source on the renderer's interval from its own
// goroutine. Drawing failures switch the display off; they never propagate.
type Display struct {
	source   progress.Source
	renderer Renderer
	out      io.Writer
	tick     time.Duration
	grace    time.Duration
	doneCh   chan struct{}
	exitedCh chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	failed   atomic.Bool
	log      zerolog.Logger
}

func NewDisplay(source progress.Source, renderer Renderer, out io.Writer) *Display {
	return &Display{
		source:   source,
		renderer: renderer,
		out:      out,
		tick:     renderer.Interval(),
		grace:    DefaultGrace,
		doneCh:   make(chan struct{}),
		exitedCh: make(chan struct{}),
		log:      utils.GetLogger("display"),
	}
}

// SetInterval overrides the renderer's polling interval.
func (d *Display) SetInterval(tick time.Duration) {
	if tick > 0 {
		d.tick = tick
	}
}

func (d *Display) SetGrace(grace time.Duration) {
	d.grace = grace
}

// Failed reports whether drawing was switched off after an error.
func (d *Display) Failed() bool {
	return d.failed.Load()
}

func (d *Display) Start() {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(d.exitedCh)
		ticker := time.NewTicker(d.tick)
		defer ticker.Stop()
		d.draw()
		for {
			select {
			case <-ticker.C:
				d.draw()
			case <-d.doneCh:
				return
			}
		}
	}()
}

// Stop signals the display goroutine and waits up to the grace period for it
// to exit. Renderer lines are cleared only when the goroutine is known to be gone.
func (d *Display) Stop() {
	d.stopOnce.Do(func() {
		close(d.doneCh)
		if !d.started.Load() {
			return
		}
		select {
		case <-d.exitedCh:
		case <-time.After(d.grace):
			d.log.Debug().Dur("grace", d.grace).Msg("Display did not stop within grace period")
			return
		}
		if d.failed.Load() {
			return
		}
		if err := d.renderer.Clear(d.out); err != nil {
			d.log.Debug().Err(err).Msg("Could not clear progress output")
		}
	})
}

func (d *Display) draw() {
	if d.failed.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.failed.Store(true)
			d.log.Debug().Str("panic", fmt.Sprint(r)).Msg("Progress renderer panicked, display disabled")
		}
	}()
	if err := d.renderer.Draw(d.out, d.source.Snapshot()); err != nil {
		d.failed.Store(true)
		d.log.Debug().Err(err).Msg("Progress renderer failed, display disabled")
	}
}
