package fraghttp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tanq16/fragget/internal/output"
	"github.com/tanq16/fragget/internal/progress"
	"github.com/tanq16/fragget/internal/utils"
)

type State int

const (
	StateProbing State = iota
	StatePlanning
	StateFetching
	StateVerifying
	StateReassembling
	StateDone
	StateFailed
	StateSingleStream
)

func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StatePlanning:
		return "planning"
	case StateFetching:
		return "fetching"
	case StateVerifying:
		return "verifying"
	case StateReassembling:
		return "reassembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateSingleStream:
		return "single-stream"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Run downloads job.URL to job.OutputPath. Fragment sinks are removed whatever
// the outcome, and a failed run leaves no output file.
func (d *Downloader) Run(ctx context.Context, job utils.DownloadJob) (err error) {
	log := d.log.With().Str("jobID", job.ID).Logger()
	defer func() {
		if err != nil {
			d.transition(log, StateFailed)
		}
	}()
	limiter := newLimiter(job.RateLimit, job.ChunkSize)

	d.transition(log, StateProbing)
	probe := ProbeSize(ctx, d.client, job.URL)
	if probe.Size < 0 || !probe.RangeSupported {
		return d.runSingleStream(ctx, log, job)
	}
	job.TotalSize = probe.Size

	d.transition(log, StatePlanning)
	tempDir := job.TempDir
	if tempDir == "" {
		tempDir = utils.TempDirFor(job.OutputPath)
	}
	plans := PlanFragments(probe.Size, max(job.Fragments, 1), tempDir, filepath.Base(job.OutputPath))
	if len(plans) == 0 {
		return d.runSingleStream(ctx, log, job)
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fmt.Errorf("error creating temp directory: %w", err)
	}
	defer d.removeSinks(log, plans, tempDir)
	log.Debug().Int64("size", probe.Size).Int("fragments", len(plans)).Str("tempDir", tempDir).Msg("Planned fragments")

	agg := d.newAggregator(len(plans))
	for _, plan := range plans {
		agg.Initialize(plan.Index, plan.Size())
	}
	if d.opts.OnProgress != nil {
		d.opts.OnProgress(agg)
	}

	d.transition(log, StateFetching)
	stopDisplay := d.startDisplay(log, agg)
	results := make([]FragmentResult, len(plans))
	var g errgroup.Group
	for i, plan := range plans {
		g.Go(func() error {
			results[i] = d.fetchFragment(ctx, job, plan, agg, limiter)
			return nil
		})
	}
	g.Wait()
	stopDisplay()

	d.transition(log, StateVerifying)
	var failed []FragmentResult
	for _, result := range results {
		if !result.OK {
			failed = append(failed, result)
		}
	}
	if len(failed) > 0 {
		return &FragmentsFailedError{Failed: failed}
	}

	d.transition(log, StateReassembling)
	written, err := Reassemble(plans, job.OutputPath, job.ChunkSize)
	if err == nil && written != probe.Size {
		err = fmt.Errorf("%w: assembled %d bytes, expected %d", ErrSizeMismatch, written, probe.Size)
	}
	if err != nil {
		if rmErr := os.Remove(job.OutputPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Debug().Err(rmErr).Msg("Could not remove incomplete output")
		}
		return err
	}

	d.transition(log, StateDone)
	log.Info().Int64("bytes", written).Str("output", job.OutputPath).Msg("Fragmented download complete")
	return nil
}

// RunJob is Run for callers that only need to know whether it worked.
func (d *Downloader) RunJob(ctx context.Context, job utils.DownloadJob) bool {
	if err := d.Run(ctx, job); err != nil {
		d.log.Error().Err(err).Str("jobID", job.ID).Msg("Download failed")
		return false
	}
	return true
}

func (d *Downloader) runSingleStream(ctx context.Context, log zerolog.Logger, job utils.DownloadJob) error {
	d.transition(log, StateSingleStream)
	agg := d.newAggregator(1)
	agg.Initialize(0, -1)
	if d.opts.OnProgress != nil {
		d.opts.OnProgress(agg)
	}
	stopDisplay := d.startDisplay(log, agg)
	err := d.performSingleStream(ctx, job, agg, newLimiter(job.RateLimit, job.ChunkSize))
	stopDisplay()
	if err != nil {
		return err
	}
	d.transition(log, StateDone)
	return nil
}

func (d *Downloader) newAggregator(expected int) *progress.Aggregator {
	if d.opts.Clock != nil {
		return progress.NewAggregator(expected, progress.WithClock(d.opts.Clock))
	}
	return progress.NewAggregator(expected)
}

func (d *Downloader) startDisplay(log zerolog.Logger, agg *progress.Aggregator) func() {
	if d.opts.Renderer == nil {
		return func() {}
	}
	out := d.opts.Out
	if out == nil {
		out = os.Stdout
	}
	display := output.NewDisplay(agg, d.opts.Renderer, out)
	display.Start()
	return func() {
		display.Stop()
		if display.Failed() {
			log.Debug().Msg("Progress display was disabled during the download")
		}
	}
}

func (d *Downloader) removeSinks(log zerolog.Logger, plans []FragmentPlan, tempDir string) {
	for _, plan := range plans {
		if err := os.Remove(plan.SinkPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("sink", plan.SinkPath).Msg("Could not remove fragment sink")
		}
	}
	if err := utils.RemoveIfEmpty(tempDir); err != nil {
		log.Debug().Err(err).Str("tempDir", tempDir).Msg("Could not remove temp directory")
	}
}

func (d *Downloader) transition(log zerolog.Logger, s State) {
	log.Debug().Str("state", s.String()).Msg("State change")
	if d.opts.OnState != nil {
		d.opts.OnState(s)
	}
}
