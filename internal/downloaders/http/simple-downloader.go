package fraghttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/time/rate"

	"github.com/tanq16/fragget/internal/progress"
	"github.com/tanq16/fragget/internal/utils"
)

// performSingleStream fetches the whole resource with one plain GET straight
// into the output path. Progress is reported as fragment 0.
func (d *Downloader) performSingleStream(ctx context.Context, job utils.DownloadJob, agg *progress.Aggregator, limiter *rate.Limiter) error {
	log := d.log.With().Str("jobID", job.ID).Str("op", "single-stream").Logger()
	attempts := max(job.RetryAttempts, 1)
	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			log.Warn().Msgf("Retrying download for %s (attempt %d/%d)", job.OutputPath, attempt+1, attempts)
			if err := d.backoff.Wait(ctx, attempt); err != nil {
				lastErr = err
				break
			}
		}
		err := d.singleStreamAttempt(ctx, job, agg, limiter, attempt)
		if err == nil {
			log.Info().Msgf("Single stream download successful for %s", job.OutputPath)
			return nil
		}
		lastErr = err
		log.Error().Err(err).Msgf("Download attempt %d failed", attempt+1)
		if ctx.Err() != nil {
			break
		}
	}
	if err := os.Remove(job.OutputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Debug().Err(err).Msg("Could not remove partial output")
	}
	return fmt.Errorf("download failed after %d attempt(s): %w", attempts, lastErr)
}

func (d *Downloader) singleStreamAttempt(ctx context.Context, job utils.DownloadJob, agg *progress.Aggregator, limiter *rate.Limiter, attempt int) error {
	fail := func(status int, err error) error {
		return &FetchError{Index: 0, Attempt: attempt, StatusCode: status, Err: err}
	}
	outFile, err := os.OpenFile(job.OutputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fail(0, fmt.Errorf("error creating output file: %w", err))
	}
	defer outFile.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return fail(0, fmt.Errorf("error creating GET request: %w", err))
	}
	req.Header.Set("Connection", "keep-alive")
	resp, err := d.client.Do(req)
	if err != nil {
		return fail(0, fmt.Errorf("error executing GET request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fail(resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	total := resp.ContentLength
	if total < 0 {
		total = -1
	}
	agg.Initialize(0, total)
	written, err := copyWithProgress(ctx, outFile, resp.Body, job.ChunkSize, limiter, total, func(n int64) {
		agg.Update(0, n)
	})
	if err != nil {
		return fail(0, err)
	}
	if total >= 0 && written != total {
		return fail(0, fmt.Errorf("%w: expected %d bytes, got %d", ErrSizeMismatch, total, written))
	}
	if err := outFile.Sync(); err != nil {
		return fail(0, fmt.Errorf("error syncing output file: %w", err))
	}
	return nil
}
