package fraghttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/time/rate"

	"github.com/tanq16/fragget/internal/progress"
	"github.com/tanq16/fragget/internal/utils"
)

// FragmentResult is the outcome of all attempts at one fragment.
type FragmentResult struct {
	Index    int
	OK       bool
	Err      error
	Attempts int
}

// fetchFragment downloads one range into its sink, retrying with backoff.
// Every retry truncates the sink and starts again at plan.Start.
func (d *Downloader) fetchFragment(ctx context.Context, job utils.DownloadJob, plan FragmentPlan, agg *progress.Aggregator, limiter *rate.Limiter) FragmentResult {
	log := d.log.With().Str("jobID", job.ID).Int("fragment", plan.Index).Logger()
	agg.Initialize(plan.Index, plan.Size())
	result := FragmentResult{Index: plan.Index}
	attempts := max(job.RetryAttempts, 1)
	for attempt := range attempts {
		if attempt > 0 {
			log.Debug().Int("attempt", attempt+1).Dur("backoff", d.backoff.Delay(attempt)).Msg("Retrying fragment")
			if err := d.backoff.Wait(ctx, attempt); err != nil {
				result.Err = err
				return result
			}
			agg.Update(plan.Index, 0)
		}
		result.Attempts = attempt + 1
		err := d.downloadFragmentAttempt(ctx, job, plan, agg, limiter, attempt)
		if err == nil {
			result.OK = true
			result.Err = nil
			log.Debug().Int("attempt", attempt+1).Msg("Fragment complete")
			return result
		}
		result.Err = err
		event := log.Warn().Err(err).Int("attempt", attempt+1).Int("of", attempts)
		if fe, ok := err.(*FetchError); ok {
			event = event.Bool("temporary", fe.Temporary())
		}
		event.Msg("Fragment attempt failed")
		if ctx.Err() != nil {
			return result
		}
	}
	log.Error().Err(result.Err).Int("attempts", result.Attempts).Msg("Fragment failed")
	return result
}

func (d *Downloader) downloadFragmentAttempt(ctx context.Context, job utils.DownloadJob, plan FragmentPlan, agg *progress.Aggregator, limiter *rate.Limiter, attempt int) error {
	fail := func(status int, err error) error {
		return &FetchError{Index: plan.Index, Attempt: attempt, StatusCode: status, Err: err}
	}
	sink, err := os.OpenFile(plan.SinkPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fail(0, fmt.Errorf("error opening sink: %w", err))
	}
	defer sink.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", plan.Start, plan.End))
	req.Header.Set("Connection", "keep-alive")
	resp, err := d.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fail(resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	expected := plan.Size()
	written, err := copyWithProgress(ctx, sink, resp.Body, job.ChunkSize, limiter, expected, func(n int64) {
		agg.Update(plan.Index, n)
	})
	if err != nil {
		return fail(0, err)
	}
	if written != expected {
		return fail(0, fmt.Errorf("%w: expected %d bytes, got %d", ErrSizeMismatch, expected, written))
	}
	if err := sink.Sync(); err != nil {
		return fail(0, fmt.Errorf("error syncing sink: %w", err))
	}
	return nil
}

// copyWithProgress streams src into dst through a chunkSize buffer, reporting
// the running total after every successful write. A limit >= 0 stops the copy
// with ErrSizeMismatch as soon as more bytes than that arrive.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, chunkSize int, limiter *rate.Limiter, limit int64, report func(int64)) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = utils.DefaultChunkSize
	}
	buffer := make([]byte, chunkSize)
	var written int64
	for {
		bytesRead, readErr := src.Read(buffer)
		if bytesRead > 0 {
			if limit >= 0 && written+int64(bytesRead) > limit {
				return written, fmt.Errorf("%w: more than %d bytes received", ErrSizeMismatch, limit)
			}
			if limiter != nil {
				if err := limiter.WaitN(ctx, bytesRead); err != nil {
					return written, err
				}
			}
			if _, writeErr := dst.Write(buffer[:bytesRead]); writeErr != nil {
				return written, fmt.Errorf("error writing chunk: %w", writeErr)
			}
			written += int64(bytesRead)
			report(written)
		}
		if readErr != nil {
			if readErr == io.EOF {
				return written, nil
			}
			return written, fmt.Errorf("error reading response body: %w", readErr)
		}
	}
}

// newLimiter returns nil when bytesPerSecond is not positive. The burst covers
// one read buffer so WaitN never asks for more than the bucket holds.
func newLimiter(bytesPerSecond int64, chunkSize int) *rate.Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = utils.DefaultChunkSize
	}
	burst := max(chunkSize, int(min(bytesPerSecond, int64(1<<30))))
	return rate.NewLimiter(rate.Limit(bytesPerSecond), burst)
}
