package fraghttp

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanq16/fragget/internal/output"
	"github.com/tanq16/fragget/internal/progress"
	"github.com/tanq16/fragget/internal/utils"
)

// ProbeResult is what a HEAD request revealed. Size is -1 when unknown.
type ProbeResult struct {
	Size           int64
	RangeSupported bool
	StatusCode     int
}

// FragmentPlan is one contiguous byte range of the resource. End is inclusive.
type FragmentPlan struct {
	Index    int
	Start    int64
	End      int64
	SinkPath string
}

func (p FragmentPlan) Size() int64 {
	return p.End - p.Start + 1
}

// Options tune a Downloader. The zero value renders nothing and sleeps for real.
type Options struct {
	Renderer    output.Renderer
	Out         io.Writer
	OnState     func(State)
	OnProgress  func(progress.Source)
	Sleeper     Sleeper
	BackoffUnit time.Duration
	Clock       func() time.Time
}

type Downloader struct {
	client  utils.HTTPDoer
	backoff Backoff
	opts    Options
	log     zerolog.Logger
}

func NewDownloader(client utils.HTTPDoer, opts Options) *Downloader {
	return &Downloader{
		client:  client,
		backoff: NewBackoff(opts.BackoffUnit, opts.Sleeper),
		opts:    opts,
		log:     utils.GetLogger("http"),
	}
}

// ProbeSize asks the server for the resource size with a HEAD request.
// Probing is advisory: every failure yields Size -1 and no error.
func ProbeSize(ctx context.Context, client utils.HTTPDoer, link string) ProbeResult {
	log := utils.GetLogger("probe")
	unknown := ProbeResult{Size: -1}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		log.Warn().Err(err).Str("url", link).Msg("Cannot build HEAD request")
		return unknown
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", link).Msg("HEAD request failed")
		return unknown
	}
	defer resp.Body.Close()
	unknown.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("HEAD request returned non-200 status")
		return unknown
	}
	contentLength := resp.Header.Get("Content-Length")
	if contentLength == "" {
		log.Warn().Msg("Server didn't provide Content-Length header")
		return unknown
	}
	size, err := strconv.ParseInt(contentLength, 10, 64)
	if err != nil || size <= 0 {
		log.Warn().Str("content-length", contentLength).Msg("Invalid file size reported by server")
		return unknown
	}
	result := ProbeResult{Size: size, StatusCode: resp.StatusCode}
	result.RangeSupported = strings.EqualFold(strings.TrimSpace(resp.Header.Get("Accept-Ranges")), "bytes")
	if !result.RangeSupported {
		log.Warn().Str("accept-ranges", resp.Header.Get("Accept-Ranges")).Msg("Server does not advertise byte ranges")
	}
	return result
}

// PlanFragments splits [0, total-1] into at most count contiguous ranges of
// ceil(total/count) bytes; the last one takes whatever remains.
func PlanFragments(total int64, count int, sinkDir, baseName string) []FragmentPlan {
	if total <= 0 || count < 1 {
		return nil
	}
	fragmentSize := (total + int64(count) - 1) / int64(count)
	plans := make([]FragmentPlan, 0, count)
	for i := range count {
		start := int64(i) * fragmentSize
		end := min(start+fragmentSize-1, total-1)
		if start > end {
			continue
		}
		plans = append(plans, FragmentPlan{
			Index:    i,
			Start:    start,
			End:      end,
			SinkPath: utils.FragmentSinkPath(sinkDir, baseName, i),
		})
	}
	return plans
}

// PlanDownload probes the resource and plans its fragments. It returns
// ErrSingleStream when the server cannot serve byte ranges of a known size.
func (d *Downloader) PlanDownload(ctx context.Context, link string, count int, sinkDir, baseName string) ([]FragmentPlan, int64, error) {
	probe := ProbeSize(ctx, d.client, link)
	if probe.Size < 0 || !probe.RangeSupported {
		return nil, probe.Size, ErrSingleStream
	}
	plans := PlanFragments(probe.Size, count, sinkDir, baseName)
	if len(plans) == 0 {
		return nil, probe.Size, ErrSingleStream
	}
	return plans, probe.Size, nil
}
