package scheduler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tanq16/fragget/internal/config"
	fraghttp "github.com/tanq16/fragget/internal/downloaders/http"
	"github.com/tanq16/fragget/internal/output"
	"github.com/tanq16/fragget/internal/utils"
)

// Options control how a job is presented. The download itself is driven by
// the job.
type Options struct {
	ShowProgress  bool
	ProgressStyle string
	Out           *os.File
	Quiet         bool
}

// Summary describes a finished job.
type Summary struct {
	JobID        string
	OutputPath   string
	Bytes        int64
	Elapsed      time.Duration
	AverageSpeed float64
}

// PrepareJob turns a URL and an optional output name into a runnable job.
// Bare names land in the configured output directory and existing files are
// never overwritten.
func PrepareJob(link, outputPath string, cfg config.Config) (utils.DownloadJob, error) {
	if err := utils.ValidateURL(link); err != nil {
		return utils.DownloadJob{}, err
	}
	rateLimit, err := config.ParseBytes(cfg.RateLimit)
	if err != nil {
		return utils.DownloadJob{}, err
	}
	if outputPath == "" {
		outputPath = utils.FileNameFromURL(link)
	}
	if !filepath.IsAbs(outputPath) && filepath.Dir(outputPath) == "." {
		outputPath = filepath.Join(cfg.OutputDir, outputPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return utils.DownloadJob{}, fmt.Errorf("error creating output directory: %w", err)
	}
	if _, err := os.Stat(outputPath); err == nil {
		renamed := utils.RenewOutputPath(outputPath)
		log := utils.GetLogger("scheduler")
		log.Info().Str("from", outputPath).Str("to", renamed).Msg("Output exists, renaming")
		outputPath = renamed
	}
	return utils.DownloadJob{
		ID:               uuid.NewString(),
		URL:              link,
		OutputPath:       outputPath,
		TempDir:          cfg.TempDir,
		TotalSize:        -1,
		Fragments:        cfg.Fragments,
		ChunkSize:        cfg.ChunkSize,
		RetryAttempts:    cfg.RetryAttempts,
		RateLimit:        rateLimit,
		HTTPClientConfig: cfg.ClientConfig(),
	}, nil
}

// Run executes one job and prints its summary.
func Run(ctx context.Context, job utils.DownloadJob, opts Options) (Summary, error) {
	log := utils.GetLogger("scheduler").With().Str("jobID", job.ID).Logger()
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	var renderer output.Renderer
	if opts.ShowProgress {
		r, err := output.SelectRenderer(opts.ProgressStyle, output.SupportsANSI(opts.Out))
		if err != nil {
			return Summary{JobID: job.ID}, err
		}
		renderer = r
	}

	client := utils.NewHTTPClient(job.HTTPClientConfig)
	defer client.CloseIdleConnections()
	downloader := fraghttp.NewDownloader(client, fraghttp.Options{
		Renderer: renderer,
		Out:      opts.Out,
		OnState: func(s fraghttp.State) {
			if s == fraghttp.StateSingleStream && !opts.Quiet {
				output.PrintWarning("Server does not support byte ranges, downloading as a single stream")
			}
		},
	})

	log.Info().Str("url", job.URL).Str("output", job.OutputPath).Int("fragments", job.Fragments).Msg("Starting download")
	if !opts.Quiet {
		output.PrintInfo(fmt.Sprintf("Downloading %s", job.URL))
		output.PrintDetail(fmt.Sprintf("Saving to %s", job.OutputPath))
	}
	start := time.Now()
	err := downloader.Run(ctx, job)
	summary := Summary{JobID: job.ID, OutputPath: job.OutputPath, Elapsed: time.Since(start)}
	if err != nil {
		log.Error().Err(err).Dur("elapsed", summary.Elapsed).Msg("Download failed")
		return summary, err
	}

	if info, statErr := os.Stat(job.OutputPath); statErr == nil {
		summary.Bytes = info.Size()
	}
	if secs := summary.Elapsed.Seconds(); secs > 0 {
		summary.AverageSpeed = float64(summary.Bytes) / secs
	}
	log.Info().Int64("bytes", summary.Bytes).Dur("elapsed", summary.Elapsed).Float64("speed", summary.AverageSpeed).Msg("Download complete")
	if !opts.Quiet {
		printSummary(opts.Out, summary)
	}
	return summary, nil
}

func printSummary(w io.Writer, s Summary) {
	output.PrintSuccess(fmt.Sprintf("%s Download completed: %s", output.StyleSymbols["pass"], s.OutputPath))
	fmt.Fprintf(w, "  Size:          %s\n", output.FormatBytes(uint64(s.Bytes)))
	fmt.Fprintf(w, "  Time:          %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Average speed: %s\n", output.FormatSpeed(s.AverageSpeed))
}
