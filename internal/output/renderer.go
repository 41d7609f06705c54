package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tanq16/fragget/internal/progress"
)

const (
	StyleInline     = "inline"
	StyleFullScreen = "full_screen"
	StyleSimple     = "simple"
)

// Renderer draws progress snapshots. Implementations keep only their own
// terminal bookkeeping and never touch download state.
type Renderer interface {
	Draw(w io.Writer, snap progress.Snapshot) error
	Clear(w io.Writer) error
	Interval() time.Duration
}

// SelectRenderer picks the presentation once at startup. Full screen needs
// ANSI support and degrades to inline without it.
func SelectRenderer(style string, ansi bool) (Renderer, error) {
	switch strings.ToLower(strings.ReplaceAll(style, "-", "_")) {
	case StyleInline, "":
		return &inlineRenderer{ansi: ansi}, nil
	case StyleFullScreen, "fullscreen":
		if !ansi {
			return &inlineRenderer{ansi: false}, nil
		}
		return &fullScreenRenderer{width: min(getTerminalWidth(), 60)}, nil
	case StyleSimple:
		return &simpleRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown progress style %q (use inline, full_screen or simple)", style)
	}
}

func ValidStyle(style string) bool {
	_, err := SelectRenderer(style, false)
	return err == nil
}

func overallLine(snap progress.Snapshot, ascii bool) string {
	if snap.TotalExpected < 0 {
		return fmt.Sprintf("Overall: %s downloaded | %s", FormatBytes(uint64(snap.TotalDownloaded)), FormatSpeed(snap.Speed()))
	}
	return fmt.Sprintf("Overall: %s %5.1f%% | %s/%s",
		ProgressBar(snap.Percent, 30, ascii),
		snap.Percent,
		FormatBytes(uint64(snap.TotalDownloaded)),
		FormatBytes(uint64(snap.TotalExpected)),
	)
}

func fragmentLine(f progress.FragmentSnapshot, width int, ascii bool) string {
	if f.Total < 0 {
		return fmt.Sprintf("Frag %2d: %s | %8s", f.Index+1, FormatBytes(uint64(f.Downloaded)), FormatSpeed(f.Speed))
	}
	return fmt.Sprintf("Frag %2d: %s %5.1f%% | %8s", f.Index+1, ProgressBar(f.Percent, width, ascii), f.Percent, FormatSpeed(f.Speed))
}

func formatInline(snap progress.Snapshot, ascii bool) []string {
	lines := []string{overallLine(snap, ascii)}
	for _, f := range snap.Fragments {
		lines = append(lines, fragmentLine(f, 20, ascii))
	}
	return lines
}

func formatFullScreen(snap progress.Snapshot, width int) []string {
	rule := strings.Repeat("=", width)
	lines := []string{
		rule,
		fmt.Sprintf("DOWNLOAD PROGRESS - %s", snap.Taken.Format("15:04:05")),
		rule,
	}
	if snap.TotalExpected < 0 {
		lines = append(lines, fmt.Sprintf("Downloaded: %s", FormatBytes(uint64(snap.TotalDownloaded))))
	} else {
		lines = append(lines,
			fmt.Sprintf("Overall: %s %.1f%%", ProgressBar(snap.Percent, 30, false), snap.Percent),
			fmt.Sprintf("Downloaded: %s / %s", FormatBytes(uint64(snap.TotalDownloaded)), FormatBytes(uint64(snap.TotalExpected))),
		)
	}
	lines = append(lines,
		fmt.Sprintf("Total Speed: %s", FormatSpeed(snap.Speed())),
		"",
		"Fragment Progress:",
		strings.Repeat("-", width),
	)
	for _, f := range snap.Fragments {
		status := StyleSymbols["pending"]
		if f.Total > 0 && f.Downloaded >= f.Total {
			status = StyleSymbols["pass"]
		}
		lines = append(lines, fmt.Sprintf("%s Fragment %2d: %s %5.1f%% | %10s", status, f.Index+1, ProgressBar(f.Percent, 30, false), f.Percent, FormatSpeed(f.Speed)))
	}
	lines = append(lines, rule)
	return lines
}

func formatSimple(snap progress.Snapshot) string {
	if snap.TotalExpected < 0 {
		return fmt.Sprintf("Progress: %s | Speed: %s", FormatBytes(uint64(snap.TotalDownloaded)), FormatSpeed(snap.Speed()))
	}
	return fmt.Sprintf("Progress: %5.1f%% | Speed: %s | Fragments: %d/%d completed",
		snap.Percent, FormatSpeed(snap.Speed()), snap.Completed(), snap.FragmentCount())
}
