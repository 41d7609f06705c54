package output

import (
	"io"
	"time"

	"github.com/tanq16/fragget/internal/progress"
)

// simpleRenderer appends a line whenever overall progress moved by at least
// simpleStep percentage points. It never rewrites earlier output.
type simpleRenderer struct {
	printed     bool
	lastPercent float64
	lastBytes   int64
}

const simpleStep = 5.0

func (r *simpleRenderer) Interval() time.Duration {
	return time.Second
}

func (r *simpleRenderer) Draw(w io.Writer, snap progress.Snapshot) error {
	if r.printed {
		if snap.TotalExpected >= 0 && snap.Percent-r.lastPercent < simpleStep {
			return nil
		}
		if snap.TotalExpected < 0 && snap.TotalDownloaded == r.lastBytes {
			return nil
		}
	}
	r.printed = true
	r.lastPercent = snap.Percent
	r.lastBytes = snap.TotalDownloaded
	_, err := io.WriteString(w, formatSimple(snap)+"\n")
	return err
}

func (r *simpleRenderer) Clear(w io.Writer) error {
	return nil
}
