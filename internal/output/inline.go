package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tanq16/fragget/internal/progress"
)

type inlineRenderer struct {
	ansi     bool
	numLines int
}

func (r *inlineRenderer) Interval() time.Duration {
	return time.Second
}

func (r *inlineRenderer) Draw(w io.Writer, snap progress.Snapshot) error {
	var b strings.Builder
	if r.ansi && r.numLines > 0 {
		fmt.Fprintf(&b, "\033[%dA", r.numLines)
	}
	lines := formatInline(snap, !r.ansi)
	for i, line := range lines {
		if !r.ansi {
			fmt.Fprintf(&b, "%-80s\n", line)
			continue
		}
		if i == 0 {
			line = headerStyle.Render(line)
		} else {
			line = debugStyle.Render(line)
		}
		b.WriteString("\033[K" + line + "\n")
	}
	if !r.ansi {
		b.WriteString(strings.Repeat("-", 50) + "\n")
	}
	r.numLines = len(lines)
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *inlineRenderer) Clear(w io.Writer) error {
	if !r.ansi || r.numLines == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "\033[%dA\033[J", r.numLines)
	r.numLines = 0
	return err
}
