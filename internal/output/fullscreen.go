package output

import (
	"io"
	"strings"
	"time"

	"github.com/tanq16/fragget/internal/progress"
)

const clearScreen = "\033[2J\033[H"

type fullScreenRenderer struct {
	width int
}

func (r *fullScreenRenderer) Interval() time.Duration {
	return 500 * time.Millisecond
}

func (r *fullScreenRenderer) Draw(w io.Writer, snap progress.Snapshot) error {
	lines := formatFullScreen(snap, r.width)
	var b strings.Builder
	b.WriteString(clearScreen)
	for i, line := range lines {
		switch {
		case i == 1:
			line = headerStyle.Render(line)
		case strings.HasPrefix(line, StyleSymbols["pass"]):
			line = successStyle.Render(line)
		case strings.HasPrefix(line, StyleSymbols["pending"]):
			line = pendingStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *fullScreenRenderer) Clear(w io.Writer) error {
	_, err := io.WriteString(w, clearScreen)
	return err
}
