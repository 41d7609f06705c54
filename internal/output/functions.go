package output

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// FormatBytes converts bytes to human-readable format
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatSpeed formats a bytes-per-second rate
func FormatSpeed(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 {
		return "0 B/s"
	}
	return FormatBytes(uint64(bytesPerSecond)) + "/s"
}

// ProgressBar draws a bracketed bar of the given width. ASCII mode is used
// when the terminal cannot be trusted with block characters.
func ProgressBar(percent float64, width int, ascii bool) string {
	if width <= 0 {
		width = 30
	}
	percent = max(0, min(percent, 100))
	filled := max(0, min(int(float64(width)*percent/100), width))
	fill, empty := StyleSymbols["block"], StyleSymbols["shade"]
	if ascii {
		fill, empty = "#", "-"
	}
	return "[" + strings.Repeat(fill, filled) + strings.Repeat(empty, width-filled) + "]"
}

// SupportsANSI reports whether f is a terminal that understands escape sequences.
func SupportsANSI(f *os.File) bool {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	termName := os.Getenv("TERM")
	return termName != "dumb"
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // Default fallback width
	}
	return width
}
