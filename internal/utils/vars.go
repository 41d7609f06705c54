package utils

import (
	"errors"
	"regexp"
)

const (
	DefaultChunkSize    = 8 * 1024    // 8KB read buffer per fragment
	DefaultSocketBuffer = 1024 * 1024 // 1MB socket buffers in high thread mode
	HighThreadThreshold = 8           // fragments above this enable high thread mode
	TempDirName         = ".fragget-temp"
	LogFile             = ".fragget.log"
	ToolUserAgent       = "fragget"
)

var ErrInvalidURL = errors.New("invalid URL")
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")
var FragmentIDRegex = regexp.MustCompile(`\.part(\d+)$`)

// Local-only User-Agent list for --user-agent randomize
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15",
	"curl/7.88.1",
	"Wget/1.21.4",
}
