package utils

import "time"

type HTTPClientConfig struct {
	Timeout            time.Duration
	KATimeout          time.Duration
	ProxyURL           string
	ProxyUsername      string
	ProxyPassword      string
	UserAgent          string
	Headers            map[string]string
	BearerToken        string
	InsecureSkipVerify bool
	HighThreadMode     bool // advanced socket options for many fragments
}

// DownloadJob describes one fragmented download. TotalSize is -1 until probed.
type DownloadJob struct {
	ID               string
	URL              string
	OutputPath       string
	TempDir          string
	TotalSize        int64
	Fragments        int
	ChunkSize        int
	RetryAttempts    int
	RateLimit        int64 // bytes per second, 0 means unlimited
	HTTPClientConfig HTTPClientConfig
}
