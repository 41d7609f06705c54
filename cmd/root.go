package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanq16/fragget/internal/config"
	"github.com/tanq16/fragget/internal/output"
	"github.com/tanq16/fragget/internal/utils"
)

var (
	configPath    string
	fragments     int
	chunkSize     int
	timeout       time.Duration
	kaTimeout     time.Duration
	retries       int
	outputDir     string
	tempDir       string
	insecure      bool
	noProgress    bool
	progressStyle string
	headers       []string
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	token         string
	limitRate     string
	debug         bool
	logFile       string

	rootOutput string

	// globalConfig is the config file merged with the flags that were set.
	globalConfig config.Config
)

var FraggetVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "fragget [URL]",
	Short:   "fragget downloads one file over several byte-range connections",
	Version: FraggetVersion,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(debug, os.Stderr)
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		globalConfig = cfg
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			return
		}
		if err := runDownload(args[0], rootOutput); err != nil {
			output.PrintError(fmt.Sprintf("%s Download failed: %v", output.StyleSymbols["fail"], err))
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.PrintError(err.Error())
		os.Exit(1)
	}
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("fragments") {
		cfg.Fragments = fragments
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = chunkSize
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if flags.Changed("keep-alive-timeout") {
		cfg.KATimeout = kaTimeout
	}
	if flags.Changed("retries") {
		cfg.RetryAttempts = retries
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("temp-dir") {
		cfg.TempDir = tempDir
	}
	if flags.Changed("insecure") {
		cfg.VerifyTLS = !insecure
	}
	if flags.Changed("no-progress") {
		cfg.ShowProgress = !noProgress
	}
	if flags.Changed("progress-style") {
		cfg.ProgressStyle = progressStyle
	}
	if flags.Changed("header") {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		for k, v := range utils.ParseHeaderArgs(headers) {
			cfg.Headers[k] = v
		}
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = userAgent
	}
	if cfg.UserAgent == "randomize" {
		cfg.UserAgent = utils.GetRandomUserAgent()
	}
	if flags.Changed("proxy") {
		cfg.ProxyURL = proxyURL
	}
	if flags.Changed("proxy-username") {
		cfg.ProxyUsername = proxyUsername
	}
	if flags.Changed("proxy-password") {
		cfg.ProxyPassword = proxyPassword
	}
	// Credentials embedded in the proxy URL are moved to their own fields
	if cfg.ProxyURL != "" {
		parsedProxy, err := u.Parse(cfg.ProxyURL)
		if err == nil && parsedProxy.User != nil && cfg.ProxyUsername == "" {
			cfg.ProxyUsername = parsedProxy.User.Username()
			if password, set := parsedProxy.User.Password(); set {
				cfg.ProxyPassword = password
			}
			parsedProxy.User = nil
			cfg.ProxyURL = parsedProxy.String()
		}
	}
	if flags.Changed("token") {
		cfg.BearerToken = token
	}
	if flags.Changed("limit-rate") {
		cfg.RateLimit = limitRate
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
}

func init() {
	defaults := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default "+config.DefaultPath()+")")
	pf.IntVarP(&fragments, "fragments", "c", defaults.Fragments, fmt.Sprintf("Number of byte-range fragments (1-%d, above %d enables high-thread-mode)", config.MaxFragments, utils.HighThreadThreshold))
	pf.IntVar(&chunkSize, "chunk-size", defaults.ChunkSize, "Read buffer size in bytes")
	pf.DurationVarP(&timeout, "timeout", "t", defaults.Timeout, "Per-request timeout (eg. 5s, 10m)")
	pf.DurationVarP(&kaTimeout, "keep-alive-timeout", "k", defaults.KATimeout, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	pf.IntVarP(&retries, "retries", "r", defaults.RetryAttempts, "Attempts per fragment before giving up")
	pf.StringVarP(&outputDir, "output-dir", "d", defaults.OutputDir, "Directory for downloaded files")
	pf.StringVar(&tempDir, "temp-dir", "", "Directory for fragment files (default <output dir>/"+utils.TempDirName+")")
	pf.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	pf.BoolVar(&noProgress, "no-progress", false, "Do not render progress")
	pf.StringVar(&progressStyle, "progress-style", defaults.ProgressStyle, "Progress style: inline, full_screen or simple")
	pf.StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	pf.StringVarP(&userAgent, "user-agent", "a", defaults.UserAgent, "User agent (use 'randomize' for a browser agent)")
	pf.StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	pf.StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	pf.StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	pf.StringVar(&token, "token", "", "Bearer token sent with every request")
	pf.StringVar(&limitRate, "limit-rate", "", "Bandwidth cap for the whole download (eg. 500K, 2MB)")
	pf.BoolVar(&debug, "debug", false, "Enable debug logging")
	pf.StringVar(&logFile, "log-file", "", "Write logs to this file (default "+utils.LogFile+" while progress is shown)")

	rootCmd.Flags().StringVarP(&rootOutput, "output", "o", "", "Output file name or path (inferred from the URL if not provided)")

	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCleanCmd())
}
