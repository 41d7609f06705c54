package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tanq16/fragget/internal/output"
	"github.com/tanq16/fragget/internal/scheduler"
	"github.com/tanq16/fragget/internal/utils"
)

func newDownloadCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:     "download [URL] [--output OUTPUT_PATH]",
		Aliases: []string{"dl", "get"},
		Short:   "Download a file via HTTP/HTTPS in parallel fragments",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runDownload(args[0], outputPath); err != nil {
				output.PrintError(fmt.Sprintf("%s Download failed: %v", output.StyleSymbols["fail"], err))
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file name or path (inferred from the URL if not provided)")
	return cmd
}

func runDownload(link, outputPath string) error {
	job, err := scheduler.PrepareJob(link, outputPath, globalConfig)
	if err != nil {
		return err
	}

	// Progress owns the terminal, so logs move to a file while it is drawn
	logPath := globalConfig.LogFile
	if logPath == "" && globalConfig.ShowProgress {
		logPath = utils.LogFile
	}
	if logPath != "" {
		f, err := utils.OpenLogFile(logPath)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		defer f.Close()
		utils.InitLogger(debug, f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	_, err = scheduler.Run(ctx, job, scheduler.Options{
		ShowProgress:  globalConfig.ShowProgress,
		ProgressStyle: globalConfig.ProgressStyle,
		Out:           os.Stdout,
	})
	return err
}
