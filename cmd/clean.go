package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tanq16/fragget/internal/output"
	"github.com/tanq16/fragget/internal/utils"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [path]",
		Short: "Clean up leftover fragment files",
		Long:  "Given an output file, removes that file's fragments. Given a directory (default: the output directory), removes every fragment left in its temp directory.",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			target := globalConfig.OutputDir
			if len(args) > 0 {
				target = args[0]
			}
			removed, err := clean(target, globalConfig.TempDir)
			if err != nil {
				output.PrintError(fmt.Sprintf("Error cleaning up temporary files: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("%s Removed %d fragment file(s)", output.StyleSymbols["pass"], removed))
		},
	}
}

func clean(target, tempDir string) (int, error) {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		if tempDir == "" {
			tempDir = filepath.Join(target, utils.TempDirName)
		}
		return utils.CleanAll(tempDir)
	}
	if tempDir == "" {
		tempDir = utils.TempDirFor(target)
	}
	return utils.CleanFragments(tempDir, target)
}
