package fraghttp

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/tanq16/fragget/internal/utils"
)

// Reassemble concatenates fragment sinks into outputPath in ascending index
// order. Every sink is checked before the output is created, so a missing
// fragment leaves no output behind. It returns the number of bytes written.
func Reassemble(plans []FragmentPlan, outputPath string, chunkSize int) (int64, error) {
	ordered := slices.Clone(plans)
	slices.SortFunc(ordered, func(a, b FragmentPlan) int { return a.Index - b.Index })
	for _, plan := range ordered {
		if _, err := os.Stat(plan.SinkPath); err != nil {
			if os.IsNotExist(err) {
				err = ErrMissingFragment
			}
			return 0, &ReassemblyError{Index: plan.Index, Path: plan.SinkPath, Err: err}
		}
	}
	if chunkSize <= 0 {
		chunkSize = utils.DefaultChunkSize
	}

	destFile, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("error creating output file: %w", err)
	}
	buffer := make([]byte, chunkSize)
	var totalWritten int64
	for _, plan := range ordered {
		written, err := appendSink(destFile, plan, buffer)
		totalWritten += written
		if err != nil {
			destFile.Close()
			return totalWritten, err
		}
	}
	if err := destFile.Close(); err != nil {
		return totalWritten, fmt.Errorf("error closing output file: %w", err)
	}
	return totalWritten, nil
}

func appendSink(dst io.Writer, plan FragmentPlan, buffer []byte) (int64, error) {
	sink, err := os.Open(plan.SinkPath)
	if err != nil {
		if os.IsNotExist(err) {
			err = ErrMissingFragment
		}
		return 0, &ReassemblyError{Index: plan.Index, Path: plan.SinkPath, Err: err}
	}
	defer sink.Close()
	written, err := io.CopyBuffer(dst, sink, buffer)
	if err != nil {
		return written, &ReassemblyError{Index: plan.Index, Path: plan.SinkPath, Err: err}
	}
	return written, nil
}
