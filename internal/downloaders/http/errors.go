package fraghttp

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSingleStream signals that the resource cannot be fetched in fragments.
	ErrSingleStream    = errors.New("range requests not supported, single stream required")
	ErrMissingFragment = errors.New("fragment sink missing")
	ErrSizeMismatch    = errors.New("fragment size mismatch")
)

// FetchError is one failed attempt at one fragment.
type FetchError struct {
	Index      int
	Attempt    int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fragment %d attempt %d: unexpected status code: %d", e.Index, e.Attempt+1, e.StatusCode)
	}
	return fmt.Sprintf("fragment %d attempt %d: %v", e.Index, e.Attempt+1, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure looks transient: transport errors and 5xx.
// Both kinds are retried to the same cap; the flag only informs logging.
func (e *FetchError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

type ReassemblyError struct {
	Index int
	Path  string
	Err   error
}

func (e *ReassemblyError) Error() string {
	return fmt.Sprintf("reassembly failed at fragment %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *ReassemblyError) Unwrap() error {
	return e.Err
}

// FragmentsFailedError lists the fragments that exhausted their retries.
type FragmentsFailedError struct {
	Failed []FragmentResult
}

func (e *FragmentsFailedError) Error() string {
	indexes := make([]string, 0, len(e.Failed))
	for _, i := range e.Indexes() {
		indexes = append(indexes, fmt.Sprint(i))
	}
	msg := fmt.Sprintf("%d fragment(s) failed: [%s]", len(e.Failed), strings.Join(indexes, ", "))
	var first *FragmentResult
	for i := range e.Failed {
		if e.Failed[i].Err != nil && (first == nil || e.Failed[i].Index < first.Index) {
			first = &e.Failed[i]
		}
	}
	if first != nil {
		msg += fmt.Sprintf(" (fragment %d: %v)", first.Index, first.Err)
	}
	return msg
}

// Unwrap exposes every per-fragment error to errors.Is and errors.As.
func (e *FragmentsFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, r := range e.Failed {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// Indexes returns the failed fragment indexes in ascending order.
func (e *FragmentsFailedError) Indexes() []int {
	out := make([]int, 0, len(e.Failed))
	for _, r := range e.Failed {
		out = append(out, r.Index)
	}
	sort.Ints(out)
	return out
}
