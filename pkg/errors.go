package dupsig

import (
	"errors"
	"fmt"
)

// ErrInterrupted is returned when a run is aborted by the shutdown channel.
// No report is produced for an interrupted run.
var ErrInterrupted = errors.New("run interrupted by shutdown")

// CatalogLoadError reports a missing or malformed signature catalog.
// It is fatal at startup; no run can begin without a loaded catalog.
type CatalogLoadError struct {
	Reason string
	Err    error
}

func (e *CatalogLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load signature catalog: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to load signature catalog: %s", e.Reason)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// UnknownExtensionError reports an extension with no catalog rule. It is
// fatal for the whole run and is returned before any scanning I/O starts.
// Known carries the supported extensions so callers can print them.
type UnknownExtensionError struct {
	Extension string
	Known     []string
}

func (e *UnknownExtensionError) Error() string {
	return fmt.Sprintf("unsupported file extension %q: use only supported file extensions", e.Extension)
}

// HashIOError reports a file that could not be opened or read while hashing.
// Unlike verification failures, this aborts the run: a partial digest would
// silently corrupt grouping.
type HashIOError struct {
	Path string
	Err  error
}

func (e *HashIOError) Error() string {
	return fmt.Sprintf("failed to hash file %s: %v", e.Path, e.Err)
}

func (e *HashIOError) Unwrap() error { return e.Err }
