package batch

import (
	"fmt"

	"avsser/internal/media/source"
)

// Status is the outcome for one input.
type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// FileResult records what happened to one input.
type FileResult struct {
	Input  string
	Kind   source.Kind
	Script string
	// Group is the key of the chapter group, empty until linking.
	Group     string
	Ordinal   int
	GroupSize int
	Status    Status
	// Class is the error taxonomy label for failures.
	Class  string
	Err    error
	Reason string
}

// Summary is the report of a run, ordered by input path.
type Summary struct {
	RunID  string
	Files  []FileResult
	Groups int
}

// Count returns how many files ended with status.
func (s *Summary) Count(status Status) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, file := range s.Files {
		if file.Status == status {
			n++
		}
	}
	return n
}

// Err returns a non-nil error when any file failed.
func (s *Summary) Err() error {
	failed := s.Count(StatusFailed)
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d files failed", failed, len(s.Files))
}
