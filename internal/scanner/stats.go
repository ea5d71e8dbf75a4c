package scanner

import (
	"sort"
	"time"
)

// Statistics aggregates the outcome of one scan. It is written only by the
// collector goroutine of a run and handed to the caller once the run ends.
type Statistics struct {
	Encoding         string
	Roots            []string
	TotalChars       int64
	ValidFiles       int64
	EncodingFailures []string
	Unprocessed      []string
	SkippedSymlinks  []string
	Errors           []string
	SkipSymlinks     bool
	Interrupted      bool
	Duration         time.Duration
}

// NewStatistics creates empty statistics for a run over roots.
func NewStatistics(encoding string, roots []string) *Statistics {
	return &Statistics{
		Encoding:         encoding,
		Roots:            append([]string(nil), roots...),
		EncodingFailures: []string{},
		Unprocessed:      []string{},
		SkippedSymlinks:  []string{},
		Errors:           []string{},
	}
}

// Record folds one result into the statistics.
func (s *Statistics) Record(r ScanResult) {
	switch r.Kind {
	case ResultValid:
		s.TotalChars += r.Chars
		s.ValidFiles++
	case ResultInvalid:
		s.EncodingFailures = append(s.EncodingFailures, r.Path)
	case ResultUnprocessed:
		s.Unprocessed = append(s.Unprocessed, r.Path)
	case ResultSkippedSymlink:
		s.SkippedSymlinks = append(s.SkippedSymlinks, r.Path)
	case ResultError:
		s.Errors = append(s.Errors, r.Path)
	}
}

// finish sorts the path lists so reports are stable across worker
// interleavings.
func (s *Statistics) finish(d time.Duration) {
	sort.Strings(s.EncodingFailures)
	sort.Strings(s.Unprocessed)
	sort.Strings(s.SkippedSymlinks)
	sort.Strings(s.Errors)
	s.Duration = d
}
