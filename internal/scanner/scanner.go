// Package scanner walks root paths and validates every matching file against
// one encoding.
//
// Directories and files are tasks on a bounded queue served by a fixed pool of
// workers. A worker that finds the queue full processes the task itself
// instead of blocking. Every task produces results on a channel drained by a
// single collector, which is the only writer of the run's Statistics.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/charsetcop/internal/charset"
	"github.com/conneroisu/charsetcop/internal/errors"
	"github.com/conneroisu/charsetcop/internal/logging"
)

// DefaultFilter matches every file name.
const DefaultFilter = "*"

// maxDefaultWorkers caps the default pool size; validation is I/O bound and
// more workers stop paying off.
const maxDefaultWorkers = 8

type taskKind int

const (
	taskDir taskKind = iota
	taskFile
)

// ScanTask is one unit of work: a directory to list or a file to validate.
type ScanTask struct {
	kind taskKind
	path string
}

// ResultKind classifies a ScanResult.
type ResultKind int

const (
	ResultValid ResultKind = iota
	ResultInvalid
	ResultUnprocessed
	ResultSkippedSymlink
	ResultError
)

// ScanResult reports what happened to one path.
type ScanResult struct {
	Kind  ResultKind
	Path  string
	Chars int64
	Err   error
}

// Options configures a Scanner.
type Options struct {
	// Filter is a doublestar glob matched against file names. Directories are
	// always descended into.
	Filter string
	// SkipSymlinks records symbolic links as skipped instead of following them.
	SkipSymlinks bool
	// Workers is the pool size; zero picks min(NumCPU, 8).
	Workers int
	// QueueSize bounds the task queue; zero picks twice the worker count.
	QueueSize int
	// StrictRoots makes an unusable root path fail the whole run. When false
	// the root is recorded as an error and the run goes on.
	StrictRoots bool
	// Debug logs every file and directory as it is processed and every error
	// as it occurs.
	Debug bool
	// Logger receives debug and error messages. Nil discards them.
	Logger logging.Logger
}

// DefaultOptions returns the options used by the command line.
func DefaultOptions() Options {
	return Options{
		Filter:      DefaultFilter,
		StrictRoots: true,
	}
}

// DefaultWorkers returns min(NumCPU, 8).
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > maxDefaultWorkers {
		n = maxDefaultWorkers
	}

	return n
}

// Scanner validates the files under a set of roots. A Scanner holds no
// per-run state and may run several scans concurrently.
type Scanner struct {
	validator *charset.Validator
	fs        afero.Fs
	opts      Options
	logger    logging.Logger
	handler   *errors.ErrorHandler
}

// New creates a scanner reading through the validator's filesystem.
func New(validator *charset.Validator, opts Options) (*Scanner, error) {
	if opts.Filter == "" {
		opts.Filter = DefaultFilter
	}
	if !doublestar.ValidatePattern(opts.Filter) {
		return nil, errors.NewConfigError(
			errors.ErrCodeInvalidPattern,
			fmt.Sprintf("invalid file filter '%s'", opts.Filter),
		)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.Workers * 2
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("scanner")

	return &Scanner{
		validator: validator,
		fs:        validator.Fs(),
		opts:      opts,
		logger:    logger,
		handler:   errors.NewErrorHandler(logger),
	}, nil
}

// Options returns the effective options.
func (s *Scanner) Options() Options { return s.opts }

// Matches reports whether a file name passes the filter.
func (s *Scanner) Matches(name string) bool {
	ok, err := doublestar.Match(s.opts.Filter, name)
	return err == nil && ok
}

// Scan validates every file reachable from roots against enc.
//
// All roots are checked before any work starts; with StrictRoots a root that
// is neither a directory nor a regular file fails the call with a
// configuration error and no statistics. Explicit file roots are validated
// regardless of the filter. Cancelling ctx stops new tasks from starting;
// the returned statistics then cover the work done so far and are flagged as
// interrupted.
func (s *Scanner) Scan(ctx context.Context, enc charset.Encoding, roots ...string) (*Statistics, error) {
	start := time.Now()
	stats := NewStatistics(enc.Name(), roots)
	stats.SkipSymlinks = s.opts.SkipSymlinks

	tasks := make([]ScanTask, 0, len(roots))
	for _, root := range roots {
		task, err := s.rootTask(root)
		if err != nil {
			if s.opts.StrictRoots {
				return nil, err
			}
			s.logger.Warn(ctx, err, "Ignoring root path", "path", root)
			stats.Record(ScanResult{Kind: ResultError, Path: root, Err: err})
			continue
		}
		tasks = append(tasks, task)
	}

	run := &scanRun{
		scanner: s,
		ctx:     ctx,
		enc:     enc,
		queue:   make(chan ScanTask, s.opts.QueueSize),
		results: make(chan ScanResult, s.opts.QueueSize),
	}

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for r := range run.results {
			if s.opts.Debug && r.Err != nil {
				s.handler.Handle(ctx, r.Err)
			}
			stats.Record(r)
		}
	}()

	var g errgroup.Group
	for i := 0; i < s.opts.Workers; i++ {
		g.Go(func() error {
			run.work()
			return nil
		})
	}

	run.pending.Add(len(tasks))
	go func() {
		run.pending.Wait()
		close(run.queue)
	}()
	for _, task := range tasks {
		run.dispatch(task)
	}

	_ = g.Wait()
	close(run.results)
	<-collected

	stats.Interrupted = ctx.Err() != nil
	stats.finish(time.Since(start))

	return stats, nil
}

// rootTask turns a root path into its first task. Links are followed for
// roots even when SkipSymlinks is set.
func (s *Scanner) rootTask(root string) (ScanTask, error) {
	info, err := s.fs.Stat(root)
	if err != nil {
		return ScanTask{}, errors.WrapConfig(
			errors.WrapIO(err, root, "cannot access root path"),
			errors.ErrCodeInvalidRootPath,
			"don't know how to process path, not a directory or regular file",
		)
	}

	switch {
	case info.IsDir():
		return ScanTask{kind: taskDir, path: root}, nil
	case info.Mode().IsRegular():
		return ScanTask{kind: taskFile, path: root}, nil
	default:
		return ScanTask{}, errors.ErrInvalidRootPath(root)
	}
}

// scanRun is the state of one Scan call.
type scanRun struct {
	scanner *Scanner
	ctx     context.Context
	enc     charset.Encoding

	queue   chan ScanTask
	results chan ScanResult
	// pending counts tasks dispatched but not finished; the queue is closed
	// when it drops to zero.
	pending sync.WaitGroup
	visited sync.Map
}

func (r *scanRun) work() {
	for task := range r.queue {
		r.process(task)
	}
}

// submit adds a new task unless the run was cancelled.
func (r *scanRun) submit(task ScanTask) {
	if r.ctx.Err() != nil {
		return
	}

	r.pending.Add(1)
	r.dispatch(task)
}

// dispatch queues an already counted task, or runs it inline when the queue is
// full.
func (r *scanRun) dispatch(task ScanTask) {
	select {
	case r.queue <- task:
	default:
		r.process(task)
	}
}

func (r *scanRun) process(task ScanTask) {
	defer r.pending.Done()

	if r.ctx.Err() != nil {
		return
	}

	switch task.kind {
	case taskDir:
		r.processDirectory(task.path)
	case taskFile:
		r.processFile(task.path)
	}
}

func (r *scanRun) emit(result ScanResult) {
	r.results <- result
}

func (r *scanRun) processDirectory(dir string) {
	s := r.scanner

	if _, seen := r.visited.LoadOrStore(s.resolve(dir), struct{}{}); seen {
		s.logger.Debug(r.ctx, "Directory already visited", "path", dir)
		return
	}

	if s.opts.Debug {
		s.logger.Debug(r.ctx, "Started processing directory", "path", dir, "glob", s.opts.Filter)
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		r.emit(ScanResult{
			Kind: ResultError,
			Path: dir,
			Err: errors.Wrap(err, errors.ErrorTypeIO, errors.ErrCodeDirectoryRead, "cannot read directory").
				WithPath(dir),
		})
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		isLink := entry.Mode()&os.ModeSymlink != 0

		target := entry
		if isLink {
			// A dangling link has no target and ends up unprocessed.
			if resolved, err := s.fs.Stat(path); err == nil {
				target = resolved
			} else {
				target = nil
			}
		}
		isDir := target != nil && target.IsDir()

		if !isDir && !s.Matches(entry.Name()) {
			continue
		}

		switch {
		case isLink && s.opts.SkipSymlinks:
			r.emit(ScanResult{Kind: ResultSkippedSymlink, Path: path})
		case isDir:
			r.submit(ScanTask{kind: taskDir, path: path})
		case target != nil && target.Mode().IsRegular():
			r.submit(ScanTask{kind: taskFile, path: path})
		default:
			r.emit(ScanResult{Kind: ResultUnprocessed, Path: path})
		}
	}
}

func (r *scanRun) processFile(path string) {
	s := r.scanner

	if s.opts.Debug {
		s.logger.Debug(r.ctx, "Started processing file", "path", path, "encoding", r.enc.Name())
	}

	out := s.validator.Validate(path, r.enc)
	switch out.Status {
	case charset.StatusValid:
		if s.opts.Debug {
			s.logger.Debug(r.ctx, "Processed file", "path", path, "encoding", r.enc.Name(), "chars", out.Chars)
		}
		r.emit(ScanResult{Kind: ResultValid, Path: path, Chars: out.Chars})
	case charset.StatusInvalid:
		r.emit(ScanResult{Kind: ResultInvalid, Path: path, Err: out.Err})
	default:
		r.emit(ScanResult{Kind: ResultError, Path: path, Err: out.Err})
	}
}

// resolve returns the key used to detect directory cycles. Only the OS
// filesystem has links to resolve.
func (s *Scanner) resolve(dir string) string {
	if _, ok := s.fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			dir = resolved
		}
		if abs, err := filepath.Abs(dir); err == nil {
			return abs
		}
	}

	return filepath.Clean(dir)
}
