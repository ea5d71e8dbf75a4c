package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conneroisu/charsetcop/internal/charset"
	"github.com/conneroisu/charsetcop/internal/config"
	"github.com/conneroisu/charsetcop/internal/errors"
	"github.com/conneroisu/charsetcop/internal/logging"
	"github.com/conneroisu/charsetcop/internal/scanner"
	"github.com/conneroisu/charsetcop/internal/watcher"
)

// watchRoots checks files under roots again each time they change, until ctx
// is cancelled.
func watchRoots(ctx context.Context, out io.Writer, cfg *config.Config, s *scanner.Scanner, enc charset.Encoding, roots []string, logger logging.Logger) error {
	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInternalError, "cannot start file watcher", err)
	}
	defer fw.Stop()

	fw.AddFilter(watcher.NoGitFilter)
	fw.AddFilter(newRootFilter(roots, s))

	for _, root := range roots {
		if err := fw.AddRecursive(root); err != nil {
			logger.Warn(ctx, err, "Cannot watch path", "path", root)
		}
	}

	recheck := &rechecker{
		out:          out,
		validator:    charset.NewValidator(),
		enc:          enc,
		skipSymlinks: cfg.Scan.SkipSymlinks,
	}
	fw.AddHandler(recheck.handle)

	logger.Info(ctx, "Watching for changes", "paths", len(roots), "directories", len(fw.WatchList()))

	return fw.Run(ctx)
}

// rootFilter accepts changes to explicit file roots and to files under
// directory roots whose names pass the scan filter.
type rootFilter struct {
	files   map[string]bool
	dirs    []string
	matches func(name string) bool
}

func newRootFilter(roots []string, s *scanner.Scanner) watcher.FileFilter {
	f := &rootFilter{files: make(map[string]bool), matches: s.Matches}
	for _, root := range roots {
		if info, err := os.Stat(root); err == nil && !info.IsDir() {
			f.files[filepath.Clean(root)] = true
			continue
		}
		f.dirs = append(f.dirs, filepath.Clean(root))
	}

	return f.accept
}

func (f *rootFilter) accept(path string) bool {
	path = filepath.Clean(path)
	if f.files[path] {
		return true
	}

	for _, dir := range f.dirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return f.matches(filepath.Base(path))
		}
	}

	return false
}

// rechecker validates changed files and prints one line per file.
type rechecker struct {
	mu           sync.Mutex
	out          io.Writer
	validator    *charset.Validator
	enc          charset.Encoding
	skipSymlinks bool
}

func (r *rechecker) handle(events []watcher.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range events {
		if !event.Type.Exists() {
			continue
		}
		if r.skipSymlinks {
			if info, err := os.Lstat(event.Path); err == nil && info.Mode()&os.ModeSymlink != 0 {
				continue
			}
		}

		if _, err := fmt.Fprintln(r.out, describeOutcome(event.Path, r.enc, r.validator.Validate(event.Path, r.enc))); err != nil {
			return err
		}
	}

	return nil
}

func describeOutcome(path string, enc charset.Encoding, outcome charset.Outcome) string {
	switch outcome.Status {
	case charset.StatusValid:
		return fmt.Sprintf("%s: %d '%s' chars", path, outcome.Chars, enc.Name())
	case charset.StatusInvalid:
		return fmt.Sprintf("%s: failed encoding check", path)
	default:
		return fmt.Sprintf("%s: error: %v", path, outcome.Err)
	}
}
