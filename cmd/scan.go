package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/charsetcop/internal/charset"
	"github.com/conneroisu/charsetcop/internal/config"
	"github.com/conneroisu/charsetcop/internal/errors"
	"github.com/conneroisu/charsetcop/internal/logging"
	"github.com/conneroisu/charsetcop/internal/report"
	"github.com/conneroisu/charsetcop/internal/scanner"
)

func runScan(cmd *cobra.Command, v *viper.Viper, args []string) error {
	if helpRequested(cmd) || len(args) == 0 {
		return cmd.Help()
	}

	cfg, err := config.LoadFrom(v)
	if err != nil {
		return err
	}
	cfg.Paths = args

	logger, closer, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug(ctx, "Using config file", "path", used)
	}

	enc, err := charset.DefaultRegistry().Lookup(cfg.Scan.Encoding)
	if err != nil {
		return err
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	roots, err := absolutePaths(cfg.Paths)
	if err != nil {
		return err
	}

	validator := charset.NewValidator()
	s, err := scanner.New(validator, scanner.Options{
		Filter:       cfg.Scan.Filter,
		SkipSymlinks: cfg.Scan.SkipSymlinks,
		Workers:      cfg.Scan.Workers,
		StrictRoots:  cfg.Scan.StrictRoots,
		Debug:        cfg.Debug,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	stats, err := s.Scan(ctx, enc, roots...)
	if err != nil {
		return err
	}

	if err := renderer.RenderStatistics(cmd.OutOrStdout(), stats); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if !cfg.Watch.Enabled || stats.Interrupted {
		return nil
	}

	return watchRoots(ctx, cmd.OutOrStdout(), cfg, s, enc, roots, logger)
}

// newLogger builds the logger for a command. Logs go to the command's
// stderr unless a log file is configured.
func newLogger(cmd *cobra.Command, cfg *config.Config) (logging.Logger, io.Closer, error) {
	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()

	logger, closer, err := logging.New(lc)
	if err != nil {
		return nil, nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "cannot open log file")
	}

	return logger, closer, nil
}

func newRenderer(cfg *config.Config) (report.Renderer, error) {
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	return report.New(format, cfg.Output.ListLimit)
}

// absolutePaths resolves paths against the working directory so the report
// and the visited set always deal in absolute paths.
func absolutePaths(paths []string) ([]string, error) {
	abs := make([]string, 0, len(paths))
	for _, path := range paths {
		p, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.WrapConfig(err, errors.ErrCodeInvalidRootPath, "cannot resolve path").WithPath(path)
		}
		abs = append(abs, p)
	}

	return abs, nil
}
