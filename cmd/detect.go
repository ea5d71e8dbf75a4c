package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/charsetcop/internal/charset"
	"github.com/conneroisu/charsetcop/internal/config"
	"github.com/conneroisu/charsetcop/internal/report"
)

func newDetectCommand(v *viper.Viper) *cobra.Command {
	detectCmd := &cobra.Command{
		Use:   "detect <files...>",
		Short: "Report the first candidate encoding each file decodes in",
		Long: `Try each candidate encoding in order and report the first one the file
decodes in without loss. Nothing is guessed from the content: a file that
fails every candidate is reported as unmatched.

Examples:
  charsetcop detect notes.txt                        # US-ASCII, UTF-8, ISO-8859-1
  charsetcop detect -c UTF-16LE,UTF-8 export.csv     # Custom candidates
  charsetcop detect -f json *.txt                    # Output as JSON`,
		Args: func(cmd *cobra.Command, args []string) error {
			if helpRequested(cmd) {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, v, args)
		},
	}

	detectCmd.Flags().StringSliceP("candidates", "c", config.DefaultCandidates, "Candidate encodings, tried in order")
	addFormatFlag(detectCmd)
	addHelpAlias(detectCmd)

	return detectCmd
}

func runDetect(cmd *cobra.Command, v *viper.Viper, args []string) error {
	if helpRequested(cmd) {
		return cmd.Help()
	}

	cfg, err := config.LoadFrom(v)
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	candidates, err := charset.Lookup(charset.DefaultRegistry(), cfg.Detect.Candidates...)
	if err != nil {
		return err
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	paths, err := absolutePaths(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validator := charset.NewValidator()
	detections := make([]report.Detection, 0, len(paths))
	for _, path := range paths {
		enc, found, err := validator.FindFirstValidEncodingContext(ctx, path, candidates...)
		if ctx.Err() != nil {
			break
		}

		detection := report.Detection{Path: path, Found: found}
		switch {
		case err != nil:
			logger.Debug(ctx, "Detection failed", "path", path, "error", err)
			detection.Error = err.Error()
		case found:
			detection.Encoding = enc.Name()
		}
		detections = append(detections, detection)
	}

	if err := renderer.RenderDetections(cmd.OutOrStdout(), detections); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}
