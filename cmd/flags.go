package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/charsetcop/internal/config"
	"github.com/conneroisu/charsetcop/internal/report"
)

func addScanFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP("encoding", "e", config.DefaultEncoding, "Encoding every file must decode in")
	flags.StringP("filter", "t", config.DefaultFilter, "Glob matched against file names (doublestar syntax)")
	flags.BoolP("debug", "d", false, "Log every file and directory as it is processed")
	flags.BoolP("skip-symlinks", "s", false, "Record symbolic links as skipped instead of following them")
	flags.IntP("workers", "j", 0, "Number of parallel workers (0 picks min(NumCPU, 8))")
	flags.BoolP("watch", "w", false, "Keep watching the paths and check files again when they change")
	flags.Duration("debounce", config.DefaultDebounce, "Quiet period before changed files are checked")
	flags.Int("list-limit", config.DefaultListLimit, "Paths listed per category in the text report")
	addFormatFlag(cmd)

	AddFlagValidation(cmd, "filter", ValidatePattern)
	AddFlagValidation(cmd, "workers", ValidateWorkers)
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Output format ("+strings.Join(report.Formats, "|")+")")

	AddFlagValidation(cmd, "format", ValidateFormat)
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFormat accepts the report formats, ignoring case.
func ValidateFormat(format string) error {
	_, err := report.ParseFormat(format)
	return err
}

// ValidatePattern rejects malformed glob patterns.
func ValidatePattern(pattern string) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid filter pattern '%s'", pattern)
	}
	return nil
}

// ValidateWorkers rejects negative worker counts.
func ValidateWorkers(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid worker count: %s", s)
	}
	if n < 0 {
		return fmt.Errorf("workers must not be negative, got %d", n)
	}
	return nil
}
