package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/charsetcop/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		format   string
		short    bool
		detailed bool
	)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for charsetcop including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)

Examples:
  charsetcop version               # Version and commit
  charsetcop version --detailed    # Every known build detail
  charsetcop version --format json # Output as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if helpRequested(cmd) {
				return cmd.Help()
			}
			return writeVersion(cmd.OutOrStdout(), version.Get(), format, short, detailed)
		},
	}

	versionCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")
	versionCmd.Flags().BoolVar(&short, "short", false, "Show short version only")
	versionCmd.Flags().BoolVar(&detailed, "detailed", false, "Show detailed version information")
	addHelpAlias(versionCmd)

	return versionCmd
}

func writeVersion(w io.Writer, info *version.BuildInfo, format string, short, detailed bool) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(info); err != nil {
			return err
		}
		return encoder.Close()
	case "text":
		var err error
		switch {
		case short:
			_, err = fmt.Fprintln(w, info.Short())
		case detailed:
			_, err = fmt.Fprintln(w, info.Detailed())
		default:
			_, err = fmt.Fprintf(w, "charsetcop %s\n", info.Short())
		}
		return err
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
	}
}
