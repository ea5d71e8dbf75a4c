package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/charsetcop/internal/charset"
)

func newEncodingsCommand() *cobra.Command {
	encodingsCmd := &cobra.Command{
		Use:     "encodings",
		Aliases: []string{"list"},
		Short:   "List the encoding names accepted by --encoding and --candidates",
		Long: `List the canonical names of every supported encoding, one per line.
Lookups are case-insensitive and also accept IANA aliases such as "latin1".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if helpRequested(cmd) {
				return cmd.Help()
			}

			out := cmd.OutOrStdout()
			for _, name := range charset.Supported() {
				if _, err := fmt.Fprintln(out, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	addHelpAlias(encodingsCmd)

	return encodingsCmd
}
