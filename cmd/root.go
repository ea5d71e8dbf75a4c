package cmd

import (
	stderrors "errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/charsetcop/internal/charset"
	"github.com/conneroisu/charsetcop/internal/config"
	"github.com/conneroisu/charsetcop/internal/errors"
)

// configFileEnv names a config file when --config is not given.
const configFileEnv = "CHARSETCOP_CONFIG_FILE"

// flagKeys maps flag names to the configuration keys they override.
var flagKeys = map[string]string{
	"encoding":      "scan.encoding",
	"filter":        "scan.filter",
	"skip-symlinks": "scan.skip_symlinks",
	"workers":       "scan.workers",
	"candidates":    "detect.candidates",
	"format":        "output.format",
	"list-limit":    "output.list_limit",
	"watch":         "watch.enabled",
	"debounce":      "watch.debounce",
	"debug":         "debug",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"log-file":      "log.file",
}

// Execute builds the command tree and runs it against os.Args.
func Execute() error {
	return explain(NewRootCommand().Execute())
}

// explain attaches fix suggestions to the configuration errors users hit
// most often.
func explain(err error) error {
	var ce *errors.CharsetError
	if !stderrors.As(err, &ce) {
		return err
	}

	switch ce.Code {
	case errors.ErrCodeUnknownEncoding:
		name, _ := ce.Context["encoding"].(string)
		return errors.NewEnhancedError(err.Error(), err, errors.EncodingSuggestions(name, charset.Supported()))
	case errors.ErrCodeInvalidRootPath:
		return errors.NewEnhancedError(err.Error(), err, errors.RootPathSuggestions(ce.Path))
	default:
		return err
	}
}

// NewRootCommand returns the charsetcop command with all subcommands. Each
// call gets its own Viper instance so commands can be run repeatedly.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "charsetcop [paths...]",
		Short: "Check that files decode cleanly in a given character encoding",
		Long: `charsetcop walks the given files and directories and checks that every file
decodes in the chosen character encoding without loss. Files that do not
are listed in the report, together with anything that could not be read.

Examples:
  charsetcop src                          # Check src as UTF-8
  charsetcop -e ISO-8859-1 -t '*.java' .  # Only .java files, as Latin-1
  charsetcop -f json a.txt b.txt          # JSON report for two files
  charsetcop -w src                       # Keep checking files as they change
  charsetcop detect -c UTF-8,windows-1252 notes.txt
  charsetcop encodings`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, v, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .charsetcop.yml, can also use "+configFileEnv+" env var)")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", config.DefaultLogFormat, "log format (text, json)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to a rotated file instead of stderr")

	addScanFlags(rootCmd)
	addHelpAlias(rootCmd)

	rootCmd.AddCommand(
		newDetectCommand(v),
		newEncodingsCommand(),
		newVersionCommand(),
	)

	// Diagnostics go to stderr; cobra's own "Error:" line is silenced above.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, err.Error())
	})

	return rootCmd
}

// initConfig points Viper at the config file, environment and flags.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. CHARSETCOP_CONFIG_FILE environment variable
//  3. .charsetcop.yml in the current directory
//
// A missing default file is fine; an explicitly named file must exist.
func initConfig(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	explicit := true
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(configFileEnv); envConfigFile != "" {
		v.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".charsetcop")
	}

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(config.NewEnvKeyReplacer())
	v.AutomaticEnv()
	if err := config.BindEnv(v); err != nil {
		return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "cannot bind environment")
	}

	if err := bindFlags(v, flags); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !stderrors.As(err, &notFound) {
			return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "cannot read config file")
		}
	}

	return nil
}

// bindFlags binds whichever of the known flags the running command defines.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "cannot bind flag --"+name)
		}
	}

	return nil
}

// addHelpAlias makes -? print usage like -h.
func addHelpAlias(cmd *cobra.Command) {
	cmd.Flags().BoolP("usage", "?", false, "help for "+cmd.Name())
	_ = cmd.Flags().MarkHidden("usage")
}

func helpRequested(cmd *cobra.Command) bool {
	asked, _ := cmd.Flags().GetBool("usage")
	return asked
}
