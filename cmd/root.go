package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/swind/go-retrace/retrace"
)

const (
	// ExitUsage is returned for missing or malformed arguments.
	ExitUsage = 2
	// ExitFailure is returned when the mapping or the stack trace can't be
	// processed.
	ExitFailure = 1
)

// legacyFlags are the single dash flags of the classic retrace tool. pflag
// would read "-verbose" as the shorthand cluster "-v -e -r bose".
var legacyFlags = map[string]string{
	"-regex":   "--regex",
	"-verbose": "--verbose",
}

// usageError marks errors that are the caller's fault.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newUsageError(err error) error {
	return &usageError{err: err}
}

// Execute runs the retrace command and exits with its status.
// This is called by main.main().
func Execute() {
	log.SetHandler(clihandler.Default)

	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Run executes the retrace command with the given arguments and streams and
// returns the exit status.
func Run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	v := viper.New()
	rootCmd := NewRootCommand(v)
	rootCmd.SetArgs(normalizeArgs(args))
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "Error: %s\n\n%s", err, rootCmd.UsageString())
		return ExitUsage
	}

	logger := &log.Logger{Handler: clihandler.New(stderr), Level: log.InfoLevel}
	if v.GetBool("verbose") {
		// Print the full trace.
		logger.Errorf("%+v", err)
	} else {
		logger.Error(err.Error())
	}
	return ExitFailure
}

// normalizeArgs rewrites the legacy flags into their GNU style spelling.
// Arguments after "--" are left alone.
func normalizeArgs(args []string) []string {
	normalized := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(normalized, args[i:]...)
		}

		name, value, hasValue := strings.Cut(arg, "=")
		if flag, ok := legacyFlags[name]; ok {
			arg = flag
			if hasValue {
				arg += "=" + value
			}
		}
		normalized = append(normalized, arg)
	}
	return normalized
}

// NewRootCommand creates the retrace command, binding its flags to v.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "retrace [flags] <mapping_file> [<stacktrace_file>]",
		Short: "De-obfuscate stack traces of applications obfuscated with ProGuard or R8",
		Long: heredoc.Doc(`
			Retrace reads a mapping file written by ProGuard or R8 and rewrites a
			stack trace, replacing obfuscated class, field and method names with
			their original names. Ambiguous names are listed on extra lines.

			The stack trace is read from standard input when no file is given or
			the file is '-'. Files ending in .gz or .xz are decompressed. The
			classic '-regex' and '-verbose' spellings are accepted too.

			Expressions may contain these placeholders:
			  %c class name      %C class name with slashes   %s source file
			  %l line number     %t type                      %f field name
			  %m method name     %a argument types            %% percent sign`),
		Example: heredoc.Doc(`
			# Retrace a crash log
			❯ retrace mapping.txt crash.txt

			# Retrace from standard input, printing member types and arguments
			❯ adb logcat -d | retrace --verbose mapping.txt.gz

			# Retrace lines like "com.example.Foo.bar" with a literal template
			❯ retrace --template '%c.%f' mapping.txt fields.txt`),
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(1, 2)(cmd, args); err != nil {
				return newUsageError(err)
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args)
		},
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return newUsageError(err)
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/retrace/config.yaml)")
	rootCmd.Flags().StringP("regex", "r", "", "regular expression with placeholders for the stack trace lines")
	rootCmd.Flags().StringP("template", "t", "", "literal template with placeholders for the stack trace lines")
	rootCmd.Flags().BoolP("extended", "e", false, "also retrace Android and JDK exception messages")
	rootCmd.Flags().BoolP("verbose", "v", false, "print member types and arguments, and full error traces")
	rootCmd.Flags().BoolP("all-class-names", "a", false, "retrace every token that looks like an obfuscated class name")
	rootCmd.Flags().BoolP("debug", "D", false, "debug logging")

	v.BindPFlag("regex", rootCmd.Flags().Lookup("regex"))
	v.BindPFlag("template", rootCmd.Flags().Lookup("template"))
	v.BindPFlag("extended", rootCmd.Flags().Lookup("extended"))
	v.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
	v.BindPFlag("all-class-names", rootCmd.Flags().Lookup("all-class-names"))
	v.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix("retrace")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return newUsageError(errors.Wrapf(err, "can't read config file %s", cfgFile))
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(filepath.Join(home, ".config", "retrace"))
	v.SetConfigType("yaml")
	v.SetConfigName("config")

	// If a config file is found, read it in.
	if err := v.ReadInConfig(); err == nil {
		log.Debugf("Using config file: %s", v.ConfigFileUsed())
	}

	return nil
}

func run(cmd *cobra.Command, v *viper.Viper, args []string) error {
	if v.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	config := retrace.Config{
		Regex:         v.GetString("regex"),
		Template:      v.GetString("template"),
		Extended:      v.GetBool("extended"),
		Verbose:       v.GetBool("verbose"),
		AllClassNames: v.GetBool("all-class-names"),
	}

	pattern, err := config.FramePattern()
	if err != nil {
		return newUsageError(err)
	}
	log.WithField("expression", pattern.Pattern.String()).Debug("Compiled expression")

	// Read the mapping file.
	mappingFile, err := retrace.Open(args[0])
	if err != nil {
		return err
	}
	defer mappingFile.Close()

	mapping, err := retrace.LoadMapping(mappingFile)
	if err != nil {
		return err
	}

	stats := mapping.Stats()
	log.WithFields(log.Fields{
		"classes": humanize.Comma(int64(stats.Classes)),
		"fields":  humanize.Comma(int64(stats.Fields)),
		"methods": humanize.Comma(int64(stats.Methods)),
	}).Debugf("Loaded mapping %s", args[0])

	// Open the stack trace file.
	input := cmd.InOrStdin()
	if len(args) > 1 && args[1] != "-" {
		stackTraceFile, err := retrace.Open(args[1])
		if err != nil {
			return err
		}
		defer stackTraceFile.Close()
		input = stackTraceFile
	}

	r := retrace.NewRetrace(mapping, pattern)
	r.Verbose = config.Verbose
	r.AllClassNames = config.AllClassNames

	return r.Retrace(input, cmd.OutOrStdout())
}
