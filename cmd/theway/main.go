package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"theway/internal/version"
)

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "theway",
		Short:         "Snippet manager for the terminal",
		Long:          `theway stores code snippets with tags and dates, and prints them highlighted`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	// Глобальные флаги
	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.BoolP("verbose", "v", false, "log debug details to stderr")
	flags.String("log-format", "console", "log format (console|json)")
	flags.String("config", "", "configuration file (default $XDG_CONFIG_HOME/theway/theway.toml)")
	flags.String("store", "", "snippet database (overrides [store].path)")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|command|store|record)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson)")

	rootCmd.AddCommand(
		newAddCmd(a),
		newEditCmd(a),
		newDelCmd(a),
		newViewCmd(a),
		newListCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newLanguagesCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// run executes one command line and releases everything the command opened,
// including when it fails.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{}
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	return errors.Join(err, a.close())
}

// main executes the root command and exits with status 1 on error.
func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		_, _ = io.WriteString(os.Stderr, "Error: "+err.Error()+"\n")
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
