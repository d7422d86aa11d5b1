// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cmdsh/internal/config"
	"cmdsh/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "cmdsh",
		Short: "A scope-aware command resolution engine",
		Long: TitleStyle.Render("cmdsh") + SubtitleStyle.Render(" - a scope-aware command resolution engine") + `

cmdsh resolves command names the way an interactive shell host does:
it walks a chain of nested scopes, chases aliases, auto-loads modules
that export the missing name, and finally probes the lookup path for
applications and external scripts.

Modules live in '<name>.cmdmod' directories described by CUE manifests
and can be addressed directly with module-qualified names such as
'acme\Deploy-Stack'.

` + SubtitleStyle.Render("Examples:") + `
  cmdsh resolve Get-Widget       Resolve a name and show its descriptor
  cmdsh resolve 'acme\Deploy'    Resolve a module-qualified name
  cmdsh which mytool             Print only where a name resolves to
  cmdsh module list              List discoverable modules
  cmdsh module exports ./m.cmdmod  Show a module's exported commands
  cmdsh convert 'fetch | sort'   Convert a script body to a pipeline
  cmdsh path                     Show the cached lookup directories`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/cmdsh/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(whichCmd)
	rootCmd.AddCommand(moduleCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads the config file early so UI preferences apply to
// every subcommand. Load failures are surfaced as a warning here and
// again as a hard error by any subcommand that needs the config.
func initRootConfig() {
	cfg, err := config.NewProvider().Load(context.Background(), config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return
	}

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
