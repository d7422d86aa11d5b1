// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"cmdsh/pkg/types"

	"github.com/spf13/cobra"
)

var (
	// resolveOrigin selects the caller origin for visibility filtering.
	resolveOrigin string
)

// resolveCmd resolves a command name and prints its full descriptor.
var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a command name to its descriptor",
	Long: `Resolve a command name through the full discovery pipeline.

The name is searched in the scope chain (innermost first), aliases are
chased to their targets, a 'Get-' prefixed retry is attempted for bare
nouns, and modules are auto-loaded according to the configured
module_autoload preference. When everything misses, the lookup path is
probed for an application or external script of that name.

Module-qualified names restrict the search to one module:
  Module\Command
  Module\Version\Command

Examples:
  cmdsh resolve Get-Widget
  cmdsh resolve Service               (retried as Get-Service)
  cmdsh resolve 'acme\Deploy-Stack'
  cmdsh resolve --origin internal Get-Secret`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

// whichCmd resolves a name and prints only where it points.
var whichCmd = &cobra.Command{
	Use:   "which <name>",
	Short: "Print only where a command resolves to",
	Long: `Resolve a command name and print a single line: the file path for
applications and external scripts, the alias target for aliases, and
the qualified command name otherwise.

Examples:
  cmdsh which mytool
  cmdsh which gcm`,
	Args: cobra.ExactArgs(1),
	RunE: runWhich,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveOrigin, "origin", "runspace", "caller origin for visibility filtering (runspace|internal)")
}

// parseOrigin maps the --origin flag onto a command origin.
func parseOrigin(s string) (types.CommandOrigin, error) {
	switch s {
	case "runspace":
		return types.OriginRunspace, nil
	case "internal":
		return types.OriginInternal, nil
	default:
		return 0, fmt.Errorf("invalid origin %q (valid: runspace, internal)", s)
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	origin, err := parseOrigin(resolveOrigin)
	if err != nil {
		return err
	}

	eng, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	name := args[0]
	desc, err := eng.session.LookupCommandInfo(name, origin)
	if err != nil {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		renderLookupError(os.Stderr, name, err, eng.cfg)
		return &ExitError{Code: 1, Err: err}
	}

	printDescriptor(desc, origin)
	return nil
}

func runWhich(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	name := args[0]
	desc, err := eng.session.LookupCommandInfo(name, types.OriginRunspace)
	if err != nil {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Println(descriptorTarget(desc))
	return nil
}

// descriptorTarget reduces a descriptor to its single-line location.
func descriptorTarget(desc *types.CommandDescriptor) string {
	switch {
	case desc.Path != "":
		return desc.Path
	case desc.IsAlias() && desc.Definition != "":
		return desc.Definition
	case desc.ModuleName != "":
		return desc.ModuleName + string(types.QualifierSeparator) + desc.Name
	default:
		return desc.Name
	}
}

// printDescriptor renders a resolved descriptor, following the alias
// chain materialized for the lookup's origin so the final target is
// always visible.
func printDescriptor(desc *types.CommandDescriptor, origin types.CommandOrigin) {
	fmt.Println(SuccessStyle.Render("✓ ") + CmdStyle.Render(desc.Name) + SubtitleStyle.Render(" ("+desc.Kind.String()+")"))
	if desc.ModuleName != "" {
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("Module:"), desc.ModuleName)
	}
	if desc.ModulePath != "" && verbose {
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("Module path:"), VerboseStyle.Render(desc.ModulePath))
	}
	if desc.Path != "" {
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("Path:"), desc.Path)
	}
	if desc.Definition != "" && !desc.IsAlias() {
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("Definition:"), desc.Definition)
	}
	if desc.Visibility != types.Public {
		fmt.Printf("  %s %s\n", SubtitleStyle.Render("Visibility:"), desc.Visibility.String())
	}

	// Alias chain, down to the final target.
	for hop := desc; hop.IsAlias(); hop = hop.ResolvedTarget(origin) {
		target := hop.ResolvedTarget(origin)
		if target == nil {
			fmt.Printf("  %s %s\n", SubtitleStyle.Render("Alias for:"), hop.Definition)
			break
		}
		fmt.Printf("  %s %s %s\n",
			SubtitleStyle.Render("Alias for:"),
			CmdStyle.Render(target.Name),
			SubtitleStyle.Render("("+target.Kind.String()+")"))
	}
}
