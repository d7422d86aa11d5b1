// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cmdsh/internal/watch"
	"cmdsh/pkg/modfile"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	// moduleRefresh forces re-reading module manifests, bypassing the
	// export index staleness check.
	moduleRefresh bool
)

// moduleCmd represents the module command group
var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Inspect command modules",
	Long: `Inspect command modules visible to the resolution engine.

Modules are '<name>.cmdmod' directories holding a 'cmdmod.cue' manifest
and a 'cmdfile.cue' command file. They are discovered under the module
roots: the built-in '~/.cmdsh/modules' first, then the configured
'module_paths' in order.

Examples:
  cmdsh module list
  cmdsh module exports ./tools.cmdmod
  cmdsh module exports acme --refresh`,
}

// moduleListCmd lists discoverable modules
var moduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discoverable modules",
	Long: `List every module directory found under the module roots, with its
declared name, version, and exported command count.

Examples:
  cmdsh module list
  cmdsh module list --refresh`,
	RunE: runModuleList,
}

// moduleWatchCmd keeps the export index in step with on-disk modules
var moduleWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch module roots and invalidate the export index",
	Long: `Watch the module roots for changes and invalidate the persistent
export index entry of every module that changes, so subsequent lookups
re-read its manifest. Runs until interrupted.

Examples:
  cmdsh module watch`,
	RunE: runModuleWatch,
}

// moduleExportsCmd shows a module's exported commands
var moduleExportsCmd = &cobra.Command{
	Use:   "exports <module>",
	Short: "Show a module's exported commands",
	Long: `Show the exported command names of one module, with the kinds each
name is exported as. The module may be given as a path to a '.cmdmod'
directory or as a bare module name searched under the module roots.

The export listing is served from the persistent export index; use
--refresh to bypass the staleness check and re-read the manifest.

Examples:
  cmdsh module exports ./tools.cmdmod
  cmdsh module exports acme`,
	Args: cobra.ExactArgs(1),
	RunE: runModuleExports,
}

func init() {
	moduleCmd.AddCommand(moduleListCmd)
	moduleCmd.AddCommand(moduleExportsCmd)
	moduleCmd.AddCommand(moduleWatchCmd)

	moduleListCmd.Flags().BoolVar(&moduleRefresh, "refresh", false, "bypass the export index and re-read manifests")
	moduleExportsCmd.Flags().BoolVar(&moduleRefresh, "refresh", false, "bypass the export index and re-read manifests")
}

func runModuleList(cmd *cobra.Command, _ []string) error {
	eng, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	dirs := modfile.DiscoverModules(eng.roots)
	if len(dirs) == 0 {
		fmt.Println(SubtitleStyle.Render("No modules found under:"))
		for _, root := range eng.roots {
			fmt.Printf("  %s\n", VerboseStyle.Render(root))
		}
		return nil
	}

	fmt.Println(TitleStyle.Render("Modules"))
	for _, dir := range dirs {
		name := modfile.DirModuleName(dir)
		version := ""
		if manifest, mErr := modfile.ParseManifest(filepath.Join(dir, modfile.ManifestName)); mErr == nil {
			name = manifest.Module
			version = manifest.Version
		}

		line := "  " + CmdStyle.Render(name)
		if version != "" {
			line += SubtitleStyle.Render(" v"+version)
		}

		exports, iErr := eng.index.ExportedCommands(dir, moduleRefresh)
		if iErr != nil {
			line += "  " + WarningStyle.Render("(unreadable: "+iErr.Error()+")")
		} else {
			line += SubtitleStyle.Render(fmt.Sprintf("  %d exported", len(exports)))
		}
		fmt.Println(line)
		if verbose {
			fmt.Printf("    %s\n", VerboseStyle.Render(dir))
		}
	}
	return nil
}

func runModuleExports(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	dir, err := locateModuleDir(args[0], eng.roots)
	if err != nil {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ ")+err.Error())
		return &ExitError{Code: 1, Err: err}
	}

	exports, err := eng.index.ExportedCommands(dir, moduleRefresh)
	if err != nil {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Println(TitleStyle.Render(modfile.DirModuleName(dir)) + SubtitleStyle.Render(fmt.Sprintf(" (%d exported)", len(exports))))
	names := maps.Keys(exports)
	slices.Sort(names)
	for _, name := range names {
		fmt.Printf("  %s %s\n", CmdStyle.Render(name), SubtitleStyle.Render("("+exports[name].String()+")"))
	}
	return nil
}

func runModuleWatch(cmd *cobra.Command, _ []string) error {
	eng, err := newEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	w, err := watch.New(watch.Config{
		Roots: eng.roots,
		OnModuleChange: func(_ context.Context, dirs []string) error {
			for _, dir := range dirs {
				eng.index.Invalidate(dir)
				fmt.Printf("%s %s\n", SuccessStyle.Render("↻"), CmdStyle.Render(dir))
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	fmt.Println(SubtitleStyle.Render("Watching module roots (interrupt to stop):"))
	for _, root := range eng.roots {
		fmt.Printf("  %s\n", VerboseStyle.Render(root))
	}
	return w.Run(cmd.Context())
}

// locateModuleDir resolves a module argument: an existing module
// directory is used as-is, anything else is treated as a module name
// searched under the roots.
func locateModuleDir(nameOrPath string, roots []string) (string, error) {
	if modfile.IsModuleDir(nameOrPath) {
		return nameOrPath, nil
	}
	for _, root := range roots {
		dir := filepath.Join(root, nameOrPath+modfile.ModuleSuffix)
		if modfile.IsModuleDir(dir) {
			return dir, nil
		}
	}
	return "", fmt.Errorf("module %q not found under the module roots", nameOrPath)
}
