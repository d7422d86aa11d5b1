// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"strings"

	"cmdsh/internal/pathcache"

	"github.com/spf13/cobra"
)

// pathCmd shows the cached lookup directories and extensions.
var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the cached lookup directories and extensions",
	Long: `Show the lookup path as the resolution engine sees it: the tokenized
PATH directories in order (duplicates removed case-insensitively) and
the probe extensions tried for extensionless names.

Relative PATH entries are kept but marked; they resolve against the
working directory at probe time.

Examples:
  cmdsh path`,
	RunE: runPath,
}

func runPath(_ *cobra.Command, _ []string) error {
	paths := pathcache.NewCache()

	fmt.Println(TitleStyle.Render("Lookup directories"))
	for _, entry := range paths.LookupDirectories().Entries() {
		if entry.Relative {
			fmt.Printf("  %s %s\n", entry.Dir, WarningStyle.Render("(relative)"))
			continue
		}
		fmt.Printf("  %s\n", entry.Dir)
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Probe extensions"))
	fmt.Printf("  %s\n", CmdStyle.Render(strings.Join(paths.LookupExtensions(), " ")))
	return nil
}
