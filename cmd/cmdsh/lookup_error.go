// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"

	"cmdsh/internal/autoload"
	"cmdsh/internal/config"
	"cmdsh/internal/issue"
	"cmdsh/internal/resolve"
	"cmdsh/internal/search"
)

// issueForLookupError maps a resolution error to its issue catalog
// entry. Ordering matters: the more specific failure modes are
// checked before the generic not-found wrapper that carries them.
func issueForLookupError(err error) issue.Id {
	var reentrancy *resolve.ReentrancyError
	if errors.As(err, &reentrancy) {
		return issue.ReentrancyViolationId
	}
	if errors.Is(err, search.ErrAliasCycle) {
		return issue.AliasCycleId
	}
	var loadErr *autoload.ModuleLoadError
	if errors.As(err, &loadErr) {
		return issue.ModuleLoadFailedId
	}
	if errors.Is(err, autoload.ErrModuleNotFound) {
		return issue.ModuleNotFoundId
	}
	var notFound *resolve.CommandNotFoundError
	if errors.As(err, &notFound) {
		return issue.CommandNotFoundId
	}
	return 0
}

// renderLookupError prints a styled failure report for a resolution
// error: the error line, then the matching issue catalog entry.
func renderLookupError(stderr io.Writer, name string, err error, cfg *config.Config) {
	fmt.Fprintln(stderr, ErrorStyle.Render("✗ ")+CmdStyle.Render(name)+": "+formatErrorForDisplay(err, verbose))

	id := issueForLookupError(err)
	if id == 0 {
		return
	}
	catalogEntry := issue.Get(id)
	if catalogEntry == nil {
		return
	}
	rendered, renderErr := catalogEntry.Render(issueStyle(cfg))
	if renderErr != nil {
		if verbose {
			fmt.Fprintln(stderr, VerboseStyle.Render("failed to render issue entry: "+renderErr.Error()))
		}
		return
	}
	fmt.Fprint(stderr, rendered)
}

// issueStyle maps the configured color scheme onto a glamour style path.
func issueStyle(cfg *config.Config) string {
	if cfg == nil {
		return "auto"
	}
	switch cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
