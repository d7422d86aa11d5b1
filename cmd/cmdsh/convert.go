// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cmdsh/internal/issue"
	"cmdsh/internal/pipeconv"

	"github.com/spf13/cobra"
)

var (
	// convertParams declares the script's own parameters; references to
	// them stay symbolic in the converted pipeline.
	convertParams []string
	// convertVars supplies captured outer-scope variables as key=value
	// pairs; references to them are replaced with the values.
	convertVars []string
	// convertTrusted marks the script source as trusted, allowing
	// captured non-scalar values.
	convertTrusted bool
)

// convertCmd converts a script body into its pipeline form.
var convertCmd = &cobra.Command{
	Use:   "convert <script>",
	Short: "Convert a script body to a pipeline",
	Long: `Convert a simple script body into its structured pipeline form and
print it as JSON.

Only straight-line command pipelines convert: no control flow, no
nested invocations, no file redirections. Scripts that fall outside
this subset fail with the specific unsupported construct named.

Variables must be accounted for: declare script parameters with
--param (they stay symbolic in the output) and supply captured
outer-scope values with --var (they are substituted). Pass '-' to
read the script from stdin.

Examples:
  cmdsh convert 'Get-Widget | Sort-Object'
  cmdsh convert -p name 'Get-Widget -Name $name'
  cmdsh convert --var host=db1 'ping "$host"'
  cat body.cmdsh | cmdsh convert -`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringArrayVarP(&convertParams, "param", "p", nil, "declare a script parameter (repeatable)")
	convertCmd.Flags().StringArrayVar(&convertVars, "var", nil, "captured variable as key=value (repeatable)")
	convertCmd.Flags().BoolVar(&convertTrusted, "trusted", false, "treat the script source as trusted")
}

func runConvert(cmd *cobra.Command, args []string) error {
	body := args[0]
	if body == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read script from stdin: %w", err)
		}
		body = string(data)
	}

	captured := pipeconv.MapContext{}
	for _, pair := range convertVars {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --var %q: expected key=value", pair)
		}
		captured[key] = value
	}

	pipeline, err := pipeconv.New().Convert(body, convertParams, convertTrusted, captured)
	if err != nil {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		renderConvertError(os.Stderr, err)
		return &ExitError{Code: 1, Err: err}
	}

	out, err := json.MarshalIndent(pipeline, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pipeline: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// renderConvertError prints a styled conversion failure, naming the
// rejected construct when the error carries one.
func renderConvertError(stderr io.Writer, err error) {
	fmt.Fprintln(stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, verbose))

	var unsupported *pipeconv.UnsupportedConstructError
	if !errors.As(err, &unsupported) {
		return
	}
	if catalogEntry := issue.Get(issue.ConversionNotSupportedId); catalogEntry != nil {
		if rendered, renderErr := catalogEntry.Render("auto"); renderErr == nil {
			fmt.Fprint(stderr, rendered)
		}
	}
}
