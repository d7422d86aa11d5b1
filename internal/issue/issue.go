// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	CommandNotFoundId Id = iota + 1
	AliasCycleId
	ModuleNotFoundId
	ModuleLoadFailedId
	ModuleParseErrorId
	ConversionNotSupportedId
	ConfigLoadFailedId
	ReentrancyViolationId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	commandNotFoundIssue = &Issue{
		id: CommandNotFoundId,
		mdMsg: `
# Command not found!

The name could not be resolved: no alias, function, cmdlet, module
export, or application matched after every lookup phase ran.

## Lookup phases (in order):
1. Scope chain search (inner scopes first)
2. ` + "`Get-`" + ` verb retry for bare nouns
3. Module-qualified load (for ` + "`Module\\Command`" + ` names)
4. Module discovery across the configured roots
5. PATH probe for applications and scripts

## Things you can try:
- Check for typos in the command name
- List what the current session can see:
~~~
$ cmdsh resolve <name> --all
~~~

- List the modules and their exports:
~~~
$ cmdsh module list
~~~

- Check the module auto-loading preference in your config:
~~~cue
module_autoload: "all"  // or "qualified", "none"
~~~`,
	}

	aliasCycleIssue = &Issue{
		id: AliasCycleId,
		mdMsg: `
# Broken alias chain!

An alias either points to a name that cannot be resolved, or the chain
of aliases loops back on itself.

## Example of a cycle:
~~~
a -> b -> a
~~~

## Things you can try:
- Inspect each link of the chain:
~~~
$ cmdsh which <alias>
~~~

- Point the alias at its final target directly
- Remove the alias definition that closes the loop`,
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

The qualified name references a module that none of the configured
roots contain.

## Things you can try:
- List the configured module roots:
~~~
$ cmdsh module list
~~~

- Check the module directory name: it must end in ` + "`.cmdmod`" + `
  and contain a ` + "`cmdmod.cue`" + ` manifest
- Add the module's parent directory to your config:
~~~cue
module_paths: ["/path/to/modules"]
~~~`,
	}

	moduleLoadFailedIssue = &Issue{
		id: ModuleLoadFailedId,
		mdMsg: `
# Module load failed!

A candidate module was found but could not be loaded, or it exports no
commands.

## Common causes:
- Syntax errors in ` + "`cmdmod.cue`" + ` or ` + "`cmdfile.cue`" + `
- A version pin in the qualified name that the module does not satisfy
- A module directory with a manifest but no commands

## Things you can try:
- Inspect what the module exports:
~~~
$ cmdsh module exports /path/to/name.cmdmod
~~~

- Validate the module files with verbose output:
~~~
$ cmdsh --verbose module exports /path/to/name.cmdmod
~~~`,
	}

	moduleParseErrorIssue = &Issue{
		id: ModuleParseErrorId,
		mdMsg: `
# Failed to parse module files!

A module's manifest or command file contains syntax errors or invalid
configuration.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown field names
- Missing required fields (module, version in the manifest)

## Things you can try:
- Check the error message above for the specific line/column
- Validate the CUE files with the cue command-line tool

## Example of a valid manifest:
~~~cue
module: "tools"
version: "1.2.0"
description: "Team tooling commands"
~~~

## Example of a valid command file:
~~~cue
commands: [
	{
		name: "Get-Build"
		kind: "function"
		body: "make build"
	},
]
aliases: [
	{name: "gb", target: "Get-Build"},
]
~~~`,
	}

	conversionNotSupportedIssue = &Issue{
		id: ConversionNotSupportedId,
		mdMsg: `
# Script cannot be converted to a pipeline!

The script body uses a construct that cannot be translated into a flat
command pipeline without changing its meaning.

## Constructs that never convert:
- Dot-sourcing (` + "`. file`" + ` or ` + "`source file`" + `)
- Nested invocations (` + "`$(...)`" + `)
- File redirections (` + "`>`" + `, ` + "`>>`" + `, ` + "`<`" + `)
- Stream redirections other than ` + "`2>&1`" + `
- Loops, conditionals, and function declarations
- References to undeclared variables

## Things you can try:
- Declare every referenced variable as a parameter
- Replace nested invocations with an extra pipeline stage
- Drop redirections and let the invoking side handle streams`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the cmdsh configuration file.

## Configuration file locations:
- Linux: ~/.config/cmdsh/config.cue
- macOS: ~/Library/Application Support/cmdsh/config.cue
- Windows: %APPDATA%\cmdsh\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ cmdsh config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults

## Example configuration:
~~~cue
module_autoload: "all"
module_paths: ["/home/user/team-modules"]

ui: {
	color_scheme: "auto"
	verbose: false
}
~~~`,
	}

	reentrancyViolationIssue = &Issue{
		id: ReentrancyViolationId,
		mdMsg: `
# Lookup re-entered itself!

A registered lookup hook called back into resolution for the very name
it was invoked for. The engine fails fast instead of recursing forever.

## Things you can try:
- Inspect the registered pre-lookup, post-lookup and not-found hooks
- Make hooks resolve a *different* name, or return a descriptor
  directly instead of recursing`,
	}

	issues = map[Id]*Issue{
		commandNotFoundIssue.Id():        commandNotFoundIssue,
		aliasCycleIssue.Id():             aliasCycleIssue,
		moduleNotFoundIssue.Id():         moduleNotFoundIssue,
		moduleLoadFailedIssue.Id():       moduleLoadFailedIssue,
		moduleParseErrorIssue.Id():       moduleParseErrorIssue,
		conversionNotSupportedIssue.Id(): conversionNotSupportedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		reentrancyViolationIssue.Id():    reentrancyViolationIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
