// SPDX-License-Identifier: MPL-2.0

// Package modfile defines on-disk cmdsh modules. A module is a
// directory named <name>.cmdmod holding a cmdmod.cue manifest (module
// identity and version) and an optional cmdfile.cue (exported
// commands: functions with shell bodies, aliases, cmdlet and
// application declarations).
//
// The package distinguishes two access levels deliberately: Load fully
// parses a module including syntax validation of every function body
// (expensive), while ParseExports reads only the names and kinds a
// module would export (cheap). The export index builds on the cheap
// path so auto-loading can scan candidates without paying the load
// cost.
package modfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cmdsh/pkg/types"
)

const (
	// ModuleSuffix is the suffix of module directories.
	ModuleSuffix = ".cmdmod"

	// ManifestName is the module identity file inside a module directory.
	ManifestName = "cmdmod.cue"

	// CmdfileName is the command definition file inside a module directory.
	CmdfileName = "cmdfile.cue"

	// MaxPathLength is the maximum accepted length for module paths.
	MaxPathLength = 4096
)

// ErrManifestNotFound is returned when a module directory has no
// cmdmod.cue. Check with errors.Is.
var ErrManifestNotFound = errors.New("cmdmod.cue not found")

type (
	// Manifest is the parsed cmdmod.cue content: module identity,
	// analogous to a go.mod file. Command definitions live in
	// cmdfile.cue.
	Manifest struct {
		// Module is the mandatory module identifier. It doubles as the
		// qualifier in module-qualified command names.
		Module string `json:"module"`
		// Version is the dotted module version.
		Version string `json:"version"`
		// Description is optional free text.
		Description types.DescriptionText `json:"description,omitempty"`
	}

	// CommandDef is a single exported command from cmdfile.cue.
	CommandDef struct {
		// Name is the exported command name.
		Name string `json:"name"`
		// Kind names the command variant; empty means "function".
		Kind string `json:"kind,omitempty"`
		// Description is optional free text.
		Description types.DescriptionText `json:"description,omitempty"`
		// Body is the shell body for functions, filters and scripts.
		Body string `json:"body,omitempty"`
		// Path locates applications and external scripts on disk.
		Path string `json:"path,omitempty"`
		// Visibility is "public" (default) or "private".
		Visibility string `json:"visibility,omitempty"`
	}

	// AliasDef is a single exported alias from cmdfile.cue.
	AliasDef struct {
		Name       string `json:"name"`
		Target     string `json:"target"`
		Visibility string `json:"visibility,omitempty"`
	}

	// Cmdfile is the parsed cmdfile.cue content.
	Cmdfile struct {
		Commands []CommandDef `json:"commands,omitempty"`
		Aliases  []AliasDef   `json:"aliases,omitempty"`
	}

	// Module is a fully loaded module: manifest, commands, and the
	// directory it was loaded from.
	Module struct {
		Manifest *Manifest
		Commands *Cmdfile
		// Path is the absolute module directory path.
		Path string
		// IsLibraryOnly is true when the module has no cmdfile.cue.
		IsLibraryOnly bool
	}
)

// Name returns the module identifier.
func (m *Module) Name() string {
	if m.Manifest == nil {
		return ""
	}
	return m.Manifest.Module
}

// Version returns the module version.
func (m *Module) Version() string {
	if m.Manifest == nil {
		return ""
	}
	return m.Manifest.Version
}

// DescriptorKind maps a cmdfile kind string to the engine kind.
// An empty kind means function.
func (c *CommandDef) DescriptorKind() (types.CommandKind, error) {
	if c.Kind == "" {
		return types.KindFunction, nil
	}
	kind, ok := types.ParseKind(c.Kind)
	if !ok {
		return 0, fmt.Errorf("command %q: unknown kind %q", c.Name, c.Kind)
	}
	return kind, nil
}

// descriptorVisibility maps a cmdfile visibility string to the engine
// visibility. An empty value means public.
func descriptorVisibility(s string) types.Visibility {
	if strings.EqualFold(s, "private") {
		return types.Private
	}
	return types.Public
}

// Descriptors converts the module's exported commands and aliases into
// engine descriptors, carrying module name and path as origin.
func (m *Module) Descriptors() ([]*types.CommandDescriptor, error) {
	if m.Commands == nil {
		return nil, nil
	}

	var descs []*types.CommandDescriptor
	for i := range m.Commands.Commands {
		def := &m.Commands.Commands[i]
		kind, err := def.DescriptorKind()
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name(), err)
		}
		descs = append(descs, &types.CommandDescriptor{
			Name:       def.Name,
			Kind:       kind,
			Visibility: descriptorVisibility(def.Visibility),
			ModuleName: m.Name(),
			ModulePath: m.Path,
			Definition: def.Body,
			Path:       def.Path,
		})
	}
	for i := range m.Commands.Aliases {
		def := &m.Commands.Aliases[i]
		descs = append(descs, &types.CommandDescriptor{
			Name:       def.Name,
			Kind:       types.KindAlias,
			Visibility: descriptorVisibility(def.Visibility),
			ModuleName: m.Name(),
			ModulePath: m.Path,
			Definition: def.Target,
		})
	}
	return descs, nil
}

// IsModuleDir reports whether path looks like a cmdsh module: a
// directory with the .cmdmod suffix containing a cmdmod.cue.
func IsModuleDir(path string) bool {
	if !strings.HasSuffix(path, ModuleSuffix) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(path, ManifestName))
	return err == nil
}

// DirModuleName extracts the module name from a module directory path,
// i.e. the base name without the .cmdmod suffix.
func DirModuleName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ModuleSuffix)
}
