// SPDX-License-Identifier: MPL-2.0

package modfile

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cmdsh/pkg/cueutil"
	"cmdsh/pkg/platform"
	"cmdsh/pkg/types"

	"mvdan.cc/sh/v3/syntax"
)

var (
	//go:embed cmdmod_schema.cue
	cmdmodSchema string

	//go:embed cmdfile_schema.cue
	cmdfileSchema string
)

// ParseManifest reads and parses a cmdmod.cue manifest.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrManifestNotFound)
		}
		return nil, fmt.Errorf("failed to read manifest at %s: %w", path, err)
	}
	return ParseManifestBytes(data, path)
}

// ParseManifestBytes parses cmdmod.cue content from bytes.
func ParseManifestBytes(data []byte, path string) (*Manifest, error) {
	result, err := cueutil.Parse[Manifest](cmdmodSchema, data, "#Cmdmod",
		cueutil.WithFilename(path))
	if err != nil {
		return nil, err
	}
	if strings.ContainsRune(result.Value.Module, types.QualifierSeparator) {
		return nil, fmt.Errorf("%s: module name %q must not contain %q",
			path, result.Value.Module, string(types.QualifierSeparator))
	}
	// Module names become directory names; reserved device names would
	// make the module uncreatable on Windows.
	if platform.IsWindowsReservedName(result.Value.Module) {
		return nil, fmt.Errorf("%s: module name %q is a reserved Windows device name",
			path, result.Value.Module)
	}
	if valid, errs := result.Value.Description.IsValid(); !valid {
		return nil, fmt.Errorf("%s: %w", path, errs[0])
	}
	return result.Value, nil
}

// ParseCmdfile reads and parses a cmdfile.cue command definition file.
func ParseCmdfile(path string) (*Cmdfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cmdfile at %s: %w", path, err)
	}
	return ParseCmdfileBytes(data, path)
}

// ParseCmdfileBytes parses cmdfile.cue content from bytes. Schema
// validation only; function bodies are not syntax-checked here (that
// is part of the full Load path).
func ParseCmdfileBytes(data []byte, path string) (*Cmdfile, error) {
	result, err := cueutil.Parse[Cmdfile](cmdfileSchema, data, "#Cmdfile",
		cueutil.WithFilename(path), cueutil.WithConcrete(false))
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

// Load fully loads the module at the given directory: manifest,
// command definitions, and a syntax check of every function body.
// This is the expensive path; use ParseExports when only the export
// surface is needed.
func Load(moduleDir string) (*Module, error) {
	if len(moduleDir) > MaxPathLength {
		return nil, fmt.Errorf("module path exceeds %d characters", MaxPathLength)
	}

	absDir, err := filepath.Abs(moduleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve module path %s: %w", moduleDir, err)
	}

	manifest, err := ParseManifest(filepath.Join(absDir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("module at %s: %w", absDir, err)
	}

	mod := &Module{Manifest: manifest, Path: absDir}

	cmdfilePath := filepath.Join(absDir, CmdfileName)
	if _, statErr := os.Stat(cmdfilePath); statErr != nil {
		mod.IsLibraryOnly = true
		return mod, nil
	}

	cmds, err := ParseCmdfile(cmdfilePath)
	if err != nil {
		return nil, err
	}

	if err := validateBodies(cmds, cmdfilePath); err != nil {
		return nil, err
	}

	mod.Commands = cmds
	return mod, nil
}

// validateBodies parses every function-like body with the shell parser
// so a broken module fails at load time, not at first invocation.
func validateBodies(cmds *Cmdfile, path string) error {
	parser := syntax.NewParser()
	for i := range cmds.Commands {
		def := &cmds.Commands[i]
		if def.Body == "" {
			continue
		}
		kind, err := def.DescriptorKind()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		switch kind {
		case types.KindFunction, types.KindFilter, types.KindScript, types.KindWorkflow:
			if _, err := parser.Parse(strings.NewReader(def.Body), def.Name); err != nil {
				return fmt.Errorf("%s: command %q: body syntax error: %w", path, def.Name, err)
			}
		}
	}
	return nil
}

// ParseExports reads only the export surface of a module: a mapping
// from exported command name to its kind set. No body validation, no
// descriptor construction. This is what the export index calls while
// scanning candidates.
func ParseExports(moduleDir string) (map[string]types.KindSet, error) {
	cmdfilePath := filepath.Join(moduleDir, CmdfileName)
	if _, err := os.Stat(cmdfilePath); err != nil {
		// Library-only modules export nothing.
		if os.IsNotExist(err) {
			return map[string]types.KindSet{}, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", cmdfilePath, err)
	}

	cmds, err := ParseCmdfile(cmdfilePath)
	if err != nil {
		return nil, err
	}

	exports := make(map[string]types.KindSet)
	for i := range cmds.Commands {
		def := &cmds.Commands[i]
		kind, err := def.DescriptorKind()
		if err != nil {
			return nil, err
		}
		key := types.FoldName(def.Name)
		exports[key] = exports[key].Add(kind)
	}
	for i := range cmds.Aliases {
		key := types.FoldName(cmds.Aliases[i].Name)
		exports[key] = exports[key].Add(types.KindAlias)
	}
	return exports, nil
}

// DiscoverModules returns the module directories found directly under
// the given roots, in root order and sorted by name within a root.
// Roots are scanned in the order given; callers place the system root
// first so trusted built-ins win unqualified discovery ties.
// Missing roots are skipped silently.
func DiscoverModules(roots []string) []string {
	var dirs []string
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		var found []string
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			path := filepath.Join(root, entry.Name())
			if IsModuleDir(path) {
				found = append(found, path)
			}
		}
		sort.Strings(found)
		dirs = append(dirs, found...)
	}
	return dirs
}
