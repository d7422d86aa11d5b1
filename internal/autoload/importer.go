// SPDX-License-Identifier: MPL-2.0

package autoload

import (
	"fmt"
	"os"
	"path/filepath"

	"cmdsh/internal/scope"
	"cmdsh/pkg/modfile"
)

// FileImporter is the default ModuleImporter: it locates modules on
// the filesystem, fully loads them, and registers their exported
// descriptors into the global scope of the target chain.
//
// The importer never resolves command names itself, so auto-loading
// cannot recurse back into discovery. The engine's bootstrap commands
// (Import-Module, Get-Module) are plain descriptors registered at
// session start and resolved through the ordinary direct search.
type FileImporter struct {
	// Roots returns the module roots in priority order.
	Roots func() []string
}

// ImportModule loads the module identified by nameOrPath. A path to an
// existing module directory is loaded directly; otherwise the roots
// are searched for a <name>.cmdmod directory. A module that exports
// nothing fails with ErrNoExports: importing it would change nothing,
// which is indistinguishable from a broken module to the caller.
func (im *FileImporter) ImportModule(nameOrPath string, target *scope.Scope) (*modfile.Module, error) {
	dir, err := im.locate(nameOrPath)
	if err != nil {
		return nil, err
	}

	mod, err := modfile.Load(dir)
	if err != nil {
		return nil, err
	}

	descs, err := mod.Descriptors()
	if err != nil {
		return nil, err
	}
	if len(descs) == 0 {
		return nil, fmt.Errorf("%s: %w", mod.Name(), ErrNoExports)
	}

	global := target.Global()
	for _, d := range descs {
		global.AddCommand(d)
	}
	return mod, nil
}

func (im *FileImporter) locate(nameOrPath string) (string, error) {
	if info, err := os.Stat(nameOrPath); err == nil && info.IsDir() {
		if modfile.IsModuleDir(nameOrPath) {
			return nameOrPath, nil
		}
		return "", fmt.Errorf("%s: not a module directory: %w", nameOrPath, ErrModuleNotFound)
	}

	for _, root := range im.Roots() {
		dir := filepath.Join(root, nameOrPath+modfile.ModuleSuffix)
		if modfile.IsModuleDir(dir) {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%s: %w", nameOrPath, ErrModuleNotFound)
}
