// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cmdsh/internal/autoload"
	"cmdsh/internal/config"
	"cmdsh/internal/exportindex"
	"cmdsh/internal/pathcache"
	"cmdsh/internal/resolve"
)

// engine bundles the wired resolution stack behind the CLI commands:
// configuration, the export index, the module loader, and a session
// holding the scope chain and path caches.
type engine struct {
	cfg     *config.Config
	index   *exportindex.Index
	loader  *autoload.Loader
	session *resolve.Session
	roots   []string
}

// newEngine loads the configuration and wires the resolution stack
// together. The caller must Close the engine to release the export
// index store.
func newEngine(ctx context.Context) (*engine, error) {
	cfg, err := config.NewProvider().Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, err
	}

	pref, err := autoload.ParsePreference(cfg.ModuleAutoload.String())
	if err != nil {
		return nil, err
	}

	rootDirs, err := config.ModuleRoots(cfg)
	if err != nil {
		return nil, err
	}
	roots := func() []string { return rootDirs }

	index := openIndex(cfg)
	loader := autoload.New(index, &autoload.FileImporter{Roots: roots}, roots)
	discovery := resolve.New(loader, func() autoload.Preference { return pref })
	session := resolve.NewSession(discovery, pathcache.NewCache())

	return &engine{
		cfg:     cfg,
		index:   index,
		loader:  loader,
		session: session,
		roots:   rootDirs,
	}, nil
}

// openIndex opens the persistent export index, falling back to an
// in-memory index when the cache file cannot be used. A broken cache
// only costs re-parsing module manifests, so it never fails a command.
func openIndex(cfg *config.Config) *exportindex.Index {
	cachePath, err := config.IndexCacheFile(cfg)
	if err == nil {
		if mkErr := os.MkdirAll(filepath.Dir(cachePath), 0o755); mkErr == nil {
			idx, openErr := exportindex.Open(cachePath)
			if openErr == nil {
				return idx
			}
			if verbose {
				fmt.Fprintln(os.Stderr, VerboseStyle.Render("export index cache unavailable: "+openErr.Error()))
			}
		}
	}
	return exportindex.NewMemory()
}

// Close releases the export index store.
func (e *engine) Close() {
	_ = e.index.Close()
}
