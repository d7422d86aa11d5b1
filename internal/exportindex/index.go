// SPDX-License-Identifier: MPL-2.0

// Package exportindex caches the export surface of modules: which
// command names (and kinds) a module directory would export, without
// loading the module. Auto-loading consults the index to pick a
// candidate before paying the load cost.
//
// Entries are keyed by normalized module path and live for the
// process; an optional bbolt file carries them across processes.
// Staleness is detected via the manifest and cmdfile mtimes, and a
// stale or missing entry is recomputed by parsing only the export
// surface (modfile.ParseExports).
package exportindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cmdsh/pkg/modfile"
	"cmdsh/pkg/types"

	bolt "go.etcd.io/bbolt"
)

// bucketName is the bbolt bucket holding serialized entries.
var bucketName = []byte("exports")

type (
	// Entry is one cached export surface.
	Entry struct {
		// Exports maps case-folded command name to its kind set.
		Exports map[string]types.KindSet `json:"exports"`
		// Stamp is the newest mtime (unix nanos) of the module's
		// manifest and cmdfile when the entry was computed.
		Stamp int64 `json:"stamp"`
	}

	// Index is the process-wide export cache. Reads are concurrent;
	// population is serialized per module path, never globally, so
	// scanning one module does not block lookups of another.
	Index struct {
		// parse computes a module's export surface. Injectable for
		// tests; defaults to modfile.ParseExports.
		parse func(dir string) (map[string]types.KindSet, error)

		db *bolt.DB // nil when running memory-only

		mu      sync.RWMutex
		entries map[string]Entry

		flightMu sync.Mutex
		inflight map[string]*sync.Mutex
	}
)

// NewMemory creates an index without a persistent store.
func NewMemory() *Index {
	return &Index{
		parse:    modfile.ParseExports,
		entries:  make(map[string]Entry),
		inflight: make(map[string]*sync.Mutex),
	}
}

// Open creates an index backed by a bbolt file at cacheFile, creating
// the file and its parent directory as needed.
func Open(cacheFile string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(cacheFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index cache directory: %w", err)
	}
	db, err := bolt.Open(cacheFile, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open index cache %s: %w", cacheFile, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, berr := tx.CreateBucketIfNotExists(bucketName)
		return berr
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize index cache: %w", err)
	}

	idx := NewMemory()
	idx.db = db
	return idx, nil
}

// Close releases the persistent store, if any.
func (x *Index) Close() error {
	if x.db == nil {
		return nil
	}
	return x.db.Close()
}

// ExportedCommands returns the export surface of the module at
// modulePath. The result is served from memory when fresh, then from
// the persistent store, and only then recomputed by parsing the
// module's export surface. forceRefresh skips both cache layers.
//
// The parse runs outside every cache lock; only publishing the result
// takes a short write lock. Concurrent requests for the same path
// coalesce on a per-path mutex.
func (x *Index) ExportedCommands(modulePath string, forceRefresh bool) (map[string]types.KindSet, error) {
	path, err := normalizePath(modulePath)
	if err != nil {
		return nil, err
	}

	stamp, err := moduleStamp(path)
	if err != nil {
		return nil, err
	}

	if !forceRefresh {
		if exports, ok := x.fromMemory(path, stamp); ok {
			return exports, nil
		}
		if exports, ok := x.fromStore(path, stamp); ok {
			return exports, nil
		}
	}

	// Serialize population per path so two contexts scanning the same
	// module do not parse it twice. Unrelated paths stay concurrent.
	lock := x.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	if !forceRefresh {
		if exports, ok := x.fromMemory(path, stamp); ok {
			return exports, nil
		}
	}

	exports, err := x.parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to index exports of %s: %w", path, err)
	}

	x.publish(path, Entry{Exports: exports, Stamp: stamp})
	return exports, nil
}

// Invalidate drops the cached entry for a module path from both
// layers.
func (x *Index) Invalidate(modulePath string) {
	path, err := normalizePath(modulePath)
	if err != nil {
		return
	}

	x.mu.Lock()
	delete(x.entries, path)
	x.mu.Unlock()

	if x.db != nil {
		_ = x.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketName).Delete([]byte(path))
		})
	}
}

func (x *Index) fromMemory(path string, stamp int64) (map[string]types.KindSet, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	entry, ok := x.entries[path]
	if !ok || entry.Stamp != stamp {
		return nil, false
	}
	return entry.Exports, true
}

func (x *Index) fromStore(path string, stamp int64) (map[string]types.KindSet, bool) {
	if x.db == nil {
		return nil, false
	}

	var entry Entry
	found := false
	_ = x.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(path))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			// A corrupt entry is treated as a miss and rewritten later.
			return nil
		}
		found = true
		return nil
	})
	if !found || entry.Stamp != stamp {
		return nil, false
	}

	x.mu.Lock()
	x.entries[path] = entry
	x.mu.Unlock()
	return entry.Exports, true
}

func (x *Index) publish(path string, entry Entry) {
	x.mu.Lock()
	x.entries[path] = entry
	x.mu.Unlock()

	if x.db != nil {
		raw, err := json.Marshal(entry)
		if err != nil {
			return
		}
		_ = x.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketName).Put([]byte(path), raw)
		})
	}
}

func (x *Index) pathLock(path string) *sync.Mutex {
	x.flightMu.Lock()
	defer x.flightMu.Unlock()
	lock, ok := x.inflight[path]
	if !ok {
		lock = &sync.Mutex{}
		x.inflight[path] = lock
	}
	return lock
}

func normalizePath(modulePath string) (string, error) {
	abs, err := filepath.Abs(modulePath)
	if err != nil {
		return "", fmt.Errorf("failed to normalize module path %s: %w", modulePath, err)
	}
	return filepath.Clean(abs), nil
}

// moduleStamp returns the newest mtime of the module's manifest and
// cmdfile. A missing manifest is an error (not a module); a missing
// cmdfile is fine (library-only module).
func moduleStamp(path string) (int64, error) {
	info, err := os.Stat(filepath.Join(path, modfile.ManifestName))
	if err != nil {
		return 0, fmt.Errorf("failed to stat module manifest in %s: %w", path, err)
	}
	stamp := info.ModTime().UnixNano()

	if cinfo, err := os.Stat(filepath.Join(path, modfile.CmdfileName)); err == nil {
		if t := cinfo.ModTime().UnixNano(); t > stamp {
			stamp = t
		}
	}
	return stamp, nil
}
