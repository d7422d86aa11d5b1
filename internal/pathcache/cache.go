// SPDX-License-Identifier: MPL-2.0

package pathcache

import (
	"os"
	"strings"
	"sync"
)

const (
	// PathEnvVar is the lookup directory list variable.
	PathEnvVar = "PATH"

	// ExtensionsEnvVar is the executable extension list variable,
	// honored on every platform for lookup purposes.
	ExtensionsEnvVar = "PATHEXT"

	// ScriptExtension is the cmdsh script file extension. It is always
	// the first entry of the extension list regardless of the
	// environment value.
	ScriptExtension = ".cmdsh"
)

// Cache serves tokenized PATH and extension lists, re-tokenizing only
// when the raw environment value changes (case-insensitive compare).
// The directory cache and the extension cache are independent
// contention domains with separate locks.
//
// Getenv is injectable for tests; nil means os.Getenv.
type Cache struct {
	Getenv func(string) string

	dirMu   sync.RWMutex
	rawPath string
	dirs    *Collection
	haveDir bool

	extMu   sync.RWMutex
	rawExt  string
	exts    []string
	haveExt bool
}

// NewCache returns a cache reading from the process environment.
func NewCache() *Cache {
	return &Cache{Getenv: os.Getenv}
}

func (c *Cache) getenv(key string) string {
	if c.Getenv != nil {
		return c.Getenv(key)
	}
	return os.Getenv(key)
}

// LookupDirectories returns the tokenized PATH collection. While the
// raw value is unchanged the identical collection is returned; callers
// must not mutate it. An absent PATH yields an empty collection.
func (c *Cache) LookupDirectories() *Collection {
	raw := c.getenv(PathEnvVar)

	c.dirMu.RLock()
	if c.haveDir && strings.EqualFold(raw, c.rawPath) {
		dirs := c.dirs
		c.dirMu.RUnlock()
		return dirs
	}
	c.dirMu.RUnlock()

	fresh := NewCollection(strings.Split(raw, string(os.PathListSeparator)))

	c.dirMu.Lock()
	defer c.dirMu.Unlock()
	// Re-check under the write lock: another goroutine may have
	// published the same raw value already.
	if c.haveDir && strings.EqualFold(raw, c.rawPath) {
		return c.dirs
	}
	c.rawPath = raw
	c.dirs = fresh
	c.haveDir = true
	return fresh
}

// LookupExtensions returns the executable extension list, always
// starting with ScriptExtension. The same cached slice is returned
// while the raw value is unchanged; callers must not mutate it.
func (c *Cache) LookupExtensions() []string {
	raw := c.getenv(ExtensionsEnvVar)

	c.extMu.RLock()
	if c.haveExt && strings.EqualFold(raw, c.rawExt) {
		exts := c.exts
		c.extMu.RUnlock()
		return exts
	}
	c.extMu.RUnlock()

	fresh := tokenizeExtensions(raw)

	c.extMu.Lock()
	defer c.extMu.Unlock()
	if c.haveExt && strings.EqualFold(raw, c.rawExt) {
		return c.exts
	}
	c.rawExt = raw
	c.exts = fresh
	c.haveExt = true
	return fresh
}

func tokenizeExtensions(raw string) []string {
	exts := []string{ScriptExtension}
	seen := map[string]struct{}{strings.ToLower(ScriptExtension): {}}
	for _, ext := range strings.Split(raw, string(os.PathListSeparator)) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		key := strings.ToLower(ext)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		exts = append(exts, ext)
	}
	return exts
}
