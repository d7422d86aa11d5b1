// SPDX-License-Identifier: MPL-2.0

// Package pathcache caches the tokenized forms of the process PATH and
// extension-list environment values. The raw strings are re-read on
// every call, but tokenization only happens when a raw value actually
// changed; unchanged values are served from the previous result, which
// callers must treat as read-only.
package pathcache

import "strings"

// Entry is one lookup directory. Relative entries (dot-prefixed) are
// flagged so consumers know to resolve them against the working
// directory at probe time; this package never touches the filesystem.
type Entry struct {
	Dir      string
	Relative bool
}

// Collection is an ordered, duplicate-free set of lookup directories.
// Comparison is case-insensitive. The zero value is ready to use.
type Collection struct {
	entries []Entry
	seen    map[string]struct{}
}

// NewCollection builds a collection from the given directories,
// dropping empty strings and case-insensitive duplicates while
// preserving first-seen order.
func NewCollection(dirs []string) *Collection {
	c := &Collection{}
	for _, dir := range dirs {
		c.Add(dir)
	}
	return c
}

// Add appends a directory unless an equal entry (case-insensitive) is
// already present. Returns whether the entry was added. Leading and
// trailing whitespace is trimmed first; an empty result is ignored.
func (c *Collection) Add(dir string) bool {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return false
	}
	key := strings.ToLower(dir)
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, dup := c.seen[key]; dup {
		return false
	}
	c.seen[key] = struct{}{}
	c.entries = append(c.entries, Entry{
		Dir:      dir,
		Relative: strings.HasPrefix(dir, "."),
	})
	return true
}

// Contains reports whether the collection holds the directory,
// compared case-insensitively.
func (c *Collection) Contains(dir string) bool {
	_, ok := c.seen[strings.ToLower(strings.TrimSpace(dir))]
	return ok
}

// Len returns the number of entries.
func (c *Collection) Len() int { return len(c.entries) }

// Entries returns the ordered entries. The returned slice is shared;
// callers must not mutate it.
func (c *Collection) Entries() []Entry { return c.entries }

// Directories returns the ordered directory strings.
func (c *Collection) Directories() []string {
	dirs := make([]string, len(c.entries))
	for i, e := range c.entries {
		dirs[i] = e.Dir
	}
	return dirs
}
