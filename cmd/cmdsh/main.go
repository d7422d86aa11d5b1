// SPDX-License-Identifier: MPL-2.0

// cmdsh resolves command names the way an interactive shell host does:
// scoped command tables, alias chasing, module auto-loading and lookup
// path probing behind a single resolver.
package main

func main() {
	Execute()
}
