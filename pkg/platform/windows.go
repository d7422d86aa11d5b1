// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"path/filepath"
	"strings"
)

// WindowsReservedNames lists the file names Windows reserves for
// devices. A file with one of these base names (with or without an
// extension) cannot be created on Windows, so module and command
// names that collide with them are not portable.
var WindowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsWindowsReservedName reports whether name collides with a Windows
// reserved device name. The comparison is case-insensitive and ignores
// a trailing extension, matching how Windows itself treats the names
// (CON, con.txt and Con.log all refer to the console device).
func IsWindowsReservedName(name string) bool {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return WindowsReservedNames[strings.ToUpper(base)]
}
