// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// AutoloadNone disables module auto-loading entirely.
	AutoloadNone AutoloadPreference = "none"
	// AutoloadQualified loads modules only for module-qualified names.
	AutoloadQualified AutoloadPreference = "qualified"
	// AutoloadAll additionally scans the module roots for unqualified
	// names that missed the direct search.
	AutoloadAll AutoloadPreference = "all"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidAutoloadPreference is returned when an AutoloadPreference value is not recognized.
	ErrInvalidAutoloadPreference = errors.New("invalid autoload preference")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidModuleRootPath is returned when a ModuleRootPath value is whitespace-only.
	ErrInvalidModuleRootPath = errors.New("invalid module root path")
	// ErrInvalidCacheFilePath is returned when a CacheFilePath value is whitespace-only.
	ErrInvalidCacheFilePath = errors.New("invalid cache file path")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// AutoloadPreference selects the module auto-loading behavior of the
	// resolution engine.
	AutoloadPreference string

	// InvalidAutoloadPreferenceError is returned when an AutoloadPreference value
	// is not recognized. It wraps ErrInvalidAutoloadPreference for errors.Is().
	InvalidAutoloadPreferenceError struct {
		Value AutoloadPreference
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// ModuleRootPath is a filesystem path to a directory holding
	// *.cmdmod module directories. A valid path must be non-empty and
	// not whitespace-only.
	ModuleRootPath string

	// InvalidModuleRootPathError is returned when a ModuleRootPath value is
	// empty or whitespace-only. It wraps ErrInvalidModuleRootPath for errors.Is().
	InvalidModuleRootPathError struct {
		Value ModuleRootPath
	}

	// CacheFilePath is a filesystem path to the persistent export index
	// file. The zero value ("") is valid and means "use the default
	// location". Non-zero values must not be whitespace-only.
	CacheFilePath string

	// InvalidCacheFilePathError is returned when a CacheFilePath value is
	// non-empty but whitespace-only.
	InvalidCacheFilePathError struct {
		Value CacheFilePath
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ModuleAutoload selects when lookups may load modules.
		ModuleAutoload AutoloadPreference `json:"module_autoload" mapstructure:"module_autoload"`
		// ModulePaths lists extra module roots searched after the
		// built-in roots, in order.
		ModulePaths []ModuleRootPath `json:"module_paths" mapstructure:"module_paths"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Index configures the persistent export index.
		Index IndexConfig `json:"index" mapstructure:"index"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme.
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// IndexConfig configures the persistent export index.
	IndexConfig struct {
		// CacheFile overrides where the export index database lives.
		CacheFile CacheFilePath `json:"cache_file" mapstructure:"cache_file"`
	}
)

// String returns the string representation of the AutoloadPreference.
func (p AutoloadPreference) String() string { return string(p) }

// IsValid returns whether the AutoloadPreference is one of the defined
// preferences, and a list of validation errors if it is not.
func (p AutoloadPreference) IsValid() (bool, []error) {
	switch p {
	case AutoloadNone, AutoloadQualified, AutoloadAll:
		return true, nil
	default:
		return false, []error{&InvalidAutoloadPreferenceError{Value: p}}
	}
}

// Error implements the error interface for InvalidAutoloadPreferenceError.
func (e *InvalidAutoloadPreferenceError) Error() string {
	return fmt.Sprintf("invalid autoload preference %q (valid: none, qualified, all)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidAutoloadPreferenceError) Unwrap() error {
	return ErrInvalidAutoloadPreference
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ModuleRootPath.
func (p ModuleRootPath) String() string { return string(p) }

// IsValid returns whether the ModuleRootPath is valid.
// A valid path must be non-empty and not whitespace-only.
func (p ModuleRootPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidModuleRootPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidModuleRootPathError.
func (e *InvalidModuleRootPathError) Error() string {
	return fmt.Sprintf("invalid module root path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidModuleRootPath for errors.Is() compatibility.
func (e *InvalidModuleRootPathError) Unwrap() error { return ErrInvalidModuleRootPath }

// String returns the string representation of the CacheFilePath.
func (p CacheFilePath) String() string { return string(p) }

// IsValid returns whether the CacheFilePath is valid.
// The zero value ("") is valid (means "use the default location").
// Non-zero values must not be whitespace-only.
func (p CacheFilePath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidCacheFilePathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCacheFilePathError.
func (e *InvalidCacheFilePathError) Error() string {
	return fmt.Sprintf("invalid cache file path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidCacheFilePath for errors.Is() compatibility.
func (e *InvalidCacheFilePathError) Unwrap() error { return ErrInvalidCacheFilePath }

// IsValid returns whether the Config has valid fields.
// It delegates to ModuleAutoload.IsValid(), each ModulePaths entry's
// IsValid(), UI.ColorScheme.IsValid(), and Index.CacheFile.IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ModuleAutoload.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, p := range c.ModulePaths {
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Index.CacheFile.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ModuleAutoload: AutoloadAll,
		ModulePaths:    []ModuleRootPath{},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
		Index: IndexConfig{
			CacheFile: "", // Resolved against the config dir when empty
		},
	}
}
