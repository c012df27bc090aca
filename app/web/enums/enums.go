// Package enums provides type-safe enumeration types for the web interface.
//
// Enum types are declared here as unexported integer types, go-pkgz/enum generates
// the exported struct types (FilterMode, Theme) with String, Parse, text and sql
// marshaling into *_enum.go files. Regenerate after changing the constants:
//
//	go generate ./app/web/enums
//
// Usage:
//
//	mode, err := enums.ParseFilterMode("active")
//	if err != nil {
//	    // handle invalid input
//	}
//	fmt.Println(mode.Next()) // "completed"
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type filterMode -lower
//go:generate go run github.com/go-pkgz/enum@latest -type theme -lower

// filterMode selects which tasks are shown by completion status.
// Generator input only, use the exported FilterMode.
type filterMode int

const (
	filterModeAll filterMode = iota
	filterModeActive
	filterModeCompleted
)

// theme is the UI color theme.
// Generator input only, use the exported Theme.
type theme int

const (
	themeLight theme = iota
	themeDark
)

// Next returns the following mode in cycling order: all -> active -> completed -> all.
// Unknown values cycle to all.
func (e FilterMode) Next() FilterMode {
	for i, v := range FilterModeValues {
		if v == e {
			return FilterModeValues[(i+1)%len(FilterModeValues)]
		}
	}
	return FilterModeAll
}
