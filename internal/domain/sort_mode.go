package domain

import "fmt"

// SortMode selects the order in which subjects are listed.
type SortMode string

// Supported sort modes. The string values match the stored preference values.
const (
	// SortAlphabetic orders subjects by text, case-insensitively.
	SortAlphabetic SortMode = "alpha"
	// SortNewestFirst orders subjects by UpdatedAt descending.
	SortNewestFirst SortMode = "new_first"
	// SortOldestFirst orders subjects by UpdatedAt ascending.
	SortOldestFirst SortMode = "old_first"
)

// ParseSortMode converts a stored preference value into a SortMode.
func ParseSortMode(s string) (SortMode, error) {
	mode := SortMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSortMode, s)
	}
	return mode, nil
}

// IsValid reports whether m is one of the supported sort modes.
func (m SortMode) IsValid() bool {
	switch m {
	case SortAlphabetic, SortNewestFirst, SortOldestFirst:
		return true
	default:
		return false
	}
}

func (m SortMode) String() string {
	return string(m)
}
