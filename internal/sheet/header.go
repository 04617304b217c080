package sheet

import (
	"fmt"
	"strings"
)

// DuplicatePolicy decides how repeated header names are handled.
type DuplicatePolicy string

const (
	// DuplicateSuffix renames the second and later occurrences of a name to "name.1", "name.2", ...
	DuplicateSuffix DuplicatePolicy = "suffix"
	// DuplicateError fails the load with ErrAmbiguousColumnName.
	DuplicateError DuplicatePolicy = "error"
)

// ParseDuplicatePolicy parses a policy name. The empty string means DuplicateSuffix.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(s)) {
	case "", DuplicateSuffix:
		return DuplicateSuffix, nil
	case DuplicateError:
		return DuplicateError, nil
	default:
		return "", fmt.Errorf("unknown duplicate header policy %q (want %q or %q)", s, DuplicateSuffix, DuplicateError)
	}
}

// buildHeader turns header cells into width column names.
// Blank cells become "Unnamed: <index>". Names compare case-insensitively
// because the store resolves identifiers that way.
func buildHeader(cells []string, width int, policy DuplicatePolicy) ([]string, error) {
	names := make([]string, width)
	for i := range names {
		if i < len(cells) && cells[i] != "" {
			names[i] = cells[i]
			continue
		}
		names[i] = fmt.Sprintf("Unnamed: %d", i)
	}

	seen := make(map[string]bool, width)
	for i, name := range names {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			continue
		}

		if policy == DuplicateError {
			return nil, fmt.Errorf("%w: %q appears more than once in the header row", ErrAmbiguousColumnName, name)
		}

		for n := 1; ; n++ {
			candidate := fmt.Sprintf("%s.%d", name, n)
			if !seen[strings.ToLower(candidate)] {
				names[i] = candidate
				seen[strings.ToLower(candidate)] = true
				break
			}
		}
	}

	return names, nil
}
