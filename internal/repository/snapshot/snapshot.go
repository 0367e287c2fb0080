// Package snapshot persists index entries so a restart can restore the
// semantic index without re-embedding.
package snapshot

import (
	"fmt"
	"regexp"
)

// DefaultTable is the table name used when none is configured.
const DefaultTable = "markdex_bookmarks"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func validateTable(name string) (string, error) {
	if name == "" {
		return DefaultTable, nil
	}
	if !tableName.MatchString(name) {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return name, nil
}
