package models

import (
	"strings"

	"golang.org/x/text/cases"
)

// containsFold reports whether any field contains q, ignoring case.
// An empty query matches everything.
func containsFold(q string, fields ...string) bool {
	if q == "" {
		return true
	}
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q))
	for _, f := range fields {
		if strings.Contains(fold.String(f), needle) {
			return true
		}
	}
	return false
}
