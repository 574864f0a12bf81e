package repositories

import "strings"

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
