package sqlite

import (
	"sort"
	"strings"
)

// placeholder returns a placeholder for SQLite (uses ?)
func placeholder(_ int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite
func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// splitDates turns a GROUP_CONCAT of review dates into an ascending slice.
func splitDates(concatenated string) []string {
	if concatenated == "" {
		return []string{}
	}
	dates := strings.Split(concatenated, ",")
	sort.Strings(dates)
	return dates
}
