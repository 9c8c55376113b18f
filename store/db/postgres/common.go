package postgres

import (
	"fmt"
	"strings"
)

// placeholder returns a positional placeholder for PostgreSQL ($1, $2, ...).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// splitDates turns a string_agg of ordered review dates into a slice.
func splitDates(concatenated string) []string {
	if concatenated == "" {
		return []string{}
	}
	return strings.Split(concatenated, ",")
}

type scanner interface {
	Scan(dest ...any) error
}
