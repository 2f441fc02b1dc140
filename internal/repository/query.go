package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeCondition is a case-insensitive substring match on col, to be paired
// with likePattern. The explicit ESCAPE is needed by SQLite.
func likeCondition(col string) string {
	return "LOWER(" + col + `) LIKE ? ESCAPE '\'`
}

// likePattern lower-cases s and escapes LIKE wildcards so they match literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
