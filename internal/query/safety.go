package query

import (
	"regexp"
	"strings"

	"github.com/vibesql/sqlzoo/internal/database"
)

var (
	whereClausePattern = regexp.MustCompile(`\bWHERE\b`)
	singleLineComment  = regexp.MustCompile(`--[^\n]*`)
	multiLineComment   = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	stringLiteral      = regexp.MustCompile(`'(?:[^']|'')*'`)
)

// CheckSafety refuses UPDATE and DELETE statements that have no WHERE
// clause once comments and string literals are stripped.
func CheckSafety(sql string) error {
	stripped := removeStringLiterals(removeComments(sql))
	upperSQL := strings.ToUpper(strings.TrimSpace(stripped))

	for _, verb := range []string{"UPDATE", "DELETE"} {
		if !hasKeywordPrefix(upperSQL, verb) {
			continue
		}
		if !whereClausePattern.MatchString(upperSQL) {
			return database.NewError(
				database.ErrorCodeUnsafeQuery,
				"Unsafe query: "+verb+" without WHERE clause",
				verb+" queries must include a WHERE clause. Use 'WHERE 1=1' to touch all rows explicitly",
			)
		}
	}

	return nil
}

// Nested /* */ comments are not supported.
func removeComments(sql string) string {
	sql = singleLineComment.ReplaceAllString(sql, "")
	return multiLineComment.ReplaceAllString(sql, "")
}

// removeStringLiterals blanks out quoted literals, including '' escapes.
func removeStringLiterals(sql string) string {
	return stringLiteral.ReplaceAllString(sql, "''")
}
