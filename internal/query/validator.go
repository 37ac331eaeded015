package query

import (
	"strings"

	"github.com/vibesql/sqlzoo/internal/database"
)

const (
	// MaxQuerySize is the maximum accepted length of ad-hoc SQL
	MaxQuerySize = 10 * 1024
)

var statementKeywords = []string{
	"SELECT", "WITH", "EXPLAIN", "INSERT", "UPDATE", "DELETE",
	"CREATE", "DROP", "ALTER", "TRUNCATE",
}

// ValidateQuery rejects ad-hoc SQL that is empty, oversized, or does not
// open with a statement keyword. Leading comments are ignored. Anything
// finer is left to the database.
func ValidateQuery(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return database.NewError(
			database.ErrorCodeMissingRequiredField,
			"Missing required field",
			"The 'sql' field is required and cannot be empty",
		)
	}

	if len(sql) > MaxQuerySize {
		return database.NewError(
			database.ErrorCodeQueryTooLarge,
			"Query too large",
			"SQL query exceeds the maximum allowed size of 10KB",
		)
	}

	upperSQL := strings.ToUpper(strings.TrimSpace(removeComments(trimmed)))
	for _, keyword := range statementKeywords {
		if hasKeywordPrefix(upperSQL, keyword) {
			return nil
		}
	}

	return database.NewError(
		database.ErrorCodeInvalidSQL,
		"Invalid SQL syntax",
		"Query must start with a SQL keyword ("+strings.Join(statementKeywords, ", ")+")",
	)
}

func hasKeywordPrefix(upperSQL, keyword string) bool {
	if !strings.HasPrefix(upperSQL, keyword) {
		return false
	}
	if len(upperSQL) == len(keyword) {
		return true
	}
	next := upperSQL[len(keyword)]
	return !(next >= 'A' && next <= 'Z' || next >= '0' && next <= '9' || next == '_')
}
