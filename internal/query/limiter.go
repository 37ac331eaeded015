package query

import (
	"fmt"

	"github.com/vibesql/sqlzoo/internal/database"
)

const (
	MaxResultRows = 1000
)

// CheckRowLimit fails once currentRowCount reaches maxRows. A non-positive
// maxRows means no limit.
func CheckRowLimit(currentRowCount, maxRows int) error {
	if maxRows > 0 && currentRowCount >= maxRows {
		return database.NewError(
			database.ErrorCodeResultTooLarge,
			"Result set too large",
			fmt.Sprintf("Query returned more than the maximum allowed %d rows", maxRows),
		)
	}
	return nil
}
