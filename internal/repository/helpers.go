package repository

import (
	"database/sql"
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
)

// monthLayout is the storage format of month-precision columns.
const monthLayout = "2006-01"

// scanMonth reads a NULL-able month column. Unparseable values read as absent.
func scanMonth(s sql.NullString) (domain.MonthIndex, bool) {
	if !s.Valid || s.String == "" {
		return 0, false
	}
	t, err := time.Parse(monthLayout, s.String)
	if err != nil {
		return 0, false
	}
	return domain.MonthOf(t), true
}

func monthArg(m domain.MonthIndex) string {
	return m.Time().Format(monthLayout)
}

// SQLite has no boolean type; flags are stored as 0/1 integers.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}
