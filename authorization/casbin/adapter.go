package casbin

import (
	"database/sql"
	"fmt"

	sqladapter "github.com/Blank-Xu/sql-adapter"
)

// RuleTable holds the stored rules next to the application tables.
const RuleTable = "casbin_rule"

// NewSQLiteAdapter stores rules in the application sqlite database.
func NewSQLiteAdapter(db *sql.DB) (*sqladapter.Adapter, error) {
	adapter, err := sqladapter.NewAdapter(db, "sqlite3", RuleTable)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin rule adapter: %w", err)
	}

	return adapter, nil
}
