package sqlite

import "database/sql"

// schema stores the document tree flattened to leaves. path is the full
// slash-delimited address of the leaf; value is its JSON encoding.
const schema = `
CREATE TABLE IF NOT EXISTS nodes (
    path TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
