// Package adapter provides the DuckDB-backed relational store that holds the
// loaded WIP relation and serves every query consumer.
package adapter

// Config holds the configuration for opening a store.
type Config struct {
	// Path is the database file. Use ":memory:" (or empty) for an in-memory database.
	Path string

	// ReadOnly opens the store without write access. Query consumers always use it;
	// only loads open read-write.
	ReadOnly bool
}

// Column represents a column in a relation.
type Column struct {
	// Name is the column name as stored, verbatim
	Name string

	// Type is the DuckDB data type of the column
	Type string

	// Nullable indicates whether the column allows NULL values
	Nullable bool

	// Position is the ordinal position of the column in the relation
	Position int
}

// Metadata holds metadata about a relation.
type Metadata struct {
	// Schema is the schema containing the relation
	Schema string

	// Name is the relation name
	Name string

	// Columns contains metadata for each column
	Columns []Column

	// RowCount is the number of rows
	RowCount int64
}

// Result is a fully read query result.
type Result struct {
	Columns []string
	Rows    [][]any
}
