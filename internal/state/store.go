// Package state keeps the history of workbook loads in a small SQLite database.
// The DuckDB store only ever holds the materialized relation; everything about
// how it got there lives here.
package state

import "time"

// LoadStatus is the lifecycle state of a load run.
type LoadStatus string

// Load statuses.
const (
	LoadStatusRunning   LoadStatus = "running"
	LoadStatusSucceeded LoadStatus = "succeeded"
	LoadStatusFailed    LoadStatus = "failed"
)

// Load is one recorded pipeline run.
type Load struct {
	ID          string
	Relation    string
	Workbook    string
	Sheet       string
	HeaderRow   int
	Store       string
	Rows        int64
	Columns     int
	Status      LoadStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Duration returns how long the load took, or zero while it is running.
func (l *Load) Duration() time.Duration {
	if l.CompletedAt == nil {
		return 0
	}
	return l.CompletedAt.Sub(l.StartedAt)
}

// LoadOutcome is what a finished run reports back.
type LoadOutcome struct {
	Status  LoadStatus
	Rows    int64
	Columns int
	Error   string
}
