package output

import "time"

// LoadOutput is the JSON result of the load command.
type LoadOutput struct {
	LoadID      string   `json:"load_id,omitempty"`
	Workbook    string   `json:"workbook"`
	Sheet       string   `json:"sheet"`
	Store       string   `json:"store"`
	Relation    string   `json:"relation"`
	Rows        int64    `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
	DateColumns []string `json:"date_columns"`
	Verified    bool     `json:"verified"`
	DurationMS  int64    `json:"duration_ms"`
}

// LoadRecord is one entry of the history command.
type LoadRecord struct {
	ID          string     `json:"id"`
	Relation    string     `json:"relation"`
	Workbook    string     `json:"workbook"`
	Sheet       string     `json:"sheet"`
	Status      string     `json:"status"`
	Rows        int64      `json:"rows"`
	Columns     int        `json:"columns"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// HistoryOutput is the JSON result of the history command.
type HistoryOutput struct {
	Loads []LoadRecord `json:"loads"`
}

// InspectOutput is the JSON result of the inspect command.
type InspectOutput struct {
	Workbook string     `json:"workbook"`
	Sheets   []string   `json:"sheets"`
	Sheet    string     `json:"sheet"`
	Rows     [][]string `json:"rows"`
}

// ReportInfo describes one canned report.
type ReportInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
