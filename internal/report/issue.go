// Package report renders extraction results for terminals.
package report

// Issue is a single per-file failure in golangci-lint format
type Issue struct {
	FromLinter string   `json:"FromLinter"` // failure kind, e.g. "preprocess"
	Text       string   `json:"Text"`       // "tsclass: failed to extract types from src/App.vue: ..."
	Severity   string   `json:"Severity"`   // "", "warning", "error"
	Pos        IssuePos `json:"Pos"`        // File location
}

// IssuePos specifies where an issue applies
type IssuePos struct {
	Filename string `json:"Filename"`
	Line     int    `json:"Line"`   // 0 when the failure concerns the whole file
	Column   int    `json:"Column"` // 1-based, 0 when unknown
}

// IssueSeverity constants
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = ""
)
