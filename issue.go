package tsclass

import (
	"errors"

	"github.com/yacobolo/tsclass/internal/report"
)

// Issue kinds reported for failed files.
const (
	IssueUnsupportedKind = "unsupported-kind"
	IssuePreprocess      = "preprocess"
	IssueMissingConfig   = "missing-config"
	IssueUnresolvable    = "unresolvable"
	IssueRead            = "read"
	IssueOther           = "extract"
)

// Issue is a per-file failure in golangci-lint format.
type Issue = report.Issue

// issueKind maps an extraction error to its kind and severity.
func issueKind(err error) (kind, severity string) {
	switch {
	case errors.Is(err, ErrUnsupportedKind):
		return IssueUnsupportedKind, report.SeverityWarning
	case errors.Is(err, ErrPreprocess):
		return IssuePreprocess, report.SeverityError
	case errors.Is(err, ErrMissingConfig):
		return IssueMissingConfig, report.SeverityError
	case errors.Is(err, ErrUnresolvable):
		return IssueUnresolvable, report.SeverityWarning
	}
	var e *Error
	if !errors.As(err, &e) {
		return IssueRead, report.SeverityError
	}
	return IssueOther, report.SeverityError
}

// Issues converts every failed file of r into an Issue.
func (r *BatchResult) Issues() []Issue {
	var issues []Issue
	for _, f := range r.Failed() {
		kind, severity := issueKind(f.Err)
		issues = append(issues, Issue{
			FromLinter: kind,
			Text:       f.Err.Error(),
			Severity:   severity,
			Pos:        report.IssuePos{Filename: f.File},
		})
	}
	return issues
}
