package tsclass

import (
	"encoding/json"
	"io"
	"time"
)

// JSONOutput represents the structured JSON export schema
type JSONOutput struct {
	Version   string      `json:"version"`
	Timestamp string      `json:"timestamp"`
	Summary   JSONSummary `json:"summary"`
	Files     []JSONFile  `json:"files"`
	Issues    []JSONIssue `json:"issues"`
	Tokens    []string    `json:"tokens"`
}

// JSONSummary contains high-level counts
type JSONSummary struct {
	FilesScanned int `json:"files_scanned"`
	FilesFailed  int `json:"files_failed"`
	Tokens       int `json:"tokens"`
}

// JSONFile is the outcome for one file
type JSONFile struct {
	File   string   `json:"file"`
	Tokens []string `json:"tokens"`
	Error  string   `json:"error,omitempty"`
}

// JSONIssue represents a single failed file
type JSONIssue struct {
	File     string `json:"file"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Kind     string `json:"kind"`
}

// WriteJSON writes the batch result as JSON
func WriteJSON(w io.Writer, result *BatchResult) error {
	output := buildJSONOutput(result)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildJSONOutput converts BatchResult to JSONOutput
func buildJSONOutput(result *BatchResult) JSONOutput {
	files := make([]JSONFile, len(result.Files))
	for i, f := range result.Files {
		files[i] = JSONFile{File: f.File, Tokens: f.Tokens}
		if files[i].Tokens == nil {
			files[i].Tokens = []string{}
		}
		if f.Err != nil {
			files[i].Error = f.Err.Error()
		}
	}

	issues := result.Issues()
	jsonIssues := make([]JSONIssue, len(issues))
	for i, issue := range issues {
		jsonIssues[i] = JSONIssue{
			File:     issue.Pos.Filename,
			Severity: issue.Severity,
			Message:  issue.Text,
			Kind:     issue.FromLinter,
		}
	}

	return JSONOutput{
		Version:   "1.0",
		Timestamp: time.Now().Format(time.RFC3339),
		Summary: JSONSummary{
			FilesScanned: len(result.Files),
			FilesFailed:  len(issues),
			Tokens:       result.Tokens.Len(),
		},
		Files:  files,
		Issues: jsonIssues,
		Tokens: result.Tokens.Sorted(),
	}
}
