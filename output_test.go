package tsclass

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *BatchResult {
	return &BatchResult{
		Files: []FileResult{
			{File: "src/a.ts", Tokens: []string{"flex", "p-4"}},
			{File: "src/b.vue", Err: &Error{ID: "src/b.vue", Kind: KindComponent, Err: fmt.Errorf("%w: unclosed", ErrPreprocess)}},
			{File: "src/c.ts", Err: errors.New("reading src/c.ts: missing")},
		},
		Tokens: NewSet("flex", "p-4"),
	}
}

func TestDetermineOutputFormat(t *testing.T) {
	tests := []struct {
		flag  string
		quiet bool
		want  OutputFormat
	}{
		{"", false, OutputText},
		{"tokens", false, OutputText},
		{"files", false, OutputFiles},
		{"json", false, OutputJSON},
		{"issues", false, OutputIssues},
		{"json", true, OutputIssues},
		{"bogus", false, OutputText},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.flag, tt.quiet), func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineOutputFormat(tt.flag, tt.quiet))
		})
	}
}

func TestWriteOutputText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, sampleResult(), OutputText, OutputConfig{}))
	assert.Equal(t, "flex\np-4\n", buf.String())
}

func TestWriteOutputIssues(t *testing.T) {
	t.Setenv("FORCE_COLOR", "")
	t.Setenv("GITHUB_ACTIONS", "")

	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, sampleResult(), OutputIssues, OutputConfig{Summary: true}))

	out := buf.String()
	assert.Contains(t, out, "src/b.vue: error tsclass: failed to extract types from src/b.vue")
	assert.Contains(t, out, "(preprocess)")
	assert.Contains(t, out, "src/c.ts: error reading src/c.ts: missing (read)")
	assert.Contains(t, out, "2 tokens from 3 files; 2 failed files (2 errors, 0 warnings):")
}

func TestWriteOutputUnknown(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteOutput(&buf, sampleResult(), OutputFormat("xml"), OutputConfig{}))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, sampleResult(), OutputJSON, OutputConfig{}))

	var got JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "1.0", got.Version)
	assert.NotEmpty(t, got.Timestamp)
	assert.Equal(t, JSONSummary{FilesScanned: 3, FilesFailed: 2, Tokens: 2}, got.Summary)
	assert.Equal(t, []string{"flex", "p-4"}, got.Tokens)

	require.Len(t, got.Files, 3)
	assert.Equal(t, []string{}, got.Files[1].Tokens)
	assert.Contains(t, got.Files[1].Error, "preprocessing failed")

	require.Len(t, got.Issues, 2)
	assert.Equal(t, JSONIssue{
		File:     "src/c.ts",
		Severity: "error",
		Message:  "reading src/c.ts: missing",
		Kind:     IssueRead,
	}, got.Issues[1])
}
