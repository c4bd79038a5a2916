package tsclass

import (
	"fmt"
	"io"

	"github.com/yacobolo/tsclass/internal/report"
)

// OutputFormat selects how a batch result is written.
type OutputFormat string

// Output formats
const (
	OutputText   OutputFormat = "text"   // one token per line
	OutputFiles  OutputFormat = "files"  // tokens grouped per file
	OutputJSON   OutputFormat = "json"   // versioned JSON document
	OutputIssues OutputFormat = "issues" // failed files only
)

// OutputConfig controls WriteOutput.
type OutputConfig struct {
	UseColors bool
	// Summary appends counts after text, files and issues output.
	Summary bool
}

// DetermineOutputFormat selects the appropriate output format based on flags
func DetermineOutputFormat(formatFlag string, quiet bool) OutputFormat {
	// Explicit -quiet flag wins (issues only)
	if quiet {
		return OutputIssues
	}

	switch formatFlag {
	case "text", "tokens":
		return OutputText
	case "files":
		return OutputFiles
	case "json":
		return OutputJSON
	case "issues":
		return OutputIssues
	default:
		// Invalid or empty format, fall back to the default
		return DetermineDefaultOutputFormat()
	}
}

// DetermineDefaultOutputFormat returns the default output format
func DetermineDefaultOutputFormat() OutputFormat {
	return OutputText
}

// WriteOutput writes the batch result in the specified format
func WriteOutput(w io.Writer, result *BatchResult, format OutputFormat, config OutputConfig) error {
	if format == OutputJSON {
		return WriteJSON(w, result)
	}

	reporter := report.NewReporter(w, report.Config{
		UseColors:       config.UseColors,
		PrintLinterName: true,
	})

	switch format {
	case OutputText:
		reporter.PrintTokens(result.Tokens.Sorted())
	case OutputFiles:
		files := make(map[string][]string, len(result.Files))
		for _, f := range result.Files {
			files[f.File] = f.Tokens
		}
		reporter.PrintFiles(files)
	case OutputIssues:
		reporter.PrintIssues(result.Issues())
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	if config.Summary {
		reporter.PrintSummary(report.Summary{
			FilesScanned: len(result.Files),
			FilesFailed:  len(result.Failed()),
			Tokens:       result.Tokens.Len(),
			Issues:       result.Issues(),
		})
	}
	return nil
}
