package report

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// Config controls reporter output.
type Config struct {
	UseColors       bool
	PrintLinterName bool
}

// Reporter handles formatting and outputting extraction results
type Reporter struct {
	w               io.Writer
	useColors       bool
	printLinterName bool
}

// NewReporter creates a new reporter with the given configuration
func NewReporter(w io.Writer, config Config) *Reporter {
	return &Reporter{
		w:               w,
		useColors:       ShouldUseColors(config.UseColors),
		printLinterName: config.PrintLinterName,
	}
}

// ShouldUseColors determines if colors should be enabled
func ShouldUseColors(explicit bool) bool {
	// Explicit flag wins
	if explicit {
		return true
	}

	// Check for FORCE_COLOR environment variable (GitHub Actions, etc.)
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// GitHub Actions supports colors
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}

	// Auto-detect TTY
	if fileInfo, err := os.Stdout.Stat(); err == nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		return true
	}

	return false
}

// UseColors returns whether colors are enabled
func (r *Reporter) UseColors() bool {
	return r.useColors
}

// PrintTokens writes one token per line.
func (r *Reporter) PrintTokens(tokens []string) {
	for _, t := range tokens {
		fmt.Fprintln(r.w, t)
	}
}

// PrintFiles writes the tokens of every file under a file header. Files
// without tokens are omitted.
func (r *Reporter) PrintFiles(files map[string][]string) {
	names := make([]string, 0, len(files))
	for name, tokens := range files {
		if len(tokens) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for i, name := range names {
		if i > 0 {
			fmt.Fprintln(r.w, "")
		}
		header := fmt.Sprintf("%s (%s)", name, pluralizeCount(len(files[name]), "token", "tokens"))
		fmt.Fprintln(r.w, RenderStyle(StyleCyan, header, r.useColors))
		for _, t := range files[name] {
			fmt.Fprintf(r.w, "  %s\n", t)
		}
	}
}

// PrintIssues outputs issues in golangci-lint format
func (r *Reporter) PrintIssues(issues []Issue) {
	// Sort issues by file, then line, then column
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Pos.Filename != issues[j].Pos.Filename {
			return issues[i].Pos.Filename < issues[j].Pos.Filename
		}
		if issues[i].Pos.Line != issues[j].Pos.Line {
			return issues[i].Pos.Line < issues[j].Pos.Line
		}
		return issues[i].Pos.Column < issues[j].Pos.Column
	})

	for _, issue := range issues {
		r.printIssue(issue)
	}
}

// printIssue formats a single issue in golangci-lint style
func (r *Reporter) printIssue(issue Issue) {
	// Format: file[:line:col]: message (kind)
	location := issue.Pos.Filename + ":"
	if issue.Pos.Line > 0 {
		location = fmt.Sprintf("%s:%d:%d:", issue.Pos.Filename, issue.Pos.Line, issue.Pos.Column)
	}

	linterSuffix := ""
	if r.printLinterName && issue.FromLinter != "" {
		linterSuffix = fmt.Sprintf(" (%s)", issue.FromLinter)
	}

	text := issue.Text
	switch issue.Severity {
	case SeverityError:
		text = RenderStyle(StyleRed, "error", r.useColors) + " " + text
	case SeverityWarning:
		text = RenderStyle(StyleYellow, "warning", r.useColors) + " " + text
	}

	fmt.Fprintf(r.w, "%s %s%s\n",
		RenderStyle(StyleCyan, location, r.useColors),
		text,
		RenderStyle(StyleGray, linterSuffix, r.useColors))
}

// Summary holds the counts printed by PrintSummary.
type Summary struct {
	FilesScanned int
	FilesFailed  int
	Tokens       int
	Issues       []Issue
}

// PrintSummary outputs the token and issue counts
func (r *Reporter) PrintSummary(s Summary) {
	var errors, warnings int
	for _, issue := range s.Issues {
		switch issue.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}

	fmt.Fprintln(r.w, "")
	line := fmt.Sprintf("%s from %s",
		pluralizeCount(s.Tokens, "token", "tokens"),
		pluralizeCount(s.FilesScanned, "file", "files"))
	if s.FilesFailed == 0 {
		fmt.Fprintln(r.w, RenderStyle(StyleGreen, line, r.useColors))
		return
	}

	fmt.Fprintf(r.w, "%s; %s (%s, %s):\n",
		line,
		RenderStyle(StyleRed, pluralizeCount(s.FilesFailed, "failed file", "failed files"), r.useColors),
		pluralizeCount(errors, "error", "errors"),
		pluralizeCount(warnings, "warning", "warnings"))

	// Group by failure kind
	kindCounts := make(map[string]int)
	for _, issue := range s.Issues {
		kindCounts[issue.FromLinter]++
	}
	kinds := make([]string, 0, len(kindCounts))
	for k := range kindCounts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(r.w, "* %s: %d\n", k, kindCounts[k])
	}

	fmt.Fprintln(r.w, "")
	fmt.Fprintln(r.w, RenderStyle(StyleGray, "Hint: Run with --strict to exit non-zero on failed files", r.useColors))
}

// pluralizeCount returns a formatted string with count and singular/plural form
func pluralizeCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
