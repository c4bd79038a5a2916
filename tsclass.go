// Package tsclass extracts candidate utility-class tokens from TypeScript
// and Vue single-file components by resolving the static types of their
// expressions.
//
// Every expression whose type is assignable to string contributes the
// string literal values of that type, so class names assembled through
// unions, const objects and template literals are found even when they
// never appear verbatim in the source.
//
// # Extraction
//
//	ex := tsclass.New(tsclass.Options{Cwd: "web"})
//	tokens := tsclass.Set{}
//	if err := ex.Extract("src/App.vue", source, tokens); err != nil {
//		return err
//	}
//	ex.Reset() // once per pass over a set of files
//
// # Batches
//
// Run reads a set of files concurrently, extracts them in order and resets
// the extractor when done:
//
//	files, _, err := tsclass.ExpandFiles(nil, tsclass.ScanOptions{Root: "web"})
//	result, err := tsclass.Run(ctx, tsclass.BatchConfig{Files: files, Extractor: ex})
//
// # CLI Tool
//
// tsclass also provides a CLI tool. Install with:
//
//	go install github.com/yacobolo/tsclass/cmd/tsclass@latest
package tsclass
