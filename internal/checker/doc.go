// Package checker implements the subset of the TypeScript type system needed
// to resolve the literal types of expressions.
//
// Files are parsed with tree-sitter. A Program owns a set of SourceFiles and
// a Checker; building a Program from an older one reuses every file whose
// content is unchanged together with the types already computed for it.
// Anything outside the supported subset is typed unknown.
package checker
