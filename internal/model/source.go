// Package model defines the data structures shared by the translation engine.
package model

import "github.com/hotpath-dev/hotpath/internal/pysrc"

// Path represents a file system path.
type Path string

// SourceKind tells where a Python input came from.
type SourceKind string

const (
	// SourceFile is a Python file loaded from disk.
	SourceFile SourceKind = "file"
	// SourceStdin is a snippet read from standard input.
	SourceStdin SourceKind = "stdin"
	// SourceGit is a file retrieved from a cloned git repository.
	SourceGit SourceKind = "git"
)

// SourceUnit is the immutable parsed representation of one Python input.
// It owns the AST and is never mutated after parsing; every target is
// translated from the same unit.
type SourceUnit struct {
	Label  string // file path, "stdin", or repository-relative path
	Kind   SourceKind
	Code   string
	Module *pysrc.Module
}
