package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

// SourceSpec names where the source text comes from. Exactly one of File,
// Stdin, or Git must be set.
type SourceSpec struct {
	File    string
	Stdin   bool
	GitURL  string
	GitPath string // repository-relative file path, required with GitURL
}

// Input loads raw source text plus its identifying label.
type Input interface {
	Load(ctx context.Context, spec SourceSpec) (*m.SourceUnit, error)
}

type input struct {
	log   *zap.SugaredLogger
	stdin io.Reader
}

// NewInput creates the default Input reading snippets from stdin.
func NewInput(log *zap.SugaredLogger) Input {
	return &input{log: log, stdin: os.Stdin}
}

// NewInputFrom creates an Input with an explicit snippet reader, for tests.
func NewInputFrom(log *zap.SugaredLogger, stdin io.Reader) Input {
	return &input{log: log, stdin: stdin}
}

func (in *input) Load(ctx context.Context, spec SourceSpec) (*m.SourceUnit, error) {
	switch {
	case spec.GitURL != "":
		return in.loadGit(ctx, spec.GitURL, spec.GitPath)
	case spec.Stdin:
		return in.loadStdin()
	case spec.File != "":
		return in.loadFile(spec.File)
	}
	return nil, fmt.Errorf("load: no source given")
}

func (in *input) loadFile(path string) (*m.SourceUnit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &m.SourceUnit{Label: path, Kind: m.SourceFile, Code: string(data)}, nil
}

func (in *input) loadStdin() (*m.SourceUnit, error) {
	data, err := io.ReadAll(in.stdin)
	if err != nil {
		return nil, fmt.Errorf("load stdin: %w", err)
	}
	return &m.SourceUnit{Label: "stdin", Kind: m.SourceStdin, Code: string(data)}, nil
}

// loadGit clones the repository shallowly into a scoped temp dir, reads the
// requested file, and removes the clone before returning.
func (in *input) loadGit(ctx context.Context, url, relPath string) (*m.SourceUnit, error) {
	if relPath == "" {
		return nil, fmt.Errorf("load git %s: no repository-relative path given", url)
	}

	tmp, err := os.MkdirTemp("", "hotpath-clone-*")
	if err != nil {
		return nil, fmt.Errorf("load git %s: %w", url, err)
	}
	defer os.RemoveAll(tmp)

	in.log.Debugw("cloning repository", "url", url)
	_, err = git.PlainCloneContext(ctx, tmp, false, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", url, err)
	}

	data, err := os.ReadFile(filepath.Join(tmp, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", relPath, url, err)
	}
	return &m.SourceUnit{Label: relPath, Kind: m.SourceGit, Code: string(data)}, nil
}
