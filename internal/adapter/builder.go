package adapter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

// soName is the shared object the loader dlopens.
const soName = "hotpath_ext.so"

// Builder compiles a generated module into a loadable shared object and
// installs it under outDir. It never retries; a context timeout is a hard
// failure, not a retryable state.
type Builder interface {
	Build(ctx context.Context, mod *m.GeneratedModule, outDir m.Path) (m.BuildResult, error)
}

type goBuilder struct {
	log   *zap.SugaredLogger
	goBin string
}

// NewBuilder returns a Builder that shells out to the Go toolchain.
func NewBuilder(log *zap.SugaredLogger) Builder {
	return &goBuilder{log: log, goBin: "go"}
}

func (gb *goBuilder) Build(ctx context.Context, mod *m.GeneratedModule, outDir m.Path) (m.BuildResult, error) {
	stage, err := os.MkdirTemp("", "hotpath-build-*")
	if err != nil {
		return m.BuildResult{Status: m.BuildFailed}, fmt.Errorf("build: %w", err)
	}
	defer os.RemoveAll(stage)

	names := make([]string, 0, len(mod.Files))
	for name := range mod.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == m.FileManifest {
			continue
		}
		if err := os.WriteFile(filepath.Join(stage, name), mod.Files[name], 0o600); err != nil {
			return m.BuildResult{Status: m.BuildFailed}, fmt.Errorf("build: stage %s: %w", name, err)
		}
	}

	cmd := exec.CommandContext(ctx, gb.goBin, "build", "-buildmode=c-shared", "-o", soName, ".")
	cmd.Dir = stage
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return m.BuildResult{Status: m.BuildFailed}, fmt.Errorf("build: %w", ctx.Err())
	}
	if err != nil {
		gb.log.Errorw("toolchain build failed", "error", err)
		return m.BuildResult{
			Status:      m.BuildFailed,
			Diagnostics: splitDiagnostics(string(out)),
		}, nil
	}

	if err := os.MkdirAll(string(outDir), 0o750); err != nil {
		return m.BuildResult{Status: m.BuildFailed}, fmt.Errorf("build: %w", err)
	}
	install := filepath.Join(string(outDir), soName)
	built, err := os.ReadFile(filepath.Join(stage, soName))
	if err != nil {
		return m.BuildResult{Status: m.BuildFailed}, fmt.Errorf("build: %w", err)
	}
	if err := os.WriteFile(install, built, 0o750); err != nil { //nolint:gosec // the object must be executable
		return m.BuildResult{Status: m.BuildFailed}, fmt.Errorf("build: install: %w", err)
	}

	gb.log.Infow("extension built", "path", install)
	return m.BuildResult{Status: m.BuildSucceeded, InstallPath: m.Path(install)}, nil
}

func splitDiagnostics(out string) []string {
	var diags []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimRight(line, " \t\r"); line != "" {
			diags = append(diags, line)
		}
	}
	return diags
}
