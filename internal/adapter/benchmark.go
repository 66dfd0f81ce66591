package adapter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Benchmark measures the wall-clock cost of running the original script, so
// a before/after comparison can be reported. Failures only warn; a broken
// benchmark never fails the run.
type Benchmark interface {
	Measure(ctx context.Context, code string, iterations int) (time.Duration, error)
}

// benchHarness runs the script n times and prints the mean seconds per run.
const benchHarness = `
import runpy, sys, time

path, n = sys.argv[1], int(sys.argv[2])
start = time.perf_counter()
for _ in range(n):
    runpy.run_path(path, run_name="__main__")
print((time.perf_counter() - start) / n)
`

type pyBenchmark struct {
	log    *zap.SugaredLogger
	python string
}

// NewBenchmark returns a Benchmark sharing the profiler's interpreter.
func NewBenchmark(log *zap.SugaredLogger, python string) Benchmark {
	return &pyBenchmark{log: log, python: python}
}

func (b *pyBenchmark) Measure(ctx context.Context, code string, iterations int) (time.Duration, error) {
	if iterations <= 0 {
		iterations = 1
	}

	dir, err := os.MkdirTemp("", "hotpath-bench-*")
	if err != nil {
		return 0, fmt.Errorf("benchmark: %w", err)
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, "script.py")
	if err := os.WriteFile(script, []byte(code), 0o600); err != nil {
		return 0, fmt.Errorf("benchmark: %w", err)
	}

	cmd := exec.CommandContext(ctx, b.python, "-c", benchHarness, script, fmt.Sprint(iterations))
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("benchmark: interpreter failed: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(string(out), "%g", &seconds); err != nil {
		return 0, fmt.Errorf("benchmark: unreadable timing %q: %w", string(out), err)
	}
	d := time.Duration(seconds * float64(time.Second))
	b.log.Debugw("benchmark measured", "perCall", d, "iterations", iterations)
	return d, nil
}
