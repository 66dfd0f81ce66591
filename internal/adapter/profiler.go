package adapter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

// Profiler runs the interpreter over the source under instrumentation and
// returns hotspot records ordered by weight, interpreter-internal frames
// already stripped.
type Profiler interface {
	Profile(ctx context.Context, code string) ([]m.HotspotRecord, error)
}

// profileHarness executes the script under cProfile and prints one row per
// function: "pct% name file:line calls", sorted by self time.
const profileHarness = `
import cProfile, pstats, runpy, sys

path = sys.argv[1]
pr = cProfile.Profile()
pr.enable()
runpy.run_path(path, run_name="__main__")
pr.disable()

st = pstats.Stats(pr)
total = st.total_tt or 1.0
rows = sorted(st.stats.items(), key=lambda kv: kv[1][2], reverse=True)
for (fname, line, name), (cc, nc, tt, ct, callers) in rows:
    pct = 100.0 * tt / total
    print("%.1f%% %s %s:%d %d" % (pct, name, fname, line, nc))
`

type cProfileRunner struct {
	log    *zap.SugaredLogger
	python string
}

// FindPython locates the interpreter binary, preferring python3.
func FindPython() (string, error) {
	for _, candidate := range []string{"python3", "python"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no python interpreter on PATH")
}

// NewProfiler locates the interpreter and returns a cProfile-backed
// Profiler. Discovery happens here, once, so the core never consults global
// state.
func NewProfiler(log *zap.SugaredLogger) (Profiler, error) {
	python, err := FindPython()
	if err != nil {
		return nil, fmt.Errorf("profiler: %w", err)
	}
	log.Debugw("interpreter found", "path", python)
	return &cProfileRunner{log: log, python: python}, nil
}

// NewProfilerWith pins an explicit interpreter binary, for tests.
func NewProfilerWith(log *zap.SugaredLogger, python string) Profiler {
	return &cProfileRunner{log: log, python: python}
}

func (p *cProfileRunner) Profile(ctx context.Context, code string) ([]m.HotspotRecord, error) {
	dir, err := os.MkdirTemp("", "hotpath-profile-*")
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, "script.py")
	if err := os.WriteFile(script, []byte(code), 0o600); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.python, "-c", profileHarness, script)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("profile: interpreter failed: %w", err)
	}

	records := ParseProfileReport(string(out))
	p.log.Debugw("profile complete", "hotspots", len(records))
	return records, nil
}

// ParseProfileReport parses harness output rows into hotspot records,
// dropping interpreter-internal frames. Rows it cannot parse are skipped
// rather than failing the run; the profile is advisory.
func ParseProfileReport(out string) []m.HotspotRecord {
	var records []m.HotspotRecord
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			continue
		}
		pctText, name, loc, callsText := fields[0], fields[1], fields[2], fields[3]
		if strings.Contains(loc, "<built-in>") || strings.Contains(loc, "<frozen") ||
			strings.HasPrefix(name, "<") {
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(pctText, "%"), 64)
		if err != nil {
			continue
		}
		calls, err := strconv.ParseInt(callsText, 10, 64)
		if err != nil {
			continue
		}
		startLine := 0
		if i := strings.LastIndex(loc, ":"); i >= 0 {
			startLine, _ = strconv.Atoi(loc[i+1:])
		}
		records = append(records, m.HotspotRecord{
			Name:      name,
			StartLine: startLine,
			Percent:   pct,
			Calls:     calls,
		})
	}
	return records
}
