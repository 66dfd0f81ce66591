package adapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

// ModuleStore persists assembled modules so a later run can rebuild without
// regenerating.
type ModuleStore interface {
	Persist(mod *m.GeneratedModule, dir m.Path) error
	Load(dir m.Path) (*m.GeneratedModule, error)
}

type moduleStore struct {
	log *zap.SugaredLogger
}

func NewModuleStore(log *zap.SugaredLogger) ModuleStore {
	return &moduleStore{log: log}
}

// manifestFile is the on-disk shape of the module manifest.
type manifestFile struct {
	Entries []m.ManifestEntry `json:"entries"`
	Exports []string          `json:"exports"`
}

func (s *moduleStore) Persist(mod *m.GeneratedModule, dir m.Path) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	names := make([]string, 0, len(mod.Files))
	for name := range mod.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(string(dir), name)
		if err := os.WriteFile(path, mod.Files[name], 0o600); err != nil {
			return fmt.Errorf("persist %s: %w", name, err)
		}
	}

	data, err := json.MarshalIndent(manifestFile{Entries: mod.Manifest, Exports: mod.Exports}, "", "  ")
	if err != nil {
		return fmt.Errorf("persist manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(string(dir), m.FileManifest), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("persist manifest: %w", err)
	}

	s.log.Debugw("module persisted", "dir", dir, "files", len(names))
	return nil
}

// Load reads back a previously persisted module unchanged.
func (s *moduleStore) Load(dir m.Path) (*m.GeneratedModule, error) {
	data, err := os.ReadFile(filepath.Join(string(dir), m.FileManifest))
	if err != nil {
		return nil, fmt.Errorf("load module from %s: %w", dir, err)
	}
	var mf manifestFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	mod := &m.GeneratedModule{
		Files:    map[string][]byte{},
		Manifest: mf.Entries,
		Exports:  mf.Exports,
		Reused:   true,
	}
	for _, name := range []string{m.FileExt, m.FileBridge, m.FileGoMod} {
		content, err := os.ReadFile(filepath.Join(string(dir), name))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		mod.Files[name] = content
	}
	return mod, nil
}
