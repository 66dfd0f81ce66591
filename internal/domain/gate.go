package domain

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"

	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

// Gate fast-checks the assembled unit before the builder is ever invoked.
// It parses and type-checks the pure-Go file in process; the cgo boundary
// file is the builder's problem, since go/types cannot see through cgo.
// A gate failure is a translator defect, never a user error.
type Gate interface {
	Validate(mod *m.GeneratedModule) m.ValidationReport
}

type gate struct {
	log *zap.SugaredLogger
}

func NewGate(log *zap.SugaredLogger) Gate {
	return &gate{log: log}
}

func (g *gate) Validate(mod *m.GeneratedModule) m.ValidationReport {
	src, ok := mod.Files[m.FileExt]
	if !ok {
		return m.ValidationReport{Diagnostics: []string{"generated module has no " + m.FileExt}}
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, m.FileExt, src, 0)
	if err != nil {
		g.log.Errorw("generated unit failed to parse", "error", err)
		return m.ValidationReport{Diagnostics: []string{fmt.Sprintf("syntax: %v", err)}}
	}

	var diags []string
	conf := types.Config{
		Importer: importer.Default(),
		Error: func(err error) {
			diags = append(diags, err.Error())
		},
	}
	_, err = conf.Check("hotpath_ext", fset, []*ast.File{file}, nil)
	if err != nil && len(diags) == 0 {
		diags = append(diags, err.Error())
	}
	if len(diags) > 0 {
		g.log.Errorw("generated unit failed type check", "diagnostics", len(diags))
		return m.ValidationReport{Diagnostics: diags}
	}
	return m.ValidationReport{Passed: true}
}
