package domain

import (
	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

// Selector picks the functions worth translating from a parsed source unit.
type Selector interface {
	Select(unit *m.SourceUnit, records []m.HotspotRecord, explicit string, threshold float64) []m.FunctionTarget
}

type selector struct {
	log *zap.SugaredLogger
}

// NewSelector creates a Selector. The logger must not be nil; pass
// zap.NewNop().Sugar() to silence it.
func NewSelector(log *zap.SugaredLogger) Selector {
	return &selector{log: log}
}

// Select resolves the selection mode from its arguments: an explicit function
// name wins over everything, a threshold at or below zero enumerates every
// top-level definition, and otherwise the profiling report is filtered by
// weight. Selection never fails; unknowable inputs yield an empty list.
func (s *selector) Select(unit *m.SourceUnit, records []m.HotspotRecord, explicit string, threshold float64) []m.FunctionTarget {
	if unit == nil || unit.Module == nil {
		return nil
	}

	if explicit != "" {
		return s.selectExplicit(unit, explicit)
	}
	if threshold <= 0 {
		return s.selectStaticAll(unit)
	}
	return s.selectProfiled(unit, records, threshold)
}

func (s *selector) selectExplicit(unit *m.SourceUnit, name string) []m.FunctionTarget {
	fn := unit.Module.Function(name)
	if fn == nil {
		s.log.Warnw("requested function not found in source", "function", name, "source", unit.Label)
		return nil
	}
	s.log.Debugw("explicit target selected", "function", name)
	return []m.FunctionTarget{{
		Name:      name,
		StartLine: fn.Line,
		EndLine:   fn.EndLine,
		Percent:   100,
		Mode:      m.SelectExplicit,
		Reason:    "requested by name",
	}}
}

func (s *selector) selectStaticAll(unit *m.SourceUnit) []m.FunctionTarget {
	var targets []m.FunctionTarget
	for _, fn := range unit.Module.Functions() {
		targets = append(targets, m.FunctionTarget{
			Name:      fn.Name,
			StartLine: fn.Line,
			EndLine:   fn.EndLine,
			Mode:      m.SelectStaticAll,
			Reason:    "static enumeration",
		})
	}
	s.log.Debugw("static enumeration selected targets", "count", len(targets))
	return targets
}

func (s *selector) selectProfiled(unit *m.SourceUnit, records []m.HotspotRecord, threshold float64) []m.FunctionTarget {
	var targets []m.FunctionTarget
	for _, rec := range records {
		if rec.Percent < threshold {
			continue
		}
		fn := unit.Module.Function(rec.Name)
		if fn == nil {
			// hot frame outside this unit (imported helper, lambda)
			s.log.Debugw("hotspot not defined in source unit, skipping", "function", rec.Name)
			continue
		}
		targets = append(targets, m.FunctionTarget{
			Name:      rec.Name,
			StartLine: fn.Line,
			EndLine:   fn.EndLine,
			Percent:   rec.Percent,
			Mode:      m.SelectProfiled,
			Reason:    "above weight threshold",
		})
	}
	return targets
}
