package model

import (
	"fmt"

	"github.com/finforge/proforma/internal/engine"
	"github.com/finforge/proforma/pkg/constants"
	"github.com/finforge/proforma/pkg/generators"
	"go.uber.org/zap"
)

// Snapshot converts the model into an immutable engine snapshot,
// instantiating each configured generator through the registry. The snapshot
// owns copies of the per-period value maps so later model edits cannot leak
// into a running pass.
func (m *Model) Snapshot(logger *zap.Logger) (engine.Snapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	snap := engine.Snapshot{
		Periods:   append([]int(nil), m.Periods...),
		LineItems: make([]engine.LineItem, 0, len(m.LineItems)),
	}

	for _, item := range m.LineItems {
		category := item.Category
		if category == "" {
			category = constants.DefaultCategory
		}
		label := item.Label
		if label == "" {
			label = item.Name
		}
		values := make(map[int]float64, len(item.Values))
		for period, value := range item.Values {
			values[period] = value
		}
		snap.LineItems = append(snap.LineItems, engine.LineItem{
			Name:     item.Name,
			Category: category,
			Label:    label,
			Values:   values,
			Formula:  item.Formula,
		})
	}

	for _, cfg := range m.Generators {
		gen, err := generators.New(cfg.Type, cfg.Name, cfg.Config)
		if err != nil {
			return engine.Snapshot{}, fmt.Errorf("generator %q: %w", cfg.Name, err)
		}
		logger.Debug("instantiated generator",
			zap.String("op", "model.Snapshot"),
			zap.String("name", cfg.Name),
			zap.String("type", cfg.Type),
		)
		snap.Generators = append(snap.Generators, gen)
	}

	return snap, nil
}
