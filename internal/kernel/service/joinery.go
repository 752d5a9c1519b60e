package service

import (
	"context"
	"log"
	"math"

	"plan-kernel/internal/kernel/joinery"
	"plan-kernel/internal/kernel/junction"
	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/store"
)

// ============================================================
// Joinery pass
// ============================================================

// PassResult: итог прохода стыковки.
type PassResult struct {
	Resolved  int                 `json:"resolvedCount"`
	Skipped   int                 `json:"skipped"`
	Rebuilt   int                 `json:"rebuilt"`
	Junctions []junction.Junction `json:"junctions"`
	Conflicts []joinery.Conflict  `json:"conflicts"`
	Style     joinery.Style       `json:"jointStyle"`
	Tolerance float64             `json:"tolerance"`
}

// adjustmentEpsilon: изменения поправок меньше этого не пересобирают стену.
const adjustmentEpsilon = 1e-12

// RunJoinery выполняет проход сразу с заданными допуском и стилем
// (нулевые значения: настройки ядра).
func (k *Kernel) RunJoinery(ctx context.Context, tolerance float64, style joinery.Style) (PassResult, error) {
	if tolerance <= 0 {
		tolerance = k.opts.Tolerance
	}
	if style == "" {
		style = k.opts.Style
	}
	return k.runPass(ctx, tolerance, style)
}

func (k *Kernel) scheduledPass(ctx context.Context) error {
	_, err := k.runPass(ctx, k.opts.Tolerance, k.opts.Style)
	return err
}

// runPass: обнаружение → разрешение → пересборка затронутых стен одной
// транзакцией. Потребители видят состояние до или после прохода целиком.
// Записи прохода не запрашивают новый проход.
func (k *Kernel) runPass(ctx context.Context, tolerance float64, style joinery.Style) (PassResult, error) {
	k.passMu.Lock()
	defer k.passMu.Unlock()

	if err := ctx.Err(); err != nil {
		return PassResult{}, err
	}

	started := k.clock.Now()
	result := PassResult{Style: style, Tolerance: tolerance}

	err := k.store.Update(func(tx *store.Tx) error {
		walls := tx.List(store.Filter{Type: models.TypeWall})
		lines := make([]junction.Wall, 0, len(walls))
		for _, e := range walls {
			lines = append(lines, k.junctionWall(e))
		}

		res := joinery.Pass(lines, junction.Options{Tolerance: tolerance}, joinery.Options{
			Style:          style,
			Epsilon:        k.opts.Epsilon,
			OverlapEpsilon: k.opts.OverlapEpsilon,
		})
		result.Resolved = res.Resolved
		result.Skipped = res.Skipped
		result.Junctions = res.Junctions
		result.Conflicts = res.Conflicts

		for _, e := range walls {
			adj := res.Adjustments[e.ID]
			w := e.Wall
			if math.Abs(w.StartAdjustment-adj.Start) < adjustmentEpsilon && math.Abs(w.EndAdjustment-adj.End) < adjustmentEpsilon {
				continue
			}
			prevStart, prevEnd := w.StartAdjustment, w.EndAdjustment
			w.StartAdjustment, w.EndAdjustment = adj.Start, adj.End
			if err := k.rebuild(e); err != nil {
				// Резолвер уже отсек поправки с длиной ≤ 0 и задевающие проемы; сюда попадают
				// только ошибки сборки, и стена остается как была.
				log.Printf("[JOINERY] rebuild of %s failed, keeping previous adjustments: %v", e.ID, err)
				w.StartAdjustment, w.EndAdjustment = prevStart, prevEnd
				continue
			}
			tx.Put(e)
			result.Rebuilt++
		}
		return nil
	})
	if err != nil {
		return PassResult{}, err
	}

	for _, c := range result.Conflicts {
		log.Printf("[JOINERY] %v", c.Err())
	}
	log.Printf("[JOINERY] pass done: junctions=%d resolved=%d skipped=%d conflicts=%d rebuilt=%d",
		len(result.Junctions), result.Resolved, result.Skipped, len(result.Conflicts), result.Rebuilt)

	k.metrics.ObservePass(result, k.clock.Since(started))
	k.lastMu.Lock()
	k.last = result
	k.lastMu.Unlock()
	return result, nil
}

func (k *Kernel) junctionWall(e *models.Element) junction.Wall {
	w := e.Wall
	jw := junction.Wall{ID: e.ID, Start: w.Start, End: w.End, Thickness: e.Geometry.Thickness}
	for i, o := range w.Openings {
		if i == 0 || o.Left() < jw.OpeningsLeft {
			jw.OpeningsLeft = o.Left()
		}
		if i == 0 || o.Right() > jw.OpeningsRight {
			jw.OpeningsRight = o.Right()
		}
		jw.HasOpenings = true
	}
	if tpl, err := k.catalog.Resolve(w.TemplateID, w.Thickness); err == nil {
		jw.Thickness = tpl.TotalThickness()
		jw.LoadBearing = tpl.Properties.LoadBearing
	}
	return jw
}
