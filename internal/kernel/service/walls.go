package service

import (
	"log"
	"math"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/assembly"
	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/opening"
	"plan-kernel/internal/kernel/store"
)

// ============================================================
// Walls
// ============================================================

// CreateWall создает стену. При ошибке геометрии хранилище не меняется.
func (k *Kernel) CreateWall(p models.WallParams) (string, error) {
	id := newID()
	err := k.store.Update(func(tx *store.Tx) error {
		return k.createWall(tx, id, p)
	})
	k.metrics.ObserveOperation("wall.create", err)
	if err != nil {
		return "", err
	}

	log.Printf("[KERNEL] wall created: %s", id)
	k.request("wall.create " + id)
	return id, nil
}

func (k *Kernel) createWall(tx *store.Tx, id string, p models.WallParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if tx.Exists(id) {
		return kerr.New(kerr.KindInvalidParams, "element id already exists").With("id", id)
	}

	w := &models.WallElement{
		Start:      p.StartPoint,
		End:        p.EndPoint,
		Height:     p.Height,
		Thickness:  p.Thickness,
		TemplateID: p.TemplateID,
	}
	openings, err := k.prepareOpenings(tx, id, *w, p.Openings)
	if err != nil {
		return err
	}
	w.Openings = openings

	e := &models.Element{ID: id, Type: models.TypeWall, Wall: w}
	if err := k.rebuild(e); err != nil {
		return err
	}
	tx.Put(e)
	return nil
}

// UpdateWall заменяет параметры стены. Если params.Openings пуст, проемы
// сохраняются и проверяются заново против новой длины и высоты.
func (k *Kernel) UpdateWall(id string, p models.WallParams) error {
	err := k.store.Update(func(tx *store.Tx) error {
		if err := p.Validate(); err != nil {
			return err
		}
		e, err := tx.Get(id)
		if err != nil {
			return err
		}
		if e.Wall == nil {
			return notA(id, e.Type, models.TypeWall)
		}

		w := *e.Wall
		w.Start = p.StartPoint
		w.End = p.EndPoint
		w.Height = p.Height
		w.Thickness = p.Thickness
		w.TemplateID = p.TemplateID

		requested := w.Openings
		if p.Openings != nil {
			requested = p.Openings
		}
		w.Openings = nil
		openings, err := k.prepareOpenings(tx, id, w, requested)
		if err != nil {
			return err
		}
		w.Openings = openings
		e.Wall = &w

		if err := k.rebuild(e); err != nil {
			// Поправки прошлого прохода могут не подойти новой длине:
			// стена собирается без них до следующего прохода.
			if !kerr.IsKind(err, kerr.KindInvalidGeometry) || (w.StartAdjustment == 0 && w.EndAdjustment == 0) {
				return err
			}
			e.Wall.StartAdjustment, e.Wall.EndAdjustment = 0, 0
			if err := k.rebuild(e); err != nil {
				return err
			}
		}
		tx.Put(e)
		return nil
	})
	k.metrics.ObserveOperation("wall.update", err)
	if err != nil {
		return err
	}

	log.Printf("[KERNEL] wall updated: %s", id)
	k.request("wall.update " + id)
	return nil
}

// DeleteWall удаляет стену вместе с ее проемами и планирует пересчет стыков.
func (k *Kernel) DeleteWall(id string) error {
	var removed int
	err := k.store.Update(func(tx *store.Tx) error {
		e, err := tx.Get(id)
		if err != nil {
			return err
		}
		if e.Wall == nil {
			return notA(id, e.Type, models.TypeWall)
		}
		removed = len(e.Wall.Openings)
		return tx.Delete(id)
	})
	k.metrics.ObserveOperation("wall.delete", err)
	if err != nil {
		return err
	}

	log.Printf("[KERNEL] wall deleted: %s (openings removed: %d)", id, removed)
	k.request("wall.delete " + id)
	return nil
}

// ============================================================
// Geometry
// ============================================================

// rebuild пересчитывает производную геометрию записи.
func (k *Kernel) rebuild(e *models.Element) error {
	switch {
	case e.Wall != nil:
		g, err := k.buildWall(*e.Wall)
		if err != nil {
			return err
		}
		e.Geometry = g
	case e.Column != nil:
		g, err := assembly.BuildColumn(*e.Column)
		if err != nil {
			return err
		}
		e.Geometry = g
	}
	return nil
}

// buildWall: слои по шаблону, затем проемы поверх единого пролета.
// Слои режутся по сплошным участкам; участки (RoleSegment) дают габарит
// на полную толщину, заполнение и коробки добавляются к ним.
func (k *Kernel) buildWall(w models.WallElement) (models.Geometry, error) {
	tpl, err := k.catalog.Resolve(w.TemplateID, w.Thickness)
	if err != nil {
		return models.Geometry{}, err
	}
	g, err := assembly.Build(w, tpl)
	if err != nil {
		return models.Geometry{}, err
	}
	if len(w.Openings) == 0 {
		return g, nil
	}

	dir, _ := w.End.Sub(w.Start).Normalize()
	f := opening.Frame{
		Start:     g.EffectiveStart,
		Direction: dir,
		Rotation:  g.Rotation,
		Height:    w.Height,
		Thickness: g.Thickness,
		Shift:     w.StartAdjustment,
	}
	segments, solids := opening.Apply(f, g.EffectiveLength, w.Openings)
	g.Solids = append(assembly.CutLayers(g, segments), solids...)
	g.Segments = segments
	return g, nil
}

// prepareOpenings проверяет проемы по очереди против стены и уже принятых
// и присваивает id тем, у кого его нет.
func (k *Kernel) prepareOpenings(tx *store.Tx, wallID string, w models.WallElement, requested []models.Opening) ([]models.Opening, error) {
	length := w.NominalLength()
	accepted := make([]models.Opening, 0, len(requested))
	for _, o := range requested {
		if o.ID == "" {
			o.ID = newID()
		} else if owner, ok := tx.WallOf(o.ID); ok && owner != wallID {
			return nil, kerr.New(kerr.KindInvalidParams, "opening id already used by another wall").
				With("openingId", o.ID).With("wallId", owner)
		}
		if err := opening.Validate(o, length, w.Height, accepted); err != nil {
			return nil, err
		}
		accepted = append(accepted, o)
	}
	return accepted, nil
}

func notA(id string, got, want models.ElementType) error {
	return kerr.New(kerr.KindInvalidParams, "element has a different type").
		With("id", id).With("type", string(got)).With("expected", string(want))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
