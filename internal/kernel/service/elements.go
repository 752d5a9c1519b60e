package service

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/store"
)

// ============================================================
// Generic element API
// ============================================================

// CreateElement: единая точка создания для адаптеров импорта.
func (k *Kernel) CreateElement(t models.ElementType, params models.Params) (string, error) {
	if params == nil {
		return "", kerr.New(kerr.KindInvalidParams, "params required").With("type", string(t))
	}
	if params.ElementType() != t {
		return "", kerr.New(kerr.KindInvalidParams, "params do not match element type").
			With("type", string(t)).With("paramsType", string(params.ElementType()))
	}

	switch p := params.(type) {
	case models.WallParams:
		return k.CreateWall(p)
	case models.DoorParams:
		return k.PlaceDoor(p)
	case models.WindowParams:
		return k.PlaceWindow(p)
	case models.ColumnParams:
		return k.CreateColumn(p)
	default:
		return "", kerr.New(kerr.KindInvalidParams, "unsupported element type").With("type", string(t))
	}
}

// CreateElementJSON разбирает params по тегу типа и создает элемент.
func (k *Kernel) CreateElementJSON(t models.ElementType, raw json.RawMessage) (string, error) {
	params, err := models.DecodeParams(t, raw)
	if err != nil {
		return "", kerr.Wrap(err, kerr.KindInvalidParams, "invalid params").With("type", string(t))
	}
	return k.CreateElement(t, params)
}

func (k *Kernel) CreateColumn(p models.ColumnParams) (string, error) {
	id := newID()
	err := k.store.Update(func(tx *store.Tx) error {
		return k.createColumn(tx, id, p)
	})
	k.metrics.ObserveOperation("column.create", err)
	if err != nil {
		return "", err
	}

	log.Printf("[KERNEL] column created: %s", id)
	return id, nil
}

func (k *Kernel) createColumn(tx *store.Tx, id string, p models.ColumnParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if tx.Exists(id) {
		return kerr.New(kerr.KindInvalidParams, "element id already exists").With("id", id)
	}
	e := &models.Element{
		ID:   id,
		Type: models.TypeColumn,
		Column: &models.ColumnElement{
			Center:   p.Center,
			Width:    p.Width,
			Depth:    p.Depth,
			Height:   p.Height,
			Rotation: p.Rotation,
		},
	}
	if err := k.rebuild(e); err != nil {
		return err
	}
	tx.Put(e)
	return nil
}

// MoveElement реализует transform.move: стены и колонны сдвигаются целиком,
// проемы скользят вдоль своей стены.
func (k *Kernel) MoveElement(id string, dx, dy float64) error {
	if !finite(dx) || !finite(dy) {
		return kerr.New(kerr.KindInvalidParams, "move offset must be finite").With("dx", dx).With("dy", dy)
	}

	err := k.store.Update(func(tx *store.Tx) error {
		if _, ok := tx.WallOf(id); ok {
			return k.moveOpening(tx, id, dx, dy)
		}
		e, err := tx.Get(id)
		if err != nil {
			return err
		}
		switch {
		case e.Wall != nil:
			e.Wall.Start.X += dx
			e.Wall.Start.Y += dy
			e.Wall.End.X += dx
			e.Wall.End.Y += dy
			// Старые поправки относились к старым соседям.
			e.Wall.StartAdjustment, e.Wall.EndAdjustment = 0, 0
		case e.Column != nil:
			e.Column.Center.X += dx
			e.Column.Center.Y += dy
		}
		if err := k.rebuild(e); err != nil {
			return err
		}
		tx.Put(e)
		return nil
	})
	k.metrics.ObserveOperation("transform.move", err)
	if err != nil {
		return err
	}

	log.Printf("[KERNEL] element moved: %s by (%.3f, %.3f)", id, dx, dy)
	k.request("transform.move " + id)
	return nil
}

// DeleteElement удаляет стену, колонну или проем.
func (k *Kernel) DeleteElement(id string) error {
	if _, ok := k.store.WallOf(id); ok {
		return k.RemoveOpening(id)
	}
	e, err := k.store.Get(id)
	if err != nil {
		return err
	}
	if e.Wall != nil {
		return k.DeleteWall(id)
	}

	err = k.store.Update(func(tx *store.Tx) error { return tx.Delete(id) })
	k.metrics.ObserveOperation("element.delete", err)
	if err != nil {
		return err
	}
	log.Printf("[KERNEL] element deleted: %s", id)
	return nil
}

// ============================================================
// Snapshots
// ============================================================

// Filter: выборка ListElements. Пустой тип означает все элементы, включая проемы.
type Filter struct {
	Type         models.ElementType
	WallID       string // только проемы этой стены (и сама стена)
	WithGeometry bool
}

// GetElement возвращает снимок стены, колонны, двери или окна.
func (k *Kernel) GetElement(id string) (models.Snapshot, error) {
	if wallID, ok := k.store.WallOf(id); ok {
		wall, err := k.store.Get(wallID)
		if err != nil {
			return models.Snapshot{}, err
		}
		o, _, ok := wall.Wall.Opening(id)
		if !ok {
			return models.Snapshot{}, kerr.NotFound(id)
		}
		return models.OpeningSnapshot(wall, o), nil
	}

	e, err := k.store.Get(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	return models.SnapshotOf(e, true), nil
}

// ListElements возвращает копии в порядке id.
func (k *Kernel) ListElements(f Filter) []models.Snapshot {
	var out []models.Snapshot
	for _, e := range k.store.List(store.Filter{}) {
		if f.WallID != "" && e.ID != f.WallID {
			continue
		}
		if f.Type == "" || f.Type == e.Type {
			out = append(out, models.SnapshotOf(e, f.WithGeometry))
		}
		if e.Wall == nil {
			continue
		}
		for _, o := range e.Wall.Openings {
			s := models.OpeningSnapshot(e, o)
			if f.Type == "" || f.Type == s.Type {
				out = append(out, s)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Export возвращает состояние для сохранения: стены (с проемами внутри) и колонны.
func (k *Kernel) Export() []models.Snapshot {
	elements := k.store.List(store.Filter{})
	out := make([]models.Snapshot, 0, len(elements))
	for _, e := range elements {
		out = append(out, models.SnapshotOf(e, false))
	}
	return out
}

// Import загружает снимки одной транзакцией с сохранением id.
// replace=true очищает хранилище. При любой ошибке ничего не меняется.
func (k *Kernel) Import(snapshots []models.Snapshot, replace bool) error {
	ordered := append([]models.Snapshot(nil), snapshots...)
	sort.SliceStable(ordered, func(i, j int) bool { return importRank(ordered[i].Type) < importRank(ordered[j].Type) })

	err := k.store.Update(func(tx *store.Tx) error {
		if replace {
			for _, e := range tx.List(store.Filter{}) {
				if err := tx.Delete(e.ID); err != nil {
					return err
				}
			}
		}

		for _, s := range ordered {
			if err := k.importOne(tx, s); err != nil {
				return fmt.Errorf("import %s %s: %w", s.Type, s.ID, err)
			}
		}
		return nil
	})
	k.metrics.ObserveOperation("plan.import", err)
	if err != nil {
		return err
	}

	log.Printf("[KERNEL] imported %d elements (replace=%t)", len(snapshots), replace)
	k.request("plan.import")
	return nil
}

func (k *Kernel) importOne(tx *store.Tx, s models.Snapshot) error {
	id := s.ID
	if id == "" {
		id = newID()
	}

	switch p := s.Params.(type) {
	case models.WallParams:
		return k.createWall(tx, id, p)
	case models.ColumnParams:
		return k.createColumn(tx, id, p)
	case models.DoorParams:
		o := p.Opening()
		o.ID = id
		return k.addOpening(tx, p.WallID, o)
	case models.WindowParams:
		o := p.Opening()
		o.ID = id
		return k.addOpening(tx, p.WallID, o)
	default:
		return kerr.New(kerr.KindInvalidParams, "unsupported element type").With("type", string(s.Type))
	}
}

func importRank(t models.ElementType) int {
	switch t {
	case models.TypeWall:
		return 0
	case models.TypeColumn:
		return 1
	default:
		return 2
	}
}
