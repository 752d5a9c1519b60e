package service

import (
	"log"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/opening"
	"plan-kernel/internal/kernel/store"
)

// ============================================================
// Openings
// ============================================================

// AddOpening врезает проем в стену. Конфликт по границам или с другим
// проемом возвращается как OpeningConflict, стена остается прежней.
func (k *Kernel) AddOpening(wallID string, o models.Opening) (string, error) {
	if o.ID == "" {
		o.ID = newID()
	}
	err := k.store.Update(func(tx *store.Tx) error {
		return k.addOpening(tx, wallID, o)
	})
	k.metrics.ObserveOperation("opening.add", err)
	if err != nil {
		return "", err
	}

	log.Printf("[KERNEL] %s %s cut into wall %s at %.3f", o.Type, o.ID, wallID, o.Position)
	k.request("opening.add " + o.ID)
	return o.ID, nil
}

func (k *Kernel) addOpening(tx *store.Tx, wallID string, o models.Opening) error {
	e, err := tx.Get(wallID)
	if err != nil {
		return err
	}
	if e.Wall == nil {
		return notA(wallID, e.Type, models.TypeWall)
	}
	if owner, ok := tx.WallOf(o.ID); ok {
		return kerr.New(kerr.KindInvalidParams, "opening id already exists").
			With("openingId", o.ID).With("wallId", owner)
	}
	if tx.Exists(o.ID) {
		return kerr.New(kerr.KindInvalidParams, "element id already exists").With("id", o.ID)
	}

	w := e.Wall
	if err := opening.Validate(o, w.NominalLength(), w.Height, w.Openings); err != nil {
		return err
	}
	w.Openings = append(w.Openings, o)
	if err := k.rebuild(e); err != nil {
		return err
	}
	tx.Put(e)
	return nil
}

// WallCenter: середина номинальной оси стены, позиция проема по умолчанию.
func (k *Kernel) WallCenter(wallID string) (float64, error) {
	e, err := k.store.Get(wallID)
	if err != nil {
		return 0, err
	}
	if e.Wall == nil {
		return 0, notA(wallID, e.Type, models.TypeWall)
	}
	return e.Wall.NominalLength() / 2, nil
}

// PlaceDoor: door.place из инструментов редактора.
func (k *Kernel) PlaceDoor(p models.DoorParams) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return k.AddOpening(p.WallID, p.Opening())
}

func (k *Kernel) PlaceWindow(p models.WindowParams) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return k.AddOpening(p.WallID, p.Opening())
}

// RemoveOpening убирает проем из стены-владельца.
func (k *Kernel) RemoveOpening(openingID string) error {
	err := k.store.Update(func(tx *store.Tx) error {
		return k.removeOpening(tx, openingID)
	})
	k.metrics.ObserveOperation("opening.remove", err)
	if err != nil {
		return err
	}

	log.Printf("[KERNEL] opening removed: %s", openingID)
	k.request("opening.remove " + openingID)
	return nil
}

func (k *Kernel) removeOpening(tx *store.Tx, openingID string) error {
	wallID, ok := tx.WallOf(openingID)
	if !ok {
		return kerr.NotFound(openingID)
	}
	e, err := tx.Get(wallID)
	if err != nil {
		return err
	}
	_, idx, _ := e.Wall.Opening(openingID)
	e.Wall.Openings = append(e.Wall.Openings[:idx], e.Wall.Openings[idx+1:]...)
	if err := k.rebuild(e); err != nil {
		return err
	}
	tx.Put(e)
	return nil
}

// moveOpening сдвигает проем вдоль стены на проекцию (dx, dy) на ее ось.
func (k *Kernel) moveOpening(tx *store.Tx, openingID string, dx, dy float64) error {
	wallID, ok := tx.WallOf(openingID)
	if !ok {
		return kerr.NotFound(openingID)
	}
	e, err := tx.Get(wallID)
	if err != nil {
		return err
	}
	w := e.Wall
	o, idx, _ := w.Opening(openingID)

	dir, _ := w.End.Sub(w.Start).Normalize()
	o.Position += dx*dir.X + dy*dir.Y

	others := make([]models.Opening, 0, len(w.Openings)-1)
	others = append(others, w.Openings[:idx]...)
	others = append(others, w.Openings[idx+1:]...)
	if err := opening.Validate(o, w.NominalLength(), w.Height, others); err != nil {
		return err
	}
	w.Openings[idx] = o
	if err := k.rebuild(e); err != nil {
		return err
	}
	tx.Put(e)
	return nil
}
