package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/geom"
	"plan-kernel/internal/kernel/models"
)

func wallElement(id string, openings ...models.Opening) *models.Element {
	return &models.Element{
		ID:   id,
		Type: models.TypeWall,
		Wall: &models.WallElement{
			Start:     geom.Point2{},
			End:       geom.Point2{X: 4},
			Height:    2.7,
			Thickness: 0.2,
			Openings:  openings,
		},
	}
}

type recorder struct {
	mu     sync.Mutex
	events [][]ChangeEvent
}

func (r *recorder) OnChange(events []ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events)
}

func TestUpdateCommitsAndNotifies(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s := New(clock)
	rec := &recorder{}
	s.Subscribe(rec)

	err := s.Update(func(tx *Tx) error {
		tx.Put(wallElement("w1"))
		tx.Put(wallElement("w2"))
		return nil
	})
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	require.Len(t, rec.events[0], 2)
	assert.Equal(t, EventCreated, rec.events[0][0].Type)
	assert.Equal(t, "w1", rec.events[0][0].ID)

	e, err := s.Get("w1")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Version)
	assert.True(t, e.CreatedAt.Equal(clock.Now()))

	clock.Advance(time.Minute)
	require.NoError(t, s.Update(func(tx *Tx) error {
		w, err := tx.Get("w1")
		if err != nil {
			return err
		}
		w.Wall.Height = 3
		tx.Put(w)
		return nil
	}))

	e, _ = s.Get("w1")
	assert.Equal(t, 2, e.Version)
	assert.Equal(t, 3.0, e.Wall.Height)
	assert.True(t, e.UpdatedAt.After(e.CreatedAt))
	assert.Equal(t, EventUpdated, rec.events[1][0].Type)
}

func TestFailedUpdateLeavesStoreUntouched(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.Put(wallElement("w1"))
		return nil
	}))
	rec := &recorder{}
	s.Subscribe(rec)

	boom := errors.New("boom")
	err := s.Update(func(tx *Tx) error {
		w, _ := tx.Get("w1")
		w.Wall.Height = 99
		tx.Put(w)
		tx.Put(wallElement("w2"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	e, _ := s.Get("w1")
	assert.Equal(t, 2.7, e.Wall.Height)
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, rec.events)
}

func TestReadsReturnCopies(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.Put(wallElement("w1", models.Opening{ID: "d1", Type: models.OpeningDoor, Width: 0.9, Height: 2.1, Position: 1}))
		return nil
	}))

	e, _ := s.Get("w1")
	e.Wall.Openings[0].Width = 5
	e.Wall.End.X = 100

	again, _ := s.Get("w1")
	assert.Equal(t, 0.9, again.Wall.Openings[0].Width)
	assert.Equal(t, 4.0, again.Wall.End.X)

	listed := s.List(Filter{Type: models.TypeWall})
	require.Len(t, listed, 1)
	listed[0].Wall.Height = 0
	again, _ = s.Get("w1")
	assert.Equal(t, 2.7, again.Wall.Height)
}

func TestOpeningIndex(t *testing.T) {
	s := New(nil)
	door := models.Opening{ID: "d1", Type: models.OpeningDoor, Width: 0.9, Height: 2.1, Position: 1}
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.Put(wallElement("w1", door))
		return nil
	}))

	wallID, ok := s.WallOf("d1")
	require.True(t, ok)
	assert.Equal(t, "w1", wallID)

	require.NoError(t, s.Update(func(tx *Tx) error {
		w, _ := tx.Get("w1")
		w.Wall.Openings = nil
		tx.Put(w)
		_, still := tx.WallOf("d1")
		assert.False(t, still)
		return nil
	}))
	_, ok = s.WallOf("d1")
	assert.False(t, ok)
}

func TestDeleteAndNotFound(t *testing.T) {
	s := New(nil)
	rec := &recorder{}
	s.Subscribe(rec)

	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.Put(wallElement("w1", models.Opening{ID: "d1"}))
		return nil
	}))
	require.NoError(t, s.Update(func(tx *Tx) error {
		return tx.Delete("w1")
	}))

	_, err := s.Get("w1")
	assert.True(t, kerr.IsKind(err, kerr.KindElementNotFound))
	_, ok := s.WallOf("d1")
	assert.False(t, ok)

	last := rec.events[len(rec.events)-1]
	require.Len(t, last, 1)
	assert.Equal(t, EventDeleted, last[0].Type)
	assert.Nil(t, last[0].Element)

	err = s.Update(func(tx *Tx) error { return tx.Delete("missing") })
	assert.True(t, kerr.IsKind(err, kerr.KindElementNotFound))
}

func TestTxSeesOwnWrites(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.Put(wallElement("b"))
		tx.Put(wallElement("a"))
		require.NoError(t, tx.Delete("b"))

		got := tx.List(Filter{})
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ID)
		return nil
	}))
	assert.Equal(t, 1, s.Len())
}

func TestUnsubscribe(t *testing.T) {
	s := New(nil)
	rec := &recorder{}
	cancel := s.Subscribe(rec)
	cancel()

	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.Put(wallElement("w1"))
		return nil
	}))
	assert.Empty(t, rec.events)
}

type fakeBackend struct {
	registered map[string]int
	removed    []string
}

func (b *fakeBackend) RegisterGeometry(id string, solids []models.Solid, outlines []models.Polyline) error {
	b.registered[id] = len(solids) + len(outlines)
	return nil
}

func (b *fakeBackend) Remove(id string) error {
	b.removed = append(b.removed, id)
	return nil
}

func TestBackendObserver(t *testing.T) {
	s := New(nil)
	b := &fakeBackend{registered: map[string]int{}}
	s.Subscribe(NewBackendObserver(b))

	e := wallElement("w1")
	e.Geometry = models.Geometry{
		Solids:    []models.Solid{{Name: "layer_0_structure"}},
		Outline:   []models.Polyline{{Closed: true}},
		Divisions: []models.Polyline{{}},
	}
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.Put(e)
		return nil
	}))
	assert.Equal(t, 3, b.registered["w1"])

	require.NoError(t, s.Update(func(tx *Tx) error { return tx.Delete("w1") }))
	assert.Equal(t, []string{"w1"}, b.removed)
}
