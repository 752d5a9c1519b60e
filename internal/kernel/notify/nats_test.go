package notify

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-kernel/internal/kernel/geom"
	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/store"
)

type message struct {
	subject string
	data    []byte
}

type fakeConn struct {
	sent []message
	err  error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, message{subject, data})
	return nil
}

func TestPublisherFromStoreEvents(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "")

	st := store.New(nil)
	st.Subscribe(store.NewBackendObserver(p))

	e := &models.Element{
		ID:   "w1",
		Type: models.TypeWall,
		Wall: &models.WallElement{End: geom.Point2{X: 3}, Height: 2.7, Thickness: 0.2},
		Geometry: models.Geometry{
			Solids:  []models.Solid{{Name: "layer_0_structure", Length: 3}},
			Outline: []models.Polyline{{Points: []geom.Point2{{}, {X: 3}}, Closed: true}},
		},
	}
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		tx.Put(e)
		return nil
	}))
	require.NoError(t, st.Update(func(tx *store.Tx) error { return tx.Delete("w1") }))

	require.Len(t, fc.sent, 2)
	assert.Equal(t, "plan.geometry.register", fc.sent[0].subject)
	assert.Equal(t, "plan.geometry.remove", fc.sent[1].subject)

	var ev GeometryEvent
	require.NoError(t, json.Unmarshal(fc.sent[0].data, &ev))
	assert.Equal(t, "w1", ev.ID)
	require.Len(t, ev.Solids, 1)
	assert.Equal(t, 3.0, ev.Solids[0].Length)
	assert.Len(t, ev.Outlines, 1)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestPublishErrorIsWrapped(t *testing.T) {
	boom := errors.New("no responders")
	p := newPublisher(&fakeConn{err: boom}, "custom")

	err := p.Remove("x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, p.Close())
}
