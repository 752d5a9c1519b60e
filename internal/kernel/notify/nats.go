// Package notify публикует изменения геометрии в NATS для внешнего рендера.
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/store"
)

const DefaultSubject = "plan.geometry"

// GeometryEvent: сообщение для подписчиков рендера.
type GeometryEvent struct {
	Type      string            `json:"type"` // register | remove
	ID        string            `json:"id"`
	Solids    []models.Solid    `json:"solids,omitempty"`
	Outlines  []models.Polyline `json:"outlines,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// conn: то, что нужно от соединения NATS.
type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher реализует store.Backend поверх NATS.
type Publisher struct {
	nc      *nats.Conn
	conn    conn
	subject string
}

var _ store.Backend = (*Publisher)(nil)

// Connect подключается к NATS. Сообщения уходят в <subject>.register и <subject>.remove.
func Connect(url, subject string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("plan-kernel"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := newPublisher(nc, subject)
	p.nc = nc

	log.Printf("[NOTIFY] connected to NATS %s, subject %s", url, p.subject)
	return p, nil
}

func newPublisher(c conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: c, subject: subject}
}

func (p *Publisher) RegisterGeometry(id string, solids []models.Solid, outlines []models.Polyline) error {
	return p.publish(GeometryEvent{Type: "register", ID: id, Solids: solids, Outlines: outlines})
}

func (p *Publisher) Remove(id string) error {
	return p.publish(GeometryEvent{Type: "remove", ID: id})
}

func (p *Publisher) publish(ev GeometryEvent) error {
	ev.Timestamp = time.Now().UTC()
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject+"."+ev.Type, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return err
	}
	return nil
}
