package store

import (
	"log"

	"plan-kernel/internal/kernel/models"
)

// Backend: внешний потребитель геометрии (сцена, рендер, очередь сообщений).
// Ядро не зависит от того, как геометрия будет нарисована.
type Backend interface {
	RegisterGeometry(id string, solids []models.Solid, outlines []models.Polyline) error
	Remove(id string) error
}

// BackendObserver переводит события хранилища в вызовы Backend.
type BackendObserver struct {
	backend Backend
}

func NewBackendObserver(b Backend) *BackendObserver {
	return &BackendObserver{backend: b}
}

func (o *BackendObserver) OnChange(events []ChangeEvent) {
	for _, ev := range events {
		var err error
		switch ev.Type {
		case EventDeleted:
			err = o.backend.Remove(ev.ID)
		default:
			g := ev.Element.Geometry
			outlines := make([]models.Polyline, 0, len(g.Outline)+len(g.Divisions))
			outlines = append(outlines, g.Outline...)
			outlines = append(outlines, g.Divisions...)
			err = o.backend.RegisterGeometry(ev.ID, g.Solids, outlines)
		}
		if err != nil {
			log.Printf("[STORE] backend %s %s failed: %v", ev.Type, ev.ID, err)
		}
	}
}
