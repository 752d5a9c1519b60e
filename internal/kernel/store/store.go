// Package store реализует Object Store, единственный владелец изменяемого состояния
// ядра. Все изменения проходят через транзакции, читатели получают копии.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/models"
)

// ============================================================
// Change events
// ============================================================

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// ChangeEvent несет копию записи после коммита (nil для удаления).
type ChangeEvent struct {
	Type        EventType
	ID          string
	ElementType models.ElementType
	Element     *models.Element
}

// Observer получает события пачкой после коммита, вне блокировки хранилища.
type Observer interface {
	OnChange(events []ChangeEvent)
}

type ObserverFunc func(events []ChangeEvent)

func (f ObserverFunc) OnChange(events []ChangeEvent) { f(events) }

// ============================================================
// Store
// ============================================================

// Filter: выборка для List. Пустой фильтр возвращает все записи.
type Filter struct {
	Type models.ElementType
	IDs  []string
}

func (f Filter) match(e *models.Element) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if len(f.IDs) == 0 {
		return true
	}
	for _, id := range f.IDs {
		if id == e.ID {
			return true
		}
	}
	return false
}

type Store struct {
	mu       sync.RWMutex
	elements map[string]*models.Element
	openings map[string]string // id проема → id стены

	notifyMu  sync.Mutex
	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObs   int

	clock clockwork.Clock
}

func New(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		elements:  make(map[string]*models.Element),
		openings:  make(map[string]string),
		observers: make(map[int]Observer),
		clock:     clock,
	}
}

// Subscribe регистрирует наблюдателя; возвращает функцию отписки.
func (s *Store) Subscribe(o Observer) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) Get(id string) (*models.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.elements[id]
	if !ok {
		return nil, kerr.NotFound(id)
	}
	return e.Clone(), nil
}

// List возвращает копии записей в порядке id.
func (s *Store) List(f Filter) []*models.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return list(s.elements, f)
}

// WallOf: стена, которой принадлежит проем.
func (s *Store) WallOf(openingID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.openings[openingID]
	return id, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

// Update выполняет fn в транзакции. Если fn вернула ошибку, ничего не меняется.
// Наблюдатели уведомляются после снятия блокировки записи, в порядке коммитов.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	tx := &Tx{
		store:   s,
		staged:  make(map[string]*models.Element),
		deleted: make(map[string]bool),
	}
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return err
	}
	events := tx.commit(s.clock.Now())

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	if len(events) > 0 {
		s.notify(events)
	}
	return nil
}

func (s *Store) notify(events []ChangeEvent) {
	s.obsMu.RLock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, s.observers[id])
	}
	s.obsMu.RUnlock()

	for _, o := range observers {
		o.OnChange(events)
	}
}

func list(elements map[string]*models.Element, f Filter) []*models.Element {
	out := make([]*models.Element, 0, len(elements))
	for _, e := range elements {
		if f.match(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ============================================================
// Transactions
// ============================================================

// Tx: staged-изменения поверх зафиксированного состояния.
type Tx struct {
	store   *Store
	staged  map[string]*models.Element
	deleted map[string]bool
	order   []string
}

func (tx *Tx) Get(id string) (*models.Element, error) {
	if tx.deleted[id] {
		return nil, kerr.NotFound(id)
	}
	if e, ok := tx.staged[id]; ok {
		return e.Clone(), nil
	}
	if e, ok := tx.store.elements[id]; ok {
		return e.Clone(), nil
	}
	return nil, kerr.NotFound(id)
}

func (tx *Tx) Exists(id string) bool {
	_, err := tx.Get(id)
	return err == nil
}

// WallOf ищет владельца проема с учетом staged-изменений.
func (tx *Tx) WallOf(openingID string) (string, bool) {
	for _, id := range tx.order {
		e := tx.staged[id]
		if e == nil || tx.deleted[id] || e.Wall == nil {
			continue
		}
		if _, _, ok := e.Wall.Opening(openingID); ok {
			return id, true
		}
	}
	wallID, ok := tx.store.openings[openingID]
	if !ok || tx.deleted[wallID] {
		return "", false
	}
	if e, staged := tx.staged[wallID]; staged {
		if _, _, still := e.Wall.Opening(openingID); !still {
			return "", false
		}
	}
	return wallID, true
}

// Put ставит запись в очередь на запись. Версия и время проставляются при коммите.
func (tx *Tx) Put(e *models.Element) {
	if _, ok := tx.staged[e.ID]; !ok {
		tx.order = append(tx.order, e.ID)
	}
	tx.staged[e.ID] = e.Clone()
	delete(tx.deleted, e.ID)
}

func (tx *Tx) Delete(id string) error {
	if !tx.Exists(id) {
		return kerr.NotFound(id)
	}
	if _, ok := tx.staged[id]; !ok {
		tx.order = append(tx.order, id)
	}
	tx.deleted[id] = true
	return nil
}

// List: согласованный вид транзакции.
func (tx *Tx) List(f Filter) []*models.Element {
	merged := make(map[string]*models.Element, len(tx.store.elements)+len(tx.staged))
	for id, e := range tx.store.elements {
		merged[id] = e
	}
	for id, e := range tx.staged {
		merged[id] = e
	}
	for id := range tx.deleted {
		delete(merged, id)
	}
	return list(merged, f)
}

func (tx *Tx) commit(now time.Time) []ChangeEvent {
	s := tx.store
	events := make([]ChangeEvent, 0, len(tx.order))

	for _, id := range tx.order {
		prev, existed := s.elements[id]

		if tx.deleted[id] {
			if !existed {
				continue
			}
			s.unindex(prev)
			delete(s.elements, id)
			events = append(events, ChangeEvent{Type: EventDeleted, ID: id, ElementType: prev.Type})
			continue
		}

		e := tx.staged[id]
		ev := EventCreated
		if existed {
			ev = EventUpdated
			e.CreatedAt = prev.CreatedAt
			e.Version = prev.Version + 1
			s.unindex(prev)
		} else {
			e.CreatedAt = now
			e.Version = 1
		}
		e.UpdatedAt = now
		s.elements[id] = e
		s.index(e)
		events = append(events, ChangeEvent{Type: ev, ID: id, ElementType: e.Type, Element: e.Clone()})
	}
	return events
}

func (s *Store) index(e *models.Element) {
	if e.Wall == nil {
		return
	}
	for _, o := range e.Wall.Openings {
		s.openings[o.ID] = e.ID
	}
}

func (s *Store) unindex(e *models.Element) {
	if e.Wall == nil {
		return
	}
	for _, o := range e.Wall.Openings {
		if s.openings[o.ID] == e.ID {
			delete(s.openings, o.ID)
		}
	}
}
