package ecs

import "fmt"

// World owns entities, components, and system order.
type World struct {
	entities  entityStore
	scheduler Scheduler
	events    EventQueue
	stores    map[ComponentID]*SparseSet
	tick      uint64
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{stores: map[ComponentID]*SparseSet{}}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity removes every component of e and marks it as dead.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	for _, store := range w.stores {
		store.Remove(e)
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// Entities returns every live entity in id order.
func (w *World) Entities() []Entity {
	if w == nil {
		return nil
	}
	return w.entities.entities()
}

// AddComponent stores value for e under the component id, replacing any
// previous value.
func (w *World) AddComponent(e Entity, id ComponentID, value any) error {
	if w == nil || !w.entities.isAlive(e) {
		return fmt.Errorf("%w: %s", ErrEntityNotAlive, e)
	}
	if id == 0 {
		return ErrInvalidComponentKind
	}
	if value == nil {
		return ErrNilComponent
	}
	w.store(id).Set(e, value)
	return nil
}

// RemoveComponent deletes the component of e, reporting whether it existed.
func (w *World) RemoveComponent(e Entity, id ComponentID) bool {
	if w == nil {
		return false
	}
	store, ok := w.stores[id]
	if !ok {
		return false
	}
	return store.Remove(e)
}

// HasComponent reports whether e carries the component.
func (w *World) HasComponent(e Entity, id ComponentID) bool {
	if w == nil {
		return false
	}
	return w.stores[id].Has(e)
}

// GetComponent returns the stored value of the component for e.
func (w *World) GetComponent(e Entity, id ComponentID) (any, bool) {
	if w == nil {
		return nil, false
	}
	store, ok := w.stores[id]
	if !ok || !store.Has(e) {
		return nil, false
	}
	return store.Get(e), true
}

// Query returns entities that carry every listed component, in id order.
func (w *World) Query(ids ...ComponentID) []Entity {
	if w == nil || len(ids) == 0 {
		return nil
	}
	sets := make([]*SparseSet, 0, len(ids))
	for _, id := range ids {
		store, ok := w.stores[id]
		if !ok || store.Len() == 0 {
			return nil
		}
		sets = append(sets, store)
	}
	return IntersectEntities(sets...)
}

// First returns the lowest-id entity carrying the component.
func (w *World) First(id ComponentID) (Entity, bool) {
	ents := w.Query(id)
	if len(ents) == 0 {
		return 0, false
	}
	return ents[0], true
}

// AddSystem appends a system to the update order.
func (w *World) AddSystem(s System) {
	if w == nil {
		return
	}
	w.scheduler.Add(s)
}

// Update runs all systems once, then drops any event no system consumed.
func (w *World) Update() {
	if w == nil {
		return
	}
	w.tick++
	w.scheduler.Update(w)
	w.events.flush()
}

// Tick returns the number of completed Update calls.
func (w *World) Tick() uint64 {
	if w == nil {
		return 0
	}
	return w.tick
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

func (w *World) store(id ComponentID) *SparseSet {
	if w.stores == nil {
		w.stores = map[ComponentID]*SparseSet{}
	}
	store, ok := w.stores[id]
	if !ok {
		store = &SparseSet{}
		w.stores[id] = store
	}
	return store
}
