package service

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

// Saver persists the full state table. Called write-through after every
// mutation while the mutex is held — acceptable because cardinality is
// tracked persons, not events.
type Saver func(map[string]types.PersonState) error

// StateStore is the authoritative live status of each tracked person.
// Written by the poller, read by the overstay monitor and the status
// API; a single mutex serializes all of it.
type StateStore struct {
	mu     sync.Mutex
	states map[string]types.PersonState
	save   Saver
	logger *log.Logger
}

func NewStateStore(initial map[string]types.PersonState, save Saver, logger *log.Logger) *StateStore {
	if initial == nil {
		initial = make(map[string]types.PersonState)
	}
	if save == nil {
		save = func(map[string]types.PersonState) error { return nil }
	}
	return &StateStore{states: initial, save: save, logger: logger}
}

// Upsert overwrites name, category, mode and activity for a person. The
// alert flag survives the update unless the new mode is check-out,
// which is the only event-driven way an alert clears.
func (s *StateStore) Upsert(personID, name string, category types.Category, mode types.Mode, ts string) types.PersonState {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert := s.states[personID].Alert
	if mode == types.ModeCheckOut {
		alert = false
	}
	st := types.PersonState{
		PersonID:     personID,
		Name:         name,
		Category:     category,
		LastMode:     mode,
		LastActivity: ts,
		Alert:        alert,
	}
	s.states[personID] = st
	s.persist()
	return st
}

func (s *StateStore) Get(personID string) (types.PersonState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[personID]
	return st, ok
}

// All returns a snapshot sorted by person id.
func (s *StateStore) All() []types.PersonState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.PersonState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out
}

// SetAlert raises the overstay flag. Returns true only on the
// no-alert → alerted transition so the caller can edge-trigger its
// notification; repeated calls while alerted return false.
func (s *StateStore) SetAlert(personID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[personID]
	if !ok || st.Alert {
		return false
	}
	st.Alert = true
	s.states[personID] = st
	s.persist()
	return true
}

// CheckOut is the manual override: stamps a check-out now and clears
// the alert. A person never seen before is created as a visitor named
// by their id, matching what a device check-out would have produced.
func (s *StateStore) CheckOut(personID string, now time.Time) types.PersonState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[personID]
	if !ok {
		st = types.PersonState{
			PersonID: personID,
			Name:     personID,
			Category: types.CategoryVisitor,
		}
	}
	st.LastMode = types.ModeCheckOut
	st.LastActivity = now.Format(types.TimeLayout)
	st.Alert = false
	s.states[personID] = st
	s.persist()
	return st
}

// SyncProfiles reconciles configured names and categories into existing
// states. Runs every cycle so profile edits surface without waiting for
// the person's next punch. Persists only when something changed.
func (s *StateStore) SyncProfiles(profiles map[string]types.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for id, st := range s.states {
		p, ok := profiles[id]
		if !ok {
			continue
		}
		if p.Name != "" && st.Name != p.Name {
			st.Name = p.Name
			changed = true
		}
		if st.Category != p.Category {
			st.Category = p.Category
			changed = true
		}
		s.states[id] = st
	}
	if changed {
		s.persist()
	}
}

// persist must be called with the mutex held. A failed write is a
// durability error: logged, state stays in memory, next mutation
// retries.
func (s *StateStore) persist() {
	snapshot := make(map[string]types.PersonState, len(s.states))
	for id, st := range s.states {
		snapshot[id] = st
	}
	if err := s.save(snapshot); err != nil {
		s.logger.Printf("durability: persist states: %v", err)
	}
}
