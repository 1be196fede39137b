// Package profile reads the operator-editable profile file and the
// persisted person-state snapshot. Both are small JSON files edited or
// replaced while the daemon runs, so every load is fail-soft: a missing
// or unreadable file yields an empty map and a logged warning, never an
// error that would stop the engine.
package profile

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

type Store struct {
	profilesPath string
	statePath    string
	logger       *log.Logger
}

func NewStore(profilesPath, statePath string, logger *log.Logger) *Store {
	return &Store{
		profilesPath: profilesPath,
		statePath:    statePath,
		logger:       logger,
	}
}

// profileEntry is the on-disk shape of one profile. Entry/Exit are
// HH:MM strings; validation happens here, at load time, not at use time.
type profileEntry struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Entry    string `json:"entry,omitempty"`
	Exit     string `json:"exit,omitempty"`
}

// LoadProfiles returns the configured profiles keyed by person id.
// Malformed schedule fields fall back to nil (global default applies)
// with a logged warning; a malformed category falls back to visitor.
func (s *Store) LoadProfiles() map[string]types.Profile {
	raw := map[string]profileEntry{}
	if !s.readJSON(s.profilesPath, &raw) {
		return map[string]types.Profile{}
	}

	out := make(map[string]types.Profile, len(raw))
	for id, e := range raw {
		p := types.Profile{
			Name:     e.Name,
			Category: types.ParseCategory(e.Category),
		}
		if e.Entry != "" {
			if t, err := types.ParseClockTime(e.Entry); err != nil {
				s.logger.Printf("config: profile %s entry ignored: %v", id, err)
			} else {
				p.Entry = &t
			}
		}
		if e.Exit != "" {
			if t, err := types.ParseClockTime(e.Exit); err != nil {
				s.logger.Printf("config: profile %s exit ignored: %v", id, err)
			} else {
				p.Exit = &t
			}
		}
		out[id] = p
	}
	return out
}

// LoadStates returns the persisted person states from the last run.
func (s *Store) LoadStates() map[string]types.PersonState {
	out := map[string]types.PersonState{}
	if !s.readJSON(s.statePath, &out) {
		return map[string]types.PersonState{}
	}
	// The map key is authoritative; keep the embedded id consistent.
	for id, st := range out {
		st.PersonID = id
		out[id] = st
	}
	return out
}

// SaveStates writes the full state table. Called write-through on every
// mutation; cardinality is tracked persons, not events, so rewriting
// the whole file is fine.
func (s *Store) SaveStates(states map[string]types.PersonState) error {
	b, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal states: %w", err)
	}
	if err := os.WriteFile(s.statePath, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.statePath, err)
	}
	return nil
}

// readJSON reads path into v. Returns false (after logging, unless the
// file simply does not exist yet) when nothing usable was read.
func (s *Store) readJSON(path string, v any) bool {
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Printf("config: read %s: %v", path, err)
		}
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		s.logger.Printf("config: parse %s: %v", path, err)
		return false
	}
	return true
}
