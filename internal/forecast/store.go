package forecast

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Status describes what the store currently serves
type Status struct {
	Loaded       bool       `json:"loaded"`
	Source       string     `json:"source,omitempty"`
	LoadedAt     *time.Time `json:"loadedAt,omitempty"`
	LastUpdated  string     `json:"lastUpdated,omitempty"`
	Models       int        `json:"models"`
	Observations int        `json:"observations"`
}

// Store holds the currently loaded payload. A payload is never mutated once
// stored; reloads swap the pointer.
type Store struct {
	mu       sync.RWMutex
	payload  *Payload
	source   string
	loadedAt time.Time
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{now: time.Now}
}

// LoadFile loads a payload file into the store. On failure the previously
// loaded payload stays in place.
func (s *Store) LoadFile(path string) error {
	p, err := LoadFile(path)
	if err != nil {
		return err
	}
	return s.Set(p, path)
}

// Set validates and installs a payload
func (s *Store) Set(p *Payload, source string) error {
	if err := Validate(p); err != nil {
		return err
	}

	s.mu.Lock()
	s.payload = p
	s.source = source
	s.loadedAt = s.now().UTC()
	s.mu.Unlock()

	log.Info().
		Str("source", source).
		Str("last_updated", p.LastUpdated.String()).
		Int("models", len(p.Models)).
		Int("observations", len(p.HistoricalData)).
		Msg("Forecast payload loaded")
	return nil
}

// Payload returns the current payload; ok is false until one is loaded
func (s *Store) Payload() (*Payload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payload, s.payload != nil
}

// Status reports load state
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.payload == nil {
		return Status{}
	}
	loadedAt := s.loadedAt
	return Status{
		Loaded:       true,
		Source:       s.source,
		LoadedAt:     &loadedAt,
		LastUpdated:  s.payload.LastUpdated.String(),
		Models:       len(s.payload.Models),
		Observations: len(s.payload.HistoricalData),
	}
}
