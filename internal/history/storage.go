package history

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Namespace is the key the history is persisted under.
const Namespace = "cv-evaluation-history"

const envelopeVersion = 0

// Storage loads and saves the whole history at once.
type Storage interface {
	// Load returns the persisted entries, newest first. Nothing persisted yet
	// is not an error.
	Load() ([]*Entry, error)
	Save(entries []*Entry) error
}

type envelope struct {
	State   envelopeState `json:"state"`
	Version int           `json:"version"`
}

type envelopeState struct {
	Evaluations []*Entry `json:"evaluations"`
}

func encodeEnvelope(entries []*Entry) ([]byte, error) {
	if entries == nil {
		entries = []*Entry{}
	}

	data, err := json.Marshal(envelope{
		State:   envelopeState{Evaluations: entries},
		Version: envelopeVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}

	return data, nil
}

func decodeEnvelope(data []byte) ([]*Entry, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	entries := make([]*Entry, 0, len(env.State.Evaluations))
	for _, entry := range env.State.Evaluations {
		if entry == nil || entry.ID == "" {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// MemoryStorage keeps the encoded history in memory.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load() ([]*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return nil, nil
	}

	return decodeEnvelope(s.data)
}

func (s *MemoryStorage) Save(entries []*Entry) error {
	data, err := encodeEnvelope(entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data

	return nil
}

// Bytes returns the last saved envelope.
func (s *MemoryStorage) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]byte(nil), s.data...)
}
