package history

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/evaluation"
	"github.com/spigell/cv-evaluator/internal/logger"
)

var (
	ErrDuplicateID  = errors.New("history entry with this id already exists")
	ErrInvalidEntry = errors.New("invalid history entry")
)

// Entry is one completed evaluation.
type Entry struct {
	ID         string             `json:"id"`
	FileName   string             `json:"fileName"`
	FileType   string             `json:"fileType"`
	Date       time.Time          `json:"date"`
	Content    string             `json:"content"`
	Evaluation *evaluation.Result `json:"evaluation"`
}

// PersistError reports that a mutation was applied in memory but could not be
// written to storage.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist history after %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Cache is the newest-first evaluation history. Every mutation rewrites the
// whole collection to storage.
type Cache struct {
	mu      sync.RWMutex
	entries []*Entry
	storage Storage
	logger  *zap.Logger
}

// New loads the history from storage once. A nil storage keeps the history in
// memory only.
func New(storage Storage, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if storage == nil {
		storage = NewMemoryStorage()
	}

	entries, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	log.Debug("history loaded", zap.Int("entries", len(entries)))

	return &Cache{entries: entries, storage: storage, logger: log}, nil
}

// Add inserts entry at the front. The id must be unique.
func (c *Cache) Add(entry *Entry) error {
	if entry == nil || strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEntry)
	}
	if entry.Evaluation == nil {
		return fmt.Errorf("%w: evaluation is required", ErrInvalidEntry)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(entry.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
	}

	stored := *entry
	c.entries = append([]*Entry{&stored}, c.entries...)

	c.logger.Debug("history entry added", zap.String(logger.FieldEntryID, entry.ID))

	return c.persist("add")
}

// Remove deletes the entry with id. Unknown ids are ignored.
func (c *Cache) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return nil
	}

	c.entries = append(c.entries[:idx:idx], c.entries[idx+1:]...)

	c.logger.Debug("history entry removed", zap.String(logger.FieldEntryID, id))

	return c.persist("remove")
}

// Clear drops every entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = nil

	return c.persist("clear")
}

// Get returns a copy of the entry with id.
func (c *Cache) Get(id string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return nil, false
	}

	entry := *c.entries[idx]
	return &entry, true
}

// List returns a newest-first snapshot.
func (c *Cache) List() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return snapshot(c.entries)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache) indexOf(id string) int {
	for i, entry := range c.entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

// persist must be called with the write lock held.
func (c *Cache) persist(op string) error {
	if err := c.storage.Save(snapshot(c.entries)); err != nil {
		return &PersistError{Op: op, Err: err}
	}
	return nil
}

func snapshot(entries []*Entry) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for _, entry := range entries {
		copied := *entry
		out = append(out, &copied)
	}
	return out
}
