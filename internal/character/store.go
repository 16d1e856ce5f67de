// Package character owns the character sheet and the activity log. It applies
// score arithmetic, persists both documents, and notifies listeners about
// mutations other services care about.
package character

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mudler/xlog"

	"github.com/jmccallister93/Daily-Digits/internal/persist"
	"github.com/jmccallister93/Daily-Digits/internal/store"
)

// EventKind identifies a store mutation.
type EventKind int

const (
	ActivityLogged EventKind = iota
	ActivityEdited
	CategoryAdded
	CategoryUpdated
	CategoryDeleted
)

func (k EventKind) String() string {
	switch k {
	case ActivityLogged:
		return "activity_logged"
	case ActivityEdited:
		return "activity_edited"
	case CategoryAdded:
		return "category_added"
	case CategoryUpdated:
		return "category_updated"
	case CategoryDeleted:
		return "category_deleted"
	}
	return "unknown"
}

// Event describes a mutation. Stats and Points are set for activity events.
type Event struct {
	Kind       EventKind
	CategoryID string
	Stats      []string
	Points     int
}

// Listener receives events after the store has released its lock, so it may
// call back into the store.
type Listener func(Event)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to date activity log entries.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Store is the Character Store. All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	sheet *CharacterSheet
	log   []ActivityLogEntry

	docs    persist.Documents
	clock   clockwork.Clock
	loading atomic.Bool

	sheetWriter *persist.Writer
	logWriter   *persist.Writer

	listenersMu sync.Mutex
	listeners   []Listener
}

// New creates a store backed by docs. The store reports IsLoading until Load
// returns; mutations made before then are not persisted.
func New(docs persist.Documents, opts ...Option) *Store {
	s := &Store{
		sheet: DefaultSheet(),
		clock: clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(s)
	}
	s.loading.Store(true)
	s.sheetWriter = persist.NewWriter(docs, store.KeyCharacterSheet, s.snapshotSheet)
	s.logWriter = persist.NewWriter(docs, store.KeyActivityLog, s.snapshotLog)
	s.docs = docs
	return s
}

// Load reads both documents. A missing sheet yields the default sheet; a
// missing log yields an empty log. Read and parse failures are logged and the
// defaults are kept.
func (s *Store) Load() {
	sheet, seed := s.loadSheet()
	entries := s.loadLog()

	s.mu.Lock()
	s.sheet = sheet
	s.log = entries
	s.mu.Unlock()

	s.loading.Store(false)
	// First launch: store the default sheet right away.
	if seed {
		s.sheetWriter.Flush()
	}
	xlog.Info("Character store loaded", "categories", sheet.Categories.Len(), "activities", len(entries))
}

// loadSheet reports seed when no sheet has ever been stored.
func (s *Store) loadSheet() (sheet *CharacterSheet, seed bool) {
	data, ok, err := s.docs.GetDocument(store.KeyCharacterSheet)
	if err != nil {
		xlog.Error("Failed to read character sheet", "error", err)
		return DefaultSheet(), false
	}
	if !ok {
		return DefaultSheet(), true
	}
	sheet = NewCharacterSheet()
	if err := json.Unmarshal(data, sheet); err != nil {
		xlog.Error("Failed to parse character sheet", "error", err)
		return DefaultSheet(), false
	}
	for pair := sheet.Categories.Oldest(); pair != nil; pair = pair.Next() {
		c := pair.Value
		if c == nil {
			c = &Category{}
			sheet.Categories.Set(pair.Key, c)
		}
		if c.ID == "" {
			c.ID = pair.Key
		}
		c.recomputeScore()
	}
	return sheet, false
}

func (s *Store) loadLog() []ActivityLogEntry {
	data, ok, err := s.docs.GetDocument(store.KeyActivityLog)
	if err != nil {
		xlog.Error("Failed to read activity log", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var entries []ActivityLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		xlog.Error("Failed to parse activity log", "error", err)
		return nil
	}
	return entries
}

// IsLoading reports whether Load has not yet completed.
func (s *Store) IsLoading() bool {
	return s.loading.Load()
}

// Close flushes pending writes.
func (s *Store) Close() {
	s.sheetWriter.Close()
	s.logWriter.Close()
}

// Subscribe registers a listener for store events.
func (s *Store) Subscribe(l Listener) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenersMu.Unlock()
}

func (s *Store) emit(ev Event) {
	s.listenersMu.Lock()
	ls := append([]Listener(nil), s.listeners...)
	s.listenersMu.Unlock()
	for _, l := range ls {
		l(ev)
	}
}

// Sheet returns a deep copy of the character sheet.
func (s *Store) Sheet() *CharacterSheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sheet.Clone()
}

// ActivityLog returns a copy of the log in insertion order.
func (s *Store) ActivityLog() []ActivityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ActivityLogEntry, len(s.log))
	for i, e := range s.log {
		out[i] = e.clone()
	}
	return out
}

// Activity returns the log entry with the given id.
func (s *Store) Activity(id string) (ActivityLogEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.activityIndex(id); i >= 0 {
		return s.log[i].clone(), true
	}
	return ActivityLogEntry{}, false
}

// Category returns a copy of the category with the given id.
func (s *Store) Category(id string) (Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sheet.Category(id)
	if !ok {
		return Category{}, false
	}
	return *c.clone(), true
}

// StatExists reports whether the category exists and has the named attribute.
func (s *Store) StatExists(categoryID, statName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sheet.Category(categoryID)
	return ok && c.statIndex(statName) >= 0
}

func (s *Store) sheetChanged() {
	if !s.loading.Load() {
		s.sheetWriter.Kick()
	}
}

func (s *Store) logChanged() {
	if !s.loading.Load() {
		s.logWriter.Kick()
	}
}

func (s *Store) snapshotSheet() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.sheet)
}

func (s *Store) snapshotLog() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.log == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.log)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
