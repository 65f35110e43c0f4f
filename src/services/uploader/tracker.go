package uploader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// Entry is the tracked state of one upload, as rendered in the pending
// section of the document views.
type Entry struct {
	Key        string
	Filename   string
	FilePath   string
	DocumentID string
	Phase      Phase
	Message    string
	StartedAt  time.Time

	// Global uploads go to the shared corpus through the admin endpoint.
	Global      bool
	Description string
	Tags        []string
}

// EventKind tells the UI what happened to an entry.
type EventKind int

const (
	// EventUpdated means the entry changed phase or message.
	EventUpdated EventKind = iota
	// EventCompleted means the upload finished well and the entry was
	// removed after its ready grace period. Emitted exactly once per
	// successful upload; the document list should be re-fetched on it.
	EventCompleted
	// EventRemoved means the entry was dismissed without success.
	EventRemoved
)

// Event notifies the UI about one entry. Entry is a snapshot taken under
// the tracker lock.
type Event struct {
	Kind  EventKind
	Entry Entry
}

// Tracker is the registry of in-flight uploads. Each entry advances on its
// own; concurrent uploads never touch each other's state. One tracker is
// created per application instance and handed to whoever needs it.
type Tracker struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string

	events chan Event
}

func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		logger:  logger.With("component", "uploader"),
		entries: make(map[string]*Entry),
		events:  make(chan Event, 64),
	}
}

// NewKey builds the local identity of an upload before the backend has
// assigned a document id: the file name plus the start timestamp.
func NewKey(filename string) string {
	return fmt.Sprintf("%s-%d", filepath.Base(filename), time.Now().UnixNano())
}

// Events is the stream the UI subscribes to.
func (t *Tracker) Events() <-chan Event {
	return t.events
}

// Entries returns a snapshot of every tracked upload in start order.
func (t *Tracker) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snapshot := make([]Entry, 0, len(t.order))
	for _, key := range t.order {
		if entry, ok := t.entries[key]; ok {
			snapshot = append(snapshot, *entry)
		}
	}
	return snapshot
}

// Get returns the entry for a key, if it is still tracked.
func (t *Tracker) Get(key string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Dismiss drops a terminal entry the user no longer wants to see.
func (t *Tracker) Dismiss(key string) {
	t.mu.Lock()
	entry, ok := t.entries[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	snapshot := *entry
	t.remove(key)
	t.mu.Unlock()

	t.emit(Event{Kind: EventRemoved, Entry: snapshot})
}

// Reset drops every tracked entry, used when the session ends. Pollers
// still running for dropped keys become no-ops.
func (t *Tracker) Reset() {
	t.mu.Lock()
	snapshots := make([]Entry, 0, len(t.order))
	for _, key := range t.order {
		if entry, ok := t.entries[key]; ok {
			snapshots = append(snapshots, *entry)
		}
	}
	t.entries = make(map[string]*Entry)
	t.order = nil
	t.mu.Unlock()

	for _, snapshot := range snapshots {
		t.emit(Event{Kind: EventRemoved, Entry: snapshot})
	}
}

func (t *Tracker) register(entry Entry) {
	t.mu.Lock()
	copied := entry
	t.entries[entry.Key] = &copied
	t.order = append(t.order, entry.Key)
	snapshot := copied
	t.mu.Unlock()

	t.emit(Event{Kind: EventUpdated, Entry: snapshot})
}

// update mutates one entry under the lock and emits the given event kind.
// Completed entries are removed before the event goes out.
func (t *Tracker) update(key string, kind EventKind, mutate func(*Entry)) {
	t.mu.Lock()
	entry, ok := t.entries[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	if mutate != nil {
		mutate(entry)
	}
	snapshot := *entry
	if kind == EventCompleted {
		t.remove(key)
	}
	t.mu.Unlock()

	t.emit(Event{Kind: kind, Entry: snapshot})
}

// remove expects the lock to be held.
func (t *Tracker) remove(key string) {
	delete(t.entries, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *Tracker) emit(event Event) {
	select {
	case t.events <- event:
	default:
		// The UI stopped draining; dropping the event keeps pollers alive
		// and the next snapshot read repairs the view.
		t.logger.Warn("Dropped upload event", "key", event.Entry.Key, "kind", event.Kind)
	}
}
