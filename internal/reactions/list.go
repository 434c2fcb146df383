package reactions

import "sync"

// Observer is notified after a batch of reaction data has been applied
// to the list, with the indices that changed. How to re-render is the
// subscriber's business.
type Observer func(updatedIndices []int)

// List is the shared, mutable message list one search produced. The
// loader borrows it and only ever writes the Reactions field of the
// entries it was given; readers take snapshots. Each search builds a
// fresh List, so a stale loader invocation finishing late writes into
// its own list and never corrupts a newer search's results.
type List struct {
	mu        sync.RWMutex
	messages  []Message
	observers []Observer
}

// NewList takes ownership of messages. The caller must not splice or
// reorder the backing slice afterwards; read through Snapshot instead.
func NewList(messages []Message) *List {
	owned := make([]Message, len(messages))
	copy(owned, messages)
	return &List{messages: owned}
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Snapshot returns a copy of the current messages. Reaction slices are
// shared but immutable once applied.
func (l *List) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Subscribe registers an observer for batch-applied notifications.
func (l *List) Subscribe(fn Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// ApplyReactions stores a fetched reaction set on one entry. An empty
// slice is stored as-is to mark the entry as fetched. Out-of-range
// indices are ignored.
func (l *List) ApplyReactions(index int, reactions []Reaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.messages) {
		return
	}
	l.messages[index].Reactions = reactions
}

// NotifyApplied tells subscribers which entries changed. Observers run
// outside the list lock.
func (l *List) NotifyApplied(updatedIndices []int) {
	l.mu.RLock()
	observers := make([]Observer, len(l.observers))
	copy(observers, l.observers)
	l.mu.RUnlock()

	for _, fn := range observers {
		fn(updatedIndices)
	}
}
