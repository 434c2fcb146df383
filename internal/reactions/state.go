package reactions

import "sync"

// stateBuffer bounds how many unread state updates a slow subscriber
// can queue before updates are dropped. Subscribers always converge on
// the final state because Snapshot is authoritative.
const stateBuffer = 16

// StateStore holds the process-wide LoadingState: single writer (the
// loader), many readers (the UI). Each publish fans out to
// subscribers without blocking the loader.
type StateStore struct {
	mu    sync.Mutex
	state LoadingState
	subs  []chan LoadingState
}

func NewStateStore() *StateStore {
	return &StateStore{}
}

// Snapshot returns the current state.
func (s *StateStore) Snapshot() LoadingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel receiving every published state change.
// Updates are dropped, not blocked on, when the subscriber lags.
func (s *StateStore) Subscribe() <-chan LoadingState {
	ch := make(chan LoadingState, stateBuffer)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// Reset starts a new loader invocation: counters are reinitialized and
// is_loading goes true. alreadyLoaded counts messages that had
// reactions before the loader ran.
func (s *StateStore) Reset(alreadyLoaded, total int) {
	s.mu.Lock()
	s.state = LoadingState{
		IsLoading:   true,
		LoadedCount: alreadyLoaded,
		TotalCount:  total,
	}
	s.publishLocked()
	s.mu.Unlock()
}

// ApplyBatch folds one completed batch into the counters.
func (s *StateStore) ApplyBatch(successes, failures int) {
	s.mu.Lock()
	s.state.LoadedCount += successes
	s.state.ErrorCount += failures
	s.publishLocked()
	s.mu.Unlock()
}

// Finish marks the invocation done, success or exhausted.
func (s *StateStore) Finish() {
	s.mu.Lock()
	s.state.IsLoading = false
	s.publishLocked()
	s.mu.Unlock()
}

func (s *StateStore) publishLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- s.state:
		default:
		}
	}
}
