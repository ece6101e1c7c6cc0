package editflow

import (
	"sync"
)

// Documented UiState keys. Anything beyond these three is page-private.
const (
	KeyIsEditable         = "/isEditable"
	KeyDraftStatus        = "/draftStatus"
	KeyIsDocumentModified = "/isDocumentModified"
)

// DraftStatus is the value space of KeyDraftStatus.
type DraftStatus string

const (
	DraftStatusClear  DraftStatus = "Clear"
	DraftStatusSaving DraftStatus = "Saving"
	DraftStatusSaved  DraftStatus = "Saved"
)

// UiState is the reactive property bag the edit flow publishes page state
// through. Implementations must deliver notifications for every Set that
// changes a key's value; delivery order per key follows set order.
type UiState interface {
	Get(key string) any
	Set(key string, value any)
	// Subscribe registers a change listener for one key and returns its
	// deregistration func.
	Subscribe(key string, fn func(old, new any)) func()
}

// MemoryUiState is the in-memory UiState used by tests and standalone hosts.
type MemoryUiState struct {
	mu     sync.Mutex
	values map[string]any
	subs   map[string]map[int]func(old, new any)
	nextID int
}

// NewMemoryUiState returns a state bag with edit mode off and a clear draft
// status.
func NewMemoryUiState() *MemoryUiState {
	return &MemoryUiState{
		values: map[string]any{
			KeyIsEditable:         false,
			KeyDraftStatus:        DraftStatusClear,
			KeyIsDocumentModified: false,
		},
		subs: map[string]map[int]func(old, new any){},
	}
}

func (s *MemoryUiState) Get(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *MemoryUiState) Set(key string, value any) {
	s.mu.Lock()
	old, had := s.values[key]
	s.values[key] = value
	var listeners []func(old, new any)
	if had && old == value {
		s.mu.Unlock()
		return
	}
	for _, fn := range s.subs[key] {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(old, value)
	}
}

func (s *MemoryUiState) Subscribe(key string, fn func(old, new any)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[key] == nil {
		s.subs[key] = map[int]func(old, new any){}
	}
	id := s.nextID
	s.nextID++
	s.subs[key][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
	}
}

// IsEditable is a typed convenience over Get(KeyIsEditable).
func IsEditable(state UiState) bool {
	editable, _ := state.Get(KeyIsEditable).(bool)
	return editable
}
