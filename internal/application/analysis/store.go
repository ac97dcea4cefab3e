package analysis

import (
	"sync"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// State is the snapshot readers see: the latest result and whether an
// analysis is running.
type State struct {
	Results     *domain.Result `json:"results"`
	IsAnalyzing bool           `json:"isAnalyzing"`
}

// Store holds the latest analysis for whoever owns it (request handler, CLI).
// Every change is pushed to subscribers; the newest state replaces an unread
// older one so a slow reader never blocks a writer.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  map[int]chan State
	next  int
}

func NewStore() *Store {
	return &Store{subs: make(map[int]chan State)}
}

func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) SetResults(r *domain.Result) {
	s.update(func(st *State) { st.Results = r })
}

func (s *Store) SetIsAnalyzing(b bool) {
	s.update(func(st *State) { st.IsAnalyzing = b })
}

// Reset returns the store to {nil, false}.
func (s *Store) Reset() {
	s.update(func(st *State) { *st = State{} })
}

// Subscribe returns a channel receiving every state change and a cancel
// func that closes it.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan State, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
	snapshot := s.state
	for _, ch := range s.subs {
		// drop the unread snapshot, keep the newest
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}
