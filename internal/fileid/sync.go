package fileid

import "sync"

// Synchronized serializes access to an Assigner shared between goroutines.
type Synchronized struct {
	mu sync.Mutex
	a  Assigner
}

// NewSynchronized wraps a.
func NewSynchronized(a Assigner) *Synchronized {
	return &Synchronized{a: a}
}

// IDFromPath calls the wrapped Assigner under a lock.
func (s *Synchronized) IDFromPath(p Path) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.IDFromPath(p)
}

// Records returns the wrapped Assigner's records when it keeps any.
func (s *Synchronized) Records() []FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.a.(interface{ Records() []FileRecord }); ok {
		return r.Records()
	}
	return nil
}

// Seed forwards to the wrapped Assigner when it is a Seeder.
func (s *Synchronized) Seed(known map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sd, ok := s.a.(Seeder); ok {
		sd.Seed(known)
	}
}
