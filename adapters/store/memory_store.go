package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/ethauth/core"
	"github.com/layer-3/ethauth/ports"
)

// pruneEvery bounds how often a write that creates a session also sweeps
// expired ones.
const pruneEvery = time.Minute

// MemoryStore is an in-memory implementation of the SessionStore interface.
// It is suitable for a single instance; state is lost on restart.
type MemoryStore struct {
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
	pruned   time.Time
	mu       sync.Mutex
}

type memorySession struct {
	nonce         string
	nonceExpiry   time.Time
	address       string
	addressExpiry time.Time
}

var _ ports.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory session store. Fields expire ttl after
// their last write; a zero ttl keeps them forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the live fields of a session
func (s *MemoryStore) Get(ctx context.Context, handle string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := core.Session{Handle: handle}
	entry := s.lookupLocked(handle)
	if entry != nil {
		session.Nonce = entry.nonce
		session.Address = entry.address
	}
	return session, nil
}

// SetNonce binds a nonce, replacing any pending one
func (s *MemoryStore) SetNonce(ctx context.Context, handle, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entryLocked(handle)
	entry.nonce = nonce
	entry.nonceExpiry = s.expiry()
	return nil
}

// TakeNonce returns and clears the pending nonce under the store lock
func (s *MemoryStore) TakeNonce(ctx context.Context, handle string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.lookupLocked(handle)
	if entry == nil {
		return "", nil
	}
	nonce := entry.nonce
	entry.nonce = ""
	entry.nonceExpiry = time.Time{}
	s.dropIfEmptyLocked(handle, entry)
	return nonce, nil
}

// SetAddress records the verified address of a session
func (s *MemoryStore) SetAddress(ctx context.Context, handle, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entryLocked(handle)
	entry.address = address
	entry.addressExpiry = s.expiry()
	return nil
}

// ClearAddress forgets the verified address, leaving any pending nonce
func (s *MemoryStore) ClearAddress(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.lookupLocked(handle)
	if entry == nil {
		return nil
	}
	entry.address = ""
	entry.addressExpiry = time.Time{}
	s.dropIfEmptyLocked(handle, entry)
	return nil
}

// Sweep drops every session whose fields have all expired and returns how
// many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

// RunJanitor sweeps the store every interval until ctx is done
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len returns the number of sessions holding any state
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *MemoryStore) expired(at time.Time) bool {
	return !at.IsZero() && !s.now().Before(at)
}

// lookupLocked returns the entry for handle after evicting expired fields.
// Caller must hold mu.
func (s *MemoryStore) lookupLocked(handle string) *memorySession {
	entry, ok := s.sessions[handle]
	if !ok {
		return nil
	}
	if entry.nonce != "" && s.expired(entry.nonceExpiry) {
		entry.nonce = ""
		entry.nonceExpiry = time.Time{}
	}
	if entry.address != "" && s.expired(entry.addressExpiry) {
		entry.address = ""
		entry.addressExpiry = time.Time{}
	}
	if s.dropIfEmptyLocked(handle, entry) {
		return nil
	}
	return entry
}

func (s *MemoryStore) entryLocked(handle string) *memorySession {
	if entry := s.lookupLocked(handle); entry != nil {
		return entry
	}
	if s.ttl > 0 && s.now().Sub(s.pruned) >= pruneEvery {
		s.sweepLocked()
	}
	entry := &memorySession{}
	s.sessions[handle] = entry
	return entry
}

func (s *MemoryStore) sweepLocked() int {
	s.pruned = s.now()
	removed := 0
	for handle := range s.sessions {
		if s.lookupLocked(handle) == nil {
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) dropIfEmptyLocked(handle string, entry *memorySession) bool {
	if entry.nonce == "" && entry.address == "" {
		delete(s.sessions, handle)
		return true
	}
	return false
}
