package auth

import (
	"context"
	"sync"
)

// CredentialStore persists at most one Token per identifier.
//
// Stores provide no cross-process locking: concurrent writers to the same identifier race and the last write wins.
type CredentialStore interface {
	// Load returns the cached token. found is false, with a nil error, when nothing is stored under id.
	// Unreadable data yields a [CacheCorruptError].
	Load(ctx context.Context, id string) (tok *Token, found bool, err error)

	// Save overwrites any token stored under id.
	Save(ctx context.Context, id string, tok *Token) error

	// Delete removes the token stored under id. Deleting a missing entry is not an error.
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-process [CredentialStore]. Entries are kept in their encoded form so reads go through the same decoding as persistent stores.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Token, bool, error) {
	s.mu.Lock()
	data, ok := s.records[id]
	s.mu.Unlock()

	if !ok {
		return nil, false, nil
	}

	tok, err := DecodeCredential(data)
	if err != nil {
		return nil, false, &CacheCorruptError{ID: id, Err: err}
	}
	return tok, true, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, tok *Token) error {
	data, err := EncodeCredential(tok)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = data
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// Put stores raw bytes under id, bypassing encoding.
func (s *MemoryStore) Put(id string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = data
}
