package vault

import (
	"bytes"
	"context"
	"sync"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*KeyRecord
}

var _ RecordStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*KeyRecord)}
}

func (m *MemoryStore) Put(_ context.Context, rec *KeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.Path]; ok {
		return ErrDuplicate
	}
	m.records[rec.Path] = copyRecord(rec)

	return nil
}

func (m *MemoryStore) Get(_ context.Context, path string) (*KeyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[path]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "key path %s", path)
	}

	return copyRecord(rec), nil
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[path]; !ok {
		return errs.New(errs.KindNotFound, "key path %s", path)
	}
	delete(m.records, path)

	return nil
}

func copyRecord(rec *KeyRecord) *KeyRecord {
	out := *rec
	out.Ciphertext = bytes.Clone(rec.Ciphertext)
	out.Nonce = bytes.Clone(rec.Nonce)
	out.Tag = bytes.Clone(rec.Tag)

	return &out
}
