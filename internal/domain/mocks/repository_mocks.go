package mocks

import (
	"context"
	"sync"

	"github.com/dmaynor/bandicoot/internal/domain"
)

// MockRecordRepository is a mock implementation of domain.RecordRepository
// for testing. It dedups on FilePath the same way the real store does.
type MockRecordRepository struct {
	mu               sync.Mutex
	Records          []domain.CrashRecord
	SchemaCalls      int
	SchemaErr        error
	PersistErr       error
	ListErr          error
	UpdateErr        error
	nextID           int64
	UpdatedNotations map[int64]string
}

func (m *MockRecordRepository) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SchemaCalls++
	return m.SchemaErr
}

func (m *MockRecordRepository) Persist(ctx context.Context, records []domain.CrashRecord) (int64, []domain.CrashRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PersistErr != nil {
		return 0, nil, m.PersistErr
	}
	known := make(map[string]struct{}, len(m.Records))
	for _, rec := range m.Records {
		known[rec.FilePath] = struct{}{}
	}
	var added []domain.CrashRecord
	for _, rec := range records {
		if _, ok := known[rec.FilePath]; ok {
			continue
		}
		m.nextID++
		rec.ID = m.nextID
		known[rec.FilePath] = struct{}{}
		m.Records = append(m.Records, rec)
		added = append(added, rec)
	}
	return int64(len(m.Records)), added, nil
}

func (m *MockRecordRepository) ListRecords(ctx context.Context) ([]domain.CrashRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]domain.CrashRecord, len(m.Records))
	copy(out, m.Records)
	return out, nil
}

func (m *MockRecordRepository) UpdateNotation(ctx context.Context, id int64, notation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for i := range m.Records {
		if m.Records[i].ID == id {
			m.Records[i].Notation = notation
			if m.UpdatedNotations == nil {
				m.UpdatedNotations = make(map[int64]string)
			}
			m.UpdatedNotations[id] = notation
			return nil
		}
	}
	return domain.ErrRecordNotFound
}
