package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"postpilot/models"
)

// HistoryStore is the append-only publish history. Records are never
// mutated after they are written.
type HistoryStore struct {
	mu sync.Mutex
	kv KV
}

func NewHistoryStore(kv KV) *HistoryStore {
	return &HistoryStore{kv: kv}
}

// Append adds one record to the history.
func (s *HistoryStore) Append(ctx context.Context, record models.PublishedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	records = append(records, record)
	return s.save(ctx, records)
}

// List returns the full history in insertion order.
func (s *HistoryStore) List(ctx context.Context) ([]models.PublishedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *HistoryStore) load(ctx context.Context) ([]models.PublishedRecord, error) {
	raw, err := s.kv.Load(ctx, KeyPublishHistory)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var records []models.PublishedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("corrupt publish history: %w", err)
	}
	return records, nil
}

func (s *HistoryStore) save(ctx context.Context, records []models.PublishedRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.kv.Save(ctx, KeyPublishHistory, raw)
}
