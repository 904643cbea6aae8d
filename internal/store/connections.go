package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"postpilot/models"
)

// ConnectionStore holds the active platform connections, at most one per
// platform, under a single fixed key.
type ConnectionStore struct {
	mu sync.Mutex
	kv KV
}

func NewConnectionStore(kv KV) *ConnectionStore {
	return &ConnectionStore{kv: kv}
}

// Set stores the connection, replacing any existing one for the platform.
func (s *ConnectionStore) Set(ctx context.Context, conn models.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.load(ctx)
	if err != nil {
		return err
	}
	conns[conn.Platform] = conn
	return s.save(ctx, conns)
}

// Get returns the active connection for a platform, nil when absent.
func (s *ConnectionStore) Get(ctx context.Context, platform string) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	conn, ok := conns[platform]
	if !ok {
		return nil, nil
	}
	return &conn, nil
}

// Remove disconnects a platform. Purely local, no remote call.
func (s *ConnectionStore) Remove(ctx context.Context, platform string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.load(ctx)
	if err != nil {
		return err
	}
	delete(conns, platform)
	return s.save(ctx, conns)
}

// List returns the redacted views of all connections, ordered by platform.
func (s *ConnectionStore) List(ctx context.Context) ([]models.ConnectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]models.ConnectionInfo, 0, len(conns))
	for _, conn := range conns {
		infos = append(infos, conn.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Platform < infos[j].Platform })
	return infos, nil
}

func (s *ConnectionStore) load(ctx context.Context) (map[string]models.Connection, error) {
	raw, err := s.kv.Load(ctx, KeyConnections)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return make(map[string]models.Connection), nil
	}
	var conns map[string]models.Connection
	if err := json.Unmarshal(raw, &conns); err != nil {
		return nil, fmt.Errorf("corrupt connection map: %w", err)
	}
	return conns, nil
}

func (s *ConnectionStore) save(ctx context.Context, conns map[string]models.Connection) error {
	raw, err := json.Marshal(conns)
	if err != nil {
		return err
	}
	return s.kv.Save(ctx, KeyConnections, raw)
}
