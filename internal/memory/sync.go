package memory

import (
	"context"
	"sort"

	"moneytrack/internal/ports"
)

func (s *Store) PendingSync(_ context.Context, limit int) ([]ports.PendingSync, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.PendingSync
	for id, r := range s.items {
		if r.status == ports.SyncPending {
			out = append(out, ports.PendingSync{ID: id, Version: r.tx.Version, Attempts: r.attempts})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.items[id]; ok && r.tx.Version == version {
		r.status = ports.SyncSynced
	}
	return nil
}

func (s *Store) MarkSyncError(_ context.Context, id int64, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.items[id]; ok {
		r.attempts++
		if r.attempts >= int64(maxAttempts) {
			r.status = ports.SyncError
		}
	}
	return nil
}

func (s *Store) PendingDeletions(_ context.Context, limit int) ([]ports.PendingSync, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.PendingSync
	for id, d := range s.deletions {
		if d.status == ports.SyncPending {
			out = append(out, ports.PendingSync{ID: id, Attempts: d.attempts})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkDeletionSynced(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deletions, id)
	return nil
}

func (s *Store) MarkDeletionError(_ context.Context, id int64, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.deletions[id]; ok {
		d.attempts++
		if d.attempts >= int64(maxAttempts) {
			d.status = ports.SyncError
		}
	}
	return nil
}

// SyncStatus reports the mirror state of a transaction.
func (s *Store) SyncStatus(id int64) (ports.SyncStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return "", false
	}
	return r.status, true
}
