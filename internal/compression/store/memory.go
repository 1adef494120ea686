package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shandysiswandi/compressdash/internal/compression/entity"
	"github.com/shandysiswandi/compressdash/internal/pkg/pkgerror"
)

// Lister fetches the full record listing from the remote service.
type Lister interface {
	ListFiles(ctx context.Context) ([]entity.CompressionRecord, error)
}

type Clock interface {
	Now() time.Time
}

// InMemoryStore caches the latest complete listing. Readers always get a full
// snapshot, never a partially refreshed one.
type InMemoryStore struct {
	lister Lister
	clock  Clock
	group  singleflight.Group

	mu        sync.RWMutex
	records   []entity.CompressionRecord
	fetchedAt time.Time
}

func NewInMemoryStore(lister Lister, clock Clock) *InMemoryStore {
	if clock == nil {
		clock = realClock{}
	}

	return &InMemoryStore{
		lister: lister,
		clock:  clock,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Refresh replaces the cache with a fresh listing. Concurrent callers share a
// single outstanding fetch. On failure the previous snapshot stays in place and
// the returned error wraps pkgerror.ErrStaleData.
//
// The shared fetch is detached from the caller that started it, so that
// caller going away does not fail the others; it stays bounded by the client
// timeout. Each caller still stops waiting when its own ctx is done.
func (s *InMemoryStore) Refresh(ctx context.Context) error {
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("refresh", func() (any, error) {
		records, err := s.lister.ListFiles(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.replace(fetchCtx, records)
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			slog.WarnContext(ctx, "refresh failed, serving previous snapshot", "error", res.Err)
			return fmt.Errorf("%w: %w", pkgerror.ErrStaleData, res.Err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", pkgerror.ErrStaleData, ctx.Err())
	}
}

func (s *InMemoryStore) replace(ctx context.Context, records []entity.CompressionRecord) {
	seen := make(map[string]struct{}, len(records))
	next := make([]entity.CompressionRecord, 0, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			slog.WarnContext(ctx, "skip duplicate record id", "id", rec.ID)
			continue
		}
		seen[rec.ID] = struct{}{}
		next = append(next, rec)
	}

	now := s.clock.Now()

	s.mu.Lock()
	s.records = next
	s.fetchedAt = now
	s.mu.Unlock()
}

// Add makes rec visible immediately. A record with a known id is replaced in place.
func (s *InMemoryStore) Add(rec entity.CompressionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.records)
	if i := slices.IndexFunc(next, func(r entity.CompressionRecord) bool { return r.ID == rec.ID }); i >= 0 {
		next[i] = rec
	} else {
		next = append(next, rec)
	}
	s.records = next
}

// Snapshot returns a copy of every cached record in store order.
func (s *InMemoryStore) Snapshot() []entity.CompressionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.CompressionRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *InMemoryStore) Get(id string) (entity.CompressionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return entity.CompressionRecord{}, pkgerror.ErrNotFound
}

// FetchedAt is the time of the last successful refresh, zero before the first one.
func (s *InMemoryStore) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.fetchedAt
}

// Filter returns the records whose filename contains query, ignoring case.
// An empty query matches everything.
func (s *InMemoryStore) Filter(query string) []entity.CompressionRecord {
	records := s.Snapshot()

	if query == "" {
		return records
	}

	query = strings.ToLower(query)
	matches := make([]entity.CompressionRecord, 0, len(records))
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Filename), query) {
			matches = append(matches, rec)
		}
	}
	return matches
}

// MostRecent returns up to n records, newest first; equal timestamps keep store order.
func (s *InMemoryStore) MostRecent(n int) []entity.CompressionRecord {
	if n <= 0 {
		return []entity.CompressionRecord{}
	}

	records := s.Snapshot()
	slices.SortStableFunc(records, func(a, b entity.CompressionRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if len(records) > n {
		records = records[:n]
	}
	return records
}
