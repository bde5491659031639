package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"tradedesk/internal/storage"
)

// maxQueryK bounds how many matches a single query may return.
const maxQueryK = 10

// Entry is one stored (situation, advice, outcome) triple. Entries are
// append-only and their embeddings never change after storage.
type Entry struct {
	ID        int64
	Embedding []float64
	Situation string
	Advice    string
	Outcome   *float64
}

// Match pairs an entry with its similarity to the query.
type Match struct {
	Entry      Entry
	Similarity float64
}

// SituationMemory is a similarity-indexed archive of past situations.
// Similarity is cosine; this choice is fixed so query ordering stays
// reproducible. Reads take a shared lock, appends are serialized by the
// exclusive lock and never block concurrent queries for long.
type SituationMemory struct {
	name     string
	embedder Embedder
	store    *storage.Store

	mu      sync.RWMutex
	entries []Entry
}

// New creates a memory bank. A nil store keeps the bank in-process only;
// otherwise previously persisted entries are loaded and appends write
// through.
func New(name string, embedder Embedder, store *storage.Store) (*SituationMemory, error) {
	m := &SituationMemory{
		name:     name,
		embedder: embedder,
		store:    store,
	}
	if store != nil {
		rows, err := store.LoadMemories(name)
		if err != nil {
			return nil, fmt.Errorf("load memory bank %s: %w", name, err)
		}
		for _, r := range rows {
			m.entries = append(m.entries, Entry{
				ID:        r.ID,
				Embedding: r.Embedding,
				Situation: r.Situation,
				Advice:    r.Advice,
				Outcome:   r.Outcome,
			})
		}
	}
	return m, nil
}

// Store appends one entry. Existing entries are never overwritten;
// corrections are stored as new entries.
func (m *SituationMemory) Store(ctx context.Context, situation, advice string, outcome *float64) error {
	vec, err := m.embedder.Embed(ctx, situation)
	if err != nil {
		return fmt.Errorf("embed situation: %w", err)
	}

	entry := Entry{
		Embedding: vec,
		Situation: situation,
		Advice:    advice,
		Outcome:   outcome,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		id, err := m.store.AppendMemory(storage.MemoryRow{
			Bank:      m.name,
			Situation: situation,
			Advice:    advice,
			Outcome:   outcome,
			Embedding: vec,
		})
		if err != nil {
			return err
		}
		entry.ID = id
	} else {
		entry.ID = int64(len(m.entries) + 1)
	}

	m.entries = append(m.entries, entry)
	return nil
}

// Query returns up to k entries ordered by descending similarity, ties
// broken by insertion order (oldest first). A query over an empty bank
// returns an empty slice, never an error.
func (m *SituationMemory) Query(ctx context.Context, situation string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	if k > maxQueryK {
		k = maxQueryK
	}

	if m.Len() == 0 {
		return nil, nil
	}

	// The embedder may make a network round trip; embedding outside the
	// lock keeps a slow query from stalling appends.
	vec, err := m.embedder.Embed(ctx, situation)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.entries))
	for _, e := range m.entries {
		matches = append(matches, Match{Entry: e, Similarity: cosine(vec, e.Embedding)})
	}

	// Entries are already in insertion order, so a stable sort preserves
	// oldest-first among equal similarities.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len reports the number of stored entries.
func (m *SituationMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
