// Package vecindex holds the in-memory semantic index: URL-keyed immutable
// entries with exhaustive cosine search and an optional vantage-point tree.
package vecindex

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
)

// Entry is an indexed bookmark. Entries are never mutated after publication;
// a re-index replaces the pointer.
type Entry struct {
	Record    bookmark.Record
	Vector    []float32
	Magnitude float32
	Version   uint64
}

// Match is a query hit with its score in [0,1].
type Match struct {
	Entry *Entry
	Score float64
}

// Stats describes the index state.
type Stats struct {
	Size       int
	Dimension  int
	Halted     bool
	ANNEnabled bool
	ANNActive  bool
	TreeSize   int
	Pending    int
}

// Option configures an Index.
type Option func(*Index)

// WithANN enables the vantage-point tree once the index holds at least
// minEntries entries.
func WithANN(minEntries int) Option {
	return func(x *Index) {
		x.ann = true
		if minEntries > 0 {
			x.annMin = minEntries
		}
	}
}

// Index maps URL to Entry. Reads never block; writes are serialized.
type Index struct {
	mu      sync.Mutex // writers only
	entries sync.Map   // url -> *Entry
	size    atomic.Int64
	dim     atomic.Int64 // 0 until the first entry
	halted  atomic.Bool
	seq     atomic.Uint64

	ann        bool
	annMin     int
	rebuildMu  sync.Mutex // one tree build at a time
	tree       atomic.Pointer[vpTree]
	dirty      sync.Map // url -> version written after the current tree snapshot
	dirtyCount atomic.Int64
	stale      atomic.Bool
}

// New creates an empty index.
func New(opts ...Option) *Index {
	x := &Index{annMin: 1}
	for _, o := range opts {
		o(x)
	}
	return x
}

// Upsert inserts or replaces the entry for rec.URL() and returns its version.
// A vector whose length differs from the established dimension halts the
// index for writes.
func (x *Index) Upsert(rec bookmark.Record, vector []float32) (uint64, error) {
	if len(vector) == 0 {
		return 0, fmt.Errorf("empty vector: %w", domain.ErrInvalidArgument)
	}
	m := magnitude(vector)
	if !validMagnitude(m) {
		return 0, fmt.Errorf("vector for %q has no usable magnitude: %w", rec.URL(), domain.ErrInvalidArgument)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.halted.Load() {
		return 0, fmt.Errorf("upsert %q: %w", rec.URL(), domain.ErrIndexHalted)
	}
	if dim := int(x.dim.Load()); dim != 0 && dim != len(vector) {
		x.halted.Store(true)
		return 0, domain.NewDimensionMismatch(dim, len(vector))
	}

	e := &Entry{
		Record:    rec,
		Vector:    append([]float32(nil), vector...),
		Magnitude: m,
		Version:   x.seq.Add(1),
	}
	if _, loaded := x.entries.Swap(rec.URL(), e); !loaded {
		x.size.Add(1)
	}
	x.dim.Store(int64(len(vector)))
	x.markDirty(rec.URL(), e.Version)
	return e.Version, nil
}

// Remove deletes the entry for url and reports whether it existed.
// Removing the last entry clears the dimension.
func (x *Index) Remove(url string) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.halted.Load() {
		return false, fmt.Errorf("remove %q: %w", url, domain.ErrIndexHalted)
	}
	if _, loaded := x.entries.LoadAndDelete(url); !loaded {
		return false, nil
	}
	if x.size.Add(-1) == 0 {
		x.dim.Store(0)
	}
	x.markDirty(url, x.seq.Add(1))
	return true, nil
}

// Restore bulk-loads persisted entries, keeping their versions. The
// sequence advances past the highest restored version.
func (x *Index) Restore(entries []Entry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.halted.Load() {
		return fmt.Errorf("restore: %w", domain.ErrIndexHalted)
	}
	dim := int(x.dim.Load())
	for i := range entries {
		n := len(entries[i].Vector)
		if n == 0 {
			return fmt.Errorf("restore %q: empty vector: %w", entries[i].Record.URL(), domain.ErrInvalidArgument)
		}
		if dim == 0 {
			dim = n
		}
		if n != dim {
			return fmt.Errorf("restore %q: %w", entries[i].Record.URL(), domain.NewDimensionMismatch(dim, n))
		}
	}

	for i := range entries {
		src := entries[i]
		m := src.Magnitude
		if !validMagnitude(m) {
			m = magnitude(src.Vector)
		}
		if !validMagnitude(m) {
			continue
		}
		e := &Entry{
			Record:    src.Record,
			Vector:    append([]float32(nil), src.Vector...),
			Magnitude: m,
			Version:   src.Version,
		}
		if e.Version == 0 {
			e.Version = x.seq.Add(1)
		}
		for cur := x.seq.Load(); e.Version > cur; cur = x.seq.Load() {
			if x.seq.CompareAndSwap(cur, e.Version) {
				break
			}
		}
		if _, loaded := x.entries.Swap(e.Record.URL(), e); !loaded {
			x.size.Add(1)
		}
		x.markDirty(e.Record.URL(), e.Version)
	}
	if x.size.Load() > 0 {
		x.dim.Store(int64(dim))
	}
	return nil
}

// Query returns up to k entries scoring at least minScore, best first,
// ties broken by URL ascending.
func (x *Index) Query(vector []float32, k int, minScore float64) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidArgument)
	}
	if minScore < 0 || minScore > 1 {
		return nil, fmt.Errorf("min score must be within [0,1], got %g: %w", minScore, domain.ErrInvalidArgument)
	}
	if x.size.Load() == 0 {
		return []Match{}, nil
	}
	if dim := int(x.dim.Load()); dim != 0 && dim != len(vector) {
		return nil, fmt.Errorf("query: %w", domain.NewDimensionMismatch(dim, len(vector)))
	}
	m := magnitude(vector)
	if !validMagnitude(m) {
		return nil, fmt.Errorf("query vector has no usable magnitude: %w", domain.ErrInvalidArgument)
	}

	q := probe{vector: vector, magnitude: m, minScore: minScore, minCos: minCosine(minScore)}
	var best []candidate
	for {
		t := x.tree.Load()
		if t == nil || !x.annActive() {
			best = x.scan(q, k)
			break
		}
		best = x.queryTree(t, q, k)
		// a rebuild that lands mid-query may already have pruned the
		// pending set this tree relied on
		if x.tree.Load() == t {
			break
		}
	}

	out := make([]Match, 0, len(best))
	for _, c := range best {
		out = append(out, Match{Entry: c.entry, Score: score(c.cos)})
	}
	return out, nil
}

// Get returns the live entry for url.
func (x *Index) Get(url string) (*Entry, bool) {
	v, ok := x.entries.Load(url)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// URLs returns every indexed URL in ascending order.
func (x *Index) URLs() []string {
	urls := make([]string, 0, x.size.Load())
	x.entries.Range(func(k, _ any) bool {
		urls = append(urls, k.(string))
		return true
	})
	sort.Strings(urls)
	return urls
}

// Entries returns a point-in-time copy of all entries ordered by URL.
func (x *Index) Entries() []*Entry {
	out := make([]*Entry, 0, x.size.Load())
	x.entries.Range(func(_, v any) bool {
		out = append(out, v.(*Entry))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Record.URL() < out[j].Record.URL() })
	return out
}

// Size returns the number of entries.
func (x *Index) Size() int { return int(x.size.Load()) }

// Dimension returns the established vector length; false when empty.
func (x *Index) Dimension() (int, bool) {
	d := int(x.dim.Load())
	return d, d != 0
}

// Halted reports whether a dimension mismatch froze the index for writes.
func (x *Index) Halted() bool { return x.halted.Load() }

// Stats returns a snapshot of index counters.
func (x *Index) Stats() Stats {
	s := Stats{
		Size:       x.Size(),
		Halted:     x.Halted(),
		ANNEnabled: x.ann,
		ANNActive:  x.tree.Load() != nil && x.annActive(),
		Pending:    int(x.dirtyCount.Load()),
	}
	s.Dimension, _ = x.Dimension()
	if t := x.tree.Load(); t != nil {
		s.TreeSize = len(t.items)
	}
	return s
}

type probe struct {
	vector    []float32
	magnitude float32
	minScore  float64
	minCos    float64
}

func (p probe) cosine(e *Entry) float64 {
	return cosine(p.vector, p.magnitude, e.Vector, e.Magnitude)
}

func (p probe) accepts(cos float64) bool {
	return score(cos) >= p.minScore
}

func (x *Index) scan(q probe, k int) []candidate {
	top := newTopK(k)
	x.entries.Range(func(_, v any) bool {
		e := v.(*Entry)
		if c := q.cosine(e); q.accepts(c) {
			top.offer(candidate{entry: e, cos: c})
		}
		return true
	})
	return top.sorted()
}

func (x *Index) markDirty(url string, version uint64) {
	if !x.ann {
		return
	}
	if _, loaded := x.dirty.Swap(url, version); !loaded {
		x.dirtyCount.Add(1)
	}
	x.stale.Store(true)
}

func (x *Index) annActive() bool {
	return x.ann && int(x.size.Load()) >= x.annMin
}
