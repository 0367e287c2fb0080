package vecindex

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return v
}

// recall is the fraction of the exhaustive top-k found by the accelerated query.
func recall(exact, approx []Match) float64 {
	if len(exact) == 0 {
		return 1
	}
	found := map[string]bool{}
	for _, m := range approx {
		found[m.Entry.Record.URL()] = true
	}
	hit := 0
	for _, m := range exact {
		if found[m.Entry.Record.URL()] {
			hit++
		}
	}
	return float64(hit) / float64(len(exact))
}

func assertRecall(t *testing.T, rng *rand.Rand, exact, ann *Index, dim, k int, minScore float64) {
	t.Helper()
	const queries = 50
	total := 0.0
	for range queries {
		q := randomVector(rng, dim)
		want, err := exact.Query(q, k, minScore)
		if err != nil {
			t.Fatalf("exact Query: %v", err)
		}
		got, err := ann.Query(q, k, minScore)
		if err != nil {
			t.Fatalf("ann Query: %v", err)
		}
		if len(got) > k {
			t.Fatalf("ann returned %d > k", len(got))
		}
		total += recall(want, got)
	}
	if r := total / queries; r < 0.99 {
		t.Errorf("recall@%d = %.4f, want >= 0.99", k, r)
	}
}

func TestANN_RecallMatchesExhaustive(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	const dim, n = 24, 1500

	exact := New()
	ann := New(WithANN(100))
	for i := range n {
		v := randomVector(rng, dim)
		url := fmt.Sprintf("https://example.com/%04d", i)
		mustUpsert(t, exact, url, v)
		mustUpsert(t, ann, url, v)
	}
	if built := ann.Rebuild(); built != n {
		t.Fatalf("Rebuild() = %d, want %d", built, n)
	}
	if !ann.Stats().ANNActive {
		t.Fatal("tree should be active")
	}

	assertRecall(t, rng, exact, ann, dim, 10, 0)
	assertRecall(t, rng, exact, ann, dim, 1, 0)
	assertRecall(t, rng, exact, ann, dim, 25, 0.6)
}

func TestANN_SeesWritesSinceSnapshot(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	const dim, n = 16, 800

	exact := New()
	ann := New(WithANN(10))
	for i := range n {
		v := randomVector(rng, dim)
		url := fmt.Sprintf("u%04d", i)
		mustUpsert(t, exact, url, v)
		mustUpsert(t, ann, url, v)
	}
	ann.Rebuild()

	// rewrites, deletions and inserts the tree has not seen
	for i := 0; i < 200; i++ {
		url := fmt.Sprintf("u%04d", rng.IntN(n+100))
		if i%5 == 0 {
			_, _ = exact.Remove(url)
			_, _ = ann.Remove(url)
			continue
		}
		v := randomVector(rng, dim)
		mustUpsert(t, exact, url, v)
		mustUpsert(t, ann, url, v)
	}
	if ann.Stats().Pending == 0 {
		t.Fatal("expected pending writes")
	}

	assertRecall(t, rng, exact, ann, dim, 10, 0)

	for range 20 {
		q := randomVector(rng, dim)
		got, _ := ann.Query(q, 10, 0)
		for _, m := range got {
			live, ok := ann.Get(m.Entry.Record.URL())
			if !ok || live.Version != m.Entry.Version {
				t.Fatalf("stale entry %s returned", m.Entry.Record.URL())
			}
		}
	}

	ann.Rebuild()
	if p := ann.Stats().Pending; p != 0 {
		t.Errorf("Pending after rebuild = %d", p)
	}
	assertRecall(t, rng, exact, ann, dim, 10, 0)
}

func TestANN_ConcurrentRebuildsKeepWrites(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	const dim, n = 12, 400

	exact := New()
	ann := New(WithANN(10))
	vecs := make([][]float32, n)
	for i := range n {
		vecs[i] = randomVector(rng, dim)
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 30 {
				ann.Rebuild()
			}
		}()
	}
	for i, v := range vecs {
		url := fmt.Sprintf("b%04d", i)
		mustUpsert(t, exact, url, v)
		mustUpsert(t, ann, url, v)
	}
	wg.Wait()

	// every write is either in the published tree or still pending
	if st := ann.Stats(); st.TreeSize+st.Pending < n {
		t.Fatalf("tree %d + pending %d < %d entries", st.TreeSize, st.Pending, n)
	}
	for i, v := range vecs {
		got, err := ann.Query(v, 1, 0)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if want := fmt.Sprintf("b%04d", i); len(got) != 1 || got[0].Entry.Record.URL() != want {
			t.Fatalf("self-query for %s missed", want)
		}
	}
	assertRecall(t, rng, exact, ann, dim, 10, 0)
}

func TestANN_BelowThresholdScans(t *testing.T) {
	x := New(WithANN(100))
	mustUpsert(t, x, "a", []float32{1, 0})
	if n := x.Rebuild(); n != 0 {
		t.Errorf("Rebuild() = %d below threshold", n)
	}
	if x.Stats().ANNActive {
		t.Error("tree must be inactive below threshold")
	}
	ms, err := x.Query([]float32{1, 0}, 1, 0)
	if err != nil || len(ms) != 1 {
		t.Errorf("Query = %v, %v", ms, err)
	}
}

func TestRebuilder_RebuildsOnlyWhenDirty(t *testing.T) {
	x := New(WithANN(1))
	r := NewRebuilder(x, time.Millisecond, zap.NewNop())

	if r.RebuildIfNeeded() {
		t.Error("clean index should not rebuild")
	}
	mustUpsert(t, x, "a", []float32{1, 0})
	if !r.RebuildIfNeeded() {
		t.Error("dirty index should rebuild")
	}
	if r.RebuildIfNeeded() {
		t.Error("second call should be a no-op")
	}
	if s := x.Stats(); s.TreeSize != 1 || !s.ANNActive {
		t.Errorf("Stats() = %+v", s)
	}
}
