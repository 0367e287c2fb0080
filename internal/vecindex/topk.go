package vecindex

import (
	"container/heap"
	"sort"
)

type candidate struct {
	entry *Entry
	cos   float64
}

// worse orders candidates by ascending relevance: lower cosine first, then
// larger URL first, so the heap root is always the one to evict.
func worse(a, b candidate) bool {
	if a.cos != b.cos {
		return a.cos < b.cos
	}
	return a.entry.Record.URL() > b.entry.Record.URL()
}

type candidates []candidate

func (c candidates) Len() int           { return len(c) }
func (c candidates) Less(i, j int) bool { return worse(c[i], c[j]) }
func (c candidates) Swap(i, j int)      { c[i], c[j] = c[j], c[i] }
func (c *candidates) Push(x any)        { *c = append(*c, x.(candidate)) }
func (c *candidates) Pop() any {
	old := *c
	n := len(old)
	x := old[n-1]
	*c = old[:n-1]
	return x
}

// topK keeps the k best candidates seen so far.
type topK struct {
	k    int
	heap candidates
}

func newTopK(k int) *topK {
	capacity := k
	if capacity > 1024 {
		capacity = 1024
	}
	return &topK{k: k, heap: make(candidates, 0, capacity)}
}

func (t *topK) full() bool { return len(t.heap) >= t.k }

// worst returns the cosine of the weakest kept candidate.
func (t *topK) worst() float64 { return t.heap[0].cos }

func (t *topK) offer(c candidate) {
	if len(t.heap) < t.k {
		heap.Push(&t.heap, c)
		return
	}
	if worse(t.heap[0], c) {
		t.heap[0] = c
		heap.Fix(&t.heap, 0)
	}
}

// sorted returns kept candidates best first.
func (t *topK) sorted() []candidate {
	out := make([]candidate, len(t.heap))
	copy(out, t.heap)
	sort.Slice(out, func(i, j int) bool { return worse(out[j], out[i]) })
	return out
}
