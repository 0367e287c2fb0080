package vecindex

import (
	"math"
	"sort"
)

const leafSize = 8

// vpTree is an immutable vantage-point tree over angular distance, built
// from a snapshot of entries taken at sequence seq.
type vpTree struct {
	items []*Entry
	root  *vpNode
	seq   uint64
}

type vpNode struct {
	vantage int
	radius  float64 // items in inside are within radius of vantage
	inside  *vpNode
	outside *vpNode
	bucket  []int // leaf items, vantage unused
}

func buildTree(items []*Entry, seq uint64) *vpTree {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	t := &vpTree{items: items, seq: seq}
	t.root = t.build(idx)
	return t
}

func (t *vpTree) build(idx []int) *vpNode {
	if len(idx) == 0 {
		return nil
	}
	if len(idx) <= leafSize {
		return &vpNode{bucket: append([]int(nil), idx...)}
	}

	// middle element as vantage point keeps builds deterministic
	mid := len(idx) / 2
	idx[0], idx[mid] = idx[mid], idx[0]
	vp := t.items[idx[0]]
	rest := idx[1:]

	dist := make(map[int]float64, len(rest))
	for _, i := range rest {
		e := t.items[i]
		dist[i] = angular(cosine(vp.Vector, vp.Magnitude, e.Vector, e.Magnitude))
	}
	sort.Slice(rest, func(a, b int) bool { return dist[rest[a]] < dist[rest[b]] })

	median := len(rest) / 2
	node := &vpNode{vantage: idx[0], radius: dist[rest[median]]}
	node.inside = t.build(rest[:median+1])
	node.outside = t.build(rest[median+1:])
	return node
}

// search offers every item that may rank in the top k to top.
func (t *vpTree) search(q probe, top *topK) {
	limit := angular(q.minCos) + angleSlack
	t.searchNode(t.root, q, top, limit)
}

func (t *vpTree) tau(top *topK, limit float64) float64 {
	if top.full() {
		return math.Min(angular(top.worst())+angleSlack, limit)
	}
	return limit
}

func (t *vpTree) searchNode(n *vpNode, q probe, top *topK, limit float64) {
	if n == nil {
		return
	}
	if n.bucket != nil {
		for _, i := range n.bucket {
			t.offer(i, q, top)
		}
		return
	}

	d := angular(t.offer(n.vantage, q, top))

	if d <= n.radius {
		if d-t.tau(top, limit) <= n.radius {
			t.searchNode(n.inside, q, top, limit)
		}
		if d+t.tau(top, limit) >= n.radius {
			t.searchNode(n.outside, q, top, limit)
		}
		return
	}
	if d+t.tau(top, limit) >= n.radius {
		t.searchNode(n.outside, q, top, limit)
	}
	if d-t.tau(top, limit) <= n.radius {
		t.searchNode(n.inside, q, top, limit)
	}
}

func (t *vpTree) offer(i int, q probe, top *topK) float64 {
	e := t.items[i]
	c := q.cosine(e)
	if q.accepts(c) {
		top.offer(candidate{entry: e, cos: c})
	}
	return c
}
