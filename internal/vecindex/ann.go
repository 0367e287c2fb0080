package vecindex

// queryTree answers from the tree snapshot plus entries written since it
// was taken. Tree hits whose version no longer matches the live entry are
// dropped; their replacements sit in the dirty set. Asking the tree for
// k+pending candidates leaves room for every stale hit.
func (x *Index) queryTree(t *vpTree, q probe, k int) []candidate {
	pending := int(x.dirtyCount.Load())
	if pending < 0 {
		pending = 0
	}
	fromTree := newTopK(k + pending)
	t.search(q, fromTree)

	top := newTopK(k)
	seen := make(map[string]struct{}, k+pending)
	for _, c := range fromTree.heap {
		url := c.entry.Record.URL()
		live, ok := x.Get(url)
		if !ok || live.Version != c.entry.Version {
			continue
		}
		seen[url] = struct{}{}
		top.offer(c)
	}

	x.dirty.Range(func(k, _ any) bool {
		url := k.(string)
		if _, dup := seen[url]; dup {
			return true
		}
		e, ok := x.Get(url)
		if !ok {
			return true
		}
		seen[url] = struct{}{}
		if c := q.cosine(e); q.accepts(c) {
			top.offer(candidate{entry: e, cos: c})
		}
		return true
	})
	return top.sorted()
}

// NeedsRebuild reports whether writes happened since the last tree build.
func (x *Index) NeedsRebuild() bool {
	return x.ann && x.stale.Load()
}

// Rebuild snapshots the entries and builds a fresh tree off the writer
// lock, then publishes it. Returns the number of entries in the new tree.
// Below the ANN threshold no tree is kept and queries scan. Concurrent
// calls are serialized so an older snapshot never replaces a newer tree.
func (x *Index) Rebuild() int {
	if !x.ann {
		return 0
	}
	x.rebuildMu.Lock()
	defer x.rebuildMu.Unlock()

	x.mu.Lock()
	seq := x.seq.Load()
	items := make([]*Entry, 0, x.size.Load())
	x.entries.Range(func(_, v any) bool {
		items = append(items, v.(*Entry))
		return true
	})
	x.stale.Store(false)
	x.mu.Unlock()

	if len(items) < x.annMin {
		x.tree.Store(nil)
	} else {
		x.tree.Store(buildTree(items, seq))
	}

	// entries covered by the snapshot are no longer pending; a concurrent
	// rewrite changes the stored version and survives CompareAndDelete
	x.dirty.Range(func(k, v any) bool {
		if v.(uint64) <= seq && x.dirty.CompareAndDelete(k, v) {
			x.dirtyCount.Add(-1)
		}
		return true
	})

	if len(items) < x.annMin {
		return 0
	}
	return len(items)
}
