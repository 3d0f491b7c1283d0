package cldnn

import "fmt"

// ReorderDesc describes a reorder node to be materialized: its id and the
// layouts it converts between.
type ReorderDesc struct {
	ID     string
	Input  Layout
	Output Layout
}

type reorderCacheKey struct {
	srcID  string
	input  Layout
	output Layout
}

// ReorderFactory produces reorder descriptions on demand, caching them by
// source node and layout pair so that several consumers of the same
// conversion share one reorder node.
type ReorderFactory struct {
	cache map[reorderCacheKey]*ReorderDesc
	seq   map[string]int
}

// NewReorderFactory returns an empty factory.
func NewReorderFactory() *ReorderFactory {
	return &ReorderFactory{
		cache: make(map[reorderCacheKey]*ReorderDesc),
		seq:   make(map[string]int),
	}
}

// GetReorder returns a reorder converting the output of the node srcID from
// in to out. It returns (nil, false) when the layouts are equal and no
// reorder is required. The second result is true when the description is a
// cached instance already handed out before; the caller must not take
// exclusive ownership of the resulting node in that case.
func (f *ReorderFactory) GetReorder(srcID string, in, out Layout) (*ReorderDesc, bool) {
	if in == out {
		return nil, false
	}
	key := reorderCacheKey{srcID: srcID, input: in, output: out}
	if desc, ok := f.cache[key]; ok {
		return desc, true
	}
	n := f.seq[srcID]
	f.seq[srcID] = n + 1
	desc := &ReorderDesc{
		ID:     fmt.Sprintf("reorder:%s:%s:%d", srcID, out.Format, n),
		Input:  in,
		Output: out,
	}
	f.cache[key] = desc
	return desc, false
}
