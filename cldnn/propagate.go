package cldnn

import "github.com/gomlx/exceptions"

// direction selects which way a traversal walks the graph: forwards through
// users, backwards through dependencies.
//
// The layout optimizer's fusibility predicate is asymmetric, so every
// directional check must orient the (prev, node) pair it travels across:
// the producer is prev when walking forwards and node when walking backwards,
// and the formats follow the nodes. producerOf and consumerOf encode that
// orientation once; all traversal code goes through them.
type direction int

const (
	forwards direction = iota
	backwards
)

func (d direction) reverse() direction {
	if d == forwards {
		return backwards
	}
	return forwards
}

// nextNodes returns the neighbours of n in the travel direction.
func nextNodes(n *Node, d direction) []*Node {
	if d == forwards {
		return n.Users()
	}
	return n.Dependencies()
}

// producerOf returns the producer-side element of a (current, next) pair
// traversed in direction d.
func producerOf[T any](d direction, current, next T) T {
	if d == forwards {
		return current
	}
	return next
}

// consumerOf returns the consumer-side element of a (current, next) pair
// traversed in direction d.
func consumerOf[T any](d direction, current, next T) T {
	if d == forwards {
		return next
	}
	return current
}

// formatMap is the per-pass mapping from node to selected format. It is
// dense over the in-data-flow subset and empty elsewhere.
type formatMap map[*Node]Format

// at returns the node's format, treating absence as a programming error.
func (m formatMap) at(n *Node) Format {
	f, ok := m[n]
	if !ok {
		exceptions.Panicf("node %q has no format map entry", n.ID())
	}
	return f
}

// canPropagate checks whether fmt can be legally carried from prev across the
// edge to node and onwards through the whole cone in direction d, without
// relabelling anything. With allowFusing set, an edge the optimizer can fuse
// a reorder into terminates the cone successfully.
func canPropagate(fmtMap formatMap, lo LayoutOptimizer, d direction, prev, node *Node, fmt Format, allowFusing bool) bool {
	sel := fmtMap.at(node)
	if fmt == sel {
		return true
	}

	producer := producerOf(d, prev, node)
	consumer := consumerOf(d, prev, node)
	producerFmt := producerOf(d, fmt, sel)
	consumerFmt := consumerOf(d, fmt, sel)

	if allowFusing && lo.CanFuseReorder(producer, consumer, producerFmt, consumerFmt) {
		return true
	}

	if sel != FormatAny {
		return false
	}
	if !lo.IsFormatSupported(node, fmt) {
		return false
	}

	// A neighbour on the reverse side already labelled differently would
	// trap node between two incompatible formats.
	for _, rev := range nextNodes(node, d.reverse()) {
		if rev.IsInDataFlow() && rev != prev && fmtMap.at(rev) != fmt {
			return false
		}
	}

	for _, next := range nextNodes(node, d) {
		if !next.IsInDataFlow() {
			continue
		}
		if !canPropagate(fmtMap, lo, d, node, next, fmt, allowFusing) {
			return false
		}
	}
	return true
}

// nodeSet is the extent accumulator of region growth.
type nodeSet map[*Node]bool

// restore removes every node not present in the snapshot, undoing a failed
// retry in place.
func (s nodeSet) restore(snapshot nodeSet) {
	for n := range s {
		if !snapshot[n] {
			delete(s, n)
		}
	}
}

func (s nodeSet) clone() nodeSet {
	c := make(nodeSet, len(s))
	for n := range s {
		c[n] = true
	}
	return c
}

// propagationCandidate is one pending edge of the region growth work list.
type propagationCandidate struct {
	prev *Node
	next *Node
	dir  direction
}

// analysePropagationExtent grows the maximal connected set of in-data-flow
// nodes around root that may legally adopt fmt, accumulating it into extent.
//
// Edges the optimizer can fuse a reorder into bound the region; the node past
// such an edge is retried as an independent sub-root, so the region can
// continue past a free boundary without the far side's failures invalidating
// the near side. A failed retry restores the extent to its snapshot and
// re-queues the root once; re-encountering the same rejected root ends the
// retry loop, which guarantees progress.
//
// Any concretely-labelled node with a different format aborts the whole
// growth: the function returns false and the caller must discard extent.
func analysePropagationExtent(fmtMap formatMap, lo LayoutOptimizer, root *Node, fmt Format, allowFusing bool, extent nodeSet) bool {
	extent[root] = true

	var candidateRoots []*Node
	var candidates []propagationCandidate
	for _, next := range nextNodes(root, backwards) {
		if next.IsInDataFlow() {
			candidates = append(candidates, propagationCandidate{root, next, backwards})
		}
	}
	for _, next := range nextNodes(root, forwards) {
		if next.IsInDataFlow() {
			candidates = append(candidates, propagationCandidate{root, next, forwards})
		}
	}

	for len(candidates) > 0 {
		info := candidates[0]
		candidates = candidates[1:]
		prev, node, dir := info.prev, info.next, info.dir

		// Membership is checked at enqueue and again here: the retry loop
		// below may have claimed the node since it was queued.
		if extent[node] {
			continue
		}

		sel := fmtMap.at(node)
		if fmt == sel {
			continue
		}

		producer := producerOf(dir, prev, node)
		consumer := consumerOf(dir, prev, node)
		producerFmt := producerOf(dir, fmt, sel)
		consumerFmt := consumerOf(dir, fmt, sel)

		supported := lo.IsFormatSupported(node, fmt)

		if allowFusing && lo.CanFuseReorder(producer, consumer, producerFmt, consumerFmt) {
			if supported {
				candidateRoots = append(candidateRoots, node)
			}
			continue
		}

		if sel != FormatAny {
			return false
		}

		// Fusing with the fallback format.
		fallback := node.OutputLayout().Format
		producerFbFmt := producerOf(dir, fmt, fallback)
		consumerFbFmt := consumerOf(dir, fmt, fallback)
		if allowFusing && lo.CanFuseReorder(producer, consumer, producerFbFmt, consumerFbFmt) {
			if supported {
				candidateRoots = append(candidateRoots, node)
			}
			continue
		}

		if !supported {
			return false
		}

		for _, next := range nextNodes(node, backwards) {
			if next.IsInDataFlow() && !extent[next] {
				candidates = append(candidates, propagationCandidate{node, next, backwards})
			}
		}
		for _, next := range nextNodes(node, forwards) {
			if next.IsInDataFlow() && !extent[next] {
				candidates = append(candidates, propagationCandidate{node, next, forwards})
			}
		}
		extent[node] = true
	}

	var rejectedCheckpoint *Node
	for len(candidateRoots) > 0 {
		nextRoot := candidateRoots[0]
		candidateRoots = candidateRoots[1:]
		if extent[nextRoot] {
			continue
		}

		snapshot := extent.clone()
		if analysePropagationExtent(fmtMap, lo, nextRoot, fmt, allowFusing, extent) {
			rejectedCheckpoint = nil
			continue
		}

		extent.restore(snapshot)
		if rejectedCheckpoint == nextRoot {
			break
		}
		if rejectedCheckpoint == nil {
			rejectedCheckpoint = nextRoot
		}
		candidateRoots = append(candidateRoots, nextRoot)
	}
	return true
}

// propagateFormats relabels, for every concretely-seeded node in processing
// order, the region around it that can legally adopt the seed's format. A
// failed growth leaves the map untouched for that seed.
func propagateFormats(p *Program, fmtMap formatMap, lo LayoutOptimizer, allowFusing bool) {
	for _, node := range p.ProcessingOrder() {
		f, ok := fmtMap[node]
		if !ok || f == FormatAny {
			continue
		}

		extent := make(nodeSet)
		if !analysePropagationExtent(fmtMap, lo, node, f, allowFusing, extent) {
			continue
		}
		for e := range extent {
			fmtMap[e] = f
		}
	}
}
