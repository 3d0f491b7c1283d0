package cldnn

import (
	"maps"
	"slices"
)

// reorderCount is the local cost of a node's format choice: how many
// neighbouring edges need a reorder, and the summed element count of the
// producer outputs on those edges. Costs compare lexicographically.
type reorderCount struct {
	number   int
	elements int
}

func (c reorderCount) add(o reorderCount) reorderCount {
	return reorderCount{c.number + o.number, c.elements + o.elements}
}

func (c reorderCount) less(o reorderCount) bool {
	return c.number < o.number || (c.number == o.number && c.elements < o.elements)
}

// countReordersInDir counts the reorders the node's current format choice
// induces on its edges in one direction. An edge needs a reorder when the
// neighbour is still unlabelled, or when the formats differ and the optimizer
// cannot fuse the conversion away.
func countReordersInDir(fmtMap formatMap, lo LayoutOptimizer, d direction, node *Node) reorderCount {
	var cnt reorderCount
	sel := fmtMap.at(node)

	for _, next := range nextNodes(node, d) {
		if !next.IsInDataFlow() {
			continue
		}
		nextFmt := fmtMap.at(next)

		if nextFmt == FormatAny ||
			(sel != nextFmt &&
				!lo.CanFuseReorder(producerOf(d, node, next),
					consumerOf(d, node, next),
					producerOf(d, sel, nextFmt),
					consumerOf(d, sel, nextFmt))) {
			cnt.number++
			cnt.elements += producerOf(d, node, next).OutputLayout().Count()
		}
	}
	return cnt
}

func countReorders(fmtMap formatMap, lo LayoutOptimizer, node *Node) reorderCount {
	fwd := countReordersInDir(fmtMap, lo, forwards, node)
	bwd := countReordersInDir(fmtMap, lo, backwards, node)
	return fwd.add(bwd)
}

// minimizeLocalReorders is a purely local hill climb over the nodes the
// optimizer had no preference for: each one tries every concrete format its
// immediate neighbours offer and keeps the one inducing the fewest reorders,
// ties broken by total reordered elements.
func minimizeLocalReorders(p *Program, fmtMap formatMap, lo LayoutOptimizer) {
	for _, node := range p.ProcessingOrder() {
		if !node.IsInDataFlow() {
			continue
		}
		if lo.PreferredFormat(node) != FormatAny {
			continue
		}

		if fmtMap.at(node) == FormatAny {
			outFmt := node.OutputLayout().Format
			if lo.IsFormatSupported(node, outFmt) {
				fmtMap[node] = outFmt
			}
		}

		sel := fmtMap.at(node)
		bestCnt := countReorders(fmtMap, lo, node)
		bestFmt := sel

		if bestCnt.number == 0 {
			continue
		}

		localFormats := make(map[Format]bool)
		for _, user := range node.Users() {
			userFmt := fmtMap.at(user)
			if userFmt != FormatAny && lo.IsFormatSupported(node, userFmt) {
				localFormats[userFmt] = true
			}
		}
		for _, dep := range node.Dependencies() {
			if !dep.IsInDataFlow() {
				continue
			}
			depFmt := fmtMap.at(dep)
			if depFmt != FormatAny && lo.IsFormatSupported(node, depFmt) {
				localFormats[depFmt] = true
			}
		}
		if len(localFormats) == 0 {
			continue
		}

		// Candidates are tried tentatively through the live map; the best
		// choice (the original on ties) is committed at the end.
		for _, newFmt := range slices.Sorted(maps.Keys(localFormats)) {
			fmtMap[node] = newFmt
			if cnt := countReorders(fmtMap, lo, node); cnt.less(bestCnt) {
				bestCnt = cnt
				bestFmt = newFmt
			}
		}
		fmtMap[node] = bestFmt
	}
}
