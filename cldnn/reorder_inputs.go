// Package cldnn implements the GPU plugin's program graph and the graph
// optimizer pass that selects per-node memory formats and inserts the
// residual reorder nodes.
//
//   - Program: a DAG of primitive nodes with a topological processing order.
//   - LayoutOptimizer: the oracle judging per-node format support and
//     reorder fusibility.
//   - ReorderFactory: produces (and caches) reorder nodes on demand.
//   - RunReorderInputs: the pass tying them together.
package cldnn

import (
	"github.com/kdobros/openvino/internal/trace"
)

// RunReorderInputs selects one concrete format for every data-flow node of
// the program and materializes reorder nodes on the edges whose endpoints
// disagree, preferring selections whose residual reorders are few, small and
// fusible into a neighbouring kernel.
//
// Stages, in fixed order: seed the per-node format map from the optimizer's
// preferences; override fully connected outputs at tiled-format boundaries;
// propagate concrete formats through maximal legally-relabelable regions;
// minimize residual reorders locally for nodes without a preference; apply
// the int8 mvn->conv->mvn work-around; insert reorders forwards then
// backwards; recompute output layouts and apply the per-operator input
// fixups.
//
// The pass is single-threaded and owns the program exclusively while it
// runs. It has no recoverable errors: a failed region growth simply leaves
// the map untouched for that seed, and a nil factory result means no reorder
// is required.
func RunReorderInputs(p *Program, lo LayoutOptimizer, rf *ReorderFactory) {
	fmtMap := preferredFormats(p, lo)

	if trace.FormatsEnabled() {
		trace.Formatsf("preferred formats:")
		for _, node := range p.ProcessingOrder() {
			if f, ok := fmtMap[node]; ok && f != FormatAny {
				trace.Formatsf("  %s %s", node.ID(), f)
			}
		}
	}

	overrideFullyConnectedOutputs(p, fmtMap, lo)
	propagateFormats(p, fmtMap, lo, true)
	minimizeLocalReorders(p, fmtMap, lo)
	rewriteMVNConvMVN(p, fmtMap, lo)

	if trace.FormatsEnabled() {
		trace.Formatsf("selected formats:")
		for _, node := range p.ProcessingOrder() {
			if f, ok := fmtMap[node]; ok {
				trace.Formatsf("  %s %s", node.ID(), f)
			}
		}
	}
	if trace.StatsEnabled() {
		logSelectionStats(p, fmtMap, lo)
	}

	insertReorders(p, fmtMap, rf)

	p.RecalcOutputLayouts(true)

	fixupInputReorders(p, lo, rf)
}

// preferredFormats seeds the format map: one entry per in-data-flow node,
// holding the optimizer's preference (possibly FormatAny).
func preferredFormats(p *Program, lo LayoutOptimizer) formatMap {
	fmtMap := make(formatMap)
	for _, n := range p.ProcessingOrder() {
		if !n.IsInDataFlow() {
			continue
		}
		fmtMap[n] = lo.PreferredFormat(n)
	}
	return fmtMap
}

// logSelectionStats reports the number of residual reorders the selection
// implies and how many nodes will have their reorder fused away. Each edge is
// counted from both sides, hence the division by two.
func logSelectionStats(p *Program, fmtMap formatMap, lo LayoutOptimizer) {
	var total reorderCount
	for _, node := range p.ProcessingOrder() {
		if f, ok := fmtMap[node]; !ok || f == FormatAny {
			continue
		}
		total = total.add(countReorders(fmtMap, lo, node))
	}
	trace.Statsf("total number of reorders: %d", total.number/2)
	trace.Statsf("total elements count of all reorders: %d", total.elements/2)

	nodesWithFusing := 0
	for _, node := range p.ProcessingOrder() {
		if f, ok := fmtMap[node]; !ok || f == FormatAny {
			continue
		}
		for _, prev := range nextNodes(node, backwards) {
			if !prev.IsInDataFlow() || fmtMap.at(prev) == fmtMap.at(node) {
				continue
			}
			if lo.CanFuseReorder(prev, node, fmtMap.at(prev), fmtMap.at(node)) {
				nodesWithFusing++
				break
			}
		}
	}
	trace.Statsf("number of nodes with fused reorders: %d", nodesWithFusing)
}
