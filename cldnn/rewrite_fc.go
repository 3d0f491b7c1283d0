package cldnn

import "github.com/kdobros/openvino/internal/trace"

// fcOverrideFormats are the tiled int8/fp16 producer formats for which a
// fully connected node has a specialized implementation consuming bfyx, so
// its input reorder can be fused away.
var fcOverrideFormats = []Format{
	FormatFsBYxFsv32,
	FormatBFsYxFsv4,
	FormatBFsYxFsv16,
	FormatBFsYxFsv32,
	FormatBFsZyxFsv32,
	FormatByxfAf32,
}

// overrideFullyConnectedOutputs rewrites the selected format of fully
// connected nodes at a tiled-format boundary to bfyx, so that the following
// propagation can fuse the reorder on their input edge instead of
// materializing it. The predecessor cone must be able to legally carry the
// tiled format all the way to the fully connected; that capability probe runs
// backwards with fusing disallowed.
func overrideFullyConnectedOutputs(p *Program, fmtMap formatMap, lo LayoutOptimizer) {
	for _, node := range p.ProcessingOrder() {
		if !node.IsInDataFlow() || node.Kind() != KindFullyConnected {
			continue
		}
		if f, ok := fmtMap[node]; !ok || f == FormatBfyx {
			continue
		}
		if len(node.Dependencies()) == 0 {
			continue
		}
		input := node.Dependency(0)

		override := false
		for _, candidate := range fcOverrideFormats {
			if lo.CanFuseReorder(input, node, candidate, FormatBfyx) &&
				canPropagate(fmtMap, lo, backwards, node, input, candidate, false) {
				override = true
				break
			}
		}
		if !override {
			continue
		}

		fmtMap[node] = FormatBfyx
		trace.Patternf("override fc output to bfyx", node.ID())
	}
}
