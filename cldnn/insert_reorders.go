package cldnn

import (
	"slices"

	"github.com/gomlx/exceptions"
)

// insertReordersInDir materializes reorders on the node's edges in one
// direction: for every in-data-flow neighbour whose selected format differs,
// it requests a reorder from the factory and splices it onto the edge.
//
// The reorder's layouts are both derived from the producer's current output
// layout, with the producer side's format overwritten by the travelling
// node's selected format. Neighbours that already share the format, carry an
// image format, or sit across an existing reorder are left alone; the last
// rule is what keeps a re-run of the pass from stacking a second reorder onto
// an edge the first run already bridged.
func insertReordersInDir(p *Program, fmtMap formatMap, rf *ReorderFactory, d direction, node *Node) {
	sel := fmtMap.at(node)

	for _, next := range slices.Clone(nextNodes(node, d)) {
		if !next.IsInDataFlow() {
			continue
		}
		if f, ok := fmtMap[next]; ok && (f == sel || f.IsImage()) {
			continue
		}
		if node.Kind() == KindReorder || next.Kind() == KindReorder {
			continue
		}

		producer := producerOf(d, node, next)
		consumer := consumerOf(d, node, next)

		firstLayout := producerOf(d, node.OutputLayout(), next.OutputLayout())
		inLayout := firstLayout
		outLayout := firstLayout
		if d == forwards {
			inLayout.Format = sel
		} else {
			outLayout.Format = sel
		}

		desc, cached := rf.GetReorder(producer.ID(), inLayout, outLayout)
		if desc == nil {
			continue
		}
		reorderNode := p.GetOrCreate(desc)
		if err := p.AddIntermediate(reorderNode, consumer, producer, !cached); err != nil {
			exceptions.Panicf("inserting reorder %q: %v", desc.ID, err)
		}
	}
}

// insertReorders walks the processing order forwards and then backwards,
// inserting reorders along each direction. The forward pass must run first:
// when a node participates in both roles across different edges, the
// reference behaviour depends on its output-side reorders existing before its
// input side is examined.
func insertReorders(p *Program, fmtMap formatMap, rf *ReorderFactory) {
	for _, node := range slices.Clone(p.ProcessingOrder()) {
		f, ok := fmtMap[node]
		if !ok || f == FormatAny || f.IsImage() {
			continue
		}
		insertReordersInDir(p, fmtMap, rf, forwards, node)
	}

	for _, node := range p.ReverseProcessingOrder() {
		f, ok := fmtMap[node]
		if !ok || f == FormatAny || f.IsImage() {
			continue
		}
		insertReordersInDir(p, fmtMap, rf, backwards, node)
	}
}

// fixupInputReorders applies the per-operator input rewrites that run after
// the main map has been materialized:
//
//   - detection output consumes every input as f32 bfyx;
//   - binary convolution consumes its first input with the binary element
//     type;
//   - deconvolution preferring one of the 3D blocked formats consumes its
//     first input in that format.
func fixupInputReorders(p *Program, lo LayoutOptimizer, rf *ReorderFactory) {
	for _, node := range slices.Clone(p.ProcessingOrder()) {
		switch node.Kind() {
		case KindDetectionOutput:
			for i, input := range slices.Clone(node.Dependencies()) {
				inputLayout := input.OutputLayout()
				desc, cached := rf.GetReorder(input.ID(), inputLayout, Layout{
					DataType: DataTypeF32,
					Format:   FormatBfyx,
					Shape:    inputLayout.Shape,
				})
				insertFixupReorder(p, node, i, desc, cached)
			}

		case KindBinaryConvolution:
			if len(node.Dependencies()) == 0 {
				continue
			}
			input := node.Dependency(0)
			inputLayout := input.OutputLayout()
			newLayout := inputLayout
			newLayout.DataType = DataTypeBinary
			desc, cached := rf.GetReorder(input.ID(), inputLayout, newLayout)
			insertFixupReorder(p, node, 0, desc, cached)

		case KindDeconvolution:
			newFmt := lo.PreferredFormat(node)
			if newFmt != FormatBFsZyxFsv16 && newFmt != FormatBsFsZyxBsv16Fsv16 {
				continue
			}
			if len(node.Dependencies()) == 0 {
				continue
			}
			input := node.Dependency(0)
			inputLayout := input.OutputLayout()
			desc, cached := rf.GetReorder(input.ID(), inputLayout, Layout{
				DataType: inputLayout.DataType,
				Format:   newFmt,
				Shape:    inputLayout.Shape,
			})
			insertFixupReorder(p, node, 0, desc, cached)
		}
	}
}

func insertFixupReorder(p *Program, consumer *Node, inputIdx int, desc *ReorderDesc, cached bool) {
	if desc == nil {
		return
	}
	reorderNode := p.GetOrCreate(desc)
	if err := p.AddIntermediateAt(reorderNode, consumer, inputIdx, !cached); err != nil {
		exceptions.Panicf("inserting input reorder %q: %v", desc.ID, err)
	}
}
