package cldnn

import "github.com/kdobros/openvino/internal/trace"

// rewriteMVNConvMVN is a work-around for a known bad case with byxf_af32
// convolutions until their handling is corrected in the layout optimizer.
//
// It finds the pattern
//
//	mvn(int8, b_fs_yx_fsv16, [x,16,1280,720]) -> conv(int8, byxf_af32, [x,3,1280,720]) -> mvn(*, bfyx) ->
//
// and changes the convolution and the downstream mvn to b_fs_yx_fsv16.
// For such a convolution b_fs_yx_fsv16 performs better than byxf_af32, and
// the af32 -> bfyx reorder alone takes several times longer than the
// convolution itself. The shape clauses are deliberately literal: the
// rewrite is only validated for exactly this case, so it must not be widened
// without re-validation. It is gated on the network-wide b_fs_yx_fsv16
// attribute for the same reason.
func rewriteMVNConvMVN(p *Program, fmtMap formatMap, lo LayoutOptimizer) {
	if !lo.OptimizationAttributes().BFsYxFsv16Network {
		return
	}

	for _, node := range p.ProcessingOrder() {
		if !node.IsInDataFlow() || node.Kind() != KindConvolution || fmtMap.at(node) != FormatByxfAf32 {
			continue
		}
		if len(node.Dependencies()) < 2 {
			continue
		}
		input := node.Dependency(0)

		inputPath := input.OutputLayout().DataType == DataTypeI8 &&
			input.Kind() == KindMVN &&
			fmtMap.at(input) == FormatBFsYxFsv16

		users := node.Users()
		outputPath := len(users) == 1 &&
			users[0].Kind() == KindMVN &&
			fmtMap.at(users[0]) == FormatBfyx &&
			len(users[0].Users()) == 1 &&
			!users[0].AsMVN().AcrossChannels

		if !inputPath || !outputPath {
			continue
		}

		inLay := input.OutputLayout()
		outLay := node.OutputLayout()
		weiLay := node.Dependency(1).OutputLayout()
		correctLayouts :=
			// weights
			weiLay.DataType == DataTypeI8 &&
				weiLay.Shape.SpatialX() == 3 && weiLay.Shape.SpatialY() == 3 &&
				// input/output
				inLay.DataType == DataTypeI8 && outLay.DataType == DataTypeI8 &&
				inLay.Shape.Feature == 16 && outLay.Shape.Feature == 3 &&
				inLay.Shape.SpatialX() == 1280 && outLay.Shape.SpatialX() == 1280 &&
				inLay.Shape.SpatialY() == 720 && outLay.Shape.SpatialY() == 720
		if !correctLayouts {
			continue
		}

		conv := node.AsConvolution()
		correctConv := conv.Groups == 1 && conv.Split == 1 && conv.DeformableGroups == 1 &&
			!conv.DepthwiseSepOpt && !conv.Transposed &&
			!conv.ActivationsZeroPoints && !conv.WeightsZeroPoints && !conv.Compensation &&
			conv.Dilation == [2]int{1, 1}
		if !correctConv {
			continue
		}

		fmtMap[node] = FormatBFsYxFsv16
		fmtMap[users[0]] = FormatBFsYxFsv16
		trace.Patternf("change int8 mvn->conv->mvn to b_fs_yx_fsv16", node.ID())
	}
}
