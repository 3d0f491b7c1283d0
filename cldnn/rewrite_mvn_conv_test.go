package cldnn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// mvnConvMVNGraph builds the int8 mvn -> conv -> mvn chain the work-around
// targets, with the exact feature counts and resolution it matches on.
func mvnConvMVNGraph(t *testing.T, convAttrs *ConvolutionAttrs, mvn2Attrs *MVNAttrs) *Program {
	g := newGraph(t)
	g.node("src", KindInput, nil, i8Layout(FormatBfyx, 16, 1280, 720))
	g.node("mvn1", KindMVN, &MVNAttrs{NormalizeVariance: true}, i8Layout(FormatBfyx, 16, 1280, 720), "src")
	g.node("w", KindData, nil, i8Layout(FormatBfyx, 3, 3, 3))
	g.node("conv", KindConvolution, convAttrs, i8Layout(FormatBfyx, 3, 1280, 720), "mvn1", "w")
	g.node("mvn2", KindMVN, mvn2Attrs, i8Layout(FormatBfyx, 3, 1280, 720), "conv")
	g.node("sink", KindActivation, nil, i8Layout(FormatBfyx, 3, 1280, 720), "mvn2")
	return g.build()
}

// mvnConvFormats is the selection the stages before the rewrite produce for
// that chain.
func mvnConvFormats(p *Program) formatMap {
	return formatMap{
		p.Node("src"):  FormatBFsYxFsv16,
		p.Node("mvn1"): FormatBFsYxFsv16,
		p.Node("conv"): FormatByxfAf32,
		p.Node("mvn2"): FormatBfyx,
		p.Node("sink"): FormatBfyx,
	}
}

func TestRewriteMVNConvMVN(t *testing.T) {
	p := mvnConvMVNGraph(t, NewConvolutionAttrs(), &MVNAttrs{NormalizeVariance: true})
	lo := NewStaticOptimizer().SetAttributes(OptimizationAttributes{BFsYxFsv16Network: true})
	fmtMap := mvnConvFormats(p)

	rewriteMVNConvMVN(p, fmtMap, lo)

	assert.Equal(t, FormatBFsYxFsv16, fmtMap.at(p.Node("conv")))
	assert.Equal(t, FormatBFsYxFsv16, fmtMap.at(p.Node("mvn2")))
	assert.Equal(t, FormatBFsYxFsv16, fmtMap.at(p.Node("mvn1")), "the upstream mvn keeps its format")
}

func TestRewriteMVNConvMVNGatedOff(t *testing.T) {
	p := mvnConvMVNGraph(t, NewConvolutionAttrs(), &MVNAttrs{NormalizeVariance: true})
	lo := NewStaticOptimizer() // not a b_fs_yx_fsv16 network
	fmtMap := mvnConvFormats(p)

	rewriteMVNConvMVN(p, fmtMap, lo)

	assert.Equal(t, FormatByxfAf32, fmtMap.at(p.Node("conv")))
	assert.Equal(t, FormatBfyx, fmtMap.at(p.Node("mvn2")))
}

func TestRewriteMVNConvMVNConvAttrMismatch(t *testing.T) {
	attrs := NewConvolutionAttrs()
	attrs.Groups = 2
	p := mvnConvMVNGraph(t, attrs, &MVNAttrs{NormalizeVariance: true})
	lo := NewStaticOptimizer().SetAttributes(OptimizationAttributes{BFsYxFsv16Network: true})
	fmtMap := mvnConvFormats(p)

	rewriteMVNConvMVN(p, fmtMap, lo)

	assert.Equal(t, FormatByxfAf32, fmtMap.at(p.Node("conv")), "a grouped convolution is outside the validated case")
}

func TestRewriteMVNConvMVNAcrossChannels(t *testing.T) {
	p := mvnConvMVNGraph(t, NewConvolutionAttrs(), &MVNAttrs{AcrossChannels: true, NormalizeVariance: true})
	lo := NewStaticOptimizer().SetAttributes(OptimizationAttributes{BFsYxFsv16Network: true})
	fmtMap := mvnConvFormats(p)

	rewriteMVNConvMVN(p, fmtMap, lo)

	assert.Equal(t, FormatByxfAf32, fmtMap.at(p.Node("conv")))
	assert.Equal(t, FormatBfyx, fmtMap.at(p.Node("mvn2")))
}
