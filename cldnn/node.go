package cldnn

import "github.com/gomlx/exceptions"

// OpKind identifies the primitive a node executes.
type OpKind int

const (
	KindInput OpKind = iota
	// KindData marks weights, biases and other constant providers. Data
	// nodes are excluded from the data flow and from format selection.
	KindData
	KindConvolution
	KindDeconvolution
	KindBinaryConvolution
	KindFullyConnected
	KindMVN
	KindPooling
	KindEltwise
	KindActivation
	KindReshape
	KindDetectionOutput
	KindReorder
)

var opKindNames = map[OpKind]string{
	KindInput:             "input",
	KindData:              "data",
	KindConvolution:       "convolution",
	KindDeconvolution:     "deconvolution",
	KindBinaryConvolution: "binary_convolution",
	KindFullyConnected:    "fully_connected",
	KindMVN:               "mvn",
	KindPooling:           "pooling",
	KindEltwise:           "eltwise",
	KindActivation:        "activation",
	KindReshape:           "reshape",
	KindDetectionOutput:   "detection_output",
	KindReorder:           "reorder",
}

func (k OpKind) String() string {
	if name, ok := opKindNames[k]; ok {
		return name
	}
	return "op_kind(?)"
}

// ConvolutionAttrs carries the convolution attributes that format selection
// inspects. Zero-point and compensation terms are represented as booleans
// because the pass only ever asks whether they are present.
type ConvolutionAttrs struct {
	Groups           int
	Split            int
	DeformableGroups int
	DepthwiseSepOpt  bool
	Transposed       bool
	Dilation         [2]int
	ActivationsZeroPoints bool
	WeightsZeroPoints     bool
	Compensation          bool
}

// NewConvolutionAttrs returns attributes for a plain ungrouped convolution
// with dilation 1.
func NewConvolutionAttrs() *ConvolutionAttrs {
	return &ConvolutionAttrs{
		Groups:           1,
		Split:            1,
		DeformableGroups: 1,
		Dilation:         [2]int{1, 1},
	}
}

// MVNAttrs carries the mean-variance-normalization attributes.
type MVNAttrs struct {
	AcrossChannels   bool
	NormalizeVariance bool
}

// ReorderAttrs carries the declared input and output layouts of a reorder.
type ReorderAttrs struct {
	Input  Layout
	Output Layout
}

// Node is one vertex of the program graph. Dependencies and users are
// ordered; the output layout is the layout the node currently declares, which
// RecalcOutputLayouts may update after the graph is rewired.
type Node struct {
	id    string
	kind  OpKind
	attrs any

	deps  []*Node
	users []*Node

	layout      Layout
	layoutValid bool
	dataFlow    bool

	// shared is set when the node is a cached reorder reused across
	// consumers; the program does not take exclusive ownership of it.
	shared bool
}

func (n *Node) ID() string   { return n.id }
func (n *Node) Kind() OpKind { return n.kind }

// Dependencies returns the ordered inputs of the node. The returned slice is
// the node's own; callers that mutate the graph while iterating must clone it.
func (n *Node) Dependencies() []*Node { return n.deps }

// Users returns the nodes consuming this node's output.
func (n *Node) Users() []*Node { return n.users }

// Dependency returns the i-th input of the node.
func (n *Node) Dependency(i int) *Node {
	if i < 0 || i >= len(n.deps) {
		exceptions.Panicf("node %q has %d dependencies, index %d requested", n.id, len(n.deps), i)
	}
	return n.deps[i]
}

// IsInDataFlow reports whether the node participates in the tensor
// computation, as opposed to providing weights, constants or wiring.
func (n *Node) IsInDataFlow() bool { return n.dataFlow }

// IsShared reports whether the node is a cached reorder not exclusively
// owned by the program.
func (n *Node) IsShared() bool { return n.shared }

// OutputLayout returns the node's current output layout.
func (n *Node) OutputLayout() Layout { return n.layout }

// AsConvolution returns the convolution attributes, panicking if the node is
// not a convolution.
func (n *Node) AsConvolution() *ConvolutionAttrs {
	attrs, ok := n.attrs.(*ConvolutionAttrs)
	if !ok {
		exceptions.Panicf("node %q is a %s, not a convolution", n.id, n.kind)
	}
	return attrs
}

// AsMVN returns the MVN attributes, panicking if the node is not an MVN.
func (n *Node) AsMVN() *MVNAttrs {
	attrs, ok := n.attrs.(*MVNAttrs)
	if !ok {
		exceptions.Panicf("node %q is a %s, not an mvn", n.id, n.kind)
	}
	return attrs
}

// AsReorder returns the reorder attributes, panicking if the node is not a
// reorder.
func (n *Node) AsReorder() *ReorderAttrs {
	attrs, ok := n.attrs.(*ReorderAttrs)
	if !ok {
		exceptions.Panicf("node %q is a %s, not a reorder", n.id, n.kind)
	}
	return attrs
}

// calcOutputLayout recomputes the node's output layout from its primitive and
// its (already recomputed) inputs. Reorders declare their target layout;
// every other data-flow primitive keeps its element type and shape and takes
// its format from the first data-flow input.
func (n *Node) calcOutputLayout() Layout {
	switch n.kind {
	case KindReorder:
		return n.AsReorder().Output
	case KindInput, KindData:
		return n.layout
	default:
		for _, dep := range n.deps {
			if !dep.IsInDataFlow() {
				continue
			}
			l := n.layout
			l.Format = dep.layout.Format
			return l
		}
		return n.layout
	}
}
