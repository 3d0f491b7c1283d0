package cldnn

// OptimizationAttributes are global observations the layout optimizer made
// about the network, used to gate network-wide work-arounds.
type OptimizationAttributes struct {
	// BFsYxFsv16Network is set when the network predominantly runs in
	// b_fs_yx_fsv16 and the related int8 work-arounds apply.
	BFsYxFsv16Network bool
	FsBYxFsv32Network bool
	BFsZyxFsv16Network bool
}

// LayoutOptimizer is the oracle the reorder pass consults for per-node
// format support and reorder fusibility. All operations are pure.
type LayoutOptimizer interface {
	// PreferredFormat returns the format the node's kernels run best in,
	// or FormatAny when there is no preference.
	PreferredFormat(n *Node) Format

	// IsFormatSupported reports whether a kernel exists for the node
	// operating on inputs of the given format.
	IsFormatSupported(n *Node, f Format) bool

	// CanFuseReorder reports whether a hypothetical format change on the
	// producer→consumer edge would fuse into one side at zero run-time
	// cost. The predicate is asymmetric in its arguments.
	CanFuseReorder(producer, consumer *Node, producerFmt, consumerFmt Format) bool

	// OptimizationAttributes returns the global network attributes.
	OptimizationAttributes() OptimizationAttributes
}

// fuseRule is one CanFuseReorder record of a StaticOptimizer. Empty ids and
// FormatAny fields act as wildcards.
type fuseRule struct {
	producerID  string
	consumerID  string
	producerFmt Format
	consumerFmt Format
}

// StaticOptimizer is a rule-table LayoutOptimizer. Preferences, support
// restrictions and fusible edges are registered up front; afterwards the
// optimizer is pure and stateless, as the pass requires.
type StaticOptimizer struct {
	preferredByID   map[string]Format
	preferredByKind map[OpKind]Format
	supportedOnly   map[string]map[Format]bool
	forbidden       map[string]map[Format]bool
	fuseRules       []fuseRule
	attrs           OptimizationAttributes
}

// NewStaticOptimizer returns an optimizer with no preferences, every
// non-image format supported everywhere and nothing fusible.
func NewStaticOptimizer() *StaticOptimizer {
	return &StaticOptimizer{
		preferredByID:   make(map[string]Format),
		preferredByKind: make(map[OpKind]Format),
		supportedOnly:   make(map[string]map[Format]bool),
		forbidden:       make(map[string]map[Format]bool),
	}
}

// Prefer records the preferred format for the node with the given id.
func (o *StaticOptimizer) Prefer(nodeID string, f Format) *StaticOptimizer {
	o.preferredByID[nodeID] = f
	return o
}

// PreferKind records the preferred format for all nodes of a kind. Per-id
// preferences take precedence.
func (o *StaticOptimizer) PreferKind(k OpKind, f Format) *StaticOptimizer {
	o.preferredByKind[k] = f
	return o
}

// Support restricts the node to the given formats; formats outside the list
// become unsupported.
func (o *StaticOptimizer) Support(nodeID string, fmts ...Format) *StaticOptimizer {
	set := make(map[Format]bool, len(fmts))
	for _, f := range fmts {
		set[f] = true
	}
	o.supportedOnly[nodeID] = set
	return o
}

// Forbid marks the given formats unsupported for the node.
func (o *StaticOptimizer) Forbid(nodeID string, fmts ...Format) *StaticOptimizer {
	set := o.forbidden[nodeID]
	if set == nil {
		set = make(map[Format]bool, len(fmts))
		o.forbidden[nodeID] = set
	}
	for _, f := range fmts {
		set[f] = true
	}
	return o
}

// AllowFuse records that a reorder on the edge producerID→consumerID from
// producerFmt to consumerFmt fuses at zero cost. An empty id or FormatAny
// matches anything.
func (o *StaticOptimizer) AllowFuse(producerID, consumerID string, producerFmt, consumerFmt Format) *StaticOptimizer {
	o.fuseRules = append(o.fuseRules, fuseRule{producerID, consumerID, producerFmt, consumerFmt})
	return o
}

// SetAttributes replaces the global network attributes.
func (o *StaticOptimizer) SetAttributes(attrs OptimizationAttributes) *StaticOptimizer {
	o.attrs = attrs
	return o
}

func (o *StaticOptimizer) PreferredFormat(n *Node) Format {
	if f, ok := o.preferredByID[n.ID()]; ok {
		return f
	}
	if f, ok := o.preferredByKind[n.Kind()]; ok {
		return f
	}
	return FormatAny
}

func (o *StaticOptimizer) IsFormatSupported(n *Node, f Format) bool {
	if only, ok := o.supportedOnly[n.ID()]; ok {
		return only[f]
	}
	if o.forbidden[n.ID()][f] {
		return false
	}
	return !f.IsImage()
}

func (o *StaticOptimizer) CanFuseReorder(producer, consumer *Node, producerFmt, consumerFmt Format) bool {
	for _, r := range o.fuseRules {
		if r.producerID != "" && r.producerID != producer.ID() {
			continue
		}
		if r.consumerID != "" && r.consumerID != consumer.ID() {
			continue
		}
		if r.producerFmt != FormatAny && r.producerFmt != producerFmt {
			continue
		}
		if r.consumerFmt != FormatAny && r.consumerFmt != consumerFmt {
			continue
		}
		return true
	}
	return false
}

func (o *StaticOptimizer) OptimizationAttributes() OptimizationAttributes {
	return o.attrs
}
