package cldnn

import (
	"slices"

	"github.com/pkg/errors"
)

// Program is a directed acyclic multigraph of nodes together with a
// processing order: a topological order iterable forwards and backwards.
//
// The graph is built with AddNode, after which BuildProcessingOrder must be
// called once; passes then consume ProcessingOrder and rewire edges through
// AddIntermediate, which keeps the order valid by splicing new nodes directly
// after their producer.
type Program struct {
	nodes   map[string]*Node
	order   []*Node
	inOrder map[*Node]bool
}

// NewProgram returns an empty program graph.
func NewProgram() *Program {
	return &Program{
		nodes:   make(map[string]*Node),
		inOrder: make(map[*Node]bool),
	}
}

// AddNode creates a node and wires it to the already-added dependencies.
// Nodes of KindData are excluded from the data flow; every other kind
// participates in it. attrs may be nil for kinds without attributes.
func (p *Program) AddNode(id string, kind OpKind, attrs any, layout Layout, depIDs ...string) (*Node, error) {
	if id == "" {
		return nil, errors.New("node id must not be empty")
	}
	if _, exists := p.nodes[id]; exists {
		return nil, errors.Errorf("node %q already exists", id)
	}
	deps := make([]*Node, len(depIDs))
	for i, depID := range depIDs {
		dep, ok := p.nodes[depID]
		if !ok {
			return nil, errors.Errorf("node %q depends on unknown node %q", id, depID)
		}
		deps[i] = dep
	}
	n := &Node{
		id:          id,
		kind:        kind,
		attrs:       attrs,
		deps:        deps,
		layout:      layout,
		layoutValid: true,
		dataFlow:    kind != KindData,
	}
	for _, dep := range deps {
		dep.users = append(dep.users, n)
	}
	p.nodes[id] = n
	return n, nil
}

// Node returns the node with the given id, or nil.
func (p *Program) Node(id string) *Node {
	return p.nodes[id]
}

// BuildProcessingOrder computes the processing order: a topological order over
// all nodes, dependencies first. It fails if the graph contains a cycle.
func (p *Program) BuildProcessingOrder() error {
	order := make([]*Node, 0, len(p.nodes))
	done := make(map[*Node]bool, len(p.nodes))

	ready := func(n *Node) bool {
		for _, dep := range n.deps {
			if !done[dep] {
				return false
			}
		}
		return true
	}

	// Ready-set sweep: repeatedly collect nodes whose dependencies are all
	// done. Iterating p.nodes directly would be non-deterministic, so each
	// sweep scans the remaining nodes in insertion-independent sorted order.
	remaining := make([]*Node, 0, len(p.nodes))
	for _, n := range p.nodes {
		remaining = append(remaining, n)
	}
	slices.SortFunc(remaining, func(a, b *Node) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})

	for len(remaining) > 0 {
		progressed := false
		next := remaining[:0]
		for _, n := range remaining {
			if ready(n) {
				order = append(order, n)
				done[n] = true
				progressed = true
			} else {
				next = append(next, n)
			}
		}
		remaining = next
		if !progressed {
			return errors.Errorf("program graph has a cycle involving %d nodes", len(remaining))
		}
	}

	p.order = order
	p.inOrder = make(map[*Node]bool, len(order))
	for _, n := range order {
		p.inOrder[n] = true
	}
	return nil
}

// ProcessingOrder returns the processing order, dependencies first. Passes
// that mutate the graph while iterating must range over a clone.
func (p *Program) ProcessingOrder() []*Node {
	return p.order
}

// ReverseProcessingOrder returns a reversed copy of the processing order.
func (p *Program) ReverseProcessingOrder() []*Node {
	rev := slices.Clone(p.order)
	slices.Reverse(rev)
	return rev
}

// GetOrCreate returns the node for the given reorder description, creating it
// if the program does not have it yet. Created nodes are unwired; they enter
// the graph and the processing order through AddIntermediate.
func (p *Program) GetOrCreate(desc *ReorderDesc) *Node {
	if n, ok := p.nodes[desc.ID]; ok {
		return n
	}
	n := &Node{
		id:          desc.ID,
		kind:        KindReorder,
		attrs:       &ReorderAttrs{Input: desc.Input, Output: desc.Output},
		layout:      desc.Output,
		layoutValid: true,
		dataFlow:    true,
	}
	p.nodes[desc.ID] = n
	return n
}

// AddIntermediate inserts newNode between producer and consumer, replacing
// the first consumer input that refers to producer. When takeOwnership is
// false the node is a cached instance shared with other consumers and the
// program must not claim it exclusively.
func (p *Program) AddIntermediate(newNode, consumer, producer *Node, takeOwnership bool) error {
	idx := slices.Index(consumer.deps, producer)
	if idx < 0 {
		return errors.Errorf("node %q is not a dependency of %q", producer.id, consumer.id)
	}
	return p.AddIntermediateAt(newNode, consumer, idx, takeOwnership)
}

// AddIntermediateAt inserts newNode in front of the consumer's inputIdx-th
// input.
func (p *Program) AddIntermediateAt(newNode, consumer *Node, inputIdx int, takeOwnership bool) error {
	if inputIdx < 0 || inputIdx >= len(consumer.deps) {
		return errors.Errorf("node %q has no input %d", consumer.id, inputIdx)
	}
	producer := consumer.deps[inputIdx]
	if newNode == consumer || newNode == producer {
		return errors.Errorf("cannot insert %q between %q and %q", newNode.id, producer.id, consumer.id)
	}

	consumer.deps[inputIdx] = newNode
	if userIdx := slices.Index(producer.users, consumer); userIdx >= 0 {
		producer.users = slices.Delete(producer.users, userIdx, userIdx+1)
	}
	// A shared reorder may already be wired to the producer.
	if !slices.Contains(newNode.deps, producer) {
		newNode.deps = append(newNode.deps, producer)
		producer.users = append(producer.users, newNode)
	}
	newNode.users = append(newNode.users, consumer)
	if !takeOwnership {
		newNode.shared = true
	}
	consumer.layoutValid = false

	if !p.inOrder[newNode] {
		pos := slices.Index(p.order, producer)
		if pos < 0 {
			return errors.Errorf("producer %q is not in the processing order", producer.id)
		}
		p.order = slices.Insert(p.order, pos+1, newNode)
		p.inOrder[newNode] = true
	}
	return nil
}

// RecalcOutputLayouts recomputes node output layouts in processing order.
// With force set every node is recomputed; otherwise only nodes invalidated
// by graph rewiring are. A recomputed layout that changed invalidates the
// node's users in turn, so the change ripples through every downstream node
// whose format derives from it.
func (p *Program) RecalcOutputLayouts(force bool) {
	for _, n := range p.order {
		if !force && n.layoutValid {
			continue
		}
		old := n.layout
		n.layout = n.calcOutputLayout()
		n.layoutValid = true
		if n.layout != old {
			for _, user := range n.users {
				user.layoutValid = false
			}
		}
	}
}
