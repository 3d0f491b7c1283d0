package cldnn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// graphBuilder keeps the handcrafted test graphs short.
type graphBuilder struct {
	t *testing.T
	p *Program
}

func newGraph(t *testing.T) *graphBuilder {
	t.Helper()
	return &graphBuilder{t: t, p: NewProgram()}
}

func (g *graphBuilder) node(id string, kind OpKind, attrs any, layout Layout, deps ...string) *Node {
	g.t.Helper()
	n, err := g.p.AddNode(id, kind, attrs, layout, deps...)
	require.NoError(g.t, err)
	return n
}

func (g *graphBuilder) build() *Program {
	g.t.Helper()
	require.NoError(g.t, g.p.BuildProcessingOrder())
	return g.p
}

func f32Layout(f Format, feature, x, y int) Layout {
	return Layout{DataType: DataTypeF32, Format: f, Shape: NewShape(1, feature, x, y)}
}

func i8Layout(f Format, feature, x, y int) Layout {
	return Layout{DataType: DataTypeI8, Format: f, Shape: NewShape(1, feature, x, y)}
}

// reorderNodes returns the reorder nodes present in the processing order.
func reorderNodes(p *Program) []*Node {
	var out []*Node
	for _, n := range p.ProcessingOrder() {
		if n.Kind() == KindReorder {
			out = append(out, n)
		}
	}
	return out
}
