package cldnn

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountReorders(t *testing.T) {
	g := newGraph(t)
	a := g.node("a", KindInput, nil, f32Layout(FormatBfyx, 8, 4, 4))
	b := g.node("b", KindActivation, nil, f32Layout(FormatBfyx, 8, 4, 4), "a")
	c := g.node("c", KindActivation, nil, f32Layout(FormatYxfb, 8, 4, 4), "b")
	g.build()

	lo := NewStaticOptimizer()
	fmtMap := formatMap{a: FormatBfyx, b: FormatBfyx, c: FormatYxfb}

	cnt := countReorders(fmtMap, lo, b)
	assert.Equal(t, 1, cnt.number, "only the b->c edge needs a reorder")
	assert.Equal(t, b.OutputLayout().Count(), cnt.elements)

	// An unlabelled neighbour counts as a pending reorder.
	fmtMap[c] = FormatAny
	cnt = countReorders(fmtMap, lo, b)
	assert.Equal(t, 1, cnt.number)

	// A fusible mismatch does not count.
	fmtMap[c] = FormatYxfb
	lo.AllowFuse("b", "c", FormatBfyx, FormatYxfb)
	cnt = countReorders(fmtMap, lo, b)
	assert.Equal(t, 0, cnt.number)
}

func TestMinimizeAdoptsFallbackFormat(t *testing.T) {
	g := newGraph(t)
	a := g.node("a", KindInput, nil, f32Layout(FormatBfyx, 8, 4, 4))
	b := g.node("b", KindActivation, nil, f32Layout(FormatBfyx, 8, 4, 4), "a")
	p := g.build()

	lo := NewStaticOptimizer().Prefer("a", FormatBfyx)
	fmtMap := formatMap{a: FormatBfyx, b: FormatAny}

	minimizeLocalReorders(p, fmtMap, lo)
	assert.Equal(t, FormatBfyx, fmtMap.at(b), "node adopts its own output format")
}

func TestMinimizePicksMajorityNeighbourFormat(t *testing.T) {
	// b sits between one bfyx producer and two yxfb consumers; yxfb wins
	// on reorder count.
	g := newGraph(t)
	a := g.node("a", KindInput, nil, f32Layout(FormatBfyx, 8, 4, 4))
	b := g.node("b", KindActivation, nil, f32Layout(FormatBfyx, 8, 4, 4), "a")
	c := g.node("c", KindActivation, nil, f32Layout(FormatYxfb, 8, 4, 4), "b")
	d := g.node("d", KindActivation, nil, f32Layout(FormatYxfb, 8, 4, 4), "b")
	p := g.build()

	lo := NewStaticOptimizer().
		Prefer("a", FormatBfyx).
		Prefer("c", FormatYxfb).
		Prefer("d", FormatYxfb)
	fmtMap := formatMap{a: FormatBfyx, b: FormatAny, c: FormatYxfb, d: FormatYxfb}

	minimizeLocalReorders(p, fmtMap, lo)
	assert.Equal(t, FormatYxfb, fmtMap.at(b))
}

func TestMinimizeTieBreaksOnElements(t *testing.T) {
	// One reorder either way; the candidate that reorders the smaller
	// tensor wins. The producer into b is large, the edge out of b is
	// small, so keeping the producer's format moves the reorder to the
	// small edge.
	g := newGraph(t)
	a := g.node("a", KindInput, nil, f32Layout(FormatBfyx, 64, 32, 32))
	b := g.node("b", KindPooling, nil, f32Layout(FormatBfyx, 64, 4, 4), "a")
	c := g.node("c", KindActivation, nil, f32Layout(FormatYxfb, 64, 4, 4), "b")
	p := g.build()

	lo := NewStaticOptimizer().
		Prefer("a", FormatBfyx).
		Prefer("c", FormatYxfb)
	fmtMap := formatMap{a: FormatBfyx, b: FormatAny, c: FormatYxfb}

	minimizeLocalReorders(p, fmtMap, lo)

	// bfyx: reorder on b->c costs b.Count(); yxfb: reorder on a->b costs
	// a.Count(). b is smaller.
	assert.Equal(t, FormatBfyx, fmtMap.at(b))
}

func TestMinimizeKeepsChoiceWithoutImprovement(t *testing.T) {
	g := newGraph(t)
	a := g.node("a", KindInput, nil, f32Layout(FormatBfyx, 8, 4, 4))
	b := g.node("b", KindActivation, nil, f32Layout(FormatBfyx, 8, 4, 4), "a")
	c := g.node("c", KindActivation, nil, f32Layout(FormatYxfb, 8, 4, 4), "b")
	p := g.build()

	lo := NewStaticOptimizer().
		Prefer("a", FormatBfyx).
		Prefer("c", FormatYxfb)
	fmtMap := formatMap{a: FormatBfyx, b: FormatAny, c: FormatYxfb}

	minimizeLocalReorders(p, fmtMap, lo)
	// Both candidates cost one reorder over equal sizes; the starting
	// choice (the fallback) is kept.
	assert.Equal(t, FormatBfyx, fmtMap.at(b))
}

func TestMinimizeIsIdempotent(t *testing.T) {
	g := newGraph(t)
	a := g.node("a", KindInput, nil, f32Layout(FormatBfyx, 8, 4, 4))
	b := g.node("b", KindActivation, nil, f32Layout(FormatBfyx, 8, 4, 4), "a")
	c := g.node("c", KindActivation, nil, f32Layout(FormatYxfb, 8, 4, 4), "b")
	d := g.node("d", KindActivation, nil, f32Layout(FormatYxfb, 8, 4, 4), "c")
	p := g.build()

	lo := NewStaticOptimizer().
		Prefer("a", FormatBfyx).
		Prefer("d", FormatYxfb)
	fmtMap := formatMap{a: FormatBfyx, b: FormatAny, c: FormatAny, d: FormatYxfb}

	minimizeLocalReorders(p, fmtMap, lo)
	after := maps.Clone(fmtMap)

	minimizeLocalReorders(p, fmtMap, lo)
	require.Equal(t, after, fmtMap)
}

func TestMinimizeSkipsNodesWithPreference(t *testing.T) {
	g := newGraph(t)
	a := g.node("a", KindInput, nil, f32Layout(FormatBfyx, 8, 4, 4))
	b := g.node("b", KindActivation, nil, f32Layout(FormatBfyx, 8, 4, 4), "a")
	p := g.build()

	lo := NewStaticOptimizer().
		Prefer("a", FormatBfyx).
		Prefer("b", FormatYxfb)
	// The propagated value differs from the preference; minimization must
	// not second-guess a node the optimizer had an opinion about.
	fmtMap := formatMap{a: FormatBfyx, b: FormatBfyx}

	minimizeLocalReorders(p, fmtMap, lo)
	assert.Equal(t, FormatBfyx, fmtMap.at(b))
}
