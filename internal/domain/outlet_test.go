package domain

import (
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOutletCandidate(t *testing.T) {
	upstream := NewManhole("up", NewCompartmentAt("u", orb.Point{0, 0}))
	outlet := NewManhole("out", NewCompartmentAt("o", orb.Point{10, 0}))
	in := NewSewerConnection("in")
	in.SetSource(upstream)
	in.SetTarget(outlet)

	assert.Same(t, outlet.Compartments()[0], GetOutletCandidate(outlet))
	assert.Nil(t, GetOutletCandidate(upstream), "only outgoing")

	downstream := NewManhole("down", NewCompartmentAt("d", orb.Point{20, 0}))
	out := NewSewerConnection("out")
	out.SetSource(outlet)
	out.SetTarget(downstream)

	assert.Nil(t, GetOutletCandidate(outlet))
}

func TestGetOutletCandidateNeedsSingleCompartment(t *testing.T) {
	m := NewManhole("m", NewCompartment("a"), NewCompartment("b"))
	src := NewManhole("src", NewCompartment("s"))
	conn := NewSewerConnection("conn")
	conn.SetSource(src)
	conn.SetTarget(m)

	assert.Nil(t, GetOutletCandidate(m))
	assert.Nil(t, GetOutletCandidate(NewManhole("empty")))
	assert.Nil(t, GetOutletCandidate(nil))
}

func TestUpdateCompartmentToOutletCompartment(t *testing.T) {
	rec, logger := newRecorder()
	upstream := NewManhole("up", NewCompartmentAt("u", orb.Point{0, 0}))
	c := NewCompartmentAt("o", orb.Point{10, 0})
	c.BottomLevel = -2.5
	c.SurfaceLevel = 1.2
	c.ManholeWidth = 0.8
	c.Shape = ShapeRound
	m := NewManhole("out", c)
	m.SetLogger(logger)
	conn := NewSewerConnection("in")
	conn.SetSource(upstream)
	conn.SetTarget(m)

	outlet := UpdateCompartmentToOutletCompartment(m, c)

	require.NotNil(t, outlet)
	assert.True(t, outlet.IsOutlet())
	assert.Equal(t, "o", outlet.Name())
	assert.Equal(t, -2.5, outlet.BottomLevel)
	assert.Equal(t, 1.2, outlet.SurfaceLevel)
	assert.Equal(t, 0.8, outlet.ManholeWidth)
	assert.Equal(t, ShapeRound, outlet.Shape)
	p, _ := outlet.Geometry()
	assert.Equal(t, orb.Point{10, 0}, p)
	assert.Same(t, m, outlet.ParentManhole())
	assert.Nil(t, c.ParentManhole())
	assert.Equal(t, []*Compartment{outlet}, m.Compartments())
	assert.Same(t, outlet, conn.TargetCompartment())
	assert.Same(t, m, conn.TargetManhole())
	assert.Equal(t, 1, rec.count(slog.LevelInfo))

	assert.Same(t, outlet, UpdateCompartmentToOutletCompartment(m, outlet))
	assert.Equal(t, []*Compartment{outlet}, m.OutletCompartments())
}

func TestUpdateForeignCompartmentToOutlet(t *testing.T) {
	rec, logger := newRecorder()
	m := NewManhole("m", NewCompartment("a"))
	m.SetLogger(logger)

	assert.Nil(t, UpdateCompartmentToOutletCompartment(m, NewCompartment("stranger")))
	assert.Equal(t, 1, rec.count(slog.LevelWarn))
}
