package domain

import (
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoCompartmentManhole(name string, p orb.Point) *Manhole {
	return NewManhole(name, NewCompartmentAt(name+"_a", p), NewCompartmentAt(name+"_b", p))
}

func TestSetCompartmentWithoutParentIsRejected(t *testing.T) {
	tests := []struct {
		name string
		set  func(*SewerConnection, *Compartment)
		get  func(*SewerConnection) *Compartment
	}{
		{"source", (*SewerConnection).SetSourceCompartment, (*SewerConnection).SourceCompartment},
		{"target", (*SewerConnection).SetTargetCompartment, (*SewerConnection).TargetCompartment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, logger := newRecorder()
			conn := NewSewerConnection("conn")
			conn.SetLogger(logger)

			tt.set(conn, NewCompartment("orphan"))

			assert.Nil(t, tt.get(conn))
			assert.Equal(t, 1, rec.count(slog.LevelWarn))
			assert.Equal(t,
				"cannot add compartment orphan as "+tt.name+" of connection conn, because it has no parent manhole",
				rec.messages()[0])
		})
	}
}

func TestSetCompartmentWithoutParentKeepsCurrentEndpoint(t *testing.T) {
	rec, logger := newRecorder()
	m1 := NewManhole("m1", NewCompartmentAt("c1", orb.Point{0, 0}))
	m2 := NewManhole("m2", NewCompartmentAt("c2", orb.Point{3, 4}))
	conn := NewSewerConnection("conn")
	conn.SetLogger(logger)
	conn.SetSourceCompartment(m1.Compartments()[0])
	conn.SetTargetCompartment(m2.Compartments()[0])
	changes := changeCounter{}
	conn.OnPropertyChanged(changes.record)

	conn.SetSourceCompartment(NewCompartment("orphan"))
	conn.SetTargetCompartment(NewCompartment("stray"))

	assert.Same(t, m1.Compartments()[0], conn.SourceCompartment())
	assert.Same(t, m2.Compartments()[0], conn.TargetCompartment())
	assert.Same(t, m1, conn.SourceManhole())
	assert.Same(t, m2, conn.TargetManhole())
	assert.Equal(t, "c1", conn.SourceCompartmentName())
	assert.Equal(t, orb.LineString{{0, 0}, {3, 4}}, conn.Geometry())
	assert.Zero(t, changes.total())
	assert.Equal(t, 2, rec.count(slog.LevelWarn))
}

func TestSetCompartmentDerivesManhole(t *testing.T) {
	src := NewManhole("m1", NewCompartmentAt("c1", orb.Point{0, 0}))
	tgt := NewManhole("m2", NewCompartmentAt("c2", orb.Point{3, 4}))
	conn := NewSewerConnection("conn")

	conn.SetSourceCompartment(src.Compartments()[0])
	assert.Same(t, src, conn.SourceManhole())
	assert.Nil(t, conn.Geometry(), "geometry needs both ends")

	conn.SetTargetCompartment(tgt.Compartments()[0])
	assert.Same(t, tgt, conn.TargetManhole())
	assert.Equal(t, orb.LineString{{0, 0}, {3, 4}}, conn.Geometry())
	assert.InDelta(t, 5.0, conn.Length(), 1e-9)
	assert.Equal(t, "c1", conn.SourceCompartmentName())
	assert.Equal(t, "c2", conn.TargetCompartmentName())
	assert.Equal(t, []*SewerConnection{conn}, src.OutgoingConnections())
	assert.Equal(t, []*SewerConnection{conn}, tgt.IncomingConnections())
}

func TestClearingCompartmentClearsEndpoint(t *testing.T) {
	m := NewManhole("m1", NewCompartmentAt("c1", orb.Point{0, 0}))
	conn := NewSewerConnection("conn")
	conn.SetSourceCompartment(m.Compartments()[0])

	conn.SetSourceCompartment(nil)

	assert.Nil(t, conn.Source())
	assert.Nil(t, conn.SourceCompartment())
	assert.Equal(t, "", conn.SourceCompartmentName())
	assert.Empty(t, m.OutgoingConnections())
}

func TestSetSourceAndTargetDefaultCompartments(t *testing.T) {
	m := NewManhole("m", NewCompartment("a"), NewCompartment("b"))
	conn := NewSewerConnection("conn")

	conn.SetSource(m)
	conn.SetTarget(m)

	assert.Equal(t, "a", conn.SourceCompartment().Name())
	assert.Equal(t, "b", conn.TargetCompartment().Name())
	assert.True(t, conn.IsInternalConnection())
}

func TestSetTargetSingleCompartmentUsesFirst(t *testing.T) {
	m := NewManhole("m", NewCompartment("only"))
	conn := NewSewerConnection("conn")

	conn.SetTarget(m)

	assert.Equal(t, "only", conn.TargetCompartment().Name())
}

func TestSetSourceResolvesNameKey(t *testing.T) {
	m1 := NewManhole("m1", NewCompartment("x1"), NewCompartment("shared"))
	m2 := NewManhole("m2", NewCompartment("y1"), NewCompartment("SHARED"))
	conn := NewSewerConnection("conn")
	conn.SetSourceCompartment(m1.Compartments()[1])

	conn.SetSource(m2)

	assert.Same(t, m2.Compartments()[1], conn.SourceCompartment())
	assert.Empty(t, m1.OutgoingConnections())
}

func TestSetSourceKeepsMemberCompartment(t *testing.T) {
	m := NewManhole("m", NewCompartment("a"), NewCompartment("b"))
	conn := NewSewerConnection("conn")
	conn.SetSourceCompartment(m.Compartments()[1])

	conn.SetSource(m)

	assert.Equal(t, "b", conn.SourceCompartment().Name())
}

func TestSetSourceManholeWithoutCompartments(t *testing.T) {
	conn := NewSewerConnection("conn")

	conn.SetSource(NewManhole("empty"))

	assert.Nil(t, conn.Source())
	assert.Nil(t, conn.SourceCompartment())
}

func TestSetSourceHydroNode(t *testing.T) {
	m := NewManhole("m", NewCompartmentAt("c", orb.Point{0, 0}))
	node := NewHydroNode("boundary", orb.Point{10, 0})
	conn := NewSewerConnection("conn")
	conn.SetSourceCompartment(m.Compartments()[0])

	conn.SetSource(node)
	conn.SetTarget(m)

	assert.Same(t, node, conn.Source())
	assert.Nil(t, conn.SourceCompartment())
	assert.Equal(t, orb.LineString{{10, 0}, {0, 0}}, conn.Geometry())

	node.SetGeometry(orb.Point{20, 0})
	assert.Equal(t, orb.LineString{{20, 0}, {0, 0}}, conn.Geometry())

	conn.SetSource(nil)
	assert.Nil(t, conn.Source())
	assert.Nil(t, conn.Geometry())
}

func TestConnectionGeometryFollowsManholes(t *testing.T) {
	m1 := NewManhole("m1", NewCompartmentAt("c1", orb.Point{0, 0}))
	m2 := NewManhole("m2", NewCompartmentAt("c2", orb.Point{3, 0}))
	conn := NewSewerConnection("conn")
	conn.SetSourceCompartment(m1.Compartments()[0])
	conn.SetTargetCompartment(m2.Compartments()[0])
	require.InDelta(t, 3.0, conn.Length(), 1e-9)

	m2.Compartments()[0].SetGeometry(orb.Point{0, 4})
	assert.Equal(t, orb.LineString{{0, 0}, {0, 4}}, conn.Geometry())
	assert.InDelta(t, 4.0, conn.Length(), 1e-9)

	m1.MoveTo(orb.Point{3, 0})
	assert.Equal(t, orb.LineString{{3, 0}, {0, 4}}, conn.Geometry())
	assert.InDelta(t, 5.0, conn.Length(), 1e-9)
}

func TestConnectionIdenticalEndsAreSeparated(t *testing.T) {
	m := NewManhole("m", NewCompartmentAt("a", orb.Point{2, 2}), NewCompartmentAt("b", orb.Point{2, 2}))
	conn := NewSewerConnection("conn")

	conn.SetSource(m)
	conn.SetTarget(m)

	assert.Equal(t, orb.LineString{{2, 2}, {3, 2}}, conn.Geometry())
}

func TestConnectionFollowsMovedCompartment(t *testing.T) {
	m1 := NewManhole("m1", NewCompartmentAt("c1", orb.Point{0, 0}))
	m2 := NewManhole("m2", NewCompartmentAt("c2", orb.Point{5, 0}))
	m3 := NewManhole("m3", NewCompartmentAt("c3", orb.Point{0, 7}))
	conn := NewSewerConnection("conn")
	conn.SetSourceCompartment(m1.Compartments()[0])
	conn.SetTargetCompartment(m2.Compartments()[0])
	moved := m2.Compartments()[0]

	m3.AddCompartment(moved)

	assert.Same(t, m3, conn.TargetManhole())
	assert.Empty(t, m2.IncomingConnections())
	assert.Equal(t, []*SewerConnection{conn}, m3.IncomingConnections())
	assert.Equal(t, m3.Geometry(), conn.Geometry()[1])

	m3.RemoveCompartment(moved)
	assert.Nil(t, conn.Target())
	assert.Nil(t, conn.TargetCompartment())
	assert.Nil(t, conn.Geometry())
}

func TestConnectionUnsubscribesFromPreviousManhole(t *testing.T) {
	m1 := NewManhole("m1", NewCompartmentAt("c1", orb.Point{0, 0}))
	m2 := NewManhole("m2", NewCompartmentAt("c2", orb.Point{5, 0}))
	m3 := NewManhole("m3", NewCompartmentAt("c3", orb.Point{0, 5}))
	conn := NewSewerConnection("conn")
	conn.SetSource(m1)
	conn.SetTarget(m2)
	conn.SetTarget(m3)

	changes := changeCounter{}
	conn.OnPropertyChanged(changes.record)
	m2.MoveTo(orb.Point{100, 100})

	assert.Zero(t, changes.total())
	assert.Equal(t, orb.LineString{{0, 0}, {0, 5}}, conn.Geometry())
}

func TestSetCompartmentNameKey(t *testing.T) {
	conn := NewSewerConnection("conn")
	conn.SetSourceCompartmentName("c1")
	assert.Equal(t, "c1", conn.SourceCompartmentName())

	m := NewManhole("m", NewCompartment("c0"), NewCompartment("C1"))
	conn.SetSource(m)
	assert.Equal(t, "C1", conn.SourceCompartmentName())

	conn.SourceCompartment().SetName("renamed")
	assert.Equal(t, "renamed", conn.SourceCompartmentName())
}
