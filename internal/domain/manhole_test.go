package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManholeGeometryIsMeanOfCompartments(t *testing.T) {
	c1 := NewCompartmentAt("c1", orb.Point{2, 3})
	c2 := NewCompartmentAt("c2", orb.Point{-1, -3})

	m := NewManhole("m1", c1, c2)

	assert.Equal(t, orb.Point{0.5, 0}, m.Geometry())
	for _, c := range m.Compartments() {
		p, ok := c.Geometry()
		require.True(t, ok)
		assert.Equal(t, m.Geometry(), p)
	}
}

func TestManholeWithoutCompartmentsIsAtOrigin(t *testing.T) {
	tests := []struct {
		name string
		m    *Manhole
	}{
		{"no compartments", NewManhole("m")},
		{"unlocated compartments", NewManhole("m", NewCompartment("a"), NewCompartment("b"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, orb.Point{0, 0}, tt.m.Geometry())
		})
	}
}

func TestManholeAddAndRemoveCompartment(t *testing.T) {
	m := NewManhole("m")
	c := NewCompartmentAt("c", orb.Point{4, 4})

	m.AddCompartment(c)
	assert.Same(t, m, c.ParentManhole())
	assert.Equal(t, orb.Point{4, 4}, m.Geometry())

	assert.True(t, m.RemoveCompartment(c))
	assert.Nil(t, c.ParentManhole())
	assert.Empty(t, m.Compartments())
	assert.Equal(t, Origin, m.Geometry())

	assert.False(t, m.RemoveCompartment(c), "removing a foreign compartment")
}

func TestManholeAddCompartmentMovesFromPreviousOwner(t *testing.T) {
	c := NewCompartmentAt("c", orb.Point{1, 1})
	a := NewManhole("a", c)
	b := NewManhole("b")

	aChanges, bChanges := changeCounter{}, changeCounter{}
	a.OnPropertyChanged(aChanges.record)
	b.OnPropertyChanged(bChanges.record)

	b.AddCompartment(c)

	assert.Same(t, b, c.ParentManhole())
	assert.Empty(t, a.Compartments())
	assert.Equal(t, []*Compartment{c}, b.Compartments())
	assert.Equal(t, 1, aChanges[PropertyCompartments])
	assert.Equal(t, 1, bChanges[PropertyCompartments])
}

func TestManholeSetCompartmentsNotifiesOnce(t *testing.T) {
	m := NewManhole("m", NewCompartmentAt("old", orb.Point{9, 9}))
	old := m.Compartments()[0]
	changes := changeCounter{}
	m.OnPropertyChanged(changes.record)

	m.SetCompartments([]*Compartment{
		NewCompartmentAt("a", orb.Point{0, 0}),
		NewCompartmentAt("b", orb.Point{2, 0}),
		NewCompartmentAt("c", orb.Point{4, 0}),
	})

	assert.Equal(t, 1, changes[PropertyCompartments])
	assert.Equal(t, 1, changes[PropertyGeometry])
	assert.Equal(t, orb.Point{2, 0}, m.Geometry())
	assert.Nil(t, old.ParentManhole())
	assert.Len(t, m.Compartments(), 3)
}

func TestCompartmentSetGeometryMovesManhole(t *testing.T) {
	a := NewCompartmentAt("a", orb.Point{0, 0})
	b := NewCompartmentAt("b", orb.Point{0, 0})
	m := NewManhole("m", a, b)

	a.SetGeometry(orb.Point{5, 6})

	assert.Equal(t, orb.Point{5, 6}, m.Geometry())
	p, _ := b.Geometry()
	assert.Equal(t, orb.Point{5, 6}, p)

	detached := NewCompartment("d")
	detached.SetGeometry(orb.Point{1, 2})
	p, ok := detached.Geometry()
	assert.True(t, ok)
	assert.Equal(t, orb.Point{1, 2}, p)
}

func TestManholeCompartmentByNameIgnoresCase(t *testing.T) {
	m := NewManhole("m", NewCompartment("Put_1"), NewCompartment("Put_2"))

	require.NotNil(t, m.CompartmentByName("put_2"))
	assert.Equal(t, "Put_2", m.CompartmentByName("PUT_2").Name())
	assert.True(t, m.ContainsCompartmentWithName("PUT_1"))
	assert.Nil(t, m.CompartmentByName(""))
	assert.False(t, m.ContainsCompartmentWithName("missing"))
}

func TestSubscriptionCancel(t *testing.T) {
	m := NewManhole("m")
	changes := changeCounter{}
	sub := m.OnPropertyChanged(changes.record)

	m.AddCompartment(NewCompartment("a"))
	sub.Cancel()
	m.AddCompartment(NewCompartment("b"))

	assert.Equal(t, 1, changes[PropertyCompartments])
	Subscription{}.Cancel()
}
