package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNetwork(t *testing.T) *Network {
	t.Helper()
	n := NewNetwork("sample")
	require.NoError(t, n.AddManhole(NewManhole("m1", NewCompartmentAt("c1", orb.Point{0, 0}))))
	require.NoError(t, n.AddManhole(NewManhole("m2", NewCompartmentAt("c2", orb.Point{10, 0}))))
	for _, c := range n.Compartments() {
		c.ManholeWidth, c.ManholeLength = 1, 1
	}
	conn := NewPipe("p1")
	conn.SetSourceCompartmentName("c1")
	conn.SetTargetCompartmentName("C2")
	require.NoError(t, n.AddConnection(conn))
	require.NoError(t, n.Connect(conn))
	return n
}

func TestNetworkConnect(t *testing.T) {
	n := sampleNetwork(t)
	conn := n.ConnectionByName("p1")

	assert.Same(t, n.ManholeByName("m1"), conn.SourceManhole())
	assert.Same(t, n.ManholeByName("m2"), conn.TargetManhole())
	assert.Equal(t, "c2", conn.TargetCompartmentName())

	bad := NewSewerConnection("bad")
	bad.SetSourceCompartmentName("nowhere")
	require.NoError(t, n.AddConnection(bad))
	assert.ErrorIs(t, n.Connect(bad), ErrUnknownCompartment)
}

func TestNetworkDuplicateNames(t *testing.T) {
	n := sampleNetwork(t)

	assert.ErrorIs(t, n.AddManhole(NewManhole("M1")), ErrDuplicateName)
	assert.ErrorIs(t, n.AddNode(NewHydroNode("m2", orb.Point{})), ErrDuplicateName)
	assert.ErrorIs(t, n.AddConnection(NewPipe("P1")), ErrDuplicateName)
}

func TestNetworkUniqueCompartmentName(t *testing.T) {
	n := NewNetwork("n")
	assert.Equal(t, "Compartment001", n.UniqueCompartmentName())

	require.NoError(t, n.AddManhole(NewManhole("m", NewCompartment("Compartment001"))))
	assert.Equal(t, "Compartment002", n.UniqueCompartmentName())
}

func TestNetworkOutlets(t *testing.T) {
	n := sampleNetwork(t)

	cands := n.OutletCandidates()
	require.Len(t, cands, 1)
	assert.Equal(t, "m2", cands[0].Manhole.Name())

	promoted := n.PromoteOutlets()
	require.Len(t, promoted, 1)
	assert.Equal(t, promoted, n.OutletCompartments())
	assert.Empty(t, n.OutletCandidates())
}

func TestNetworkRemoveConnection(t *testing.T) {
	n := sampleNetwork(t)
	conn := n.ConnectionByName("p1")

	assert.True(t, n.RemoveConnection(conn))
	assert.Empty(t, n.Connections())
	assert.Empty(t, n.ManholeByName("m1").OutgoingConnections())
	assert.False(t, n.RemoveConnection(conn))
}

func TestNetworkRemoveNodeDisconnects(t *testing.T) {
	n := sampleNetwork(t)
	m2 := n.ManholeByName("m2")

	assert.True(t, n.RemoveNode(m2))
	assert.Nil(t, n.ConnectionByName("p1").Target())
	assert.Nil(t, n.ManholeByName("m2"))
}

func TestNetworkValidate(t *testing.T) {
	n := sampleNetwork(t)
	assert.Empty(t, n.Validate())

	require.NoError(t, n.AddManhole(NewManhole("m3", NewCompartment("c1"))))
	require.NoError(t, n.AddConnection(NewSewerConnection("loose")))

	issues := n.Validate()
	var errs, warns int
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warns++
		}
	}
	// duplicate c1 plus zero width and length on the new compartment
	assert.Equal(t, 3, errs)
	assert.Equal(t, 2, warns)
}

func TestNetworkSharesProfiles(t *testing.T) {
	n := NewNetwork("n")
	a, b := NewSewerConnection("a"), NewSewerConnection("b")
	require.NoError(t, n.AddConnection(a))
	require.NoError(t, n.AddConnection(b))

	a.AddBranchFeature(NewPump("p1"))
	b.AddBranchFeature(NewPump("p2"))

	assert.Same(t, a.CrossSection().Definition(), b.CrossSection().Definition())
}
