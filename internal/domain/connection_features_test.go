package domain

import (
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectedPair(t *testing.T) *SewerConnection {
	t.Helper()
	m1 := NewManhole("m1", NewCompartmentAt("c1", orb.Point{0, 0}))
	m2 := NewManhole("m2", NewCompartmentAt("c2", orb.Point{10, 0}))
	conn := NewSewerConnection("conn")
	conn.SetSourceCompartment(m1.Compartments()[0])
	conn.SetTargetCompartment(m2.Compartments()[0])
	return conn
}

func TestSecondBranchFeatureIsRejected(t *testing.T) {
	rec, logger := newRecorder()
	conn := NewSewerConnection("conn")
	conn.SetLogger(logger)

	require.True(t, conn.AddBranchFeature(NewPump("p1")))
	assert.False(t, conn.AddBranchFeature(NewWeir("w1")))

	assert.Len(t, conn.BranchFeatures(), 1)
	assert.Equal(t, "p1", conn.BranchFeatures()[0].Name())
	assert.Equal(t, 1, rec.count(slog.LevelError))
	assert.Equal(t, "connection conn does not accept more than one branch feature", rec.messages()[0])
}

func TestSetBranchFeatures(t *testing.T) {
	pump := NewPump("p")
	weir := NewWeir("w")
	loaded := NewCompositeBranchStructure("loaded", NewPump("inner"))
	crowded := NewCompositeBranchStructure("crowded", NewPump("a"), NewWeir("b"))

	tests := []struct {
		name     string
		features []BranchFeature
		ok       bool
		count    int
	}{
		{"empty", nil, true, 0},
		{"single", []BranchFeature{pump}, true, 1},
		{"two structures", []BranchFeature{pump, weir}, false, 0},
		{"composite with its child", []BranchFeature{loaded, loaded.Structures()[0]}, true, 1},
		{"composite with a stranger", []BranchFeature{loaded, weir}, false, 0},
		{"crowded composite", []BranchFeature{crowded}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := NewSewerConnection("conn")
			conn.SetLogger(slog.New(&recordingHandler{}))
			assert.Equal(t, tt.ok, conn.SetBranchFeatures(tt.features))
			assert.Len(t, conn.BranchFeatures(), tt.count)
		})
	}
}

func TestReplaceBranchFeature(t *testing.T) {
	conn := NewSewerConnection("conn")
	require.True(t, conn.SetBranchFeatures([]BranchFeature{NewPump("p")}))

	assert.True(t, conn.SetBranchFeatures([]BranchFeature{NewWeir("w")}))

	assert.Equal(t, "w", conn.BranchFeatures()[0].Name())
	assert.Equal(t, SpecialWeir, conn.SpecialConnectionType())
}

func TestSpecialConnectionTypeFollowsFeature(t *testing.T) {
	tests := []struct {
		name    string
		feature func() BranchFeature
		want    SpecialConnectionType
	}{
		{"pump", func() BranchFeature { return NewPump("p") }, SpecialPump},
		{"weir", func() BranchFeature { return NewWeir("w") }, SpecialWeir},
		{"orifice", func() BranchFeature { return NewOrifice("o") }, SpecialNone},
		{"composite pump", func() BranchFeature { return NewCompositeBranchStructure("c", NewPump("p")) }, SpecialPump},
		{"empty composite", func() BranchFeature { return NewCompositeBranchStructure("c") }, SpecialNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := NewSewerConnection("conn")
			f := tt.feature()
			require.True(t, conn.AddBranchFeature(f))
			assert.Equal(t, tt.want, conn.SpecialConnectionType())

			require.True(t, conn.RemoveBranchFeature(f))
			assert.Equal(t, SpecialNone, conn.SpecialConnectionType())
			assert.Empty(t, conn.BranchFeatures())
		})
	}
}

func TestPipeHasNoSpecialType(t *testing.T) {
	pipe := NewPipe("pipe")

	require.True(t, pipe.AddBranchFeature(NewPump("p")))

	assert.Equal(t, SpecialNone, pipe.SpecialConnectionType())
	assert.Nil(t, pipe.CrossSection())
}

func TestCrossSectionDefaultProfileSwap(t *testing.T) {
	profiles := NewSharedDefinitions()
	conn := NewSewerConnection("conn")
	conn.SetProfileProvider(profiles)
	pump := NewPump("p")

	conn.AddBranchFeature(pump)
	require.NotNil(t, conn.CrossSection())
	assert.Same(t, profiles.Get(DefaultPumpProfileName), conn.CrossSection().Definition())

	conn.RemoveBranchFeature(pump)
	conn.AddBranchFeature(NewWeir("w"))
	assert.Same(t, profiles.Get(DefaultWeirProfileName), conn.CrossSection().Definition())

	conn.ClearBranchFeatures()
	assert.Equal(t, DefaultPumpProfileName, conn.CrossSection().Definition().Name)
}

func TestCrossSectionCustomProfileIsKept(t *testing.T) {
	custom := &CrossSectionDefinition{Name: "egg 600", Shape: ProfileEgg, Width: 0.6, Height: 0.9}
	conn := NewSewerConnection("conn")
	conn.SetCrossSection(NewCrossSection(custom))

	conn.AddBranchFeature(NewWeir("w"))

	assert.Equal(t, SpecialWeir, conn.SpecialConnectionType())
	assert.Same(t, custom, conn.CrossSection().Definition())
}

func TestAddStructureToBranch(t *testing.T) {
	conn := connectedPair(t)
	pump := NewPump("p")

	comp := AddStructureToBranch(conn, pump)

	require.NotNil(t, comp)
	assert.Equal(t, []BranchFeature{comp}, conn.BranchFeatures())
	assert.Equal(t, []*Structure{pump}, conn.Structures())
	assert.Same(t, comp, pump.Composite())
	assert.Same(t, conn, comp.Branch())
	assert.InDelta(t, 5.0, comp.Chainage(), 1e-9)
	assert.InDelta(t, 5.0, pump.Chainage(), 1e-9)
	p, ok := comp.Geometry()
	require.True(t, ok)
	assert.Equal(t, orb.Point{5, 0}, p)
	assert.Equal(t, SpecialPump, conn.SpecialConnectionType())
}

func TestAddStructureToOccupiedBranchIsRejected(t *testing.T) {
	rec, logger := newRecorder()
	conn := connectedPair(t)
	conn.SetLogger(logger)
	require.NotNil(t, AddStructureToBranch(conn, NewPump("p")))

	assert.Nil(t, AddStructureToBranch(conn, NewWeir("w")))
	assert.Len(t, conn.Structures(), 1)
	assert.Equal(t, 1, rec.count(slog.LevelError))
}

func TestAddStructureReusesEmptyComposite(t *testing.T) {
	conn := connectedPair(t)
	empty := NewCompositeBranchStructure("empty")
	require.True(t, conn.AddBranchFeature(empty))

	comp := AddStructureToBranch(conn, NewWeir("w"))

	assert.Same(t, empty, comp)
	assert.Equal(t, SpecialWeir, conn.SpecialConnectionType())
}

func TestStructureLeavesCompositeWhenPlacedDirectly(t *testing.T) {
	a := connectedPair(t)
	b := connectedPair(t)
	pump := NewPump("p")
	comp := AddStructureToBranch(a, pump)
	require.NotNil(t, comp)

	require.True(t, b.AddBranchFeature(pump))

	assert.Nil(t, pump.Composite())
	assert.Empty(t, comp.Structures())
	assert.Empty(t, a.Structures())
	assert.Equal(t, SpecialNone, a.SpecialConnectionType())
	assert.Equal(t, []*Structure{pump}, b.Structures())
	assert.Equal(t, SpecialPump, b.SpecialConnectionType())

	comp.SetChainage(2)
	pump.SetChainage(8)
	assert.Equal(t, 2.0, comp.Chainage())
}

func TestSetBranchFeaturesTakesStructureFromComposite(t *testing.T) {
	a := connectedPair(t)
	b := connectedPair(t)
	weir := NewWeir("w")
	comp := AddStructureToBranch(a, weir)
	require.NotNil(t, comp)

	require.True(t, b.SetBranchFeatures([]BranchFeature{weir}))

	assert.Nil(t, weir.Composite())
	assert.Empty(t, a.Structures())
	assert.Equal(t, []BranchFeature{weir}, b.BranchFeatures())
}

func TestCompositeOnBranchAcceptsOneStructure(t *testing.T) {
	rec, logger := newRecorder()
	conn := connectedPair(t)
	conn.SetLogger(logger)
	comp := AddStructureToBranch(conn, NewPump("p"))
	require.NotNil(t, comp)

	assert.False(t, comp.AddStructure(NewWeir("w")))
	assert.Len(t, comp.Structures(), 1)
	assert.Equal(t, 1, rec.count(slog.LevelError))
}

func TestRemoveStructureFromCompositeOccupant(t *testing.T) {
	conn := connectedPair(t)
	pump := NewPump("p")
	comp := AddStructureToBranch(conn, pump)

	assert.True(t, conn.RemoveBranchFeature(pump))

	assert.Equal(t, []BranchFeature{comp}, conn.BranchFeatures())
	assert.Empty(t, conn.Structures())
	assert.Equal(t, SpecialNone, conn.SpecialConnectionType())
	assert.False(t, conn.RemoveBranchFeature(NewWeir("stranger")))
}

func TestUpdateBranchFeatureGeometries(t *testing.T) {
	conn := connectedPair(t)
	weir := NewWeir("w")
	require.True(t, conn.AddBranchFeature(weir))

	conn.UpdateBranchFeatureGeometries()

	p, ok := weir.Geometry()
	require.True(t, ok)
	assert.Equal(t, orb.Point{5, 0}, p)
	assert.InDelta(t, 5.0, weir.Chainage(), 1e-9)

	internal := NewSewerConnection("internal")
	m := NewManhole("m", NewCompartmentAt("a", orb.Point{1, 1}), NewCompartmentAt("b", orb.Point{1, 1}))
	internal.SetSource(m)
	internal.SetTarget(m)
	pump := NewPump("p")
	internal.AddBranchFeature(pump)
	pump.SetChainage(3)

	internal.UpdateBranchFeatureGeometries()

	assert.Zero(t, pump.Chainage())
}
