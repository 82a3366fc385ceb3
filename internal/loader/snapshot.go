package loader

import (
	"strings"

	"sewernet/internal/codec"
	"sewernet/internal/domain"
)

// Snapshot captures the current state of a network as a document
func Snapshot(net *domain.Network) *codec.Document {
	doc := &codec.Document{
		Version: codec.DocumentVersion,
		Name:    net.Name(),
	}

	for _, def := range profiles(net) {
		doc.Profiles = append(doc.Profiles, codec.ProfileDoc{
			Name:   def.Name,
			Shape:  string(def.Shape),
			Width:  def.Width,
			Height: def.Height,
		})
	}

	for _, node := range net.Nodes() {
		switch n := node.(type) {
		case *domain.Manhole:
			md := codec.ManholeDoc{Name: n.Name()}
			for _, c := range n.Compartments() {
				md.Compartments = append(md.Compartments, compartmentDoc(c))
			}
			doc.Manholes = append(doc.Manholes, md)
		case *domain.HydroNode:
			p := n.Geometry()
			doc.Nodes = append(doc.Nodes, codec.NodeDoc{Name: n.Name(), X: p.X(), Y: p.Y()})
		}
	}

	for _, conn := range net.Connections() {
		doc.Connections = append(doc.Connections, connectionDoc(conn))
	}
	return doc
}

// profiles returns the shared definitions plus any definition a connection
// references without it being shared
func profiles(net *domain.Network) []*domain.CrossSectionDefinition {
	defs := net.Profiles().All()
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		seen[strings.ToLower(d.Name)] = true
	}
	for _, conn := range net.Connections() {
		cs := conn.CrossSection()
		if cs == nil || cs.Definition() == nil || seen[strings.ToLower(cs.Definition().Name)] {
			continue
		}
		seen[strings.ToLower(cs.Definition().Name)] = true
		defs = append(defs, cs.Definition())
	}
	return defs
}

func compartmentDoc(c *domain.Compartment) codec.CompartmentDoc {
	cd := codec.CompartmentDoc{
		Name:          c.Name(),
		SurfaceLevel:  c.SurfaceLevel,
		BottomLevel:   c.BottomLevel,
		FloodableArea: c.FloodableArea,
		Length:        c.ManholeLength,
		Width:         c.ManholeWidth,
		Shape:         string(c.Shape),
		Storage:       string(c.StorageType),
	}
	if p, ok := c.Geometry(); ok {
		x, y := p.X(), p.Y()
		cd.X, cd.Y = &x, &y
	}
	if o := c.Outlet(); o != nil {
		cd.Outlet = true
		cd.SurfaceWaterLevel = o.SurfaceWaterLevel
	}
	return cd
}

func connectionDoc(conn *domain.SewerConnection) codec.ConnectionDoc {
	cd := codec.ConnectionDoc{
		Name:        conn.Name(),
		Kind:        string(conn.Kind()),
		LevelSource: conn.LevelSource,
		LevelTarget: conn.LevelTarget,
		WaterType:   string(conn.WaterType),
	}
	if conn.SourceManhole() != nil || conn.Source() == nil {
		cd.SourceCompartment = conn.SourceCompartmentName()
	} else {
		cd.SourceNode = conn.Source().Name()
	}
	if conn.TargetManhole() != nil || conn.Target() == nil {
		cd.TargetCompartment = conn.TargetCompartmentName()
	} else {
		cd.TargetNode = conn.Target().Name()
	}
	if cs := conn.CrossSection(); cs != nil && cs.Definition() != nil {
		cd.Profile = cs.Definition().Name
	}
	if structures := conn.Structures(); len(structures) > 0 {
		s := structures[0]
		chainage := s.Chainage()
		cd.Structure = &codec.StructureDoc{Name: s.Name(), Kind: string(s.Kind()), Chainage: &chainage}
	}
	return cd
}
