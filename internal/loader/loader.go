// Package loader converts between network documents and the domain model.
package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"

	"sewernet/internal/codec"
	"sewernet/internal/domain"
)

var (
	// ErrUnknownNode is returned when a connection references a missing node
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownProfile is returned when a connection references a missing profile
	ErrUnknownProfile = errors.New("unknown profile")
)

// Options tune Build
type Options struct {
	Logger *slog.Logger
	// DefaultProfiles replace the standard pump and weir profiles
	DefaultProfiles []*domain.CrossSectionDefinition
}

// ReadDocument reads and validates a document, picking the codec from the
// file extension
func ReadDocument(path string) (*codec.Document, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	doc, err := codec.Decode(c, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadFile reads a document and builds the network it describes
func LoadFile(path string, opts Options) (*domain.Network, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return Build(doc, opts)
}

// Build creates a network from a validated document
func Build(doc *codec.Document, opts Options) (*domain.Network, error) {
	net := domain.NewNetwork(doc.Name)
	if opts.Logger != nil {
		net.SetLogger(opts.Logger)
	}

	for _, def := range opts.DefaultProfiles {
		net.Profiles().Add(def)
	}
	for _, p := range doc.Profiles {
		net.Profiles().Add(&domain.CrossSectionDefinition{
			Name:   p.Name,
			Shape:  domain.ProfileShape(p.Shape),
			Width:  p.Width,
			Height: p.Height,
		})
	}

	for _, md := range doc.Manholes {
		compartments := make([]*domain.Compartment, 0, len(md.Compartments))
		for _, cd := range md.Compartments {
			compartments = append(compartments, buildCompartment(cd))
		}
		if err := net.AddManhole(domain.NewManhole(md.Name, compartments...)); err != nil {
			return nil, fmt.Errorf("manhole %s: %w", md.Name, err)
		}
	}
	nameCompartments(net, opts.Logger)

	for _, nd := range doc.Nodes {
		if err := net.AddNode(domain.NewHydroNode(nd.Name, orb.Point{nd.X, nd.Y})); err != nil {
			return nil, fmt.Errorf("node %s: %w", nd.Name, err)
		}
	}

	for _, cd := range doc.Connections {
		if err := buildConnection(net, cd); err != nil {
			return nil, fmt.Errorf("connection %s: %w", cd.Name, err)
		}
	}

	return net, nil
}

// nameCompartments gives every unnamed compartment the first free
// network-wide name. It runs after all manholes are added so explicit names
// are never taken.
func nameCompartments(net *domain.Network, logger *slog.Logger) {
	for _, c := range net.Compartments() {
		if c.Name() != "" {
			continue
		}
		c.SetName(net.UniqueCompartmentName())
		if logger != nil {
			logger.Debug("named compartment", "manhole", c.ParentManhole().Name(), "compartment", c.Name())
		}
	}
}

func buildCompartment(cd codec.CompartmentDoc) *domain.Compartment {
	var c *domain.Compartment
	if cd.Outlet {
		c = domain.NewOutletCompartment(cd.Name, cd.SurfaceWaterLevel)
	} else {
		c = domain.NewCompartment(cd.Name)
	}
	if cd.X != nil && cd.Y != nil {
		c.SetGeometry(orb.Point{*cd.X, *cd.Y})
	}
	c.SurfaceLevel = cd.SurfaceLevel
	c.BottomLevel = cd.BottomLevel
	c.FloodableArea = cd.FloodableArea
	c.ManholeLength = cd.Length
	c.ManholeWidth = cd.Width
	if cd.Shape != "" {
		c.Shape = domain.CompartmentShape(cd.Shape)
	}
	if cd.Storage != "" {
		c.StorageType = domain.StorageType(cd.Storage)
	}
	return c
}

func buildConnection(net *domain.Network, cd codec.ConnectionDoc) error {
	var conn *domain.SewerConnection
	if cd.Kind == string(domain.ConnectionPipe) {
		conn = domain.NewPipe(cd.Name)
	} else {
		conn = domain.NewSewerConnection(cd.Name)
	}
	conn.LevelSource = cd.LevelSource
	conn.LevelTarget = cd.LevelTarget
	if cd.WaterType != "" {
		conn.WaterType = domain.WaterType(cd.WaterType)
	}
	if err := net.AddConnection(conn); err != nil {
		return err
	}

	conn.SetSourceCompartmentName(cd.SourceCompartment)
	conn.SetTargetCompartmentName(cd.TargetCompartment)
	if err := net.Connect(conn); err != nil {
		return err
	}
	if cd.SourceNode != "" {
		node := net.NodeByName(cd.SourceNode)
		if node == nil {
			return fmt.Errorf("source %q: %w", cd.SourceNode, ErrUnknownNode)
		}
		conn.SetSource(node)
	}
	if cd.TargetNode != "" {
		node := net.NodeByName(cd.TargetNode)
		if node == nil {
			return fmt.Errorf("target %q: %w", cd.TargetNode, ErrUnknownNode)
		}
		conn.SetTarget(node)
	}

	if cd.Profile != "" {
		def := net.Profiles().Get(cd.Profile)
		if def == nil {
			return fmt.Errorf("profile %q: %w", cd.Profile, ErrUnknownProfile)
		}
		conn.SetCrossSection(domain.NewCrossSection(def))
	}

	if sd := cd.Structure; sd != nil {
		comp := domain.AddStructureToBranch(conn, domain.NewStructure(sd.Name, domain.BranchFeatureKind(sd.Kind)))
		if comp != nil && sd.Chainage != nil {
			comp.SetChainage(*sd.Chainage)
		}
	}
	return nil
}
