package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ConnectionKind distinguishes pipes from other sewer connections
type ConnectionKind string

const (
	// ConnectionPipe is a conduit; it never takes a special connection type
	ConnectionPipe ConnectionKind = "pipe"
	// ConnectionOther covers pump, weir and orifice connections
	ConnectionOther ConnectionKind = "connection"
)

// WaterType describes what a connection transports
type WaterType string

const (
	WaterNone  WaterType = "none"
	WaterStorm WaterType = "storm"
	WaterDry   WaterType = "dry"
	WaterMixed WaterType = "mixed"
)

type end int

const (
	sourceEnd end = iota
	targetEnd
)

func (e end) String() string {
	if e == sourceEnd {
		return "source"
	}
	return "target"
}

func (e end) nodeProperty() string {
	if e == sourceEnd {
		return PropertySource
	}
	return PropertyTarget
}

func (e end) compartmentProperty() string {
	if e == sourceEnd {
		return PropertySourceCompartment
	}
	return PropertyTargetCompartment
}

type endpoint struct {
	node            Node
	compartment     *Compartment
	compartmentName string
	sub             Subscription
}

// SewerConnection is an edge between two nodes, normally two compartments
// of different manholes
type SewerConnection struct {
	notifier
	logSink

	name     string
	kind     ConnectionKind
	ends     [2]endpoint
	geometry orb.LineString

	// updatingGeometry guards the connection geometry recompute
	updatingGeometry bool

	features     []BranchFeature
	compositeSub Subscription
	specialType  SpecialConnectionType
	crossSection *CrossSection
	profiles     ProfileProvider

	LevelSource float64
	LevelTarget float64
	WaterType   WaterType
}

// NewSewerConnection creates an unconnected connection that can carry a pump or weir
func NewSewerConnection(name string) *SewerConnection {
	return &SewerConnection{
		name:        name,
		kind:        ConnectionOther,
		specialType: SpecialNone,
		WaterType:   WaterNone,
	}
}

// NewPipe creates an unconnected pipe
func NewPipe(name string) *SewerConnection {
	c := NewSewerConnection(name)
	c.kind = ConnectionPipe
	return c
}

func (s *SewerConnection) Name() string { return s.name }

func (s *SewerConnection) SetName(name string) {
	if name == s.name {
		return
	}
	s.name = name
	s.publish(s, PropertyName)
}

func (s *SewerConnection) Kind() ConnectionKind { return s.kind }

func (s *SewerConnection) IsPipe() bool { return s.kind == ConnectionPipe }

// IsInternalConnection reports whether both ends lie in the same manhole
func (s *SewerConnection) IsInternalConnection() bool {
	src, tgt := s.ends[sourceEnd].node, s.ends[targetEnd].node
	return src != nil && src == tgt
}

func (s *SewerConnection) Source() Node { return s.ends[sourceEnd].node }

func (s *SewerConnection) Target() Node { return s.ends[targetEnd].node }

func (s *SewerConnection) SourceCompartment() *Compartment { return s.ends[sourceEnd].compartment }

func (s *SewerConnection) TargetCompartment() *Compartment { return s.ends[targetEnd].compartment }

// SourceManhole returns the source when it is a manhole
func (s *SewerConnection) SourceManhole() *Manhole {
	m, _ := s.ends[sourceEnd].node.(*Manhole)
	return m
}

// TargetManhole returns the target when it is a manhole
func (s *SewerConnection) TargetManhole() *Manhole {
	m, _ := s.ends[targetEnd].node.(*Manhole)
	return m
}

// SourceCompartmentName is the serialization key of the source compartment
func (s *SewerConnection) SourceCompartmentName() string { return s.compartmentName(sourceEnd) }

// TargetCompartmentName is the serialization key of the target compartment
func (s *SewerConnection) TargetCompartmentName() string { return s.compartmentName(targetEnd) }

// SetSourceCompartmentName stores the key used to resolve the source compartment
// when the source manhole is assigned later
func (s *SewerConnection) SetSourceCompartmentName(name string) {
	s.ends[sourceEnd].compartmentName = name
}

// SetTargetCompartmentName stores the key used to resolve the target compartment
func (s *SewerConnection) SetTargetCompartmentName(name string) {
	s.ends[targetEnd].compartmentName = name
}

func (s *SewerConnection) compartmentName(e end) string {
	if c := s.ends[e].compartment; c != nil {
		return c.Name()
	}
	return s.ends[e].compartmentName
}

// SetSourceCompartment connects the source to c and its manhole. A nil
// compartment disconnects the source.
func (s *SewerConnection) SetSourceCompartment(c *Compartment) { s.setCompartment(sourceEnd, c) }

// SetTargetCompartment connects the target to c and its manhole
func (s *SewerConnection) SetTargetCompartment(c *Compartment) { s.setCompartment(targetEnd, c) }

// SetSource connects the source to n. For a manhole the compartment is
// resolved from the stored name key or defaults to the first compartment.
func (s *SewerConnection) SetSource(n Node) { s.setNode(sourceEnd, n) }

// SetTarget connects the target to n. For a manhole the compartment is
// resolved from the stored name key or defaults to the second compartment
// when there is one, the first otherwise.
func (s *SewerConnection) SetTarget(n Node) { s.setNode(targetEnd, n) }

func (s *SewerConnection) setCompartment(e end, c *Compartment) {
	ep := &s.ends[e]
	if c == nil {
		s.clearCompartment(e)
		if _, ok := ep.node.(*Manhole); ok {
			s.bind(e, nil)
		}
		s.updateGeometry()
		return
	}
	if c.parent == nil {
		s.log().Warn("cannot add compartment "+c.Name()+" as "+e.String()+" of connection "+s.name+", because it has no parent manhole",
			"connection", s.name, "compartment", c.Name())
		return
	}
	s.assignCompartment(e, c)
	s.bind(e, c.parent)
	s.updateGeometry()
}

func (s *SewerConnection) setNode(e end, n Node) {
	ep := &s.ends[e]
	if m, ok := n.(*Manhole); ok && m == nil {
		n = nil
	}

	switch node := n.(type) {
	case nil:
		s.clearCompartment(e)
		s.bind(e, nil)
	case *Manhole:
		if len(node.compartments) == 0 {
			s.clearCompartment(e)
			s.bind(e, nil)
			break
		}
		c := ep.compartment
		if c == nil || c.parent != node {
			c = node.CompartmentByName(ep.compartmentName)
		}
		if c == nil {
			c = defaultCompartment(e, node)
		}
		s.assignCompartment(e, c)
		s.bind(e, node)
	default:
		s.clearCompartment(e)
		s.bind(e, n)
	}
	s.updateGeometry()
}

func defaultCompartment(e end, m *Manhole) *Compartment {
	if e == targetEnd && len(m.compartments) > 1 {
		return m.compartments[1]
	}
	return m.compartments[0]
}

func (s *SewerConnection) assignCompartment(e end, c *Compartment) {
	ep := &s.ends[e]
	ep.compartmentName = c.Name()
	if ep.compartment == c {
		return
	}
	ep.compartment = c
	s.publish(s, e.compartmentProperty())
}

func (s *SewerConnection) clearCompartment(e end) {
	ep := &s.ends[e]
	ep.compartmentName = ""
	if ep.compartment == nil {
		return
	}
	ep.compartment = nil
	s.publish(s, e.compartmentProperty())
}

// bind makes n the endpoint node, moving the subscription and the manhole
// connection registration along
func (s *SewerConnection) bind(e end, n Node) {
	ep := &s.ends[e]
	if ep.node == n {
		return
	}
	if old, ok := ep.node.(*Manhole); ok {
		old.removeConnection(s, e)
	}
	ep.sub.Cancel()
	ep.sub = Subscription{}

	ep.node = n
	if n != nil {
		if m, ok := n.(*Manhole); ok {
			m.addConnection(s, e)
		}
		ep.sub = n.OnPropertyChanged(func(ch PropertyChange) {
			s.onEndpointChanged(e, ch)
		})
	}
	s.publish(s, e.nodeProperty())
}

func (s *SewerConnection) onEndpointChanged(e end, ch PropertyChange) {
	switch ch.Property {
	case PropertyGeometry:
		s.updateGeometry()
	case PropertyCompartments:
		s.followCompartment(e)
	}
}

// followCompartment keeps the endpoint on the manhole that owns the endpoint
// compartment after the manhole's compartments changed
func (s *SewerConnection) followCompartment(e end) {
	c := s.ends[e].compartment
	if c == nil {
		return
	}
	switch {
	case c.parent == nil:
		s.clearCompartment(e)
		s.bind(e, nil)
	case Node(c.parent) != s.ends[e].node:
		s.bind(e, c.parent)
	default:
		return
	}
	s.updateGeometry()
}

// Geometry returns the line from source to target, nil until both ends are set
func (s *SewerConnection) Geometry() orb.LineString { return s.geometry }

// Length returns the planar length of the geometry
func (s *SewerConnection) Length() float64 {
	if len(s.geometry) < 2 {
		return 0
	}
	return planar.Length(s.geometry)
}

func (s *SewerConnection) endPoint(e end) (orb.Point, bool) {
	ep := s.ends[e]
	if ep.compartment != nil {
		if p, ok := ep.compartment.Geometry(); ok {
			return p, true
		}
	}
	if ep.node == nil {
		return orb.Point{}, false
	}
	return ep.node.Geometry(), true
}

func (s *SewerConnection) updateGeometry() {
	if s.updatingGeometry {
		return
	}
	s.updatingGeometry = true
	defer func() { s.updatingGeometry = false }()

	var next orb.LineString
	from, okFrom := s.endPoint(sourceEnd)
	to, okTo := s.endPoint(targetEnd)
	if okFrom && okTo {
		next = segment(from, to)
	}
	if equalLines(next, s.geometry) {
		return
	}
	s.geometry = next
	s.publish(s, PropertyGeometry)
}
