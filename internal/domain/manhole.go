package domain

import (
	"strings"

	"github.com/paulmach/orb"
)

// Manhole is a network node that owns an ordered list of compartments
type Manhole struct {
	notifier
	logSink

	name         string
	compartments []*Compartment
	geometry     orb.Point
	outgoing     []*SewerConnection
	incoming     []*SewerConnection

	// relocating guards the manhole -> compartment geometry cascade
	relocating bool
}

// NewManhole creates a manhole owning the given compartments
func NewManhole(name string, compartments ...*Compartment) *Manhole {
	m := &Manhole{name: name, geometry: Origin}
	if len(compartments) > 0 {
		m.SetCompartments(compartments)
	}
	return m
}

func (m *Manhole) Name() string { return m.name }

func (m *Manhole) SetName(name string) {
	if name == m.name {
		return
	}
	m.name = name
	m.publish(m, PropertyName)
}

// Geometry returns the shared location of the compartments
func (m *Manhole) Geometry() orb.Point { return m.geometry }

// Compartments returns a copy of the owned compartments in order
func (m *Manhole) Compartments() []*Compartment {
	out := make([]*Compartment, len(m.compartments))
	copy(out, m.compartments)
	return out
}

// CompartmentByName finds a compartment by name, ignoring case
func (m *Manhole) CompartmentByName(name string) *Compartment {
	if name == "" {
		return nil
	}
	for _, c := range m.compartments {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

func (m *Manhole) ContainsCompartmentWithName(name string) bool {
	return m.CompartmentByName(name) != nil
}

func (m *Manhole) indexOf(c *Compartment) int {
	for i, x := range m.compartments {
		if x == c {
			return i
		}
	}
	return -1
}

// AddCompartment appends c. A compartment owned by another manhole is moved.
func (m *Manhole) AddCompartment(c *Compartment) {
	if c == nil || c.parent == m {
		return
	}
	before := m.geometry
	previous := c.parent
	var previousBefore orb.Point
	if previous != nil {
		previousBefore = previous.geometry
		previous.detach(c)
	}
	c.parent = m
	m.compartments = append(m.compartments, c)
	if previous != nil {
		previous.recompute()
	}
	m.recompute()

	if previous != nil {
		previous.commit(previousBefore)
	}
	m.commit(before)
}

// RemoveCompartment detaches c. It reports false when c is not owned by m.
func (m *Manhole) RemoveCompartment(c *Compartment) bool {
	if c == nil || c.parent != m {
		return false
	}
	before := m.geometry
	m.detach(c)
	m.recompute()
	m.commit(before)
	return true
}

// SetCompartments replaces all compartments with cs, recomputing once
func (m *Manhole) SetCompartments(cs []*Compartment) {
	before := m.geometry
	for _, c := range m.compartments {
		c.parent = nil
	}
	m.compartments = nil

	type donor struct {
		m      *Manhole
		before orb.Point
	}
	var donors []donor
	for _, c := range cs {
		if c == nil || c.parent == m {
			continue
		}
		if prev := c.parent; prev != nil {
			seen := false
			for _, d := range donors {
				seen = seen || d.m == prev
			}
			if !seen {
				donors = append(donors, donor{m: prev, before: prev.geometry})
			}
			prev.detach(c)
		}
		c.parent = m
		m.compartments = append(m.compartments, c)
	}
	for _, d := range donors {
		d.m.recompute()
	}
	m.recompute()

	for _, d := range donors {
		d.m.commit(d.before)
	}
	m.commit(before)
}

// MoveTo relocates the manhole together with all of its compartments
func (m *Manhole) MoveTo(p orb.Point) {
	if m.relocating || len(m.compartments) == 0 {
		return
	}
	before := m.geometry
	m.relocating = true
	m.geometry = p
	for _, c := range m.compartments {
		c.relocate(p)
	}
	m.relocating = false
	if !before.Equal(p) {
		m.publish(m, PropertyGeometry)
	}
}

// OutgoingConnections returns connections that use m as source
func (m *Manhole) OutgoingConnections() []*SewerConnection {
	return append([]*SewerConnection(nil), m.outgoing...)
}

// IncomingConnections returns connections that use m as target
func (m *Manhole) IncomingConnections() []*SewerConnection {
	return append([]*SewerConnection(nil), m.incoming...)
}

// OutletCompartments lists the outlet compartments of the manhole
func (m *Manhole) OutletCompartments() []*Compartment {
	var out []*Compartment
	for _, c := range m.compartments {
		if c.IsOutlet() {
			out = append(out, c)
		}
	}
	return out
}

func (m *Manhole) detach(c *Compartment) {
	if i := m.indexOf(c); i >= 0 {
		m.compartments = append(m.compartments[:i], m.compartments[i+1:]...)
	}
	c.parent = nil
}

// recompute sets the manhole to the mean of its located compartments and
// collocates every compartment there
func (m *Manhole) recompute() {
	if m.relocating {
		return
	}
	var located []orb.Point
	for _, c := range m.compartments {
		if p, ok := c.Geometry(); ok {
			located = append(located, p)
		}
	}
	if len(located) == 0 {
		m.geometry = Origin
		return
	}
	mean := meanPoint(located)
	m.relocating = true
	m.geometry = mean
	for _, c := range m.compartments {
		c.relocate(mean)
	}
	m.relocating = false
}

func (m *Manhole) commit(before orb.Point) {
	m.publish(m, PropertyCompartments)
	if !m.geometry.Equal(before) {
		m.publish(m, PropertyGeometry)
	}
}

func (m *Manhole) addConnection(conn *SewerConnection, e end) {
	if e == sourceEnd {
		m.outgoing = appendUnique(m.outgoing, conn)
	} else {
		m.incoming = appendUnique(m.incoming, conn)
	}
}

func (m *Manhole) removeConnection(conn *SewerConnection, e end) {
	if e == sourceEnd {
		m.outgoing = removeItem(m.outgoing, conn)
	} else {
		m.incoming = removeItem(m.incoming, conn)
	}
}

func appendUnique[T comparable](s []T, v T) []T {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func removeItem[T comparable](s []T, v T) []T {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
