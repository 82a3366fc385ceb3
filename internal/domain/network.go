package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrDuplicateName is returned when a name is already used in the network
	ErrDuplicateName = errors.New("duplicate name")
	// ErrUnknownCompartment is returned when a compartment name cannot be resolved
	ErrUnknownCompartment = errors.New("unknown compartment")
)

// Network is the container of a sewer network: nodes, connections and the
// shared cross-section definitions
type Network struct {
	logSink

	name        string
	nodes       []Node
	connections []*SewerConnection
	profiles    *SharedDefinitions
}

// NewNetwork creates an empty network
func NewNetwork(name string) *Network {
	return &Network{name: name, profiles: NewSharedDefinitions()}
}

func (n *Network) Name() string { return n.name }

// Profiles returns the shared cross-section definitions
func (n *Network) Profiles() *SharedDefinitions { return n.profiles }

// SetLogger sets the logger of the network and of every member
func (n *Network) SetLogger(l *slog.Logger) {
	n.logger = l
	for _, m := range n.Manholes() {
		m.SetLogger(l)
	}
	for _, c := range n.connections {
		c.SetLogger(l)
	}
}

// AddManhole adds m to the network
func (n *Network) AddManhole(m *Manhole) error {
	if err := n.checkNodeName(m.Name()); err != nil {
		return err
	}
	m.SetLogger(n.logger)
	n.nodes = append(n.nodes, m)
	return nil
}

// AddNode adds a plain node to the network
func (n *Network) AddNode(h *HydroNode) error {
	if err := n.checkNodeName(h.Name()); err != nil {
		return err
	}
	n.nodes = append(n.nodes, h)
	return nil
}

func (n *Network) checkNodeName(name string) error {
	if n.NodeByName(name) != nil {
		return fmt.Errorf("node %q: %w", name, ErrDuplicateName)
	}
	return nil
}

// AddConnection adds conn to the network. The connection takes its
// generated profiles from the network.
func (n *Network) AddConnection(conn *SewerConnection) error {
	if n.ConnectionByName(conn.Name()) != nil {
		return fmt.Errorf("connection %q: %w", conn.Name(), ErrDuplicateName)
	}
	conn.SetLogger(n.logger)
	conn.SetProfileProvider(n.profiles)
	n.connections = append(n.connections, conn)
	return nil
}

// RemoveConnection disconnects conn and removes it from the network
func (n *Network) RemoveConnection(conn *SewerConnection) bool {
	for i, c := range n.connections {
		if c == conn {
			conn.SetSource(nil)
			conn.SetTarget(nil)
			n.connections = append(n.connections[:i], n.connections[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveNode removes a node and disconnects the connections using it
func (n *Network) RemoveNode(node Node) bool {
	for i, x := range n.nodes {
		if x != node {
			continue
		}
		for _, c := range n.connections {
			if c.Source() == node {
				c.SetSource(nil)
			}
			if c.Target() == node {
				c.SetTarget(nil)
			}
		}
		n.nodes = append(n.nodes[:i], n.nodes[i+1:]...)
		return true
	}
	return false
}

// Nodes returns all nodes in insertion order
func (n *Network) Nodes() []Node {
	return append([]Node(nil), n.nodes...)
}

// Manholes returns the manholes in insertion order
func (n *Network) Manholes() []*Manhole {
	var out []*Manhole
	for _, node := range n.nodes {
		if m, ok := node.(*Manhole); ok {
			out = append(out, m)
		}
	}
	return out
}

// Connections returns the connections in insertion order
func (n *Network) Connections() []*SewerConnection {
	return append([]*SewerConnection(nil), n.connections...)
}

// Compartments returns the compartments of all manholes
func (n *Network) Compartments() []*Compartment {
	var out []*Compartment
	for _, m := range n.Manholes() {
		out = append(out, m.compartments...)
	}
	return out
}

// OutletCompartments returns the outlet compartments of all manholes
func (n *Network) OutletCompartments() []*Compartment {
	var out []*Compartment
	for _, m := range n.Manholes() {
		out = append(out, m.OutletCompartments()...)
	}
	return out
}

func (n *Network) NodeByName(name string) Node {
	for _, node := range n.nodes {
		if strings.EqualFold(node.Name(), name) {
			return node
		}
	}
	return nil
}

func (n *Network) ManholeByName(name string) *Manhole {
	m, _ := n.NodeByName(name).(*Manhole)
	return m
}

func (n *Network) ConnectionByName(name string) *SewerConnection {
	for _, c := range n.connections {
		if strings.EqualFold(c.Name(), name) {
			return c
		}
	}
	return nil
}

// ManholeByCompartmentName returns the manhole owning a compartment named name
func (n *Network) ManholeByCompartmentName(name string) *Manhole {
	for _, m := range n.Manholes() {
		if m.ContainsCompartmentWithName(name) {
			return m
		}
	}
	return nil
}

// UniqueCompartmentName returns the first free name of the form Compartment001
func (n *Network) UniqueCompartmentName() string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("Compartment%03d", i)
		if n.ManholeByCompartmentName(name) == nil {
			return name
		}
	}
}

// Connect resolves the compartment name keys of conn against the network
// and attaches both ends
func (n *Network) Connect(conn *SewerConnection) error {
	for _, e := range []end{sourceEnd, targetEnd} {
		name := conn.compartmentName(e)
		if name == "" {
			continue
		}
		m := n.ManholeByCompartmentName(name)
		if m == nil {
			return fmt.Errorf("connection %q %s %q: %w", conn.Name(), e, name, ErrUnknownCompartment)
		}
		conn.setCompartment(e, m.CompartmentByName(name))
	}
	return nil
}

// OutletCandidate pairs a manhole with the compartment that should become its outlet
type OutletCandidate struct {
	Manhole     *Manhole
	Compartment *Compartment
}

// OutletCandidates lists the outlet candidates of all manholes
func (n *Network) OutletCandidates() []OutletCandidate {
	var out []OutletCandidate
	for _, m := range n.Manholes() {
		if c := GetOutletCandidate(m); c != nil && !c.IsOutlet() {
			out = append(out, OutletCandidate{Manhole: m, Compartment: c})
		}
	}
	return out
}

// PromoteOutlets converts every outlet candidate and returns the new outlets
func (n *Network) PromoteOutlets() []*Compartment {
	var out []*Compartment
	for _, cand := range n.OutletCandidates() {
		if o := UpdateCompartmentToOutletCompartment(cand.Manhole, cand.Compartment); o != nil {
			out = append(out, o)
		}
	}
	return out
}
