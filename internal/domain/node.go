package domain

import (
	"github.com/paulmach/orb"
)

// Node is a connection endpoint
type Node interface {
	Name() string
	Geometry() orb.Point
	OnPropertyChanged(fn func(PropertyChange)) Subscription
}

var (
	_ Node = (*Manhole)(nil)
	_ Node = (*HydroNode)(nil)
)

// HydroNode is a plain network node without compartments, such as a boundary
// or a junction on a non-sewer branch
type HydroNode struct {
	notifier

	name     string
	geometry orb.Point
}

// NewHydroNode creates a node at p
func NewHydroNode(name string, p orb.Point) *HydroNode {
	return &HydroNode{name: name, geometry: p}
}

func (n *HydroNode) Name() string { return n.name }

func (n *HydroNode) Geometry() orb.Point { return n.geometry }

func (n *HydroNode) SetGeometry(p orb.Point) {
	if n.geometry.Equal(p) {
		return
	}
	n.geometry = p
	n.publish(n, PropertyGeometry)
}
