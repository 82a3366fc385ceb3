package domain

import (
	"github.com/paulmach/orb"
)

// CompositeBranchStructure groups structures at one location on a connection.
// The chainage of the composite and of every child is kept equal.
type CompositeBranchStructure struct {
	notifier

	name       string
	chainage   float64
	geometry   *orb.Point
	structures []*Structure
	childSubs  map[*Structure]Subscription
	branch     *SewerConnection

	// syncing guards the composite <-> child chainage cascade
	syncing bool
}

// NewCompositeBranchStructure creates a composite holding structures. It
// panics on a nil structure.
func NewCompositeBranchStructure(name string, structures ...*Structure) *CompositeBranchStructure {
	c := &CompositeBranchStructure{
		name:      name,
		childSubs: make(map[*Structure]Subscription),
	}
	for _, s := range structures {
		if s == nil {
			panic("domain: nil structure in composite " + name)
		}
		c.AddStructure(s)
	}
	return c
}

func (c *CompositeBranchStructure) Name() string { return c.name }

func (c *CompositeBranchStructure) Kind() BranchFeatureKind { return KindComposite }

func (c *CompositeBranchStructure) Chainage() float64 { return c.chainage }

// SetChainage moves the composite and all children. Observers of the
// composite see a single notification; children change silently.
func (c *CompositeBranchStructure) SetChainage(v float64) {
	if c.syncing || v == c.chainage {
		return
	}
	c.syncing = true
	c.chainage = v
	for _, s := range c.structures {
		s.assignChainage(v)
	}
	c.syncing = false
	c.publish(c, PropertyChainage)
}

func (c *CompositeBranchStructure) Geometry() (orb.Point, bool) {
	if c.geometry == nil {
		return orb.Point{}, false
	}
	return *c.geometry, true
}

// SetGeometry places the composite and its children at p
func (c *CompositeBranchStructure) SetGeometry(p orb.Point) {
	for _, s := range c.structures {
		s.SetGeometry(p)
	}
	if c.geometry != nil && c.geometry.Equal(p) {
		return
	}
	c.geometry = &p
	c.publish(c, PropertyGeometry)
}

// Structures returns the children in order
func (c *CompositeBranchStructure) Structures() []*Structure {
	return append([]*Structure(nil), c.structures...)
}

// Branch returns the connection whose slot holds the composite
func (c *CompositeBranchStructure) Branch() *SewerConnection { return c.branch }

// AddStructure appends s and aligns its chainage with the composite. A
// composite sitting on a connection accepts a single structure; further
// additions are rejected and reported false.
func (c *CompositeBranchStructure) AddStructure(s *Structure) bool {
	if s == nil || s.composite == c {
		return false
	}
	if c.branch != nil && len(c.structures) > 0 {
		c.branch.rejectFeature()
		return false
	}
	if s.composite != nil {
		s.composite.RemoveStructure(s)
	}
	s.composite = c
	s.assignChainage(c.chainage)
	if c.geometry != nil {
		s.SetGeometry(*c.geometry)
	}
	c.structures = append(c.structures, s)
	c.childSubs[s] = s.OnPropertyChanged(func(ch PropertyChange) {
		if ch.Property == PropertyChainage {
			c.followChild(s)
		}
	})
	c.publish(c, PropertyStructures)
	return true
}

// RemoveStructure detaches s from the composite
func (c *CompositeBranchStructure) RemoveStructure(s *Structure) bool {
	if s == nil || s.composite != c {
		return false
	}
	c.childSubs[s].Cancel()
	delete(c.childSubs, s)
	c.structures = removeItem(c.structures, s)
	s.composite = nil
	c.publish(c, PropertyStructures)
	return true
}

func (c *CompositeBranchStructure) contains(s *Structure) bool {
	return s != nil && s.composite == c
}

// followChild adopts a child's new chainage and aligns the other children
func (c *CompositeBranchStructure) followChild(src *Structure) {
	if c.syncing || src.chainage == c.chainage {
		return
	}
	c.syncing = true
	c.chainage = src.chainage
	for _, s := range c.structures {
		if s != src {
			s.assignChainage(c.chainage)
		}
	}
	c.syncing = false
	c.publish(c, PropertyChainage)
}
