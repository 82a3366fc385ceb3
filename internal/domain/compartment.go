package domain

import (
	"github.com/paulmach/orb"
)

// CompartmentShape is the plan shape of a compartment
type CompartmentShape string

const (
	ShapeUnknown     CompartmentShape = "unknown"
	ShapeSquare      CompartmentShape = "square"
	ShapeRectangular CompartmentShape = "rectangular"
	ShapeRound       CompartmentShape = "round"
)

// StorageType describes how a compartment stores water above surface level
type StorageType string

const (
	StorageReservoir StorageType = "reservoir"
	StorageClosed    StorageType = "closed"
	StorageLoss      StorageType = "loss"
)

// OutletProperties holds the attributes only outlet compartments have
type OutletProperties struct {
	SurfaceWaterLevel float64 `json:"surface_water_level" yaml:"surface_water_level"`
}

// Compartment is a chamber inside a manhole
type Compartment struct {
	notifier

	name     string
	geometry *orb.Point
	parent   *Manhole
	outlet   *OutletProperties

	SurfaceLevel  float64
	BottomLevel   float64
	FloodableArea float64
	ManholeLength float64
	ManholeWidth  float64
	Shape         CompartmentShape
	StorageType   StorageType
}

// NewCompartment creates a detached compartment without location
func NewCompartment(name string) *Compartment {
	return &Compartment{
		name:        name,
		Shape:       ShapeUnknown,
		StorageType: StorageReservoir,
	}
}

// NewCompartmentAt creates a detached compartment at p
func NewCompartmentAt(name string, p orb.Point) *Compartment {
	c := NewCompartment(name)
	c.geometry = &p
	return c
}

// NewOutletCompartment creates a detached outlet compartment
func NewOutletCompartment(name string, surfaceWaterLevel float64) *Compartment {
	c := NewCompartment(name)
	c.outlet = &OutletProperties{SurfaceWaterLevel: surfaceWaterLevel}
	return c
}

func (c *Compartment) Name() string { return c.name }

func (c *Compartment) SetName(name string) {
	if name == c.name {
		return
	}
	c.name = name
	c.publish(c, PropertyName)
}

// Geometry returns the compartment location, if it has one
func (c *Compartment) Geometry() (orb.Point, bool) {
	if c.geometry == nil {
		return orb.Point{}, false
	}
	return *c.geometry, true
}

// SetGeometry moves the compartment. Compartments of one manhole share a
// location, so on an attached compartment this moves the whole manhole.
func (c *Compartment) SetGeometry(p orb.Point) {
	if c.parent != nil {
		c.parent.MoveTo(p)
		return
	}
	c.relocate(p)
}

// ParentManhole returns the owning manhole, or nil when detached
func (c *Compartment) ParentManhole() *Manhole { return c.parent }

// IsOutlet reports whether the compartment is an outlet
func (c *Compartment) IsOutlet() bool { return c.outlet != nil }

// Outlet returns the outlet attributes, nil for ordinary compartments
func (c *Compartment) Outlet() *OutletProperties { return c.outlet }

func (c *Compartment) relocate(p orb.Point) {
	if c.geometry != nil && c.geometry.Equal(p) {
		return
	}
	c.geometry = &p
	c.publish(c, PropertyGeometry)
}

// asOutlet copies the compartment into a detached outlet variant
func (c *Compartment) asOutlet() *Compartment {
	o := &Compartment{
		name:          c.name,
		outlet:        &OutletProperties{},
		SurfaceLevel:  c.SurfaceLevel,
		BottomLevel:   c.BottomLevel,
		FloodableArea: c.FloodableArea,
		ManholeLength: c.ManholeLength,
		ManholeWidth:  c.ManholeWidth,
		Shape:         c.Shape,
		StorageType:   c.StorageType,
	}
	if c.geometry != nil {
		p := *c.geometry
		o.geometry = &p
	}
	return o
}
