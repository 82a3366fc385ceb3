package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// BranchFeatureKind is the closed set of in-line feature kinds
type BranchFeatureKind string

const (
	KindPump      BranchFeatureKind = "pump"
	KindWeir      BranchFeatureKind = "weir"
	KindOrifice   BranchFeatureKind = "orifice"
	KindCulvert   BranchFeatureKind = "culvert"
	KindComposite BranchFeatureKind = "composite"
)

// IsStructural reports whether k is a kind a Structure can have
func (k BranchFeatureKind) IsStructural() bool {
	switch k {
	case KindPump, KindWeir, KindOrifice, KindCulvert:
		return true
	}
	return false
}

// SpecialConnectionType classifies a connection by its branch feature
type SpecialConnectionType string

const (
	SpecialNone SpecialConnectionType = "none"
	SpecialPump SpecialConnectionType = "pump"
	SpecialWeir SpecialConnectionType = "weir"
)

// BranchFeature is anything that can occupy a connection's feature slot
type BranchFeature interface {
	Name() string
	Kind() BranchFeatureKind
	Chainage() float64
	SetChainage(v float64)
	Geometry() (orb.Point, bool)
	SetGeometry(p orb.Point)
	OnPropertyChanged(fn func(PropertyChange)) Subscription
}

var (
	_ BranchFeature = (*Structure)(nil)
	_ BranchFeature = (*CompositeBranchStructure)(nil)
)

// Structure is an in-line hydraulic structure such as a pump or a weir
type Structure struct {
	notifier

	name      string
	kind      BranchFeatureKind
	chainage  float64
	geometry  *orb.Point
	composite *CompositeBranchStructure
}

// NewStructure creates a structure of a structural kind. It panics on
// KindComposite or an unknown kind.
func NewStructure(name string, kind BranchFeatureKind) *Structure {
	if !kind.IsStructural() {
		panic(fmt.Sprintf("domain: %q is not a structure kind", kind))
	}
	return &Structure{name: name, kind: kind}
}

func NewPump(name string) *Structure { return NewStructure(name, KindPump) }

func NewWeir(name string) *Structure { return NewStructure(name, KindWeir) }

func NewOrifice(name string) *Structure { return NewStructure(name, KindOrifice) }

func NewCulvert(name string) *Structure { return NewStructure(name, KindCulvert) }

func (s *Structure) Name() string { return s.name }

func (s *Structure) Kind() BranchFeatureKind { return s.kind }

func (s *Structure) Chainage() float64 { return s.chainage }

// SetChainage moves the structure along its connection. The owning
// composite follows.
func (s *Structure) SetChainage(v float64) {
	if v == s.chainage {
		return
	}
	s.chainage = v
	s.publish(s, PropertyChainage)
}

// assignChainage sets the chainage without notification
func (s *Structure) assignChainage(v float64) { s.chainage = v }

func (s *Structure) Geometry() (orb.Point, bool) {
	if s.geometry == nil {
		return orb.Point{}, false
	}
	return *s.geometry, true
}

func (s *Structure) SetGeometry(p orb.Point) {
	if s.geometry != nil && s.geometry.Equal(p) {
		return
	}
	s.geometry = &p
	s.publish(s, PropertyGeometry)
}

// Composite returns the composite the structure belongs to, if any
func (s *Structure) Composite() *CompositeBranchStructure { return s.composite }

// specialTypeOf classifies a slot occupant
func specialTypeOf(f BranchFeature) SpecialConnectionType {
	if f == nil {
		return SpecialNone
	}
	switch f.Kind() {
	case KindPump:
		return SpecialPump
	case KindWeir:
		return SpecialWeir
	case KindComposite:
		comp, ok := f.(*CompositeBranchStructure)
		if ok && len(comp.structures) == 1 {
			return specialTypeOf(comp.structures[0])
		}
	}
	return SpecialNone
}
