package domain

import (
	"sort"
	"strings"
)

// Names of the generated profiles used by pump and weir connections
const (
	DefaultPumpProfileName = "Default pump sewer structure profile"
	DefaultWeirProfileName = "Default weir sewer structure profile"
)

// ProfileShape is the shape of a cross-section profile
type ProfileShape string

const (
	ProfileRound       ProfileShape = "round"
	ProfileRectangular ProfileShape = "rectangular"
	ProfileEgg         ProfileShape = "egg"
)

// CrossSectionDefinition is a named, shareable profile
type CrossSectionDefinition struct {
	Name   string
	Shape  ProfileShape
	Width  float64
	Height float64
}

// IsDefaultProfileName reports whether name is one of the generated profile names
func IsDefaultProfileName(name string) bool {
	return strings.EqualFold(name, DefaultPumpProfileName) ||
		strings.EqualFold(name, DefaultWeirProfileName)
}

// DefaultProfileName returns the generated profile name for t. Connections
// without a special type use the pump profile.
func DefaultProfileName(t SpecialConnectionType) string {
	if t == SpecialWeir {
		return DefaultWeirProfileName
	}
	return DefaultPumpProfileName
}

// StandardProfile returns a fresh definition for one of the generated
// profile names, or a 1x1 rectangle for any other name
func StandardProfile(name string) *CrossSectionDefinition {
	switch {
	case strings.EqualFold(name, DefaultPumpProfileName):
		return &CrossSectionDefinition{Name: DefaultPumpProfileName, Shape: ProfileRound, Width: 0.4, Height: 0.4}
	case strings.EqualFold(name, DefaultWeirProfileName):
		return &CrossSectionDefinition{Name: DefaultWeirProfileName, Shape: ProfileRectangular, Width: 1, Height: 1}
	}
	return &CrossSectionDefinition{Name: name, Shape: ProfileRectangular, Width: 1, Height: 1}
}

// CrossSection places a definition on a connection
type CrossSection struct {
	definition *CrossSectionDefinition
}

// NewCrossSection creates a cross section referencing def
func NewCrossSection(def *CrossSectionDefinition) *CrossSection {
	return &CrossSection{definition: def}
}

func (cs *CrossSection) Definition() *CrossSectionDefinition { return cs.definition }

// UseSharedDefinition makes the cross section reference def
func (cs *CrossSection) UseSharedDefinition(def *CrossSectionDefinition) {
	cs.definition = def
}

// ProfileProvider hands out the definitions used for generated profiles
type ProfileProvider interface {
	DefaultProfile(name string) *CrossSectionDefinition
}

type standardProfiles struct{}

func (standardProfiles) DefaultProfile(name string) *CrossSectionDefinition {
	return StandardProfile(name)
}

// SharedDefinitions is the per-network set of shared cross-section
// definitions, keyed case-insensitively by name
type SharedDefinitions struct {
	defs map[string]*CrossSectionDefinition
}

// NewSharedDefinitions creates an empty set
func NewSharedDefinitions() *SharedDefinitions {
	return &SharedDefinitions{defs: make(map[string]*CrossSectionDefinition)}
}

// Add registers def, replacing a definition with the same name
func (s *SharedDefinitions) Add(def *CrossSectionDefinition) {
	if def == nil {
		return
	}
	s.defs[strings.ToLower(def.Name)] = def
}

// Get returns the definition named name, or nil
func (s *SharedDefinitions) Get(name string) *CrossSectionDefinition {
	return s.defs[strings.ToLower(name)]
}

// DefaultProfile returns the shared definition named name, creating the
// standard profile on first use
func (s *SharedDefinitions) DefaultProfile(name string) *CrossSectionDefinition {
	if def := s.Get(name); def != nil {
		return def
	}
	def := StandardProfile(name)
	s.Add(def)
	return def
}

// All returns the definitions sorted by name
func (s *SharedDefinitions) All() []*CrossSectionDefinition {
	out := make([]*CrossSectionDefinition, 0, len(s.defs))
	for _, d := range s.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
