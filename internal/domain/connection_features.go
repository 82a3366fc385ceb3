package domain

import (
	"fmt"
)

// BranchFeatures returns the slot occupant, if any
func (s *SewerConnection) BranchFeatures() []BranchFeature {
	return append([]BranchFeature(nil), s.features...)
}

// Structures returns the structures carried by the connection, looking
// inside a composite occupant
func (s *SewerConnection) Structures() []*Structure {
	switch f := s.occupant().(type) {
	case *Structure:
		return []*Structure{f}
	case *CompositeBranchStructure:
		return f.Structures()
	}
	return nil
}

// SpecialConnectionType is derived from the branch feature
func (s *SewerConnection) SpecialConnectionType() SpecialConnectionType { return s.specialType }

// CrossSection returns the connection cross section, nil when unset
func (s *SewerConnection) CrossSection() *CrossSection { return s.crossSection }

// SetCrossSection replaces the cross section
func (s *SewerConnection) SetCrossSection(cs *CrossSection) {
	s.crossSection = cs
	s.publish(s, PropertyCrossSection)
}

// SetProfileProvider sets where generated profiles come from
func (s *SewerConnection) SetProfileProvider(p ProfileProvider) { s.profiles = p }

func (s *SewerConnection) profileProvider() ProfileProvider {
	if s.profiles == nil {
		return standardProfiles{}
	}
	return s.profiles
}

func (s *SewerConnection) occupant() BranchFeature {
	if len(s.features) == 0 {
		return nil
	}
	return s.features[0]
}

// AddBranchFeature puts f in the empty slot. It is rejected when the slot is
// occupied or f is a composite with more than one structure.
func (s *SewerConnection) AddBranchFeature(f BranchFeature) bool {
	if f == nil {
		return false
	}
	if s.occupant() != nil {
		s.rejectFeature()
		return false
	}
	if comp, ok := f.(*CompositeBranchStructure); ok && len(comp.structures) > 1 {
		s.rejectFeature()
		return false
	}
	s.replaceOccupant(f)
	return true
}

// RemoveBranchFeature removes f from the slot. A structure inside the
// composite occupant is removed from the composite.
func (s *SewerConnection) RemoveBranchFeature(f BranchFeature) bool {
	occ := s.occupant()
	if f == nil || occ == nil {
		return false
	}
	if occ == f {
		s.replaceOccupant(nil)
		return true
	}
	if comp, ok := occ.(*CompositeBranchStructure); ok {
		if st, ok := f.(*Structure); ok && comp.contains(st) {
			return comp.RemoveStructure(st)
		}
	}
	return false
}

// ClearBranchFeatures empties the slot
func (s *SewerConnection) ClearBranchFeatures() {
	if s.occupant() == nil {
		return
	}
	s.replaceOccupant(nil)
}

// SetBranchFeatures replaces the slot content. fs holds at most one logical
// feature: a single feature, or a composite followed by its own structures.
func (s *SewerConnection) SetBranchFeatures(fs []BranchFeature) bool {
	f, ok := logicalFeature(fs)
	if !ok {
		s.rejectFeature()
		return false
	}
	if f == s.occupant() {
		return true
	}
	s.replaceOccupant(f)
	return true
}

func logicalFeature(fs []BranchFeature) (BranchFeature, bool) {
	if len(fs) == 0 {
		return nil, true
	}
	first := fs[0]
	if first == nil {
		return nil, false
	}
	comp, isComposite := first.(*CompositeBranchStructure)
	if !isComposite {
		return first, len(fs) == 1
	}
	if len(comp.structures) > 1 {
		return nil, false
	}
	for _, f := range fs[1:] {
		st, ok := f.(*Structure)
		if !ok || !comp.contains(st) {
			return nil, false
		}
	}
	return comp, true
}

func (s *SewerConnection) rejectFeature() {
	s.log().Error(fmt.Sprintf("connection %s does not accept more than one branch feature", s.name),
		"connection", s.name)
}

func (s *SewerConnection) replaceOccupant(f BranchFeature) {
	if comp, ok := s.occupant().(*CompositeBranchStructure); ok {
		s.compositeSub.Cancel()
		s.compositeSub = Subscription{}
		comp.branch = nil
	}
	s.features = nil
	if f != nil {
		// a structure has one owner: leave the composite it sits in
		if st, ok := f.(*Structure); ok && st.composite != nil {
			st.composite.RemoveStructure(st)
		}
		s.features = []BranchFeature{f}
		if comp, ok := f.(*CompositeBranchStructure); ok {
			if comp.branch != nil && comp.branch != s {
				comp.branch.ClearBranchFeatures()
			}
			comp.branch = s
			s.compositeSub = comp.OnPropertyChanged(func(ch PropertyChange) {
				if ch.Property == PropertyStructures {
					s.refreshSpecialType()
				}
			})
		}
	}
	s.publish(s, PropertyBranchFeatures)
	s.refreshSpecialType()
}

func (s *SewerConnection) refreshSpecialType() {
	next := SpecialNone
	if !s.IsPipe() {
		next = specialTypeOf(s.occupant())
	}
	if next == s.specialType {
		return
	}
	s.specialType = next
	s.publish(s, PropertySpecialConnectionType)
	s.deriveCrossSection()
}

// deriveCrossSection swaps a generated profile for the one matching the
// current special type. Custom profiles are kept.
func (s *SewerConnection) deriveCrossSection() {
	want := DefaultProfileName(s.specialType)
	if s.crossSection == nil {
		if s.specialType == SpecialNone {
			return
		}
		s.crossSection = NewCrossSection(s.profileProvider().DefaultProfile(want))
		s.publish(s, PropertyCrossSection)
		return
	}
	def := s.crossSection.Definition()
	if def == nil || !IsDefaultProfileName(def.Name) || def.Name == want {
		return
	}
	s.crossSection.UseSharedDefinition(s.profileProvider().DefaultProfile(want))
	s.publish(s, PropertyCrossSection)
}

// UpdateBranchFeatureGeometries places the feature at the middle of the
// connection
func (s *SewerConnection) UpdateBranchFeatureGeometries() {
	f := s.occupant()
	if f == nil {
		return
	}
	if p, ok := midpoint(s.geometry); ok {
		f.SetGeometry(p)
	}
	f.SetChainage(s.defaultChainage())
}

func (s *SewerConnection) defaultChainage() float64 {
	if s.IsInternalConnection() {
		return 0
	}
	return s.Length() / 2
}

// AddStructureToBranch wraps st in a composite placed at the middle of conn.
// An empty composite already in the slot is reused. It returns nil when the
// slot is occupied.
func AddStructureToBranch(conn *SewerConnection, st *Structure) *CompositeBranchStructure {
	if conn == nil || st == nil {
		return nil
	}
	if occ := conn.occupant(); occ != nil {
		comp, ok := occ.(*CompositeBranchStructure)
		if !ok || len(comp.structures) > 0 {
			conn.rejectFeature()
			return nil
		}
		if !comp.AddStructure(st) {
			return nil
		}
		return comp
	}

	comp := NewCompositeBranchStructure(compositeName(st))
	comp.chainage = conn.defaultChainage()
	if p, ok := midpoint(conn.geometry); ok {
		comp.geometry = &p
	}
	comp.AddStructure(st)
	conn.AddBranchFeature(comp)
	return comp
}

func compositeName(st *Structure) string {
	return "composite_" + st.Name()
}
