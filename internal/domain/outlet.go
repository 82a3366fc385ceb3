package domain

// GetOutletCandidate returns the compartment of m that should become an
// outlet: the only compartment, receiving at least one connection and
// feeding none. It returns nil otherwise.
func GetOutletCandidate(m *Manhole) *Compartment {
	if m == nil || len(m.compartments) != 1 {
		return nil
	}
	c := m.compartments[0]
	incoming := 0
	for _, conn := range m.incoming {
		if conn.TargetCompartment() == c {
			incoming++
		}
	}
	for _, conn := range m.outgoing {
		if conn.SourceCompartment() == c {
			return nil
		}
	}
	if incoming == 0 {
		return nil
	}
	return c
}

// UpdateCompartmentToOutletCompartment replaces c in m by an outlet
// compartment with the same attributes and position. Connections that
// referenced c are moved to the outlet. An outlet is returned as is; a
// compartment that m does not own is logged and yields nil.
func UpdateCompartmentToOutletCompartment(m *Manhole, c *Compartment) *Compartment {
	if m == nil || c == nil {
		return nil
	}
	if c.IsOutlet() {
		return c
	}
	i := m.indexOf(c)
	if i < 0 {
		m.log().Warn("compartment "+c.Name()+" is not part of manhole "+m.Name()+", cannot convert it to an outlet",
			"manhole", m.Name(), "compartment", c.Name())
		return nil
	}

	outlet := c.asOutlet()
	outlet.parent = m
	m.compartments[i] = outlet
	c.parent = nil

	for _, conn := range m.outgoing {
		conn.swapCompartment(sourceEnd, c, outlet)
	}
	for _, conn := range m.incoming {
		conn.swapCompartment(targetEnd, c, outlet)
	}

	m.log().Info("converted compartment "+c.Name()+" of manhole "+m.Name()+" to an outlet compartment",
		"manhole", m.Name(), "compartment", c.Name())
	m.publish(m, PropertyCompartments)
	return outlet
}

func (s *SewerConnection) swapCompartment(e end, old, replacement *Compartment) {
	if s.ends[e].compartment != old {
		return
	}
	s.assignCompartment(e, replacement)
}
