// Package domain defines the core topology types of the sewernet sewer network model.
//
// This package contains the mutable, cross-referenced graph of a sewer network:
// manholes owning compartments, connections joining compartments across manholes,
// and in-line structures attached to connections. Every mutation keeps the graph
// self-consistent before it returns.
//
// # Registry
//
// Manhole owns an ordered list of Compartment values. A compartment belongs to at
// most one manhole and its ParentManhole back-reference is only written by the
// owning manhole. The manhole location is the mean of its compartments' locations
// and every compartment is relocated to that mean when it is recomputed.
//
// # Endpoints
//
// SewerConnection joins a source and a target. Endpoints can be given as a
// compartment (the manhole follows) or as a node (a compartment is resolved from
// the stored name key or a default index). Connections follow their manholes
// through change notifications and keep a two-point line geometry up to date.
//
// # Branch Features
//
// A connection carries at most one logical branch feature: a single Structure or
// a CompositeBranchStructure holding at most one structure. Pumps and weirs
// classify the connection and swap default cross-section profiles. Composite
// chainage is kept equal to its children's chainage in both directions.
//
// # Outlets
//
// GetOutletCandidate and UpdateCompartmentToOutletCompartment find and promote
// compartments that only receive flow.
//
// # Notifications
//
// Manholes, compartments, nodes, connections, structures and composites publish
// PropertyChange values synchronously to handlers registered with
// OnPropertyChanged. Objects are not safe for concurrent use.
package domain
