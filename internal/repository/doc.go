// Package repository defines the data access interfaces for sewernet.
//
// Networks are persisted as named snapshots of their document form, so a
// stored network can be rebuilt with the loader exactly as it was saved.
// The implementation lives in the sqlite subpackage.
//
// # SQLite Implementation
//
// The sqlite implementation stores one row per manhole, compartment, node,
// connection and profile. It handles:
//
// - Transactional replacement of a snapshot saved under an existing name
// - Foreign key constraints and cascade deletes
// - Ordered reload so compartment order and default endpoints survive
//
// # Schema Migration
//
// The sqlite repository creates its schema on startup.
package repository
