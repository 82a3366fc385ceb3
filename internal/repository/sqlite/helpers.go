package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"sewernet/internal/codec"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToFloatPtr converts sql.NullFloat64 to *float64
func nullToFloatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

// floatPtrToNull converts *float64 to sql.NullFloat64
func floatPtrToNull(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// boolToInt stores booleans as 0/1
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals v to a nullable JSON string. A nil pointer is stored as NULL.
func marshalToNull(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	if s, ok := v.(*codec.StructureDoc); ok && s == nil {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the compartments or connections table:
// 1. Add field to the row struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update the columns constant - APPEND to end
// 4. Update toDoc() and the insert args helper
// 5. Add the column to migrate() in sqlite.go
//
// CRITICAL: Column order must match between the columns constant, scanArgs()
// and the insert args helper.

// ============================================================================
// Compartment Row Scanner
// ============================================================================

// compartmentRow holds all columns from a compartment query for scanning
type compartmentRow struct {
	ID                string
	ManholeID         string
	Position          int
	Name              string
	X                 sql.NullFloat64
	Y                 sql.NullFloat64
	SurfaceLevel      float64
	BottomLevel       float64
	FloodableArea     float64
	Length            float64
	Width             float64
	Shape             sql.NullString
	Storage           sql.NullString
	Outlet            int
	SurfaceWaterLevel float64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match compartmentColumns order exactly
func (r *compartmentRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,                // 1
		&r.ManholeID,         // 2
		&r.Position,          // 3
		&r.Name,              // 4
		&r.X,                 // 5
		&r.Y,                 // 6
		&r.SurfaceLevel,      // 7
		&r.BottomLevel,       // 8
		&r.FloodableArea,     // 9
		&r.Length,            // 10
		&r.Width,             // 11
		&r.Shape,             // 12
		&r.Storage,           // 13
		&r.Outlet,            // 14
		&r.SurfaceWaterLevel, // 15
	}
}

// toDoc converts the scanned row to a codec.CompartmentDoc
func (r *compartmentRow) toDoc() codec.CompartmentDoc {
	return codec.CompartmentDoc{
		Name:              r.Name,
		X:                 nullToFloatPtr(r.X),
		Y:                 nullToFloatPtr(r.Y),
		SurfaceLevel:      r.SurfaceLevel,
		BottomLevel:       r.BottomLevel,
		FloodableArea:     r.FloodableArea,
		Length:            r.Length,
		Width:             r.Width,
		Shape:             nullToString(r.Shape),
		Storage:           nullToString(r.Storage),
		Outlet:            r.Outlet != 0,
		SurfaceWaterLevel: r.SurfaceWaterLevel,
	}
}

// compartmentColumns is the column list for compartment queries
const compartmentColumns = `id, manhole_id, position, name, x, y,
	surface_level, bottom_level, floodable_area, length, width,
	shape, storage, outlet, surface_water_level`

// compartmentInsertArgs prepares arguments matching compartmentColumns
func compartmentInsertArgs(manholeID string, position int, c codec.CompartmentDoc) []interface{} {
	return []interface{}{
		newID(),
		manholeID,
		position,
		c.Name,
		floatPtrToNull(c.X),
		floatPtrToNull(c.Y),
		c.SurfaceLevel,
		c.BottomLevel,
		c.FloodableArea,
		c.Length,
		c.Width,
		stringToNull(c.Shape),
		stringToNull(c.Storage),
		boolToInt(c.Outlet),
		c.SurfaceWaterLevel,
	}
}

// ============================================================================
// Connection Row Scanner
// ============================================================================

// connectionRow holds all columns from a connection query for scanning
type connectionRow struct {
	ID                string
	NetworkID         string
	Position          int
	Name              string
	Kind              sql.NullString
	SourceCompartment sql.NullString
	TargetCompartment sql.NullString
	SourceNode        sql.NullString
	TargetNode        sql.NullString
	LevelSource       float64
	LevelTarget       float64
	WaterType         sql.NullString
	Profile           sql.NullString
	StructureJSON     sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match connectionColumns order exactly
func (r *connectionRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,                // 1
		&r.NetworkID,         // 2
		&r.Position,          // 3
		&r.Name,              // 4
		&r.Kind,              // 5
		&r.SourceCompartment, // 6
		&r.TargetCompartment, // 7
		&r.SourceNode,        // 8
		&r.TargetNode,        // 9
		&r.LevelSource,       // 10
		&r.LevelTarget,       // 11
		&r.WaterType,         // 12
		&r.Profile,           // 13
		&r.StructureJSON,     // 14
	}
}

// toDoc converts the scanned row to a codec.ConnectionDoc
func (r *connectionRow) toDoc() (codec.ConnectionDoc, error) {
	c := codec.ConnectionDoc{
		Name:              r.Name,
		Kind:              nullToString(r.Kind),
		SourceCompartment: nullToString(r.SourceCompartment),
		TargetCompartment: nullToString(r.TargetCompartment),
		SourceNode:        nullToString(r.SourceNode),
		TargetNode:        nullToString(r.TargetNode),
		LevelSource:       r.LevelSource,
		LevelTarget:       r.LevelTarget,
		WaterType:         nullToString(r.WaterType),
		Profile:           nullToString(r.Profile),
	}
	if r.StructureJSON.Valid {
		c.Structure = &codec.StructureDoc{}
		if err := unmarshalJSONField(r.StructureJSON, c.Structure); err != nil {
			return c, fmt.Errorf("unmarshal structure: %w", err)
		}
	}
	return c, nil
}

// connectionColumns is the column list for connection queries
const connectionColumns = `id, network_id, position, name, kind,
	source_compartment, target_compartment, source_node, target_node,
	level_source, level_target, water_type, profile, structure`

// connectionInsertArgs prepares arguments matching connectionColumns
func connectionInsertArgs(networkID string, position int, c codec.ConnectionDoc) ([]interface{}, error) {
	structureJSON, err := marshalToNull(c.Structure)
	if err != nil {
		return nil, fmt.Errorf("marshal structure: %w", err)
	}
	return []interface{}{
		newID(),
		networkID,
		position,
		c.Name,
		stringToNull(c.Kind),
		stringToNull(c.SourceCompartment),
		stringToNull(c.TargetCompartment),
		stringToNull(c.SourceNode),
		stringToNull(c.TargetNode),
		c.LevelSource,
		c.LevelTarget,
		stringToNull(c.WaterType),
		stringToNull(c.Profile),
		structureJSON,
	}, nil
}
