package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DocumentVersion is written to every exported document
const DocumentVersion = "1"

// ErrInvalidDocument is returned when a decoded document fails validation
var ErrInvalidDocument = errors.New("invalid network document")

// Document is the serialized form of a sewer network
type Document struct {
	Version     string          `yaml:"version" json:"version"`
	Name        string          `yaml:"name" json:"name" validate:"required"`
	Profiles    []ProfileDoc    `yaml:"profiles,omitempty" json:"profiles,omitempty" validate:"dive"`
	Manholes    []ManholeDoc    `yaml:"manholes" json:"manholes" validate:"dive"`
	Nodes       []NodeDoc       `yaml:"nodes,omitempty" json:"nodes,omitempty" validate:"dive"`
	Connections []ConnectionDoc `yaml:"connections" json:"connections" validate:"dive"`
}

// ProfileDoc is a shared cross-section definition
type ProfileDoc struct {
	Name   string  `yaml:"name" json:"name" validate:"required"`
	Shape  string  `yaml:"shape" json:"shape" validate:"oneof=round rectangular egg"`
	Width  float64 `yaml:"width" json:"width" validate:"gt=0"`
	Height float64 `yaml:"height" json:"height" validate:"gt=0"`
}

// ManholeDoc is a manhole with its compartments in order
type ManholeDoc struct {
	Name         string           `yaml:"name" json:"name" validate:"required"`
	Compartments []CompartmentDoc `yaml:"compartments" json:"compartments" validate:"dive"`
}

// CompartmentDoc is a compartment. Position is optional. A compartment
// without a name is given a unique one when the network is built.
type CompartmentDoc struct {
	Name              string   `yaml:"name,omitempty" json:"name,omitempty"`
	X                 *float64 `yaml:"x,omitempty" json:"x,omitempty" validate:"required_with=Y"`
	Y                 *float64 `yaml:"y,omitempty" json:"y,omitempty" validate:"required_with=X"`
	SurfaceLevel      float64  `yaml:"surface_level" json:"surface_level"`
	BottomLevel       float64  `yaml:"bottom_level" json:"bottom_level" validate:"ltefield=SurfaceLevel"`
	FloodableArea     float64  `yaml:"floodable_area,omitempty" json:"floodable_area,omitempty" validate:"gte=0"`
	Length            float64  `yaml:"length" json:"length"`
	Width             float64  `yaml:"width" json:"width"`
	Shape             string   `yaml:"shape,omitempty" json:"shape,omitempty" validate:"omitempty,oneof=unknown square rectangular round"`
	Storage           string   `yaml:"storage,omitempty" json:"storage,omitempty" validate:"omitempty,oneof=reservoir closed loss"`
	Outlet            bool     `yaml:"outlet,omitempty" json:"outlet,omitempty"`
	SurfaceWaterLevel float64  `yaml:"surface_water_level,omitempty" json:"surface_water_level,omitempty"`
}

// NodeDoc is a plain node without compartments
type NodeDoc struct {
	Name string  `yaml:"name" json:"name" validate:"required"`
	X    float64 `yaml:"x" json:"x"`
	Y    float64 `yaml:"y" json:"y"`
}

// ConnectionDoc is a connection. Compartment ends are referenced by
// compartment name, plain node ends by node name.
type ConnectionDoc struct {
	Name              string        `yaml:"name" json:"name" validate:"required"`
	Kind              string        `yaml:"kind,omitempty" json:"kind,omitempty" validate:"omitempty,oneof=pipe connection"`
	SourceCompartment string        `yaml:"source_compartment,omitempty" json:"source_compartment,omitempty" validate:"required_without=SourceNode"`
	TargetCompartment string        `yaml:"target_compartment,omitempty" json:"target_compartment,omitempty" validate:"required_without=TargetNode"`
	SourceNode        string        `yaml:"source_node,omitempty" json:"source_node,omitempty"`
	TargetNode        string        `yaml:"target_node,omitempty" json:"target_node,omitempty"`
	LevelSource       float64       `yaml:"level_source" json:"level_source"`
	LevelTarget       float64       `yaml:"level_target" json:"level_target"`
	WaterType         string        `yaml:"water_type,omitempty" json:"water_type,omitempty" validate:"omitempty,oneof=none storm dry mixed"`
	Profile           string        `yaml:"profile,omitempty" json:"profile,omitempty"`
	Structure         *StructureDoc `yaml:"structure,omitempty" json:"structure,omitempty"`
}

// StructureDoc is the structure carried by a connection
type StructureDoc struct {
	Name     string   `yaml:"name" json:"name" validate:"required"`
	Kind     string   `yaml:"kind" json:"kind" validate:"required,oneof=pump weir orifice culvert"`
	Chainage *float64 `yaml:"chainage,omitempty" json:"chainage,omitempty" validate:"omitempty,gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structure of the document. Referential checks are left
// to the loader.
func (d *Document) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}
