// Package domain holds the quote pipeline's value types. It has no
// dependencies on storage, transport or the completion service.
package domain

import "strings"

// SurfaceType is the closed vocabulary of paintable surfaces.
type SurfaceType string

const (
	Walls           SurfaceType = "walls"
	Ceilings        SurfaceType = "ceilings"
	Baseboards      SurfaceType = "baseboards"
	CrownMolding    SurfaceType = "crown_molding"
	Doors           SurfaceType = "doors"
	Windows         SurfaceType = "windows"
	ExteriorWalls   SurfaceType = "exterior_walls"
	Fascia          SurfaceType = "fascia"
	Soffits         SurfaceType = "soffits"
	ExteriorDoors   SurfaceType = "exterior_doors"
	ExteriorWindows SurfaceType = "exterior_windows"
)

// MeasurementKind says which measurement field a surface type is priced by.
type MeasurementKind int

const (
	KindArea MeasurementKind = iota + 1
	KindLinear
	KindUnit
)

var surfaceKinds = map[SurfaceType]MeasurementKind{
	Walls:           KindArea,
	Ceilings:        KindArea,
	ExteriorWalls:   KindArea,
	Soffits:         KindArea,
	Baseboards:      KindLinear,
	CrownMolding:    KindLinear,
	Fascia:          KindLinear,
	Doors:           KindUnit,
	Windows:         KindUnit,
	ExteriorDoors:   KindUnit,
	ExteriorWindows: KindUnit,
}

// AllSurfaceTypes lists the vocabulary in a stable order.
func AllSurfaceTypes() []SurfaceType {
	return []SurfaceType{
		Walls, Ceilings, Baseboards, CrownMolding, Doors, Windows,
		ExteriorWalls, Fascia, Soffits, ExteriorDoors, ExteriorWindows,
	}
}

// Valid reports whether t is part of the vocabulary.
func (t SurfaceType) Valid() bool {
	_, ok := surfaceKinds[t]
	return ok
}

// Kind returns the measurement kind, or 0 for an unknown type.
func (t SurfaceType) Kind() MeasurementKind {
	return surfaceKinds[t]
}

// Label is the human form used in clarification questions.
func (t SurfaceType) Label() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// Field is the JSON name of the measurement field for the kind.
func (k MeasurementKind) Field() string {
	switch k {
	case KindArea:
		return "area"
	case KindLinear:
		return "linearFeet"
	case KindUnit:
		return "count"
	default:
		return ""
	}
}

// Unit is the noun customers are asked for.
func (k MeasurementKind) Unit() string {
	switch k {
	case KindArea:
		return "sq ft"
	case KindLinear:
		return "linear feet"
	case KindUnit:
		return "count"
	default:
		return ""
	}
}

// Condition drives the condition multiplier.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// PrepWork is a preparation tag adding a bonus to the prep multiplier.
type PrepWork string

const (
	PrepPatchNailHoles  PrepWork = "patch_nail_holes"
	PrepCaulkGaps       PrepWork = "caulk_gaps"
	PrepSandSurfaces    PrepWork = "sand_surfaces"
	PrepSpotPrime       PrepWork = "spot_prime"
	PrepPrimeAll        PrepWork = "prime_all"
	PrepScrapePeeling   PrepWork = "scrape_peeling"
	PrepPressureWash    PrepWork = "pressure_wash"
	PrepMildewTreatment PrepWork = "mildew_treatment"
	PrepRemoveWallpaper PrepWork = "remove_wallpaper"
	PrepRepairDrywall   PrepWork = "repair_drywall"
)

// Surface is one paintable area or set of units within a project. Only the
// measurement field matching the type's kind is ever read.
type Surface struct {
	Type        SurfaceType `json:"type"`
	Area        float64     `json:"area,omitempty"`
	LinearFeet  float64     `json:"linearFeet,omitempty"`
	Count       float64     `json:"count,omitempty"`
	Coats       int         `json:"coats,omitempty"`
	Condition   Condition   `json:"condition,omitempty"`
	PrepWork    []PrepWork  `json:"prepWork,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Kind is shorthand for s.Type.Kind().
func (s Surface) Kind() MeasurementKind {
	return s.Type.Kind()
}

// Measurement returns the value of the field matching the surface's kind.
func (s Surface) Measurement() float64 {
	switch s.Kind() {
	case KindArea:
		return s.Area
	case KindLinear:
		return s.LinearFeet
	case KindUnit:
		return s.Count
	default:
		return 0
	}
}

// MeasurementUnit is the unit noun for the surface's kind.
func (s Surface) MeasurementUnit() string {
	return s.Kind().Unit()
}

// HasMeasurement reports a positive value in the matching field.
func (s Surface) HasMeasurement() bool {
	return s.Measurement() > 0
}
