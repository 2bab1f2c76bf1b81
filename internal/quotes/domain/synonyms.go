package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var separatorRegex = regexp.MustCompile(`[\s\-/]+`)

// surfaceSynonyms maps normalized free text to the vocabulary. Keys are
// lowercase with separators collapsed to underscores.
var surfaceSynonyms = map[string]SurfaceType{
	// walls
	"walls":          Walls,
	"wall":           Walls,
	"interior_wall":  Walls,
	"interior_walls": Walls,
	"inside_wall":    Walls,
	"inside_walls":   Walls,
	"room_walls":     Walls,
	"accent_wall":    Walls,
	"accent_walls":   Walls,
	"drywall":        Walls,
	// ceilings
	"ceilings":          Ceilings,
	"ceiling":           Ceilings,
	"interior_ceiling":  Ceilings,
	"interior_ceilings": Ceilings,
	"popcorn_ceiling":   Ceilings,
	"popcorn_ceilings":  Ceilings,
	// baseboards
	"baseboards":      Baseboards,
	"baseboard":       Baseboards,
	"base_board":      Baseboards,
	"base_boards":     Baseboards,
	"skirting":        Baseboards,
	"skirting_board":  Baseboards,
	"skirting_boards": Baseboards,
	"trim":            Baseboards,
	"interior_trim":   Baseboards,
	"base_trim":       Baseboards,
	// crown molding
	"crown_molding":   CrownMolding,
	"crown_moldings":  CrownMolding,
	"crown_moulding":  CrownMolding,
	"crown_mouldings": CrownMolding,
	"crown":           CrownMolding,
	"crowns":          CrownMolding,
	"cornice":         CrownMolding,
	"cornices":        CrownMolding,
	// doors
	"doors":          Doors,
	"door":           Doors,
	"interior_door":  Doors,
	"interior_doors": Doors,
	"closet_door":    Doors,
	"closet_doors":   Doors,
	"bedroom_door":   Doors,
	"bedroom_doors":  Doors,
	// windows
	"windows":          Windows,
	"window":           Windows,
	"window_frame":     Windows,
	"window_frames":    Windows,
	"window_trim":      Windows,
	"window_trims":     Windows,
	"interior_window":  Windows,
	"interior_windows": Windows,
	// exterior walls
	"exterior_walls": ExteriorWalls,
	"exterior_wall":  ExteriorWalls,
	"exterior":       ExteriorWalls,
	"outside_wall":   ExteriorWalls,
	"outside_walls":  ExteriorWalls,
	"outer_wall":     ExteriorWalls,
	"outer_walls":    ExteriorWalls,
	"siding":         ExteriorWalls,
	"sidings":        ExteriorWalls,
	"house_exterior": ExteriorWalls,
	"facade":         ExteriorWalls,
	"stucco":         ExteriorWalls,
	// fascia
	"fascia":        Fascia,
	"fascias":       Fascia,
	"fascia_board":  Fascia,
	"fascia_boards": Fascia,
	"roof_trim":     Fascia,
	// soffits
	"soffits": Soffits,
	"soffit":  Soffits,
	"eaves":   Soffits,
	"eave":    Soffits,
	// exterior doors
	"exterior_doors": ExteriorDoors,
	"exterior_door":  ExteriorDoors,
	"front_door":     ExteriorDoors,
	"front_doors":    ExteriorDoors,
	"back_door":      ExteriorDoors,
	"back_doors":     ExteriorDoors,
	"entry_door":     ExteriorDoors,
	"entry_doors":    ExteriorDoors,
	"garage_door":    ExteriorDoors,
	"garage_doors":   ExteriorDoors,
	"outside_door":   ExteriorDoors,
	"outside_doors":  ExteriorDoors,
	// exterior windows
	"exterior_windows": ExteriorWindows,
	"exterior_window":  ExteriorWindows,
	"outside_window":   ExteriorWindows,
	"outside_windows":  ExteriorWindows,
	"shutters":         ExteriorWindows,
	"shutter":          ExteriorWindows,
}

// NormalizeSurfaceKey lowercases raw, trims it and collapses spaces,
// hyphens and slashes to single underscores.
func NormalizeSurfaceKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.Trim(key, ".,;:!?\"'")
	key = separatorRegex.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

// NormalizeSurfaceType maps free text to the vocabulary. Anything outside
// the table is rejected with ErrUnknownSurfaceType.
func NormalizeSurfaceType(raw string) (SurfaceType, error) {
	if t, ok := surfaceSynonyms[NormalizeSurfaceKey(raw)]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSurfaceType, raw)
}

// SurfaceSynonyms returns a copy of the lookup table.
func SurfaceSynonyms() map[string]SurfaceType {
	out := make(map[string]SurfaceType, len(surfaceSynonyms))
	for k, v := range surfaceSynonyms {
		out[k] = v
	}
	return out
}

// NormalizeTag lowercases a condition or prep tag and snake_cases it.
func NormalizeTag(raw string) string {
	return NormalizeSurfaceKey(raw)
}
