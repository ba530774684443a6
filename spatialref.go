package mdtiff

import (
	"strconv"
	"strings"
)

// Geokey identifiers persisted in the GeoKeyDirectory tag.
const (
	geoKeyModelType      = 1024
	geoKeyRasterType     = 1025
	geoKeyCitation       = 1026
	geoKeyGeographicType = 2048
	geoKeyProjectedCS    = 3072
)

const (
	geoModelProjected  = 1
	geoModelGeographic = 2

	geoRasterPixelIsPoint = 2
)

// SpatialRef carries an opaque coordinate reference system. The WKT string
// round-trips verbatim through the container; the EPSG code (when known) is
// additionally persisted in the geokeys.
type SpatialRef struct {
	wkt        string
	epsg       int
	geographic bool
}

// NewSpatialRefFromEPSG builds a reference from an EPSG code. Codes in the
// 4000-4999 range are treated as geographic 2D systems.
func NewSpatialRefFromEPSG(code int) *SpatialRef {
	return &SpatialRef{
		epsg:       code,
		geographic: code >= 4000 && code <= 4999,
	}
}

// NewSpatialRefFromWKT builds a reference from a WKT definition. The string
// is not interpreted beyond sniffing the CRS kind and a trailing EPSG
// authority code.
func NewSpatialRefFromWKT(wkt string) *SpatialRef {
	s := &SpatialRef{wkt: wkt}
	trimmed := strings.TrimSpace(wkt)
	if strings.HasPrefix(trimmed, "GEOGCS") || strings.HasPrefix(trimmed, "GEOGCRS") {
		s.geographic = true
	}
	s.epsg = sniffEPSG(trimmed)
	return s
}

// WKT returns the WKT definition, if any.
func (s *SpatialRef) WKT() string { return s.wkt }

// EPSG returns the EPSG code, or 0 when unknown.
func (s *SpatialRef) EPSG() int { return s.epsg }

// IsGeographic reports whether the CRS is geographic (latitude/longitude).
func (s *SpatialRef) IsGeographic() bool { return s.geographic }

// SetWKT attaches a WKT definition to round-trip alongside the EPSG code.
func (s *SpatialRef) SetWKT(wkt string) { s.wkt = wkt }

// sniffEPSG extracts the outermost authority code from a WKT string, which
// in both WKT1 (AUTHORITY["EPSG","4326"]) and WKT2 (ID["EPSG",4326]) is the
// last one serialized.
func sniffEPSG(wkt string) int {
	for _, marker := range []string{`AUTHORITY["EPSG","`, `ID["EPSG",`} {
		if i := strings.LastIndex(wkt, marker); i >= 0 {
			rest := wkt[i+len(marker):]
			end := strings.IndexAny(rest, `"]`)
			if end <= 0 {
				continue
			}
			if code, err := strconv.Atoi(rest[:end]); err == nil {
				return code
			}
		}
	}
	return 0
}
