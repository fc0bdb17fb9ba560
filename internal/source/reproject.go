package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// WGS84 is the geographic frame every facility is sent in.
const WGS84 = "EPSG:4326"

// ErrUnsupportedCRS indicates a source CRS the reprojector cannot transform.
var ErrUnsupportedCRS = errors.New("unsupported coordinate reference system")

// Reprojector transforms points into EPSG:4326.
type Reprojector struct{}

// NewReprojector creates a reprojector.
func NewReprojector() *Reprojector {
	return &Reprojector{}
}

// ToWGS84 transforms p from crs into longitude/latitude.
func (r *Reprojector) ToWGS84(p orb.Point, crs string) (orb.Point, error) {
	switch normalizeCRS(crs) {
	case "EPSG:4326", "OGC:CRS84", "CRS84":
		return p, nil
	case "EPSG:3857", "EPSG:900913", "EPSG:102100", "EPSG:102113":
		return project.Mercator.ToWGS84(p), nil
	default:
		return orb.Point{}, fmt.Errorf("%w: %s", ErrUnsupportedCRS, crs)
	}
}

// normalizeCRS folds the spellings found in GeoJSON and GIS exports, such as
// "urn:ogc:def:crs:EPSG::3857" or "epsg:3857", into "AUTHORITY:CODE".
func normalizeCRS(crs string) string {
	s := strings.ToUpper(strings.TrimSpace(crs))
	if s == "" {
		return "EPSG:4326"
	}
	if strings.HasPrefix(s, "URN:OGC:DEF:CRS:") {
		parts := strings.Split(strings.TrimPrefix(s, "URN:OGC:DEF:CRS:"), ":")
		if len(parts) >= 2 {
			return parts[0] + ":" + parts[len(parts)-1]
		}
	}
	return s
}
