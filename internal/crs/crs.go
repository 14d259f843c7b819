// Package crs resolves the coordinate reference system of a shapefile and
// converts its coordinates to WGS84 longitude/latitude.
package crs

import (
	"fmt"
	"math"
)

// Canonical is EPSG:4326, the system every loaded geometry ends up in.
const Canonical = 4326

// Projection converts between projected metres and geographic degrees.
type Projection interface {
	Inverse(x, y float64) (lon, lat float64)
	Forward(lon, lat float64) (x, y float64)
}

// CRS is a resolved coordinate reference system.
type CRS struct {
	EPSG int    // 0 when parsed from WKT without an authority code
	Name string // human readable
	proj Projection
}

// Geographic reports whether coordinates are already lon/lat degrees.
func (c *CRS) Geographic() bool { return c.proj == nil }

// IsCanonical reports whether no conversion is needed.
func (c *CRS) IsCanonical() bool { return c.Geographic() }

func (c *CRS) String() string {
	if c.EPSG != 0 {
		return fmt.Sprintf("EPSG:%d", c.EPSG)
	}
	return c.Name
}

// ToWGS84 converts one coordinate pair.
func (c *CRS) ToWGS84(x, y float64) (lon, lat float64) {
	if c.proj == nil {
		return x, y
	}
	return c.proj.Inverse(x, y)
}

// FromWGS84 converts lon/lat degrees into this system.
func (c *CRS) FromWGS84(lon, lat float64) (x, y float64) {
	if c.proj == nil {
		return lon, lat
	}
	return c.proj.Forward(lon, lat)
}

// TransformFlat rewrites interleaved coordinates in place. stride is the
// number of ordinates per point; only the first two are touched.
func (c *CRS) TransformFlat(flat []float64, stride int) {
	if c.proj == nil || stride < 2 {
		return
	}
	for i := 0; i+1 < len(flat); i += stride {
		flat[i], flat[i+1] = c.proj.Inverse(flat[i], flat[i+1])
	}
}

// UnsupportedError is returned for systems that cannot be converted.
type UnsupportedError struct {
	Name   string
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("crs: unsupported %s: %s", e.Name, e.Reason)
}

// geographic codes treated as equal to WGS84; JGD2000/2011 differ from it by
// well under a metre.
var geographic = map[int]string{
	4326: "WGS 84",
	4612: "JGD2000",
	6668: "JGD2011",
}

// Tokyo datum codes need a datum shift grid.
var tokyoDatum = map[int]bool{4301: true}

const (
	webMercator   = 3857
	reasonUnknown = "unknown code"
)

// FromEPSG resolves a numeric EPSG code.
func FromEPSG(code int) (*CRS, error) {
	if name, ok := geographic[code]; ok {
		return &CRS{EPSG: code, Name: name}, nil
	}
	if code == webMercator || code == 900913 || code == 3785 {
		return &CRS{EPSG: code, Name: "WGS 84 / Pseudo-Mercator", proj: WebMercator{}}, nil
	}
	if z, ok := zoneForEPSG(code); ok {
		datum := "JGD2011"
		if code < 6669 {
			datum = "JGD2000"
		}
		return &CRS{
			EPSG: code,
			Name: fmt.Sprintf("%s / Japan Plane Rectangular CS %s", datum, z.numeral),
			proj: z.projection(),
		}, nil
	}
	if tokyoDatum[code] || (code >= 30161 && code <= 30179) {
		return nil, &UnsupportedError{Name: fmt.Sprintf("EPSG:%d", code), Reason: "Tokyo datum requires a datum shift"}
	}
	return nil, &UnsupportedError{Name: fmt.Sprintf("EPSG:%d", code), Reason: reasonUnknown}
}

// deg converts degrees and minutes to decimal degrees.
func deg(d, m float64) float64 { return d + m/60 }

func toRad(d float64) float64 { return d * math.Pi / 180 }
func toDeg(r float64) float64 { return r * 180 / math.Pi }
