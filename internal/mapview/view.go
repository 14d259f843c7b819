package mapview

import (
	"math"
	"slices"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/popmap/internal/crs"
	"github.com/sells-group/popmap/internal/model"
)

// PresetSeparator joins the sorted municipality names of a preset key.
const PresetSeparator = "・"

const (
	defaultMinZoom = 5
	defaultMaxZoom = 15
	// zoomIntercept fits 21.3 - ln(extent in metres) to OSM tile zooms.
	zoomIntercept = 21.3
)

// Preset pins the zoom and nudges the computed center for a set of
// municipalities.
type Preset struct {
	Municipalities []string `json:"municipalities" yaml:"municipalities"`
	Zoom           float64  `json:"zoom" yaml:"zoom"`
	LatOffset      float64  `json:"lat_offset" yaml:"lat_offset"`
	LonOffset      float64  `json:"lon_offset" yaml:"lon_offset"`
}

// Key is the lookup key of the preset's municipality set.
func (p Preset) Key() string {
	return PresetKey(p.Municipalities)
}

// PresetKey sorts names and joins them with PresetSeparator.
func PresetKey(municipalities []string) string {
	s := slices.Clone(municipalities)
	slices.Sort(s)
	s = slices.Compact(s)
	return strings.Join(s, PresetSeparator)
}

// DefaultPresets are tuned for the eastern Osaka municipalities.
var DefaultPresets = []Preset{
	{Municipalities: []string{"大阪市鶴見区"}, Zoom: 13.1, LatOffset: -0.00002, LonOffset: -0.0004},
	{Municipalities: []string{"大東市"}, Zoom: 13.1, LatOffset: 0.001, LonOffset: 0.006},
	{Municipalities: []string{"大東市", "東大阪市"}, Zoom: 11.9, LatOffset: 0.004, LonOffset: 0.006},
	{Municipalities: []string{"門真市"}, Zoom: 13.0, LatOffset: -0.002, LonOffset: -0.0007},
	{Municipalities: []string{"東大阪市"}, Zoom: 12.4, LatOffset: -0.002, LonOffset: 0.015},
	{Municipalities: []string{"大阪市鶴見区", "大東市", "東大阪市", "門真市"}, Zoom: 10.8, LatOffset: 0, LonOffset: 0.003},
}

// Center is a lon/lat map center.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// View is the initial camera of the map.
type View struct {
	Center Center  `json:"center"`
	Zoom   float64 `json:"zoom"`
	Preset string  `json:"preset,omitempty"`
}

// Viewer computes map views. It is safe for concurrent use.
type Viewer struct {
	presets map[string]Preset
	minZoom float64
	maxZoom float64
}

// NewViewer creates a Viewer. Nil presets use DefaultPresets; zero zoom
// bounds use 5 and 15.
func NewViewer(presets []Preset, minZoom, maxZoom float64) *Viewer {
	if presets == nil {
		presets = DefaultPresets
	}
	if minZoom <= 0 {
		minZoom = defaultMinZoom
	}
	if maxZoom <= 0 {
		maxZoom = defaultMaxZoom
	}
	v := &Viewer{presets: make(map[string]Preset, len(presets)), minZoom: minZoom, maxZoom: maxZoom}
	for _, p := range presets {
		v.presets[p.Key()] = p
	}
	return v
}

// View centers the map on the area-weighted centroid of all polygons,
// computed in Web Mercator. A preset for the municipality set overrides the
// zoom and offsets the center; otherwise zoom follows the extent.
func (v *Viewer) View(municipalities []string, records []model.JoinedRecord) View {
	polys := make([]*geom.MultiPolygon, 0, len(records))
	for _, r := range records {
		if r.Geometry.Geometry != nil {
			polys = append(polys, r.Geometry.Geometry)
		}
	}

	cx, cy, extent, ok := mercatorCentroid(polys)
	if !ok {
		return View{Zoom: v.minZoom}
	}
	lon, lat := crs.WebMercator{}.Inverse(cx, cy)
	out := View{Center: Center{Lat: lat, Lon: lon}}

	if p, found := v.presets[PresetKey(municipalities)]; found {
		out.Center.Lat += p.LatOffset
		out.Center.Lon += p.LonOffset
		out.Zoom = p.Zoom
		out.Preset = p.Key()
		return out
	}

	out.Zoom = v.zoomFor(extent)
	return out
}

func (v *Viewer) zoomFor(extent float64) float64 {
	if extent <= 0 {
		return v.maxZoom
	}
	return math.Max(v.minZoom, math.Min(v.maxZoom, zoomIntercept-math.Log(extent)))
}

// mercatorCentroid returns the area-weighted centroid of the polygons in Web
// Mercator metres and the larger side of their bounding box. Holes subtract.
// Degenerate input falls back to the bounding-box center.
func mercatorCentroid(polys []*geom.MultiPolygon) (cx, cy, extent float64, ok bool) {
	var (
		area, mx, my           float64
		minX, minY, maxX, maxY = math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
	)
	proj := crs.WebMercator{}

	for _, mp := range polys {
		for i := 0; i < mp.NumPolygons(); i++ {
			p := mp.Polygon(i)
			for j := 0; j < p.NumLinearRings(); j++ {
				flat := p.LinearRing(j).FlatCoords()
				stride := p.Stride()
				pts := make([]float64, 0, len(flat)/stride*2)
				for k := 0; k+1 < len(flat); k += stride {
					x, y := proj.Forward(flat[k], flat[k+1])
					pts = append(pts, x, y)
					minX, maxX = math.Min(minX, x), math.Max(maxX, x)
					minY, maxY = math.Min(minY, y), math.Max(maxY, y)
				}

				a, rx, ry := ringMoments(pts)
				if j > 0 {
					a, rx, ry = -a, -rx, -ry
				}
				area += a
				mx += rx
				my += ry
			}
		}
	}

	if math.IsInf(minX, 1) {
		return 0, 0, 0, false
	}
	extent = math.Max(maxX-minX, maxY-minY)
	if area <= 0 {
		return (minX + maxX) / 2, (minY + maxY) / 2, extent, true
	}
	return mx / area, my / area, extent, true
}

// ringMoments returns the unsigned area of a ring and its first moments,
// oriented to match.
func ringMoments(pts []float64) (area, mx, my float64) {
	n := len(pts) / 2
	if n < 3 {
		return 0, 0, 0
	}
	for i := 0; i < n; i++ {
		x0, y0 := pts[2*i], pts[2*i+1]
		j := (i + 1) % n
		x1, y1 := pts[2*j], pts[2*j+1]
		cross := x0*y1 - x1*y0
		area += cross
		mx += (x0 + x1) * cross
		my += (y0 + y1) * cross
	}
	area /= 2
	mx /= 6
	my /= 6
	if area < 0 {
		return -area, -mx, -my
	}
	return area, mx, my
}
