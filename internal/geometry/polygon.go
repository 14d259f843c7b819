package geometry

import (
	"math"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/sells-group/popmap/internal/crs"
	"github.com/sells-group/popmap/internal/model"
)

// shapeToMultiPolygon converts a shapefile polygon to a lon/lat MultiPolygon.
// It also returns the planar area in source units. Non-polygon and empty
// shapes return nil.
func shapeToMultiPolygon(shape shp.Shape, source *crs.CRS) (*geom.MultiPolygon, float64) {
	var parts []int32
	var points []shp.Point

	switch s := shape.(type) {
	case *shp.Polygon:
		if s == nil {
			return nil, 0
		}
		parts, points = s.Parts, s.Points
	case *shp.PolygonZ:
		if s == nil {
			return nil, 0
		}
		parts, points = s.Parts, s.Points
	case *shp.PolygonM:
		if s == nil {
			return nil, 0
		}
		parts, points = s.Parts, s.Points
	default:
		return nil, 0
	}
	if len(parts) == 0 || len(points) == 0 {
		return nil, 0
	}

	rings := make([][]float64, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || end-start < 4 {
			zap.L().Debug("geometry: skipping degenerate ring", zap.Int("part", i))
			continue
		}
		flat := make([]float64, 0, (end-start)*2)
		for _, p := range points[start:end] {
			flat = append(flat, p.X, p.Y)
		}
		rings = append(rings, flat)
	}
	if len(rings) == 0 {
		return nil, 0
	}

	polys := assembleRings(rings)
	area := 0.0
	for _, rs := range polys {
		area += polygonArea(rs)
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(model.CanonicalSRID)
	for i, rs := range polys {
		poly := geom.NewPolygon(geom.XY)
		for _, flat := range rs {
			source.TransformFlat(flat, 2)
			if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
				zap.L().Debug("geometry: skipping malformed ring", zap.Int("polygon", i), zap.Error(err))
			}
		}
		if poly.NumLinearRings() == 0 {
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geometry: skipping malformed polygon", zap.Int("polygon", i), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil, 0
	}
	return mp, area
}

// assembleRings groups rings into polygons. Clockwise rings are shells and
// counter-clockwise rings are holes of the first shell containing them. A
// hole with no enclosing shell becomes a polygon of its own.
func assembleRings(rings [][]float64) [][][]float64 {
	var polys [][][]float64
	var holes [][]float64
	for _, r := range rings {
		if signedArea(r) <= 0 {
			polys = append(polys, [][]float64{r})
		} else {
			holes = append(holes, r)
		}
	}

	for _, h := range holes {
		pt := geom.Coord{h[0], h[1]}
		placed := false
		for i := range polys {
			if xy.IsPointInRing(geom.XY, pt, polys[i][0]) {
				polys[i] = append(polys[i], h)
				placed = true
				break
			}
		}
		if !placed {
			polys = append(polys, [][]float64{h})
		}
	}
	return polys
}

// signedArea is the shoelace area of a flat XY ring; negative when clockwise.
func signedArea(flat []float64) float64 {
	n := len(flat) / 2
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}

// polygonArea is the shell area minus its holes.
func polygonArea(rings [][]float64) float64 {
	if len(rings) == 0 {
		return 0
	}
	a := math.Abs(signedArea(rings[0]))
	for _, h := range rings[1:] {
		a -= math.Abs(signedArea(h))
	}
	return math.Max(a, 0)
}

// PlanarArea returns the planar area of a MultiPolygon in its own units.
func PlanarArea(mp *geom.MultiPolygon) float64 {
	if mp == nil {
		return 0
	}
	total := 0.0
	for i := 0; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		rings := make([][]float64, 0, p.NumLinearRings())
		for j := 0; j < p.NumLinearRings(); j++ {
			rings = append(rings, p.LinearRing(j).FlatCoords())
		}
		total += polygonArea(rings)
	}
	return total
}
