package crs

import "math"

// Ellipsoid parameters.
type Ellipsoid struct {
	A    float64 // semi-major axis, metres
	InvF float64 // inverse flattening
}

// GRS80 is the ellipsoid of JGD2000 and JGD2011.
var GRS80 = Ellipsoid{A: 6378137, InvF: 298.257222101}

func (e Ellipsoid) e2() float64 {
	f := 1 / e.InvF
	return f * (2 - f)
}

// TransverseMercator implements the Gauss-Krüger series from Snyder,
// "Map Projections: A Working Manual", §8. It is accurate to millimetres
// within a few degrees of the central meridian, which covers every
// Japanese plane rectangular zone.
type TransverseMercator struct {
	Ellipsoid     Ellipsoid
	LatOrigin     float64 // degrees
	CentralMerid  float64 // degrees
	Scale         float64
	FalseEasting  float64
	FalseNorthing float64
	UnitsPerMetre float64 // 1 for metres
}

func (tm TransverseMercator) unit() float64 {
	if tm.UnitsPerMetre == 0 {
		return 1
	}
	return tm.UnitsPerMetre
}

// meridianArc is the distance along the meridian from the equator to phi.
func meridianArc(a, e2, phi float64) float64 {
	e4 := e2 * e2
	e6 := e4 * e2
	return a * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// Forward projects lon/lat degrees to easting/northing.
func (tm TransverseMercator) Forward(lon, lat float64) (x, y float64) {
	a := tm.Ellipsoid.A
	e2 := tm.Ellipsoid.e2()
	ep2 := e2 / (1 - e2)
	k0 := tm.Scale

	phi := toRad(lat)
	lam := toRad(lon)
	lam0 := toRad(tm.CentralMerid)
	phi0 := toRad(tm.LatOrigin)

	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := a / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	aa := (lam - lam0) * cosPhi
	m := meridianArc(a, e2, phi)
	m0 := meridianArc(a, e2, phi0)

	x = k0 * n * (aa +
		(1-t+c)*math.Pow(aa, 3)/6 +
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(aa, 5)/120)
	y = k0 * (m - m0 + n*tanPhi*(aa*aa/2+
		(5-t+9*c+4*c*c)*math.Pow(aa, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(aa, 6)/720))

	u := tm.unit()
	return x*u + tm.FalseEasting, y*u + tm.FalseNorthing
}

// Inverse converts easting/northing to lon/lat degrees.
func (tm TransverseMercator) Inverse(x, y float64) (lon, lat float64) {
	a := tm.Ellipsoid.A
	e2 := tm.Ellipsoid.e2()
	ep2 := e2 / (1 - e2)
	k0 := tm.Scale
	u := tm.unit()

	x = (x - tm.FalseEasting) / u
	y = (y - tm.FalseNorthing) / u

	m := meridianArc(a, e2, toRad(tm.LatOrigin)) + y/k0
	e4 := e2 * e2
	e6 := e4 * e2
	mu := m / (a * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	sq := math.Sqrt(1 - e2)
	e1 := (1 - sq) / (1 + sq)
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sin1, cos1 := math.Sin(phi1), math.Cos(phi1)
	tan1 := math.Tan(phi1)
	c1 := ep2 * cos1 * cos1
	t1 := tan1 * tan1
	w := 1 - e2*sin1*sin1
	n1 := a / math.Sqrt(w)
	r1 := a * (1 - e2) / math.Pow(w, 1.5)
	d := x / (n1 * k0)

	phi := phi1 - (n1*tan1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)
	lam := (d -
		(1+2*t1+c1)*math.Pow(d, 3)/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120) / cos1

	return tm.CentralMerid + toDeg(lam), toDeg(phi)
}

// WebMercator is the spherical Pseudo-Mercator of EPSG:3857.
type WebMercator struct{}

const earthRadius = 6378137.0

// Forward projects lon/lat degrees to Web Mercator metres.
func (WebMercator) Forward(lon, lat float64) (x, y float64) {
	x = earthRadius * toRad(lon)
	y = earthRadius * math.Log(math.Tan(math.Pi/4+toRad(lat)/2))
	return x, y
}

// Inverse converts Web Mercator metres to lon/lat degrees.
func (WebMercator) Inverse(x, y float64) (lon, lat float64) {
	lon = toDeg(x / earthRadius)
	lat = toDeg(2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2)
	return lon, lat
}
