package crs

// zone is one of the nineteen Japan Plane Rectangular CS origins.
type zone struct {
	numeral string
	lat     float64
	lon     float64
}

var planeZones = [19]zone{
	{"I", 33, deg(129, 30)},
	{"II", 33, 131},
	{"III", 36, deg(132, 10)},
	{"IV", 33, deg(133, 30)},
	{"V", 36, deg(134, 20)},
	{"VI", 36, 136},
	{"VII", 36, deg(137, 10)},
	{"VIII", 36, deg(138, 30)},
	{"IX", 36, deg(139, 50)},
	{"X", 40, deg(140, 50)},
	{"XI", 44, deg(140, 15)},
	{"XII", 44, deg(142, 15)},
	{"XIII", 44, deg(144, 15)},
	{"XIV", 26, 142},
	{"XV", 26, deg(127, 30)},
	{"XVI", 26, 124},
	{"XVII", 26, 131},
	{"XVIII", 20, 136},
	{"XIX", 26, 154},
}

const (
	jgd2000ZoneI = 2443
	jgd2011ZoneI = 6669
)

func zoneForEPSG(code int) (zone, bool) {
	switch {
	case code >= jgd2000ZoneI && code < jgd2000ZoneI+len(planeZones):
		return planeZones[code-jgd2000ZoneI], true
	case code >= jgd2011ZoneI && code < jgd2011ZoneI+len(planeZones):
		return planeZones[code-jgd2011ZoneI], true
	}
	return zone{}, false
}

// ZoneEPSG returns the JGD2011 EPSG code of a zone number 1..19.
func ZoneEPSG(n int) (int, bool) {
	if n < 1 || n > len(planeZones) {
		return 0, false
	}
	return jgd2011ZoneI + n - 1, true
}

func (z zone) projection() TransverseMercator {
	return TransverseMercator{
		Ellipsoid:    GRS80,
		LatOrigin:    z.lat,
		CentralMerid: z.lon,
		Scale:        0.9999,
	}
}
