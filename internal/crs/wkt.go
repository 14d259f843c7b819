package crs

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
)

// wktNode is KEYWORD[arg, arg, ...]; args are string, float64 or *wktNode.
type wktNode struct {
	keyword string
	args    []any
}

func (n *wktNode) child(keywords ...string) *wktNode {
	for _, a := range n.args {
		c, ok := a.(*wktNode)
		if !ok {
			continue
		}
		for _, k := range keywords {
			if c.keyword == k {
				return c
			}
		}
	}
	return nil
}

func (n *wktNode) name() string {
	if len(n.args) == 0 {
		return ""
	}
	s, _ := n.args[0].(string)
	return s
}

func (n *wktNode) number(i int) (float64, bool) {
	if i >= len(n.args) {
		return 0, false
	}
	switch v := n.args[i].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// params collects PARAMETER["name", value] children keyed by lowercased name.
func (n *wktNode) params() map[string]float64 {
	out := make(map[string]float64)
	for _, a := range n.args {
		c, ok := a.(*wktNode)
		if !ok || c.keyword != "PARAMETER" {
			continue
		}
		if v, ok := c.number(1); ok {
			out[strings.ToLower(c.name())] = v
		}
	}
	return out
}

// epsg returns the EPSG code from AUTHORITY["EPSG","6674"] or ID["EPSG",6674].
func (n *wktNode) epsg() int {
	a := n.child("AUTHORITY", "ID")
	if a == nil || !strings.EqualFold(a.name(), "EPSG") {
		return 0
	}
	v, ok := a.number(1)
	if !ok {
		return 0
	}
	return int(v)
}

type wktParser struct {
	src []rune
	pos int
}

// ParseWKT resolves a CRS from OGC or ESRI well-known text, as found in .prj
// sidecars.
func ParseWKT(text string) (*CRS, error) {
	p := &wktParser{src: []rune(strings.TrimSpace(text))}
	root, err := p.parseNode()
	if err != nil {
		return nil, err
	}

	if code := root.epsg(); code != 0 {
		c, err := FromEPSG(code)
		if err == nil {
			return c, nil
		}
		var ue *UnsupportedError
		if !errors.As(err, &ue) || ue.Reason != reasonUnknown {
			return nil, err
		}
	}

	if isTokyo(root) {
		return nil, &UnsupportedError{Name: root.name(), Reason: "Tokyo datum requires a datum shift"}
	}

	switch root.keyword {
	case "GEOGCS", "GEOGCRS", "GEODCRS", "GEOCCS":
		return &CRS{Name: root.name()}, nil
	case "PROJCS", "PROJCRS":
		return projected(root)
	}
	return nil, &UnsupportedError{Name: root.keyword, Reason: "unrecognised WKT root"}
}

// ReadPRJ reads and parses a .prj file.
func ReadPRJ(path string) (*CRS, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "crs: read %s", path)
	}
	c, err := ParseWKT(string(data))
	if err != nil {
		return nil, eris.Wrapf(err, "crs: parse %s", path)
	}
	return c, nil
}

func isTokyo(root *wktNode) bool {
	g := root
	if c := root.child("GEOGCS", "BASEGEOGCRS", "BASEGEODCRS"); c != nil {
		g = c
	}
	if strings.Contains(strings.ToLower(g.name()), "tokyo") {
		return true
	}
	if d := g.child("DATUM"); d != nil && strings.Contains(strings.ToLower(d.name()), "tokyo") {
		return true
	}
	return false
}

func projected(root *wktNode) (*CRS, error) {
	method := ""
	if m := root.child("PROJECTION", "METHOD"); m != nil {
		method = strings.ToLower(m.name())
	} else if conv := root.child("CONVERSION"); conv != nil {
		if m := conv.child("METHOD"); m != nil {
			method = strings.ToLower(m.name())
		}
	}
	name := root.name()
	lname := strings.ToLower(name)

	switch {
	case strings.Contains(method, "auxiliary_sphere"),
		strings.Contains(method, "pseudo_mercator"),
		strings.Contains(method, "pseudo-mercator"),
		strings.Contains(lname, "web_mercator"),
		strings.Contains(lname, "pseudo-mercator"):
		return &CRS{Name: name, proj: WebMercator{}}, nil

	case strings.Contains(method, "transverse_mercator"),
		strings.Contains(method, "transverse mercator"),
		strings.Contains(method, "gauss_kruger"):
		return &CRS{Name: name, proj: transverseFromWKT(root)}, nil
	}

	return nil, &UnsupportedError{Name: name, Reason: "projection " + strconvQuote(method)}
}

func transverseFromWKT(root *wktNode) TransverseMercator {
	p := root.params()
	if conv := root.child("CONVERSION"); conv != nil {
		for k, v := range conv.params() {
			p[k] = v
		}
	}
	pick := func(def float64, keys ...string) float64 {
		for _, k := range keys {
			if v, ok := p[k]; ok {
				return v
			}
		}
		return def
	}

	tm := TransverseMercator{
		Ellipsoid:     GRS80,
		LatOrigin:     pick(0, "latitude_of_origin", "latitude of natural origin"),
		CentralMerid:  pick(0, "central_meridian", "longitude_of_center", "longitude of natural origin"),
		Scale:         pick(1, "scale_factor", "scale factor at natural origin"),
		FalseEasting:  pick(0, "false_easting", "false easting"),
		FalseNorthing: pick(0, "false_northing", "false northing"),
	}

	if g := root.child("GEOGCS", "BASEGEOGCRS", "BASEGEODCRS"); g != nil {
		if d := g.child("DATUM"); d != nil {
			if s := d.child("SPHEROID", "ELLIPSOID"); s != nil {
				a, okA := s.number(1)
				inv, okF := s.number(2)
				if okA && okF && a > 0 && inv > 0 {
					tm.Ellipsoid = Ellipsoid{A: a, InvF: inv}
				}
			}
		}
	}

	// A top-level UNIT gives metres per linear unit.
	if u := root.child("UNIT", "LENGTHUNIT"); u != nil {
		if f, ok := u.number(1); ok && f > 0 {
			tm.UnitsPerMetre = 1 / f
		}
	}
	return tm
}

func strconvQuote(s string) string {
	if s == "" {
		return "(none)"
	}
	return strconv.Quote(s)
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *wktParser) errorf(format string, args ...any) error {
	return eris.Errorf("crs: wkt offset %d: "+format, append([]any{p.pos}, args...)...)
}

func (p *wktParser) parseNode() (*wktNode, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsLetter(p.src[p.pos]) || unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '_') {
		p.pos++
	}
	if start == p.pos {
		return nil, p.errorf("expected keyword")
	}
	n := &wktNode{keyword: strings.ToUpper(string(p.src[start:p.pos]))}

	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '[' && p.src[p.pos] != '(') {
		// bare keyword such as an axis direction
		return n, nil
	}
	p.pos++

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated %s", n.keyword)
		}
		switch r := p.src[p.pos]; {
		case r == ']' || r == ')':
			p.pos++
			return n, nil
		case r == ',':
			p.pos++
			continue
		case r == '"':
			s, err := p.parseString()
			if err != nil {
				return nil, err
			}
			n.args = append(n.args, s)
		case r == '-' || r == '+' || r == '.' || unicode.IsDigit(r):
			f, err := p.parseNumber()
			if err != nil {
				return nil, err
			}
			n.args = append(n.args, f)
		default:
			c, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			n.args = append(n.args, c)
		}
	}
}

func (p *wktParser) parseString() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		p.pos++
		if r != '"' {
			b.WriteRune(r)
			continue
		}
		// "" is an escaped quote
		if p.pos < len(p.src) && p.src[p.pos] == '"' {
			b.WriteRune('"')
			p.pos++
			continue
		}
		return b.String(), nil
	}
	return "", p.errorf("unterminated string")
}

func (p *wktParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E' {
			p.pos++
			continue
		}
		break
	}
	f, err := strconv.ParseFloat(string(p.src[start:p.pos]), 64)
	if err != nil {
		return 0, p.errorf("bad number %q", string(p.src[start:p.pos]))
	}
	return f, nil
}
