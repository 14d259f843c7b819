package model

import "strings"

// KeySeparator joins the normalized city and sub-area names of a CompositeKey.
const KeySeparator = "_"

// KeyColumn is the property name the composite key is published under.
const KeyColumn = "city_town_key"

// CompositeKey identifies one geographic sub-area across both datasets:
// normalized city name + "_" + normalized sub-area name.
type CompositeKey string

// NewCompositeKey builds a key from already-normalized name parts.
func NewCompositeKey(city, subArea string) CompositeKey {
	return CompositeKey(city + KeySeparator + subArea)
}

// Split returns the city and sub-area parts. A key without a separator is
// treated as a bare sub-area name.
func (k CompositeKey) Split() (city, subArea string) {
	c, s, ok := strings.Cut(string(k), KeySeparator)
	if !ok {
		return "", string(k)
	}
	return c, s
}

func (k CompositeKey) String() string { return string(k) }

// JoinedRecord is a geometry row with its matched population row, if any.
type JoinedRecord struct {
	Key        CompositeKey
	Geometry   GeometryRecord
	Population *PopulationRecord // nil when no population row matched the key
}

// Matched reports whether a population row was joined to the geometry.
func (r JoinedRecord) Matched() bool {
	return r.Population != nil
}

// Value returns a demographic value and whether it is present. Unmatched rows
// have no values.
func (r JoinedRecord) Value(col string) (float64, bool) {
	if r.Population == nil {
		return 0, false
	}
	v, ok := r.Population.Values[col]
	return v, ok
}
