package model

// Identifier columns of the population table. Every other column is numeric.
const (
	ColCityName    = "CITY_NAME"
	ColSubAreaName = "S_NAME"
)

// PopulationRecord is one row of the population table: a (city, sub-area) pair
// with its age-bucket counts and derived bands.
type PopulationRecord struct {
	CityName    string             `json:"city_name"`
	SubAreaName string             `json:"s_name"`
	Values      map[string]float64 `json:"values"`
}

// Value returns the named numeric column, or 0 if the record does not carry it.
func (r PopulationRecord) Value(col string) float64 {
	return r.Values[col]
}

// PopulationTable is the filtered, cleaned population sheet for one municipality.
type PopulationTable struct {
	Source  string             `json:"source"`
	Columns []string           `json:"columns"` // numeric columns: raw buckets, then derived bands
	Records []PopulationRecord `json:"records"`
}
