// Package mapview shapes joined datasets for the choropleth map and the
// age-distribution chart.
package mapview

// DefaultAttribute is the column the map colours by when none is chosen.
const DefaultAttribute = "age_20_39"

// Attribute is one selectable map colouring.
type Attribute struct {
	Label  string `json:"label" yaml:"label"`
	Column string `json:"column" yaml:"column"`
}

// DefaultAttributes is the attribute menu, in display order.
var DefaultAttributes = []Attribute{
	{"男女20-39歳", "age_20_39"},
	{"男女小4-中3_10-14歳", "age_10_14"},
	{"男20-39歳", "male_age_20_39"},
	{"女20-39歳", "female_age_20_39"},
	{"男小4-中3_10-14歳", "male_age_10_14"},
	{"女小4-中3_10-14歳", "female_age_10_14"},

	{"総人口", "population_total"},
	{"男性", "male_total"},
	{"女性", "female_total"},

	{"10歳未満", "age_under_10"},
	{"10-19歳", "age_10_19"},
	{"20-29歳", "age_20_29"},
	{"30-39歳", "age_30_39"},
	{"40-49歳", "age_40_49"},
	{"50-59歳", "age_50_59"},
	{"60-69歳", "age_60_69"},
	{"70-74歳", "age_70_74"},
	{"75歳以上", "age_over_75"},

	{"男性 10歳未満", "male_age_under_10"},
	{"男性 10-19歳", "male_age_10_19"},
	{"男性 20-29歳", "male_age_20_29"},
	{"男性 30-39歳", "male_age_30_39"},
	{"男性 40-49歳", "male_age_40_49"},
	{"男性 50-59歳", "male_age_50_59"},
	{"男性 60-69歳", "male_age_60_69"},
	{"男性 70-74歳", "male_age_70_74"},
	{"男性 75歳以上", "male_age_over_75"},

	{"女性 10歳未満", "female_age_under_10"},
	{"女性 10-19歳", "female_age_10_19"},
	{"女性 20-29歳", "female_age_20_29"},
	{"女性 30-39歳", "female_age_30_39"},
	{"女性 40-49歳", "female_age_40_49"},
	{"女性 50-59歳", "female_age_50_59"},
	{"女性 60-69歳", "female_age_60_69"},
	{"女性 70-74歳", "female_age_70_74"},
	{"女性 75歳以上", "female_age_over_75"},
}

// Catalogue is an ordered attribute menu.
type Catalogue struct {
	attrs   []Attribute
	byCol   map[string]int
	Default string
}

// NewCatalogue builds a catalogue. Empty attrs or def fall back to the defaults.
func NewCatalogue(attrs []Attribute, def string) *Catalogue {
	if len(attrs) == 0 {
		attrs = DefaultAttributes
	}
	if def == "" {
		def = DefaultAttribute
	}
	c := &Catalogue{
		attrs:   attrs,
		byCol:   make(map[string]int, len(attrs)),
		Default: def,
	}
	for i, a := range attrs {
		if _, dup := c.byCol[a.Column]; !dup {
			c.byCol[a.Column] = i
		}
	}
	return c
}

// Attributes returns the menu in display order.
func (c *Catalogue) Attributes() []Attribute {
	return c.attrs
}

// Label returns the display label of a column, or the column itself when it
// is not in the menu.
func (c *Catalogue) Label(column string) string {
	if i, ok := c.byCol[column]; ok {
		return c.attrs[i].Label
	}
	return column
}

// Has reports whether column is in the menu.
func (c *Catalogue) Has(column string) bool {
	_, ok := c.byCol[column]
	return ok
}

// Resolve returns column if it is in the menu and the default otherwise.
func (c *Catalogue) Resolve(column string) string {
	if column != "" && c.Has(column) {
		return column
	}
	return c.Default
}
