package geometry

import (
	"strings"

	"github.com/sells-group/popmap/internal/model"
)

// Known vendor spellings of the join columns, in priority order.
var (
	DefaultCityAliases    = []string{"city_name", "cityname", "city", "sityo_name", "municipality"}
	DefaultSubAreaAliases = []string{"s_name", "moji", "name", "町名"}
)

// ResolveColumns picks the city and sub-area columns from fields by trying
// each alias list in order. Matching is case-insensitive and each axis is
// resolved independently.
func ResolveColumns(source string, fields, cityAliases, subAreaAliases []string) (city, subArea string, err error) {
	if len(cityAliases) == 0 {
		cityAliases = DefaultCityAliases
	}
	if len(subAreaAliases) == 0 {
		subAreaAliases = DefaultSubAreaAliases
	}

	present := make(map[string]string, len(fields))
	available := make([]string, 0, len(fields))
	for _, f := range fields {
		lf := strings.ToLower(f)
		if _, dup := present[lf]; !dup {
			present[lf] = lf
			available = append(available, lf)
		}
	}

	city, ok := firstMatch(present, cityAliases)
	if !ok {
		return "", "", &model.MissingMergeColumnError{Source: source, Axis: "city", Candidates: cityAliases, Available: available}
	}
	subArea, ok = firstMatch(present, subAreaAliases)
	if !ok {
		return "", "", &model.MissingMergeColumnError{Source: source, Axis: "sub-area", Candidates: subAreaAliases, Available: available}
	}
	return city, subArea, nil
}

func firstMatch(present map[string]string, aliases []string) (string, bool) {
	for _, a := range aliases {
		if name, ok := present[strings.ToLower(a)]; ok {
			return name, true
		}
	}
	return "", false
}
