package population

import "fmt"

// Band is a derived column: the sum of its source columns.
type Band struct {
	Name    string
	Sources []string
}

// Five-year bucket column names as they appear after header cleaning.
var fiveYearBuckets = []struct {
	suffix string
	column string
}{
	{"0_4", "０～４"},
	{"5_9", "５～９"},
	{"10_14", "１０～１４"},
	{"15_19", "１５～１９"},
	{"20_24", "２０～２４"},
	{"25_29", "２５～２９"},
	{"30_34", "３０～３４"},
	{"35_39", "３５～３９"},
	{"40_44", "４０～４４"},
	{"45_49", "４５～４９"},
	{"50_54", "５０～５４"},
	{"55_59", "５５～５９"},
	{"60_64", "６０～６４"},
	{"65_69", "６５～６９"},
	{"70_74", "７０～７４"},
	{"over_75", "７５以上"},
}

// BucketColumns returns the derived single-bucket column names age_0_4 through
// age_over_75, in age order.
func BucketColumns() []string {
	out := make([]string, len(fiveYearBuckets))
	for i, b := range fiveYearBuckets {
		out[i] = "age_" + b.suffix
	}
	return out
}

// DefaultBands returns the standard derived columns.
func DefaultBands() []Band {
	var bands []Band

	// Single buckets, both sexes.
	for _, b := range fiveYearBuckets {
		bands = append(bands, Band{Name: "age_" + b.suffix, Sources: []string{b.column}})
	}

	for _, sex := range []struct{ prefix, mark string }{{"male_", "男"}, {"female_", "女"}} {
		col := func(i int) string { return sex.mark + fiveYearBuckets[i].column }
		bands = append(bands,
			Band{Name: sex.prefix + "age_under_10", Sources: []string{col(0), col(1)}},
			Band{Name: sex.prefix + "age_10_14", Sources: []string{col(2)}},
			Band{Name: sex.prefix + "age_10_19", Sources: []string{col(2), col(3)}},
			Band{Name: sex.prefix + "age_20_29", Sources: []string{col(4), col(5)}},
			Band{Name: sex.prefix + "age_20_39", Sources: []string{col(4), col(5), col(6), col(7)}},
			Band{Name: sex.prefix + "age_30_39", Sources: []string{col(6), col(7)}},
			Band{Name: sex.prefix + "age_40_49", Sources: []string{col(8), col(9)}},
			Band{Name: sex.prefix + "age_50_59", Sources: []string{col(10), col(11)}},
			Band{Name: sex.prefix + "age_60_69", Sources: []string{col(12), col(13)}},
			Band{Name: sex.prefix + "age_70_74", Sources: []string{col(14)}},
			Band{Name: sex.prefix + "age_over_75", Sources: []string{col(15)}},
		)
	}

	bands = append(bands,
		Band{Name: "age_under_10", Sources: []string{"０～４", "５～９"}},
		Band{Name: "age_10_19", Sources: []string{"１０～１４", "１５～１９"}},
		Band{Name: "age_20_29", Sources: []string{"２０～２４", "２５～２９"}},
		Band{Name: "age_20_39", Sources: []string{"２０～２４", "２５～２９", "３０～３４", "３５～３９"}},
		Band{Name: "age_30_39", Sources: []string{"３０～３４", "３５～３９"}},
		Band{Name: "age_40_49", Sources: []string{"４０～４４", "４５～４９"}},
		Band{Name: "age_50_59", Sources: []string{"５０～５４", "５５～５９"}},
		Band{Name: "age_60_69", Sources: []string{"６０～６４", "６５～６９"}},
	)

	// Totals over the sixteen buckets.
	total := make([]string, 0, len(fiveYearBuckets))
	male := make([]string, 0, len(fiveYearBuckets))
	female := make([]string, 0, len(fiveYearBuckets))
	for _, b := range fiveYearBuckets {
		total = append(total, b.column)
		male = append(male, "男"+b.column)
		female = append(female, "女"+b.column)
	}
	bands = append(bands,
		Band{Name: "population_total", Sources: total},
		Band{Name: "male_total", Sources: male},
		Band{Name: "female_total", Sources: female},
	)
	return bands
}

func (b Band) String() string {
	return fmt.Sprintf("%s=%v", b.Name, b.Sources)
}
