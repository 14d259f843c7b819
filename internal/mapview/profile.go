package mapview

import (
	"github.com/sells-group/popmap/internal/model"
	"github.com/sells-group/popmap/internal/population"
)

var bucketLabels = []string{
	"0-4", "5-9", "10-14", "15-19",
	"20-24", "25-29", "30-34", "35-39",
	"40-44", "45-49", "50-54", "55-59",
	"60-64", "65-69", "70-74", "75以上",
}

// Bucket is one bar of the age chart.
type Bucket struct {
	Column     string  `json:"column"`
	Label      string  `json:"label"`
	Population float64 `json:"population"`
}

// AgeProfile is the five-year age distribution of one sub-area.
type AgeProfile struct {
	Key     model.CompositeKey `json:"key"`
	City    string             `json:"city"`
	SubArea string             `json:"sub_area"`
	Title   string             `json:"title"`
	Matched bool               `json:"matched"`
	Buckets []Bucket           `json:"buckets"`
}

// Profile builds the age chart for key from the first row carrying it. All
// sixteen buckets are always present; missing values read as 0. The second
// result is false when no row has the key.
func Profile(records []model.JoinedRecord, key model.CompositeKey) (*AgeProfile, bool) {
	idx := -1
	for i := range records {
		if records[i].Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	r := records[idx]

	city, sub := key.Split()
	p := &AgeProfile{
		Key:     key,
		City:    city,
		SubArea: sub,
		Title:   title(city, sub),
		Matched: r.Matched(),
	}
	for i, col := range population.BucketColumns() {
		v, _ := r.Value(col)
		p.Buckets = append(p.Buckets, Bucket{Column: col, Label: bucketLabels[i], Population: v})
	}
	return p, true
}

func title(city, sub string) string {
	if city == "" {
		return sub + "の年齢別人口"
	}
	return city + " " + sub + "の年齢別人口"
}
