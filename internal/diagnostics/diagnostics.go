// Package diagnostics summarizes how well a join matched.
package diagnostics

import (
	"go.uber.org/zap"

	"github.com/sells-group/popmap/internal/model"
)

// DefaultIndicators are the columns whose missing values are counted.
var DefaultIndicators = []string{"age_20_39"}

// Summary describes one joined dataset.
type Summary struct {
	TotalRows     int                  `json:"total_rows"`
	MatchedRows   int                  `json:"matched_rows"`
	UnmatchedRows int                  `json:"unmatched_rows"`
	UnmatchedKeys []model.CompositeKey `json:"unmatched_keys"`
	FanOutKeys    []model.CompositeKey `json:"fan_out_keys,omitempty"`
	MissingValues map[string]int       `json:"missing_values"`
}

// AllMatched reports whether every row found population data.
func (s Summary) AllMatched() bool {
	return s.UnmatchedRows == 0
}

// Report builds a Summary. Keys are listed once, in first-appearance order.
// With no indicators given, DefaultIndicators are counted.
func Report(joined []model.JoinedRecord, indicators ...string) Summary {
	if len(indicators) == 0 {
		indicators = DefaultIndicators
	}

	s := Summary{
		TotalRows:     len(joined),
		UnmatchedKeys: []model.CompositeKey{},
		MissingValues: make(map[string]int, len(indicators)),
	}
	for _, col := range indicators {
		s.MissingValues[col] = 0
	}

	seenUnmatched := make(map[model.CompositeKey]bool)
	rowsPerKey := make(map[model.CompositeKey]int)
	var keyOrder []model.CompositeKey

	for _, r := range joined {
		if rowsPerKey[r.Key] == 0 {
			keyOrder = append(keyOrder, r.Key)
		}
		rowsPerKey[r.Key]++

		if r.Matched() {
			s.MatchedRows++
		} else {
			s.UnmatchedRows++
			if !seenUnmatched[r.Key] {
				seenUnmatched[r.Key] = true
				s.UnmatchedKeys = append(s.UnmatchedKeys, r.Key)
			}
		}

		for _, col := range indicators {
			if _, ok := r.Value(col); !ok {
				s.MissingValues[col]++
			}
		}
	}

	for _, k := range keyOrder {
		if rowsPerKey[k] > 1 {
			s.FanOutKeys = append(s.FanOutKeys, k)
		}
	}
	return s
}

// Log writes the summary as structured log lines.
func (s Summary) Log(logger *zap.Logger) {
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.With(zap.String("component", "diagnostics"))

	logger.Info("join summary",
		zap.Int("total_rows", s.TotalRows),
		zap.Int("matched_rows", s.MatchedRows),
		zap.Int("unmatched_rows", s.UnmatchedRows),
	)
	if len(s.UnmatchedKeys) > 0 {
		logger.Warn("join: keys without population data",
			zap.Int("count", len(s.UnmatchedKeys)),
			zap.Stringers("keys", s.UnmatchedKeys),
		)
	}
	if len(s.FanOutKeys) > 0 {
		logger.Warn("join: duplicate population keys fanned out",
			zap.Stringers("keys", s.FanOutKeys),
		)
	}
	for col, n := range s.MissingValues {
		if n > 0 {
			logger.Warn("join: missing indicator values", zap.String("column", col), zap.Int("missing", n))
		}
	}
}

// Merge combines summaries of several municipalities.
func Merge(parts ...Summary) Summary {
	out := Summary{UnmatchedKeys: []model.CompositeKey{}, MissingValues: map[string]int{}}
	for _, p := range parts {
		out.TotalRows += p.TotalRows
		out.MatchedRows += p.MatchedRows
		out.UnmatchedRows += p.UnmatchedRows
		out.UnmatchedKeys = append(out.UnmatchedKeys, p.UnmatchedKeys...)
		out.FanOutKeys = append(out.FanOutKeys, p.FanOutKeys...)
		for k, v := range p.MissingValues {
			out.MissingValues[k] += v
		}
	}
	return out
}
