package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/popmap/internal/model"
)

func matched(key string, v float64) model.JoinedRecord {
	return model.JoinedRecord{
		Key:        model.CompositeKey(key),
		Population: &model.PopulationRecord{Values: map[string]float64{"age_20_39": v}},
	}
}

func unmatched(key string) model.JoinedRecord {
	return model.JoinedRecord{Key: model.CompositeKey(key)}
}

func TestReport_AllMatched(t *testing.T) {
	s := Report([]model.JoinedRecord{matched("a_1", 1), matched("a_2", 2)})
	assert.Equal(t, 2, s.TotalRows)
	assert.Equal(t, 2, s.MatchedRows)
	assert.Equal(t, 0, s.UnmatchedRows)
	assert.Empty(t, s.UnmatchedKeys)
	assert.Equal(t, 0, s.MissingValues["age_20_39"])
	assert.True(t, s.AllMatched())
}

func TestReport_AllUnmatched(t *testing.T) {
	s := Report([]model.JoinedRecord{unmatched("a_1"), unmatched("a_2"), unmatched("a_1")})
	assert.Equal(t, 3, s.TotalRows)
	assert.Equal(t, 0, s.MatchedRows)
	assert.Equal(t, 3, s.UnmatchedRows)
	assert.Equal(t, []model.CompositeKey{"a_1", "a_2"}, s.UnmatchedKeys)
	assert.Equal(t, 3, s.MissingValues["age_20_39"])
	assert.False(t, s.AllMatched())
}

func TestReport_Empty(t *testing.T) {
	s := Report(nil)
	assert.Equal(t, 0, s.TotalRows)
	assert.NotNil(t, s.UnmatchedKeys)
	assert.True(t, s.AllMatched())
}

func TestReport_FanOutAndIndicators(t *testing.T) {
	rows := []model.JoinedRecord{matched("a_1", 1), matched("a_1", 2), matched("a_2", 3)}
	s := Report(rows, "age_20_39", "population_total")
	assert.Equal(t, []model.CompositeKey{"a_1"}, s.FanOutKeys)
	assert.Equal(t, 0, s.MissingValues["age_20_39"])
	assert.Equal(t, 3, s.MissingValues["population_total"])
}

func TestSummaryLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := Report([]model.JoinedRecord{matched("a_1", 1), unmatched("a_2")})
	s.Log(zap.New(core))

	assert.Equal(t, 1, logs.FilterMessage("join summary").Len())
	assert.Equal(t, 1, logs.FilterMessage("join: keys without population data").Len())
	assert.Equal(t, 1, logs.FilterMessage("join: missing indicator values").Len())
}

func TestMerge(t *testing.T) {
	a := Report([]model.JoinedRecord{matched("a_1", 1), unmatched("a_2")})
	b := Report([]model.JoinedRecord{unmatched("b_1")})
	m := Merge(a, b)
	assert.Equal(t, 3, m.TotalRows)
	assert.Equal(t, 1, m.MatchedRows)
	assert.Equal(t, []model.CompositeKey{"a_2", "b_1"}, m.UnmatchedKeys)
	assert.Equal(t, 2, m.MissingValues["age_20_39"])
}
