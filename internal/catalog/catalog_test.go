package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/xlnarrate/internal/ir"
)

func TestEveryKindHasAnEntry(t *testing.T) {
	for _, k := range ir.Kinds {
		e, ok := Lookup(k)
		assert.True(t, ok, "kind %s missing from catalog", k)
		assert.Equal(t, k, e.Kind)
		assert.NotEmpty(t, e.Label)
	}
	assert.Len(t, entries, len(ir.Kinds))
}

func TestAdvancedSubset(t *testing.T) {
	var advanced []ir.Kind
	for _, k := range ir.Kinds {
		if IsAdvanced(k) {
			advanced = append(advanced, k)
		}
	}
	assert.ElementsMatch(t, []ir.Kind{
		ir.KindFilter, ir.KindSort, ir.KindGroupBy, ir.KindTake,
		ir.KindSelectColumns, ir.KindDropColumns,
	}, advanced)
	assert.False(t, IsAdvanced("pivot"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "聚合计算", Label(ir.KindAggregate))
	assert.Equal(t, "取前/后 N 行", Label(ir.KindTake))
	assert.Equal(t, GenericLabel, Label("pivot"))
}

func TestAggregateName(t *testing.T) {
	tests := map[string]string{
		"SUM":       "求和",
		"sum":       "求和",
		"COUNTA":    "非空计数",
		"MEDIAN":    "中位数",
		"COUNTIF":   "条件计数",
		"AVERAGEIF": "条件平均值",
		"STDEV":     "STDEV",
	}
	for fn, want := range tests {
		assert.Equal(t, want, AggregateName(fn), fn)
	}

	for _, fn := range ir.AggregateFunctions {
		assert.NotEqual(t, fn, AggregateName(fn), "%s should have a display name", fn)
	}
}

func TestOrderAndLogicWords(t *testing.T) {
	assert.Equal(t, "降序", OrderName(true))
	assert.Equal(t, "升序", OrderName(false))
	assert.Equal(t, "或", LogicWord(true))
	assert.Equal(t, "且", LogicWord(false))
}
