package exec

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateCountAndSumByGroup(t *testing.T) {
	t.Parallel()

	heap := NewMemTableHeap()
	_, _ = heap.InsertTuple(Tuple{"dept": "eng", "salary": 100})
	_, _ = heap.InsertTuple(Tuple{"dept": "eng", "salary": 200})
	_, _ = heap.InsertTuple(Tuple{"dept": "sales", "salary": 50})

	agg := NewAggregate(
		NewSeqScan(heap, Schema{"dept", "salary"}, nil),
		func(t Tuple) string { return t["dept"].(string) },
		[]AggregateSpec{
			{Column: "salary", Func: AggCount, As: "n"},
			{Column: "salary", Func: AggSum, As: "total"},
		},
		nil,
		Schema{"group", "n", "total"},
	)

	got := drain(t, agg)
	sort.Slice(got, func(i, j int) bool { return got[i]["group"].(string) < got[j]["group"].(string) })

	assert.Len(t, got, 2)
	assert.Equal(t, "eng", got[0]["group"])
	assert.Equal(t, float64(2), got[0]["n"])
	assert.Equal(t, float64(300), got[0]["total"])
	assert.Equal(t, "sales", got[1]["group"])
	assert.Equal(t, float64(1), got[1]["n"])
}

func TestAggregateHavingFiltersGroups(t *testing.T) {
	t.Parallel()

	heap := NewMemTableHeap()
	_, _ = heap.InsertTuple(Tuple{"dept": "eng", "salary": 100})
	_, _ = heap.InsertTuple(Tuple{"dept": "sales", "salary": 50})
	_, _ = heap.InsertTuple(Tuple{"dept": "sales", "salary": 60})

	agg := NewAggregate(
		NewSeqScan(heap, Schema{"dept", "salary"}, nil),
		func(t Tuple) string { return t["dept"].(string) },
		[]AggregateSpec{{Column: "salary", Func: AggCount, As: "n"}},
		func(_ string, aggregates map[string]float64) (bool, error) {
			return aggregates["n"] >= 2, nil
		},
		Schema{"group", "n"},
	)

	got := drain(t, agg)
	assert.Len(t, got, 1)
	assert.Equal(t, "sales", got[0]["group"])
}

func TestAggregateMinMax(t *testing.T) {
	t.Parallel()

	heap := NewMemTableHeap()
	_, _ = heap.InsertTuple(Tuple{"dept": "eng", "salary": 100})
	_, _ = heap.InsertTuple(Tuple{"dept": "eng", "salary": 300})

	agg := NewAggregate(
		NewSeqScan(heap, Schema{"dept", "salary"}, nil),
		func(t Tuple) string { return t["dept"].(string) },
		[]AggregateSpec{
			{Column: "salary", Func: AggMin, As: "lo"},
			{Column: "salary", Func: AggMax, As: "hi"},
		},
		nil,
		Schema{"group", "lo", "hi"},
	)

	got := drain(t, agg)
	assert.Len(t, got, 1)
	assert.Equal(t, float64(100), got[0]["lo"])
	assert.Equal(t, float64(300), got[0]["hi"])
}
