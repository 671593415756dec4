package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb"
)

func TestHashJoinMatchesOnKey(t *testing.T) {
	t.Parallel()

	left := NewMemTableHeap()
	_, _ = left.InsertTuple(Tuple{"lid": 1, "name": "alice"})
	_, _ = left.InsertTuple(Tuple{"lid": 2, "name": "bob"})

	right := NewMemTableHeap()
	_, _ = right.InsertTuple(Tuple{"rid": 1, "amount": 100})
	_, _ = right.InsertTuple(Tuple{"rid": 2, "amount": 200})
	_, _ = right.InsertTuple(Tuple{"rid": 3, "amount": 300})

	bp := coredb.NewBufferPoolManager(16, coredb.NewMemDiskManager())

	leftScan := NewSeqScan(left, Schema{"lid", "name"}, nil)
	rightScan := NewSeqScan(right, Schema{"rid", "amount"}, nil)

	join, err := NewHashJoin(
		bp,
		leftScan, rightScan,
		func(t Tuple) coredb.IndexKey { return coredb.IndexKey(t["lid"].(int)) },
		func(t Tuple) coredb.IndexKey { return coredb.IndexKey(t["rid"].(int)) },
		func(l, r Tuple) (bool, error) { return l["lid"].(int) == r["rid"].(int), nil },
		func(l, r Tuple) Tuple { return Tuple{"name": l["name"], "amount": r["amount"]} },
		Schema{"name", "amount"},
	)
	require.NoError(t, err)

	got := drain(t, join)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0]["name"])
	assert.Equal(t, 100, got[0]["amount"])
	assert.Equal(t, "bob", got[1]["name"])
	assert.Equal(t, 200, got[1]["amount"])
}

func TestHashJoinNoMatches(t *testing.T) {
	t.Parallel()

	left := NewMemTableHeap()
	_, _ = left.InsertTuple(Tuple{"lid": 1})

	right := NewMemTableHeap()
	_, _ = right.InsertTuple(Tuple{"rid": 99})

	bp := coredb.NewBufferPoolManager(16, coredb.NewMemDiskManager())
	join, err := NewHashJoin(
		bp,
		NewSeqScan(left, Schema{"lid"}, nil),
		NewSeqScan(right, Schema{"rid"}, nil),
		func(t Tuple) coredb.IndexKey { return coredb.IndexKey(t["lid"].(int)) },
		func(t Tuple) coredb.IndexKey { return coredb.IndexKey(t["rid"].(int)) },
		func(l, r Tuple) (bool, error) { return l["lid"].(int) == r["rid"].(int), nil },
		func(l, r Tuple) Tuple { return l },
		Schema{"lid"},
	)
	require.NoError(t, err)

	got := drain(t, join)
	assert.Empty(t, got)
}
