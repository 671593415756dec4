package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, op Operator) []Tuple {
	t.Helper()
	require.NoError(t, op.Init())
	var out []Tuple
	for {
		tup, ok, err := op.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, tup)
	}
}

func TestInsertRawRows(t *testing.T) {
	t.Parallel()

	heap := NewMemTableHeap()
	rows := []Tuple{{"id": 1}, {"id": 2}}
	ins := NewInsertRows(heap, Schema{"id"}, rows)

	got := drain(t, ins)
	assert.Len(t, got, 2)

	scan := NewSeqScan(heap, Schema{"id"}, nil)
	scanned := drain(t, scan)
	assert.Len(t, scanned, 2)
}

func TestInsertFromChild(t *testing.T) {
	t.Parallel()

	source := NewMemTableHeap()
	_, _ = source.InsertTuple(Tuple{"id": 1})
	_, _ = source.InsertTuple(Tuple{"id": 2})

	dest := NewMemTableHeap()
	child := NewSeqScan(source, Schema{"id"}, nil)
	ins := NewInsertFromChild(dest, Schema{"id"}, child)

	drain(t, ins)

	scanned := drain(t, NewSeqScan(dest, Schema{"id"}, nil))
	assert.Len(t, scanned, 2)
}
