package exec

// Insert has two forms, matching original_source's IsRawInsert() branch: a
// literal row-set insert (NewInsertRows) and a child-iterator insert
// (NewInsertFromChild), both writing through TableHeap.InsertTuple.
type Insert struct {
	heap   TableHeap
	schema Schema

	rows  []Tuple
	idx   int
	child Operator
}

// NewInsertRows inserts a fixed, literal set of rows.
func NewInsertRows(heap TableHeap, schema Schema, rows []Tuple) *Insert {
	return &Insert{heap: heap, schema: schema, rows: rows}
}

// NewInsertFromChild inserts every tuple produced by child.
func NewInsertFromChild(heap TableHeap, schema Schema, child Operator) *Insert {
	return &Insert{heap: heap, schema: schema, child: child}
}

func (i *Insert) Init() error {
	if i.child != nil {
		return i.child.Init()
	}
	return nil
}

func (i *Insert) Next() (Tuple, bool, error) {
	if i.child != nil {
		tup, ok, err := i.child.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		if _, err := i.heap.InsertTuple(tup); err != nil {
			return nil, false, err
		}
		return tup, true, nil
	}

	if i.idx >= len(i.rows) {
		return nil, false, nil
	}
	tup := i.rows[i.idx]
	i.idx++
	if _, err := i.heap.InsertTuple(tup); err != nil {
		return nil, false, err
	}
	return tup, true, nil
}

func (i *Insert) OutputSchema() Schema { return i.schema }

var _ Operator = (*Insert)(nil)
