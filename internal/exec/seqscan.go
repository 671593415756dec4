package exec

// SeqScan walks every tuple in a TableHeap, optionally filtering with a
// Predicate. Grounded on SeqScanExecutor::Next's while-loop-until-match
// shape.
type SeqScan struct {
	heap      TableHeap
	schema    Schema
	predicate Predicate

	it TableIterator
}

// NewSeqScan creates a scan over heap. predicate may be nil to accept
// every tuple.
func NewSeqScan(heap TableHeap, schema Schema, predicate Predicate) *SeqScan {
	return &SeqScan{heap: heap, schema: schema, predicate: predicate}
}

func (s *SeqScan) Init() error {
	s.it = s.heap.Iterator()
	return nil
}

func (s *SeqScan) Next() (Tuple, bool, error) {
	for {
		tup, _, ok := s.it.Next()
		if !ok {
			return nil, false, nil
		}
		if s.predicate == nil {
			return tup, true, nil
		}
		match, err := s.predicate(tup)
		if err != nil {
			return nil, false, err
		}
		if match {
			return tup, true, nil
		}
	}
}

func (s *SeqScan) OutputSchema() Schema { return s.schema }

var _ Operator = (*SeqScan)(nil)
