package exec

import "coredb"

// Tuple is a row: a set of named column values. The column codec, catalog,
// and expression evaluator that would normally interpret these values are
// out of scope for this module.
type Tuple map[string]any

// Schema names the columns an operator produces, in order.
type Schema []string

// Predicate filters tuples produced by SeqScan.
type Predicate func(Tuple) (bool, error)

// Operator is the pull-based iterator contract every execution node
// implements.
type Operator interface {
	Init() error
	Next() (Tuple, bool, error)
	OutputSchema() Schema
}

// TableIterator walks a TableHeap's tuples in storage order.
type TableIterator interface {
	Next() (Tuple, coredb.RID, bool)
}

// TableHeap is the collaborator SeqScan and Insert operate against. A real
// implementation would back it with buffer-pool pages; that heap file
// format is out of scope for this module, so only the interface and an
// in-memory implementation for tests are provided.
type TableHeap interface {
	Iterator() TableIterator
	InsertTuple(t Tuple) (coredb.RID, error)
}

// MemTableHeap is an in-memory TableHeap, sufficient to construct and
// exercise the operators in this package.
type MemTableHeap struct {
	rows []Tuple
	next uint32
}

// NewMemTableHeap creates an empty in-memory heap.
func NewMemTableHeap() *MemTableHeap {
	return &MemTableHeap{}
}

func (h *MemTableHeap) InsertTuple(t Tuple) (coredb.RID, error) {
	rid := coredb.RID{Page: 0, Slot: h.next}
	h.next++
	h.rows = append(h.rows, t)
	return rid, nil
}

func (h *MemTableHeap) Iterator() TableIterator {
	return &memTableIterator{heap: h}
}

type memTableIterator struct {
	heap *MemTableHeap
	pos  int
}

func (it *memTableIterator) Next() (Tuple, coredb.RID, bool) {
	if it.pos >= len(it.heap.rows) {
		return nil, coredb.InvalidRID, false
	}
	tup := it.heap.rows[it.pos]
	rid := coredb.RID{Page: 0, Slot: uint32(it.pos)}
	it.pos++
	return tup, rid, true
}
