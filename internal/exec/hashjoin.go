package exec

import (
	"errors"

	"coredb"
	"coredb/internal/hashindex"
)

// KeyFunc extracts the join key from a tuple.
type KeyFunc func(Tuple) coredb.IndexKey

// JoinPredicate re-checks a candidate match after a hash probe, guarding
// against hash collisions the way original_source's EvaluateJoin does.
type JoinPredicate func(left, right Tuple) (bool, error)

// ProjectFunc builds the output tuple from a matched pair.
type ProjectFunc func(left, right Tuple) Tuple

// HashJoin builds an in-memory hashindex.Table over the left child keyed
// by leftKey during Init (the build phase), then probes it once per right
// tuple during Next (the probe phase). This is the operator that directly
// exercises the hash index from the execution layer.
type HashJoin struct {
	left, right         Operator
	leftKey, rightKey   KeyFunc
	predicate           JoinPredicate
	project             ProjectFunc
	schema              Schema

	index      *hashindex.Table
	leftTuples map[coredb.RID]Tuple
	nextSlot   uint32

	currentRight Tuple
	pending      []coredb.RID
}

// NewHashJoin constructs a HashJoin. bp backs the build-phase hash index;
// its lifetime is scoped to this operator.
func NewHashJoin(bp *coredb.BufferPoolManager, left, right Operator, leftKey, rightKey KeyFunc, predicate JoinPredicate, project ProjectFunc, schema Schema) (*HashJoin, error) {
	idx, err := hashindex.NewTable(bp, 1)
	if err != nil {
		return nil, err
	}
	return &HashJoin{
		left:       left,
		right:      right,
		leftKey:    leftKey,
		rightKey:   rightKey,
		predicate:  predicate,
		project:    project,
		schema:     schema,
		index:      idx,
		leftTuples: make(map[coredb.RID]Tuple),
	}, nil
}

func (h *HashJoin) Init() error {
	if err := h.left.Init(); err != nil {
		return err
	}

	for {
		tup, ok, err := h.left.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		rid := coredb.RID{Page: 0, Slot: h.nextSlot}
		h.nextSlot++
		h.leftTuples[rid] = tup

		key := h.leftKey(tup)
		if err := h.index.Insert(key, rid); err != nil && !errors.Is(err, coredb.ErrDuplicatePair) {
			return err
		}
	}

	return h.right.Init()
}

func (h *HashJoin) Next() (Tuple, bool, error) {
	for {
		for len(h.pending) > 0 {
			rid := h.pending[0]
			h.pending = h.pending[1:]

			leftTup := h.leftTuples[rid]
			match, err := h.predicate(leftTup, h.currentRight)
			if err != nil {
				return nil, false, err
			}
			if match {
				return h.project(leftTup, h.currentRight), true, nil
			}
		}

		rightTup, ok, err := h.right.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		h.currentRight = rightTup

		rids, err := h.index.GetValue(h.rightKey(rightTup))
		if err != nil {
			return nil, false, err
		}
		h.pending = rids
	}
}

func (h *HashJoin) OutputSchema() Schema { return h.schema }

var _ Operator = (*HashJoin)(nil)
