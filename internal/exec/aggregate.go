package exec

import "math"

// AggFunc names a supported aggregate function, matching the aggregate
// types original_source's AggregationPlanNode supports.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggMin
	AggMax
)

// AggregateSpec computes one output column from a group's rows.
type AggregateSpec struct {
	Column string
	Func   AggFunc
	As     string
}

// GroupByFunc reduces a tuple to its group key.
type GroupByFunc func(Tuple) string

// HavingFunc filters groups after their aggregates are computed.
type HavingFunc func(groupKey string, aggregates map[string]float64) (bool, error)

// Aggregate drains its child into groups keyed by GroupByFunc, computes
// each AggregateSpec per group, and applies an optional HavingFunc.
// Grounded on AggregationExecutor's build-then-iterate shape; this
// implementation keeps rows in a plain map rather than a dedicated
// aggregation hash table, since the group cardinality this module targets
// does not warrant one.
type Aggregate struct {
	child   Operator
	groupBy GroupByFunc
	specs   []AggregateSpec
	having  HavingFunc
	schema  Schema

	groups map[string][]Tuple
	order  []string
	idx    int
}

// NewAggregate constructs an Aggregate operator over child.
func NewAggregate(child Operator, groupBy GroupByFunc, specs []AggregateSpec, having HavingFunc, schema Schema) *Aggregate {
	return &Aggregate{child: child, groupBy: groupBy, specs: specs, having: having, schema: schema}
}

func (a *Aggregate) Init() error {
	if err := a.child.Init(); err != nil {
		return err
	}

	a.groups = make(map[string][]Tuple)
	a.order = nil

	for {
		tup, ok, err := a.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		key := a.groupBy(tup)
		if _, exists := a.groups[key]; !exists {
			a.order = append(a.order, key)
		}
		a.groups[key] = append(a.groups[key], tup)
	}

	a.idx = 0
	return nil
}

func (a *Aggregate) Next() (Tuple, bool, error) {
	for a.idx < len(a.order) {
		key := a.order[a.idx]
		a.idx++
		rows := a.groups[key]

		aggregates := make(map[string]float64, len(a.specs))
		out := make(Tuple, len(a.specs)+1)
		for _, spec := range a.specs {
			val := computeAggregate(spec, rows)
			aggregates[spec.As] = val
			out[spec.As] = val
		}

		if a.having != nil {
			ok, err := a.having(key, aggregates)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				continue
			}
		}

		out["group"] = key
		return out, true, nil
	}
	return nil, false, nil
}

func (a *Aggregate) OutputSchema() Schema { return a.schema }

func computeAggregate(spec AggregateSpec, rows []Tuple) float64 {
	switch spec.Func {
	case AggCount:
		return float64(len(rows))
	case AggSum:
		var sum float64
		for _, r := range rows {
			sum += toFloat(r[spec.Column])
		}
		return sum
	case AggMin:
		min := math.Inf(1)
		for _, r := range rows {
			if v := toFloat(r[spec.Column]); v < min {
				min = v
			}
		}
		return min
	case AggMax:
		max := math.Inf(-1)
		for _, r := range rows {
			if v := toFloat(r[spec.Column]); v > max {
				max = v
			}
		}
		return max
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		return 0
	}
}

var _ Operator = (*Aggregate)(nil)
