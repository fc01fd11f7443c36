package planner

import (
	"github.com/wbrown/janus-aql/aql/query"
	"github.com/wbrown/janus-aql/aql/storage"
)

// Selection is the outcome of index selection. A nil Index means full scan.
type Selection struct {
	Index    *storage.HashIndex
	Operands []query.Expr // one per index field, in field order
	Used     []Constraint // the constraints supplying Operands
}

// SelectIndex picks the usable index with the most fields. An index is usable
// only when every one of its fields has a constraint on exactly that path.
// Ties go to the index created first. When a path has several constraints
// the first one is used.
func SelectIndex(constraints []Constraint, indexes []*storage.HashIndex) Selection {
	var best Selection
	for _, ix := range indexes {
		used, ok := bindFields(ix, constraints)
		if !ok {
			continue
		}
		if best.Index != nil {
			n, bestN := len(ix.Fields()), len(best.Index.Fields())
			if n < bestN || (n == bestN && ix.ID() > best.Index.ID()) {
				continue
			}
		}
		operands := make([]query.Expr, len(used))
		for i, c := range used {
			operands[i] = c.Operand
		}
		best = Selection{Index: ix, Operands: operands, Used: used}
	}
	return best
}

func bindFields(ix *storage.HashIndex, constraints []Constraint) ([]Constraint, bool) {
	fields := ix.Fields()
	used := make([]Constraint, len(fields))
	for i, f := range fields {
		found := false
		for _, c := range constraints {
			if c.Path.Equal(f) {
				used[i] = c
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return used, true
}
