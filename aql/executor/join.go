package executor

import (
	"context"
	"errors"
	"time"

	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/planner"
	"github.com/wbrown/janus-aql/aql/query"
)

// Tuple is one row of a join: the values of the plan's variables in binding
// order.
type Tuple []aql.Value

// Iterator yields tuples one at a time.
type Iterator interface {
	// Next advances to the next tuple
	Next() bool

	// Tuple returns the current tuple
	Tuple() Tuple

	// Close releases any resources
	Close() error
}

type levelState uint8

// A level starts NotStarted, moves to Probing, Scanning or Emitting when
// opened for the current outer binding, and ends Exhausted. Every advance of
// the level above puts it back to NotStarted.
const (
	levelNotStarted levelState = iota
	levelProbing
	levelScanning
	levelEmitting
	levelExhausted
)

// level is the cursor state of one plan step. Loops hold the candidate list
// for the current outer binding; LET and FILTER steps pass at most once per
// outer binding.
type level struct {
	step  planner.Step
	state levelState
	depth int // bindings depth when the level was opened

	ids  []aql.DocumentID // IndexProbe candidates
	docs []aql.Document   // FullScan candidates
	pos  int

	stats LoopStats
}

// JoinIterator runs a plan's steps as nested loops, producing one tuple per
// complete binding. It is lazy: no document is read before the first Next,
// and each call does only the work needed for the next tuple. Index probe
// keys are re-resolved every time an inner loop is reopened, so a probe
// keyed on an outer variable sees that variable's current value.
type JoinIterator struct {
	ctx      context.Context
	qctx     Context
	plan     *planner.Plan
	bindings *Bindings
	resolver Resolver

	levels  []*level
	started bool
	done    bool
	err     error
	row     Tuple
	start   time.Time
	rows    int

	// completes is set when the iterator is the query's only consumer and
	// reports query completion itself.
	completes bool
	reported  bool
}

func newJoinIterator(ctx context.Context, qctx Context, plan *planner.Plan, params map[string]aql.Value) *JoinIterator {
	it := &JoinIterator{
		ctx:      ctx,
		qctx:     qctx,
		plan:     plan,
		bindings: NewBindings(params),
		levels:   make([]*level, len(plan.Steps)),
		start:    time.Now(),
	}
	for i, s := range plan.Steps {
		it.levels[i] = &level{step: s}
	}
	return it
}

// Columns returns the variable names matching each tuple position.
func (it *JoinIterator) Columns() []string {
	return it.plan.Variables
}

// Next advances to the next complete binding.
func (it *JoinIterator) Next() bool {
	if it.done {
		return false
	}

	var i int
	if !it.started {
		it.started = true
		if len(it.levels) == 0 {
			// A plan without steps has exactly one, empty, binding.
			it.row = Tuple{}
			it.rows++
			return true
		}
	} else {
		i = len(it.levels) - 1
	}

	for i >= 0 && i < len(it.levels) {
		lv := it.levels[i]
		if lv.state == levelNotStarted {
			if err := it.open(lv); err != nil {
				it.fail(err)
				return false
			}
		}

		if !it.advance(lv) {
			lv.state = levelExhausted
			it.bindings.Truncate(lv.depth)
			i--
			continue
		}
		i++
		if i < len(it.levels) {
			it.levels[i].state = levelNotStarted
		}
	}

	if i < 0 {
		it.finish()
		return false
	}

	it.row = Tuple(it.bindings.Values())
	it.rows++
	return true
}

// open prepares a level for the current outer binding.
func (it *JoinIterator) open(lv *level) error {
	if err := it.ctx.Err(); err != nil {
		return err
	}

	lv.depth = it.bindings.Depth()
	lv.pos = 0
	lv.ids = nil
	lv.docs = nil
	lv.state = levelEmitting

	loop, ok := lv.step.(*planner.LoopStep)
	if !ok {
		return nil
	}
	lv.stats.Opens++

	switch a := loop.Access.(type) {
	case *planner.IndexProbe:
		lv.state = levelProbing
		key, err := it.resolver.ResolveKey(a.Operands, it.bindings)
		if err != nil {
			// An unresolvable key cannot equal any document's key.
			var re *ResolveError
			if errors.As(err, &re) {
				it.qctx.EvaluationFailed(re.Operand, re.Err)
			}
			return nil
		}
		lv.ids = a.Index.Lookup(key)
	case *planner.FullScan:
		lv.state = levelScanning
		lv.docs = a.Collection.Snapshot()
	}
	return nil
}

// advance moves a level to its next binding, leaving it pushed on success.
func (it *JoinIterator) advance(lv *level) bool {
	it.bindings.Truncate(lv.depth)

	switch s := lv.step.(type) {
	case *planner.LetStep:
		if lv.pos > 0 {
			return false
		}
		lv.pos++
		v, err := query.Eval(s.Expr, it.bindings)
		if err != nil {
			it.qctx.EvaluationFailed(s.Expr, err)
			v = aql.Null()
		}
		it.bindings.Push(s.Variable, v)
		return true

	case *planner.FilterStep:
		if lv.pos > 0 {
			return false
		}
		lv.pos++
		return it.passes(s.Conditions)

	case *planner.LoopStep:
		residual := s.Access.ResidualConditions()
		for {
			doc, ok := it.candidate(lv, s.Access)
			if !ok {
				return false
			}
			lv.stats.Candidates++

			it.bindings.Push(s.Variable, doc)
			if it.passes(residual) {
				lv.stats.Matched++
				return true
			}
			it.bindings.Truncate(lv.depth)
		}
	}
	return false
}

// candidate returns the level's next document.
func (it *JoinIterator) candidate(lv *level, access planner.Access) (aql.Value, bool) {
	switch a := access.(type) {
	case *planner.IndexProbe:
		for lv.pos < len(lv.ids) {
			id := lv.ids[lv.pos]
			lv.pos++
			if doc, ok := a.Collection.Document(id); ok {
				return doc.Value, true
			}
		}
	case *planner.FullScan:
		if lv.pos < len(lv.docs) {
			doc := lv.docs[lv.pos]
			lv.pos++
			return doc.Value, true
		}
	}
	return aql.Null(), false
}

// passes reports whether every condition is truthy in the current scope. A
// condition that fails to evaluate does not match.
func (it *JoinIterator) passes(conds []query.Expr) bool {
	for _, c := range conds {
		v, err := query.Eval(c, it.bindings)
		if err != nil {
			it.qctx.EvaluationFailed(c, err)
			return false
		}
		if !v.Truthy() {
			return false
		}
	}
	return true
}

func (it *JoinIterator) fail(err error) {
	it.err = err
	it.finish()
}

// finish marks the iterator exhausted and reports per-loop statistics once.
func (it *JoinIterator) finish() {
	it.done = true
	it.row = nil
	if it.reported {
		return
	}
	it.reported = true
	for _, lv := range it.levels {
		if loop, ok := lv.step.(*planner.LoopStep); ok {
			it.qctx.LoopCompleted(loop, lv.stats, it.start)
		}
	}
	if it.completes {
		it.qctx.QueryComplete(it.rows, it.err)
	}
}

// Tuple returns a copy of the current binding.
func (it *JoinIterator) Tuple() Tuple {
	if it.row == nil {
		return nil
	}
	out := make(Tuple, len(it.row))
	copy(out, it.row)
	return out
}

// Scope exposes the current bindings for evaluating expressions against the
// current tuple. It is valid until the next call to Next.
func (it *JoinIterator) Scope() query.Scope {
	return it.bindings
}

// Err returns the error that stopped iteration, if any.
func (it *JoinIterator) Err() error {
	return it.err
}

// Close stops the iterator.
func (it *JoinIterator) Close() error {
	if !it.done {
		it.finish()
	}
	return nil
}

// Stats returns the statistics of each loop in nesting order.
func (it *JoinIterator) Stats() []LoopStats {
	var out []LoopStats
	for _, lv := range it.levels {
		if _, ok := lv.step.(*planner.LoopStep); ok {
			out = append(out, lv.stats)
		}
	}
	return out
}
