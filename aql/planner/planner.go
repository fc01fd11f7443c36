// Package planner compiles parsed queries into nested-loop execution plans,
// choosing a hash index for each loop whose filter pins every indexed field
// with an equality.
package planner

import (
	"github.com/wbrown/janus-aql/aql/query"
	"github.com/wbrown/janus-aql/aql/storage"
)

// Planner builds plans against one database.
type Planner struct {
	db   *storage.Database
	opts Options
}

// NewPlanner creates a planner for db.
func NewPlanner(db *storage.Database, opts Options) *Planner {
	return &Planner{db: db, opts: opts}
}

// Options returns the planner's configuration.
func (p *Planner) Options() Options {
	return p.opts
}

// Loop names a loop variable and the collection it iterates.
type Loop struct {
	Variable   string
	Collection string
}

// PlanFilter compiles loops nested in the given order with filter applied
// across them. The resulting plan has no RETURN; its rows bind every loop
// variable.
func (p *Planner) PlanFilter(filter query.Expr, loops []Loop) (*Plan, error) {
	q := &query.Query{}
	for _, l := range loops {
		q.Clauses = append(q.Clauses, &query.ForClause{Variable: l.Variable, Collection: l.Collection})
	}
	if filter != nil {
		q.Clauses = append(q.Clauses, &query.FilterClause{Condition: filter})
	}
	return p.compile(q, false)
}

// Plan compiles a complete query, consulting the plan cache when one is
// configured.
func (p *Planner) Plan(q *query.Query) (*Plan, error) {
	plan, _, err := p.PlanCached(q)
	return plan, err
}

// PlanCached is Plan that also reports whether the plan came from the cache.
func (p *Planner) PlanCached(q *query.Query) (*Plan, bool, error) {
	version := p.db.Version()
	if plan, ok := p.opts.Cache.Get(q, version, p.opts); ok {
		return plan, true, nil
	}
	plan, err := p.compile(q, true)
	if err != nil {
		return nil, false, err
	}
	p.opts.Cache.Set(q, version, p.opts, plan)
	return plan, false, nil
}

// Clause phases, in the only order they may appear.
const (
	phaseBody = iota
	phaseSort
	phaseLimit
	phaseReturn
)

// builder accumulates steps while walking the clauses.
type builder struct {
	p *Planner

	steps []Step

	// pending[i+1] holds conditions attached to steps[i]; pending[0] holds
	// conditions that reference no variable.
	pending  [][]query.Expr
	boundAt  map[string]int
	bindings []string
}

func (p *Planner) compile(q *query.Query, requireReturn bool) (*Plan, error) {
	b := &builder{
		p:       p,
		pending: [][]query.Expr{nil},
		boundAt: make(map[string]int),
	}
	plan := &Plan{Version: p.db.Version()}

	phase := phaseBody
	for _, c := range q.Clauses {
		switch cl := c.(type) {
		case *query.LetClause:
			if phase != phaseBody {
				return nil, compileError(ErrUnsupportedClauseOrder, "LET")
			}
			if err := b.checkExpr(cl.Expr); err != nil {
				return nil, err
			}
			if err := b.bind(cl.Variable, &LetStep{Variable: cl.Variable, Expr: cl.Expr}); err != nil {
				return nil, err
			}

		case *query.ForClause:
			if phase != phaseBody {
				return nil, compileError(ErrUnsupportedClauseOrder, "FOR")
			}
			coll, ok := p.db.Collection(cl.Collection)
			if !ok {
				return nil, compileError(ErrUnknownCollection, cl.Collection)
			}
			step := &LoopStep{Variable: cl.Variable, Access: &FullScan{Collection: coll}}
			if err := b.bind(cl.Variable, step); err != nil {
				return nil, err
			}

		case *query.FilterClause:
			if phase != phaseBody {
				return nil, compileError(ErrUnsupportedClauseOrder, "FILTER")
			}
			if err := b.checkExpr(cl.Condition); err != nil {
				return nil, err
			}
			b.attach(cl.Condition)

		case *query.SortClause:
			if phase >= phaseSort {
				return nil, compileError(ErrUnsupportedClauseOrder, "SORT")
			}
			for _, k := range cl.Keys {
				if err := b.checkExpr(k.Expr); err != nil {
					return nil, err
				}
			}
			phase = phaseSort
			plan.Sort = cl

		case *query.LimitClause:
			if phase >= phaseLimit {
				return nil, compileError(ErrUnsupportedClauseOrder, "LIMIT")
			}
			phase = phaseLimit
			plan.Limit = cl

		case *query.ReturnClause:
			if phase >= phaseReturn {
				return nil, compileError(ErrUnsupportedClauseOrder, "RETURN")
			}
			if err := b.checkExpr(cl.Expr); err != nil {
				return nil, err
			}
			phase = phaseReturn
			plan.Return = cl.Expr
		}
	}

	if requireReturn && plan.Return == nil {
		return nil, compileError(ErrMissingReturn, "")
	}

	plan.Steps = b.finish()
	plan.Params = q.BindParams()
	plan.Variables = b.bindings
	return plan, nil
}

// bind appends a step that binds name.
func (b *builder) bind(name string, step Step) error {
	if _, ok := b.boundAt[name]; ok {
		return compileError(ErrVariableRedeclared, name)
	}
	b.steps = append(b.steps, step)
	b.pending = append(b.pending, nil)
	b.boundAt[name] = len(b.steps) - 1
	b.bindings = append(b.bindings, name)
	return nil
}

// checkExpr rejects references to variables that are not yet bound, which
// covers forward references and a loop variable used in its own collection
// expression, and calls to unknown functions.
func (b *builder) checkExpr(e query.Expr) error {
	for _, name := range query.Variables(e) {
		if _, ok := b.boundAt[name]; !ok {
			return compileError(ErrUndefinedVariable, name)
		}
	}
	for _, call := range query.Functions(e) {
		if _, err := query.ResolveFunction(call.Name, len(call.Args)); err != nil {
			return &CompileError{Err: err, Name: call.Name}
		}
	}
	return nil
}

// attach distributes the conjuncts of a FILTER over the steps built so far.
func (b *builder) attach(cond query.Expr) {
	here := len(b.steps)
	for _, conj := range query.Conjuncts(cond) {
		slot := here
		if b.p.opts.EnablePredicatePushdown {
			slot = 0
			for _, name := range query.Variables(conj) {
				if at := b.boundAt[name] + 1; at > slot {
					slot = at
				}
			}
		}
		b.pending[slot] = append(b.pending[slot], conj)
	}
}

// finish resolves loop access paths and turns attached conditions into
// steps.
func (b *builder) finish() []Step {
	var steps []Step
	if len(b.pending[0]) > 0 {
		steps = append(steps, &FilterStep{Conditions: b.pending[0]})
	}

	inScope := make(map[string]bool)
	for i, s := range b.steps {
		conds := b.pending[i+1]
		switch st := s.(type) {
		case *LoopStep:
			st.Access = b.access(st, conds, inScope)
			steps = append(steps, st)
			inScope[st.Variable] = true
		case *LetStep:
			steps = append(steps, st)
			inScope[st.Variable] = true
			if len(conds) > 0 {
				steps = append(steps, &FilterStep{Conditions: conds})
			}
		}
	}
	return steps
}

func (b *builder) access(loop *LoopStep, conds []query.Expr, inScope map[string]bool) Access {
	coll := loop.Access.(*FullScan).Collection
	if !b.p.opts.EnableIndexSelection {
		return &FullScan{Collection: coll, Residual: conds}
	}

	var constraints []Constraint
	for _, c := range conds {
		constraints = append(constraints, ExtractConstraints(c, loop.Variable, inScope)...)
	}
	sel := SelectIndex(constraints, coll.Indexes())
	if sel.Index == nil {
		return &FullScan{Collection: coll, Residual: conds}
	}

	consumed := make(map[query.Expr]bool, len(sel.Used))
	for _, c := range sel.Used {
		consumed[c.Source] = true
	}
	var residual []query.Expr
	for _, c := range conds {
		if !consumed[c] {
			residual = append(residual, c)
		}
	}
	return &IndexProbe{
		Collection: coll,
		Index:      sel.Index,
		Operands:   sel.Operands,
		Residual:   residual,
	}
}
