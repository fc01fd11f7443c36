package planner

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/query"
	"github.com/wbrown/janus-aql/aql/storage"
)

// Options configures planning.
type Options struct {
	// EnableIndexSelection lets loops probe hash indexes. When false every
	// loop is a full scan, which is useful for checking that both paths
	// agree.
	EnableIndexSelection bool

	// EnablePredicatePushdown moves each FILTER conjunct to the earliest step
	// at which all of its variables are bound. When false conjuncts stay
	// where their FILTER clause appears.
	EnablePredicatePushdown bool

	// Cache, when set, memoizes plans by query text and schema version.
	Cache *PlanCache
}

// DefaultOptions enables index selection and predicate pushdown.
func DefaultOptions() Options {
	return Options{
		EnableIndexSelection:    true,
		EnablePredicatePushdown: true,
	}
}

// Plan is a compiled query. Plans are immutable once built and may be
// executed any number of times with different bind parameters.
type Plan struct {
	Steps  []Step
	Sort   *query.SortClause
	Limit  *query.LimitClause
	Return query.Expr // nil: rows are objects of all bound variables

	// Params lists every bind parameter the query references.
	Params []string

	// Variables lists the variables bound by Steps in binding order.
	Variables []string

	// Version is the database version the plan was compiled against.
	Version uint64
}

// Step is one stage of the nested-loop pipeline.
type Step interface {
	step()
	String() string
}

// LetStep binds Variable to the value of Expr.
type LetStep struct {
	Variable string
	Expr     query.Expr
}

// FilterStep drops rows for which any condition is not truthy.
type FilterStep struct {
	Conditions []query.Expr
}

// LoopStep iterates Variable over the documents produced by Access.
type LoopStep struct {
	Variable string
	Access   Access
}

func (*LetStep) step()    {}
func (*FilterStep) step() {}
func (*LoopStep) step()   {}

func (s *LetStep) String() string {
	return fmt.Sprintf("LET %s = %s", s.Variable, s.Expr)
}

func (s *FilterStep) String() string {
	return "FILTER " + JoinConditions(s.Conditions)
}

func (s *LoopStep) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FOR %s IN %s %s", s.Variable, s.Access.CollectionName(), s.Access)
	if residual := s.Access.ResidualConditions(); len(residual) > 0 {
		sb.WriteString("\n  FILTER ")
		sb.WriteString(JoinConditions(residual))
	}
	return sb.String()
}

// Access is how a loop obtains its documents.
type Access interface {
	access()
	String() string
	CollectionName() string
	ResidualConditions() []query.Expr
}

// IndexProbe looks up documents whose index fields equal Operands. Operands
// are re-evaluated for every binding of the enclosing loops.
type IndexProbe struct {
	Collection *storage.Collection
	Index      *storage.HashIndex
	Operands   []query.Expr
	Residual   []query.Expr
}

// FullScan reads every document and keeps those satisfying Residual.
type FullScan struct {
	Collection *storage.Collection
	Residual   []query.Expr
}

func (*IndexProbe) access() {}
func (*FullScan) access()   {}

func (a *IndexProbe) String() string {
	ops := make([]string, len(a.Operands))
	for i, op := range a.Operands {
		ops[i] = op.String()
	}
	return fmt.Sprintf("INDEX %s [%s]", a.Index, strings.Join(ops, ", "))
}

func (a *FullScan) String() string { return "SCAN" }

func (a *IndexProbe) CollectionName() string { return a.Collection.Name() }
func (a *FullScan) CollectionName() string   { return a.Collection.Name() }

func (a *IndexProbe) ResidualConditions() []query.Expr { return a.Residual }
func (a *FullScan) ResidualConditions() []query.Expr   { return a.Residual }

// String renders the plan one step per line.
func (p *Plan) String() string {
	var lines []string
	for _, s := range p.Steps {
		lines = append(lines, s.String())
	}
	if p.Sort != nil {
		lines = append(lines, p.Sort.String())
	}
	if p.Limit != nil {
		lines = append(lines, p.Limit.String())
	}
	if p.Return != nil {
		lines = append(lines, "RETURN "+p.Return.String())
	}
	return strings.Join(lines, "\n")
}

// Loops returns the loop steps in nesting order.
func (p *Plan) Loops() []*LoopStep {
	var loops []*LoopStep
	for _, s := range p.Steps {
		if l, ok := s.(*LoopStep); ok {
			loops = append(loops, l)
		}
	}
	return loops
}

// CheckParams verifies that every referenced bind parameter has a value.
// Missing parameters are reported before any row is produced.
func (p *Plan) CheckParams(params map[string]aql.Value) error {
	for _, name := range p.Params {
		if _, ok := params[name]; !ok {
			return compileError(ErrUndefinedBindParameter, "@"+name)
		}
	}
	return nil
}

// JoinConditions renders conditions as a single && chain.
func JoinConditions(conds []query.Expr) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return strings.Join(parts, " && ")
}
