// Package executor runs compiled plans as lazy nested-loop joins and shapes
// their output with projection, sort and limit.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/annotations"
	"github.com/wbrown/janus-aql/aql/parser"
	"github.com/wbrown/janus-aql/aql/planner"
	"github.com/wbrown/janus-aql/aql/storage"
)

// Options configures an Executor.
type Options struct {
	Planner planner.Options

	// Handler receives annotation events for every query. Nil disables
	// annotations.
	Handler annotations.Handler

	// Plan cache sizing, used when Planner.Cache is nil. A zero size
	// disables caching.
	PlanCacheSize int
	PlanCacheTTL  time.Duration
}

// DefaultOptions returns the default planner options with a plan cache.
func DefaultOptions() Options {
	return Options{
		Planner:       planner.DefaultOptions(),
		PlanCacheSize: 1000,
		PlanCacheTTL:  5 * time.Minute,
	}
}

// Executor parses, plans and runs queries against one database. It is safe
// for concurrent use; each query gets its own bindings and iterator state.
type Executor struct {
	db      *storage.Database
	planner *planner.Planner
	opts    Options
}

// NewExecutor creates an executor with default options.
func NewExecutor(db *storage.Database) *Executor {
	return NewExecutorWithOptions(db, DefaultOptions())
}

// NewExecutorWithOptions creates an executor with the given options.
func NewExecutorWithOptions(db *storage.Database, opts Options) *Executor {
	if opts.Planner.Cache == nil && opts.PlanCacheSize > 0 {
		opts.Planner.Cache = planner.NewPlanCache(opts.PlanCacheSize, opts.PlanCacheTTL)
	}
	return &Executor{
		db:      db,
		planner: planner.NewPlanner(db, opts.Planner),
		opts:    opts,
	}
}

// Planner returns the executor's planner.
func (e *Executor) Planner() *planner.Planner {
	return e.planner
}

// Database returns the database queries run against.
func (e *Executor) Database() *storage.Database {
	return e.db
}

// Query parses and plans text, then starts executing it. Compile errors and
// missing bind parameters are returned before any document is read.
func (e *Executor) Query(ctx context.Context, text string, params map[string]aql.Value) (*Cursor, error) {
	qctx := NewContext(e.opts.Handler)
	qctx.QueryBegin(uuid.NewString(), text)

	plan, err := e.plan(qctx, text)
	if err != nil {
		return nil, err
	}
	return e.execute(ctx, qctx, plan, params)
}

// QueryAll runs text and collects every result row.
func (e *Executor) QueryAll(ctx context.Context, text string, params map[string]aql.Value) ([]aql.Value, error) {
	cur, err := e.Query(ctx, text, params)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	return cur.All()
}

// Explain returns the rendered plan for text without executing it.
func (e *Executor) Explain(text string) (string, error) {
	q, err := parser.ParseQuery(text)
	if err != nil {
		return "", err
	}
	plan, err := e.planner.Plan(q)
	if err != nil {
		return "", err
	}
	return plan.String(), nil
}

// Execute runs an already compiled plan.
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan, params map[string]aql.Value) (*Cursor, error) {
	qctx := NewContext(e.opts.Handler)
	qctx.QueryBegin(uuid.NewString(), plan.String())
	qctx.QueryPlanCreated(plan, false)
	return e.execute(ctx, qctx, plan, params)
}

// Tuples runs the join part of plan and yields raw variable bindings,
// ignoring SORT, LIMIT and RETURN. The query completes when the iterator is
// exhausted or closed.
func (e *Executor) Tuples(ctx context.Context, plan *planner.Plan, params map[string]aql.Value) (*JoinIterator, error) {
	qctx := NewContext(e.opts.Handler)
	qctx.QueryBegin(uuid.NewString(), plan.String())
	qctx.QueryPlanCreated(plan, false)
	if err := plan.CheckParams(params); err != nil {
		qctx.BindingFailed(err)
		qctx.QueryComplete(0, err)
		return nil, err
	}
	for _, loop := range plan.Loops() {
		qctx.IndexSelected(loop)
	}
	it := newJoinIterator(ctx, qctx, plan, params)
	it.completes = true
	return it, nil
}

func (e *Executor) plan(qctx Context, text string) (*planner.Plan, error) {
	q, err := parser.ParseQuery(text)
	if err != nil {
		qctx.CompileFailed(err)
		qctx.QueryComplete(0, err)
		return nil, err
	}
	plan, cached, err := e.planner.PlanCached(q)
	if err != nil {
		qctx.CompileFailed(err)
		qctx.QueryComplete(0, err)
		return nil, err
	}
	qctx.QueryPlanCreated(plan, cached)
	return plan, nil
}

func (e *Executor) execute(ctx context.Context, qctx Context, plan *planner.Plan, params map[string]aql.Value) (*Cursor, error) {
	if err := plan.CheckParams(params); err != nil {
		qctx.BindingFailed(err)
		qctx.QueryComplete(0, err)
		return nil, err
	}
	for _, loop := range plan.Loops() {
		qctx.IndexSelected(loop)
	}
	it := newJoinIterator(ctx, qctx, plan, params)
	return newCursor(it, plan, qctx), nil
}
