package executor

import (
	"time"

	"github.com/wbrown/janus-aql/aql/annotations"
	"github.com/wbrown/janus-aql/aql/planner"
	"github.com/wbrown/janus-aql/aql/query"
)

// LoopStats counts the work one loop did over the life of an iterator.
type LoopStats struct {
	Opens      int // probes or scans started, one per outer binding
	Candidates int // documents read before residual filtering
	Matched    int // documents that passed the residual conditions
}

// Context provides annotation points for query execution tracking.
type Context interface {
	// Query lifecycle
	QueryBegin(id, text string)
	QueryPlanCreated(plan *planner.Plan, cached bool)
	QueryComplete(rows int, err error)

	// Failures before execution
	CompileFailed(err error)
	BindingFailed(err error)

	// Access paths
	IndexSelected(loop *planner.LoopStep)
	LoopCompleted(loop *planner.LoopStep, stats LoopStats, start time.Time)

	// Per-row evaluation failure, which the executor treats as no match
	EvaluationFailed(expr query.Expr, err error)

	Collector() *annotations.Collector
}

// BaseContext is a no-op Context with zero overhead.
type BaseContext struct{}

// NewContext returns a BaseContext for a nil handler and an AnnotatedContext
// otherwise.
func NewContext(handler annotations.Handler) Context {
	if handler == nil {
		return &BaseContext{}
	}
	return &AnnotatedContext{
		collector: annotations.NewCollector(handler),
	}
}

func (c *BaseContext) QueryBegin(id, text string) {}

func (c *BaseContext) QueryPlanCreated(plan *planner.Plan, cached bool) {}

func (c *BaseContext) QueryComplete(rows int, err error) {}

func (c *BaseContext) CompileFailed(err error) {}

func (c *BaseContext) BindingFailed(err error) {}

func (c *BaseContext) IndexSelected(loop *planner.LoopStep) {}

func (c *BaseContext) LoopCompleted(loop *planner.LoopStep, stats LoopStats, start time.Time) {}

func (c *BaseContext) EvaluationFailed(expr query.Expr, err error) {}

func (c *BaseContext) Collector() *annotations.Collector {
	return nil
}

// AnnotatedContext turns execution callbacks into annotation events.
type AnnotatedContext struct {
	BaseContext
	collector  *annotations.Collector
	queryStart time.Time
}

func (c *AnnotatedContext) QueryBegin(id, text string) {
	c.queryStart = time.Now()
	c.collector.SetQueryID(id)
	c.collector.Add(annotations.Event{
		Name:  annotations.QueryInvoked,
		Start: c.queryStart,
		Data: map[string]interface{}{
			"query": text,
		},
	})
}

func (c *AnnotatedContext) QueryPlanCreated(plan *planner.Plan, cached bool) {
	c.collector.AddTiming(annotations.QueryPlanCreated, c.queryStart, map[string]interface{}{
		"plan":   plan.String(),
		"cached": cached,
		"loops":  len(plan.Loops()),
	})
}

func (c *AnnotatedContext) QueryComplete(rows int, err error) {
	data := map[string]interface{}{
		"rows.count": rows,
		"success":    err == nil,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	c.collector.AddTiming(annotations.QueryComplete, c.queryStart, data)
}

func (c *AnnotatedContext) CompileFailed(err error) {
	c.collector.AddTiming(annotations.ErrorQueryCompile, c.queryStart, map[string]interface{}{
		"error": err.Error(),
	})
}

func (c *AnnotatedContext) BindingFailed(err error) {
	c.collector.AddTiming(annotations.ErrorQueryBinding, c.queryStart, map[string]interface{}{
		"error": err.Error(),
	})
}

func (c *AnnotatedContext) IndexSelected(loop *planner.LoopStep) {
	probe, ok := loop.Access.(*planner.IndexProbe)
	if !ok {
		return
	}
	c.collector.Add(annotations.Event{
		Name:  annotations.IndexSelected,
		Start: time.Now(),
		Data: map[string]interface{}{
			"variable":   loop.Variable,
			"collection": probe.CollectionName(),
			"index":      probe.Index.String(),
			"fields":     len(probe.Operands),
		},
	})
}

func (c *AnnotatedContext) LoopCompleted(loop *planner.LoopStep, stats LoopStats, start time.Time) {
	data := map[string]interface{}{
		"variable":   loop.Variable,
		"collection": loop.Access.CollectionName(),
		"documents":  stats.Candidates,
		"matched":    stats.Matched,
	}
	switch a := loop.Access.(type) {
	case *planner.IndexProbe:
		data["index"] = a.Index.String()
		data["probes"] = stats.Opens
		c.collector.AddTiming(annotations.IndexProbe, start, data)
	case *planner.FullScan:
		data["scans"] = stats.Opens
		c.collector.AddTiming(annotations.CollectionScan, start, data)
	}

	if residual := loop.Access.ResidualConditions(); len(residual) > 0 {
		c.collector.Add(annotations.Event{
			Name:  annotations.FilterResidual,
			Start: time.Now(),
			Data: map[string]interface{}{
				"variable":  loop.Variable,
				"filter":    planner.JoinConditions(residual),
				"evaluated": stats.Candidates,
				"passed":    stats.Matched,
			},
		})
	}
}

func (c *AnnotatedContext) EvaluationFailed(expr query.Expr, err error) {
	c.collector.Add(annotations.Event{
		Name:  annotations.ErrorEvaluation,
		Start: time.Now(),
		Data: map[string]interface{}{
			"expr":  expr.String(),
			"error": err.Error(),
		},
	})
}

func (c *AnnotatedContext) Collector() *annotations.Collector {
	return c.collector
}
