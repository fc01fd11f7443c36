package executor

import (
	"sort"

	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/planner"
	"github.com/wbrown/janus-aql/aql/query"
)

// Cursor streams the projected result rows of a query. Without SORT rows are
// produced as the join advances; with SORT the join is drained on the first
// Next and the rows are ordered before LIMIT applies.
type Cursor struct {
	it   *JoinIterator
	plan *planner.Plan
	qctx Context

	sorted  []aql.Value
	drained bool
	skipped int
	emitted int
	current aql.Value
	closed  bool
}

func newCursor(it *JoinIterator, plan *planner.Plan, qctx Context) *Cursor {
	return &Cursor{it: it, plan: plan, qctx: qctx}
}

// Next advances to the next result row.
func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}

	offset, count := 0, -1
	if c.plan.Limit != nil {
		offset, count = c.plan.Limit.Offset, c.plan.Limit.Count
	}

	for {
		if count >= 0 && c.emitted >= count {
			c.stop()
			return false
		}
		v, ok := c.next()
		if !ok {
			c.stop()
			return false
		}
		if c.skipped < offset {
			c.skipped++
			continue
		}
		c.emitted++
		c.current = v
		return true
	}
}

// next produces the next projected row before LIMIT.
func (c *Cursor) next() (aql.Value, bool) {
	if c.plan.Sort == nil {
		if !c.it.Next() {
			return aql.Null(), false
		}
		return c.project(), true
	}

	if !c.drained {
		c.drain()
	}
	if len(c.sorted) == 0 {
		return aql.Null(), false
	}
	v := c.sorted[0]
	c.sorted = c.sorted[1:]
	return v, true
}

type sortRow struct {
	keys []aql.Value
	row  aql.Value
}

// drain materializes every row with its sort keys and orders them stably.
func (c *Cursor) drain() {
	c.drained = true
	keys := c.plan.Sort.Keys

	var rows []sortRow
	for c.it.Next() {
		r := sortRow{keys: make([]aql.Value, len(keys)), row: c.project()}
		for i, k := range keys {
			r.keys[i] = c.eval(k.Expr)
		}
		rows = append(rows, r)
	}
	if c.it.Err() != nil {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for k, key := range keys {
			cmp := aql.Compare(rows[i].keys[k], rows[j].keys[k])
			if cmp == 0 {
				continue
			}
			if key.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	c.sorted = make([]aql.Value, len(rows))
	for i, r := range rows {
		c.sorted[i] = r.row
	}
}

// project evaluates RETURN for the current binding. Without RETURN the row
// is an object of every bound variable.
func (c *Cursor) project() aql.Value {
	if c.plan.Return == nil {
		return c.it.bindings.Object()
	}
	return c.eval(c.plan.Return)
}

// eval evaluates e against the current binding; failures yield Null.
func (c *Cursor) eval(e query.Expr) aql.Value {
	v, err := query.Eval(e, c.it.Scope())
	if err != nil {
		c.qctx.EvaluationFailed(e, err)
		return aql.Null()
	}
	return v
}

// Value returns the current row.
func (c *Cursor) Value() aql.Value {
	return c.current
}

// All drains the cursor and returns the remaining rows.
func (c *Cursor) All() ([]aql.Value, error) {
	var rows []aql.Value
	for c.Next() {
		rows = append(rows, c.Value())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of rows produced so far.
func (c *Cursor) Count() int {
	return c.emitted
}

// Err returns the error that stopped the cursor, if any.
func (c *Cursor) Err() error {
	return c.it.Err()
}

// Close releases the cursor. It is safe to call more than once.
func (c *Cursor) Close() error {
	c.stop()
	return nil
}

func (c *Cursor) stop() {
	if c.closed {
		return
	}
	c.closed = true
	c.current = aql.Null()
	c.sorted = nil
	c.it.Close()
	c.qctx.QueryComplete(c.emitted, c.it.Err())
}
