package query

import (
	"fmt"
	"strings"
)

// Clause is one top-level statement of a query.
type Clause interface {
	clause()
	String() string
}

// LetClause binds Variable to the value of Expr.
type LetClause struct {
	Variable string
	Expr     Expr
}

// ForClause iterates Variable over every document of Collection.
type ForClause struct {
	Variable   string
	Collection string
}

// FilterClause keeps only rows for which Condition is truthy.
type FilterClause struct {
	Condition Expr
}

// SortKey is one criterion of a SORT clause.
type SortKey struct {
	Expr       Expr
	Descending bool
}

// SortClause orders the result rows.
type SortClause struct {
	Keys []SortKey
}

// LimitClause skips Offset rows and keeps at most Count.
type LimitClause struct {
	Offset int
	Count  int
}

// ReturnClause projects each row through Expr.
type ReturnClause struct {
	Expr Expr
}

func (*LetClause) clause()    {}
func (*ForClause) clause()    {}
func (*FilterClause) clause() {}
func (*SortClause) clause()   {}
func (*LimitClause) clause()  {}
func (*ReturnClause) clause() {}

func (c *LetClause) String() string    { return fmt.Sprintf("LET %s = %s", c.Variable, c.Expr) }
func (c *ForClause) String() string    { return fmt.Sprintf("FOR %s IN %s", c.Variable, c.Collection) }
func (c *FilterClause) String() string { return "FILTER " + c.Condition.String() }
func (c *ReturnClause) String() string { return "RETURN " + c.Expr.String() }

func (c *SortClause) String() string {
	keys := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		keys[i] = k.Expr.String()
		if k.Descending {
			keys[i] += " DESC"
		}
	}
	return "SORT " + strings.Join(keys, ", ")
}

func (c *LimitClause) String() string {
	if c.Offset > 0 {
		return fmt.Sprintf("LIMIT %d, %d", c.Offset, c.Count)
	}
	return fmt.Sprintf("LIMIT %d", c.Count)
}

// Query is a parsed AQL query.
type Query struct {
	Clauses []Clause
}

// String renders the query in canonical single-line form.
func (q *Query) String() string {
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Return returns the query's RETURN clause, or nil.
func (q *Query) Return() *ReturnClause {
	for _, c := range q.Clauses {
		if r, ok := c.(*ReturnClause); ok {
			return r
		}
	}
	return nil
}

// BindParams returns every bind parameter referenced anywhere in the query.
func (q *Query) BindParams() []string {
	var names []string
	seen := make(map[string]bool)
	add := func(e Expr) {
		for _, n := range BindParams(e) {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	for _, c := range q.Clauses {
		switch cl := c.(type) {
		case *LetClause:
			add(cl.Expr)
		case *FilterClause:
			add(cl.Condition)
		case *SortClause:
			for _, k := range cl.Keys {
				add(k.Expr)
			}
		case *ReturnClause:
			add(cl.Expr)
		}
	}
	return names
}
