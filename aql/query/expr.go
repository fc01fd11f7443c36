// Package query defines the AQL expression tree and query clauses, and
// evaluates expressions against a variable scope.
package query

import (
	"strings"

	"github.com/wbrown/janus-aql/aql"
)

// Expr is a node of a filter or projection expression. The set of node types
// is closed; every switch over Expr in this module lists all of them.
type Expr interface {
	exprNode()
	String() string
}

// Literal is a constant value.
type Literal struct {
	Value aql.Value
}

// BindParam is a named parameter supplied at execution time (@name).
type BindParam struct {
	Name string
}

// VariableRef names a loop or LET variable.
type VariableRef struct {
	Name string
}

// AttributeAccess reads Path from the value of Base.
type AttributeAccess struct {
	Base Expr
	Path aql.Path
}

// CompareOp is a comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "=="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
	OpIn CompareOp = "IN"
)

// Comparison is a binary comparison.
type Comparison struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

// And is a logical conjunction.
type And struct {
	Left  Expr
	Right Expr
}

// Or is a logical disjunction.
type Or struct {
	Left  Expr
	Right Expr
}

// Not is a logical negation.
type Not struct {
	Operand Expr
}

// FunctionCall invokes a registered function by name.
type FunctionCall struct {
	Name string
	Args []Expr
}

// ArrayLiteral builds an array from its element expressions.
type ArrayLiteral struct {
	Elements []Expr
}

// ObjectField is one key of an ObjectLiteral.
type ObjectField struct {
	Key   string
	Value Expr
}

// ObjectLiteral builds an object; fields keep their source order.
type ObjectLiteral struct {
	Fields []ObjectField
}

func (*Literal) exprNode()         {}
func (*BindParam) exprNode()       {}
func (*VariableRef) exprNode()     {}
func (*AttributeAccess) exprNode() {}
func (*Comparison) exprNode()      {}
func (*And) exprNode()             {}
func (*Or) exprNode()              {}
func (*Not) exprNode()             {}
func (*FunctionCall) exprNode()    {}
func (*ArrayLiteral) exprNode()    {}
func (*ObjectLiteral) exprNode()   {}

func (e *Literal) String() string     { return e.Value.String() }
func (e *BindParam) String() string   { return "@" + e.Name }
func (e *VariableRef) String() string { return e.Name }

func (e *AttributeAccess) String() string {
	return e.Base.String() + "." + e.Path.String()
}

// Comparisons do not chain, so a logical or comparison operand is
// parenthesized to keep the printed form unambiguous.
func (e *Comparison) String() string {
	return operand(e.Left) + " " + string(e.Op) + " " + operand(e.Right)
}

// And is left-associative; only a nested And on the right needs parentheses.
func (e *And) String() string {
	right := e.Right.String()
	if _, ok := e.Right.(*And); ok {
		right = "(" + right + ")"
	}
	return e.Left.String() + " && " + right
}

func operand(e Expr) string {
	switch e.(type) {
	case *Comparison, *And, *Not:
		return "(" + e.String() + ")"
	}
	return e.String()
}

func (e *Or) String() string {
	return "(" + e.Left.String() + " || " + e.Right.String() + ")"
}

func (e *Not) String() string {
	return "!(" + e.Operand.String() + ")"
}

func (e *FunctionCall) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

func (e *ArrayLiteral) String() string {
	elems := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		elems[i] = el.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

func (e *ObjectLiteral) String() string {
	fields := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = f.Key + ": " + f.Value.String()
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

// Constructors used by the parser and by tests.

func Lit(v aql.Value) *Literal { return &Literal{Value: v} }

func Param(name string) *BindParam { return &BindParam{Name: name} }

func Var(name string) *VariableRef { return &VariableRef{Name: name} }

// Attr builds v.path for a variable v and a dotted path.
func Attr(variable, path string) *AttributeAccess {
	return &AttributeAccess{Base: Var(variable), Path: aql.ParsePath(path)}
}

func Eq(left, right Expr) *Comparison {
	return &Comparison{Op: OpEq, Left: left, Right: right}
}

// AndAll folds exprs into a left-deep conjunction. It returns nil for no
// operands.
func AndAll(exprs ...Expr) Expr {
	if len(exprs) == 0 {
		return nil
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = &And{Left: out, Right: e}
	}
	return out
}

// Conjuncts flattens nested And nodes into their operands in source order.
func Conjuncts(e Expr) []Expr {
	if e == nil {
		return nil
	}
	if and, ok := e.(*And); ok {
		return append(Conjuncts(and.Left), Conjuncts(and.Right)...)
	}
	return []Expr{e}
}

// Walk calls fn for e and, while fn returns true, for its children.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *Literal, *BindParam, *VariableRef:
	case *AttributeAccess:
		Walk(n.Base, fn)
	case *Comparison:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *And:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Or:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Not:
		Walk(n.Operand, fn)
	case *FunctionCall:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *ArrayLiteral:
		for _, el := range n.Elements {
			Walk(el, fn)
		}
	case *ObjectLiteral:
		for _, f := range n.Fields {
			Walk(f.Value, fn)
		}
	}
}

// Variables returns the distinct variable names referenced by e in first
// occurrence order.
func Variables(e Expr) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(e, func(n Expr) bool {
		if v, ok := n.(*VariableRef); ok && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
		return true
	})
	return names
}

// BindParams returns the distinct bind parameter names referenced by e.
func BindParams(e Expr) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(e, func(n Expr) bool {
		if p, ok := n.(*BindParam); ok && !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
		return true
	})
	return names
}

// Functions returns every function call in e.
func Functions(e Expr) []*FunctionCall {
	var calls []*FunctionCall
	Walk(e, func(n Expr) bool {
		if fc, ok := n.(*FunctionCall); ok {
			calls = append(calls, fc)
		}
		return true
	})
	return calls
}

// RootedAttribute reports whether e is an attribute access (or a bare
// variable) directly on a variable, returning the variable and path.
func RootedAttribute(e Expr) (string, aql.Path, bool) {
	switch n := e.(type) {
	case *VariableRef:
		return n.Name, aql.Path{}, true
	case *AttributeAccess:
		if v, ok := n.Base.(*VariableRef); ok {
			return v.Name, n.Path, true
		}
	}
	return "", nil, false
}
