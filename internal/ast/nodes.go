package ast

import (
	"fmt"
	"strings"
)

// Node is implemented by every expression and statement node.
type Node interface {
	String() string
	Pos() Position
}

// NumberLiteral is a numeric literal, kept as source text so the caller can
// decide how to parse it (float64 for kernels, decimal.Decimal for constants).
type NumberLiteral struct {
	Value string
	At    Position
}

func (n *NumberLiteral) String() string { return fmt.Sprintf("Number(%s)", n.Value) }
func (n *NumberLiteral) Pos() Position  { return n.At }

// BoolLiteral is a boolean literal.
type BoolLiteral struct {
	Value bool
	At    Position
}

func (b *BoolLiteral) String() string { return fmt.Sprintf("Bool(%t)", b.Value) }
func (b *BoolLiteral) Pos() Position   { return b.At }

// Identifier is a bare variable reference.
type Identifier struct {
	Name string
	At   Position
}

func (i *Identifier) String() string { return fmt.Sprintf("Ident(%s)", i.Name) }
func (i *Identifier) Pos() Position   { return i.At }

// ListLiteral is a homogeneous list literal, e.g. used for list-valued constants.
type ListLiteral struct {
	Elements []Node
	At       Position
}

func (l *ListLiteral) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return fmt.Sprintf("List(%s)", strings.Join(parts, ", "))
}
func (l *ListLiteral) Pos() Position { return l.At }

// BinaryOp is a binary arithmetic or comparison expression.
type BinaryOp struct {
	Operator string
	Left     Node
	Right    Node
	At       Position
}

func (b *BinaryOp) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right) }
func (b *BinaryOp) Pos() Position   { return b.At }

// UnaryOp is a unary prefix expression (-x, +x).
type UnaryOp struct {
	Operator string
	Operand  Node
	At       Position
}

func (u *UnaryOp) String() string { return fmt.Sprintf("(%s%s)", u.Operator, u.Operand) }
func (u *UnaryOp) Pos() Position   { return u.At }

// IndexExpr is a subscript expression, e.g. history[0]. Subscript assignment
// targets are rejected by the parser; subscript reads are allowed as RHS
// expressions and contribute their object as a dependency.
type IndexExpr struct {
	Object Node
	Index  Node
	At     Position
}

func (ix *IndexExpr) String() string { return fmt.Sprintf("%s[%s]", ix.Object, ix.Index) }
func (ix *IndexExpr) Pos() Position   { return ix.At }

// CallExpr is a function call: callee(args...). Callee is always a bare
// identifier in this language (integ, delay, constant, end, or a procedural
// helper name).
type CallExpr struct {
	Callee string
	Args   []Node
	At     Position
}

func (c *CallExpr) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(parts, ", "))
}
func (c *CallExpr) Pos() Position { return c.At }

// Assignment is `name = expr` or, when Annotated, `name: Type = expr`.
type Assignment struct {
	Name      string
	Annotated bool
	TypeName  string // only meaningful when Annotated
	Value     Node
	At        Position
}

func (a *Assignment) String() string { return fmt.Sprintf("%s = %s", a.Name, a.Value) }
func (a *Assignment) Pos() Position   { return a.At }

// ExprStmt is a bare expression statement: only constant(...) and end() are
// accepted by the parser/analyzer, everything else is an authoring error.
type ExprStmt struct {
	Expr Node
	At   Position
}

func (e *ExprStmt) String() string { return e.Expr.String() }
func (e *ExprStmt) Pos() Position   { return e.At }

// ReturnStmt appears only inside a ProceduralDef body.
type ReturnStmt struct {
	Name string
	At   Position
}

func (r *ReturnStmt) String() string { return fmt.Sprintf("return %s", r.Name) }
func (r *ReturnStmt) Pos() Position   { return r.At }

// ProceduralDef is a nested helper block: `procedural name(params...) { ... }`,
// the textual stand-in for a Python function marked with the @procedural
// decorator. Its body must contain exactly one ReturnStmt.
type ProceduralDef struct {
	Name   string
	Params []string
	Body   []Node
	At     Position
}

func (p *ProceduralDef) String() string {
	return fmt.Sprintf("procedural %s(%s)", p.Name, strings.Join(p.Params, ", "))
}
func (p *ProceduralDef) Pos() Position { return p.At }

// Section is the parsed form of one section body: a flat list of top-level
// statements (Assignment, ExprStmt, ProceduralDef).
type Section struct {
	Name  string
	Stmts []Node
}
