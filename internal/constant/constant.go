// Package constant implements the Constant Manager (§4.E): a validated,
// append-only registry of named values collected from literal constant()
// declarations in every section (INITIAL included) and from explicit
// values passed to Set/SetScalarFloat64. INITIAL's assignments are not
// executed and do not become constants.
// Grounded on ConstantManager in the retrieved original implementation
// (same redefinition/type rules), storing
// scalar values as shopspring/decimal.Decimal the way CalcMark's evaluator
// carries numeric literals, for exact constant arithmetic independent of
// float64 rounding.
package constant

import (
	"github.com/shopspring/decimal"

	"github.com/contisim/contisim/internal/ast"
	"github.com/contisim/contisim/internal/errs"
)

// Value is one constant's payload: either a scalar or a homogeneous list.
type Value struct {
	IsList bool
	Scalar decimal.Decimal
	List   []decimal.Decimal
}

func Scalar(d decimal.Decimal) Value { return Value{Scalar: d} }

func List(ds []decimal.Decimal) Value { return Value{IsList: true, List: ds} }

// Float64 returns the scalar value as a float64, for callers feeding the
// derivative kernels and integration manager.
func (v Value) Float64() float64 {
	if v.IsList {
		return 0
	}
	f, _ := v.Scalar.Float64()
	return f
}

// FloatList returns a list value as []float64.
func (v Value) FloatList() []float64 {
	out := make([]float64, len(v.List))
	for i, d := range v.List {
		f, _ := d.Float64()
		out[i] = f
	}
	return out
}

// Manager is the constant registry. t is pre-registered at zero per §3.
type Manager struct {
	values map[string]Value
}

// New creates a Manager with t pre-registered.
func New() *Manager {
	return &Manager{values: map[string]Value{
		"t": Scalar(decimal.Zero),
	}}
}

// Set registers name with value, rejecting redefinition.
func (m *Manager) Set(name string, value Value) error {
	if name == "" {
		return errs.New(errs.Declaration, "constant name must be non-empty")
	}
	if _, exists := m.values[name]; exists {
		return errs.Newf(errs.Declaration, "constant %q is already defined", name)
	}
	m.values[name] = value
	return nil
}

// Get returns the named constant and whether it exists.
func (m *Manager) Get(name string) (Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

// IsConstant reports whether name has been registered, for the Derivative
// Synthesizer's reverse-reachability classification.
func (m *Manager) IsConstant(name string) bool {
	_, ok := m.values[name]
	return ok
}

// Floats returns every scalar constant as a float64 map, for the
// derivative kernels and compiled sections, which operate on plain
// float64 scopes rather than decimal.Decimal.
func (m *Manager) Floats() map[string]float64 {
	out := make(map[string]float64, len(m.values))
	for name, v := range m.values {
		if !v.IsList {
			out[name] = v.Float64()
		}
	}
	return out
}

// Lists returns every list-valued constant as []float64, for IndexExpr
// evaluation in internal/runtime.
func (m *Manager) Lists() map[string][]float64 {
	out := map[string][]float64{}
	for name, v := range m.values {
		if v.IsList {
			out[name] = v.FloatList()
		}
	}
	return out
}

// SetScalarFloat64 is a convenience wrapper for build-coordinator assigned
// values (e.g. a resolved CINT), which arrive as plain float64/int.
func (m *Manager) SetScalarFloat64(name string, value float64) error {
	return m.Set(name, Scalar(decimal.NewFromFloat(value)))
}

// CollectDeclared scans section for top-level `constant(name, value)` calls
// and registers each one, grounded on ConstantCollector's visit_Call in the
// retrieved original implementation. Strings lex as Identifier nodes in
// this grammar (see internal/parser), so the name argument is read off an
// *ast.Identifier rather than a string-literal node type.
func (m *Manager) CollectDeclared(section *ast.Section) error {
	for _, stmt := range section.Stmts {
		exprStmt, ok := stmt.(*ast.ExprStmt)
		if !ok {
			continue
		}
		call, ok := exprStmt.Expr.(*ast.CallExpr)
		if !ok || call.Callee != "constant" {
			continue
		}
		if len(call.Args) != 2 {
			return errs.Newf(errs.Declaration, "constant() must have 2 arguments, got %d", len(call.Args)).WithPos(call.At.Line, call.At.Column)
		}
		nameIdent, ok := call.Args[0].(*ast.Identifier)
		if !ok {
			return errs.Newf(errs.Declaration, "constant name must be a string literal").WithPos(call.At.Line, call.At.Column)
		}
		value, err := literalValue(call.Args[1])
		if err != nil {
			return err.WithSection(section.Name)
		}
		if err := m.Set(nameIdent.Name, value); err != nil {
			return err
		}
	}
	return nil
}

func literalValue(node ast.Node) (Value, *errs.Error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		d, parseErr := decimal.NewFromString(n.Value)
		if parseErr != nil {
			return Value{}, errs.Newf(errs.Declaration, "invalid numeric literal %q", n.Value).WithPos(n.At.Line, n.At.Column)
		}
		return Scalar(d), nil
	case *ast.BoolLiteral:
		if n.Value {
			return Scalar(decimal.NewFromInt(1)), nil
		}
		return Scalar(decimal.Zero), nil
	case *ast.ListLiteral:
		vals := make([]decimal.Decimal, len(n.Elements))
		for i, elem := range n.Elements {
			v, err := literalValue(elem)
			if err != nil {
				return Value{}, err
			}
			if v.IsList {
				return Value{}, errs.New(errs.Declaration, "constant lists must be homogeneous, not nested")
			}
			vals[i] = v.Scalar
		}
		return List(vals), nil
	default:
		return Value{}, errs.Newf(errs.Declaration, "constant value must be an int, float, bool, or list literal, got %T", node).WithPos(node.Pos().Line, node.Pos().Column)
	}
}
