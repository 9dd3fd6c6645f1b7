// Package runtime is the small tree-walking interpreter shared by the
// Section Compiler (internal/compile) and the Derivative Synthesizer
// (internal/derive). Rather than textually emitting Go source and invoking
// the toolchain at run time, both components hand this interpreter an
// already-sorted statement list and a Hooks value; it evaluates each
// statement against a float64 scope the way CalcMark's evaluator.Evaluator
// walks its AST against an evaluator.Context, generalized with call hooks
// for integ/delay/procedural dispatch (§9 Design Notes: "keep synthesized
// derivative kernels as typed closures ... avoiding any dynamic
// code-compilation step").
package runtime

import (
	"fmt"
	"math"

	"github.com/contisim/contisim/internal/ast"
	"github.com/contisim/contisim/internal/errs"
	"github.com/contisim/contisim/internal/model"
)

// Scope is the float64 variable bindings visible during one statement list
// evaluation: constants, state variables, t, and intermediate assignments.
type Scope map[string]float64

// Hooks lets the caller intercept the two runtime operators the language
// recognizes as calls: integ and delay. Both are nil-safe: a nil Integ/Delay
// means the corresponding call is not expected in this statement list
// (true for every Derivative Synthesizer kernel body, since integ calls
// never appear inside a sliced derivative expression).
type Hooks struct {
	// Integ is invoked for `name = integ(derivName, ic)`. ic is not passed:
	// by the time this runs, the caller has already seeded Scope[name] with
	// the correct current-step value (see internal/drive), so the literal
	// initial-condition argument written in source is only ever consulted
	// once, by the Simulation Driver, to seed the very first step.
	Integ func(name, derivName string) (float64, error)
	// Delay is invoked for `name = delay(x, ic, tdl, nmx, delmin)`, keyed by
	// the sorter-assigned stable identifier for this call site.
	Delay func(delayID string, args []float64) (float64, error)
}

// Interpreter evaluates a sorted statement list against a Scope.
type Interpreter struct {
	Procedurals map[string]*model.ProceduralBlock
	// DelayIDs maps an assignment target name to the stable identifier the
	// sorter assigned its delay call (§4.B, §9).
	DelayIDs map[string]string
	// Lists holds list-valued constants, addressable via IndexExpr.
	Lists map[string][]float64
	Hooks Hooks
}

// New creates an Interpreter with empty lookup tables.
func New() *Interpreter {
	return &Interpreter{
		Procedurals: map[string]*model.ProceduralBlock{},
		DelayIDs:    map[string]string{},
		Lists:       map[string][]float64{},
	}
}

// Exec runs stmts in order against scope, mutating it in place.
func (ip *Interpreter) Exec(stmts []ast.Node, scope Scope) error {
	for _, stmt := range stmts {
		if err := ip.execStmt(stmt, scope); err != nil {
			return err
		}
	}
	return nil
}

func (ip *Interpreter) execStmt(stmt ast.Node, scope Scope) error {
	switch s := stmt.(type) {
	case *ast.Assignment:
		value, err := ip.evalAssignmentRHS(s, scope)
		if err != nil {
			return err
		}
		scope[s.Name] = value
		return nil
	case *ast.ExprStmt:
		call, ok := s.Expr.(*ast.CallExpr)
		if ok && (call.Callee == "end" || call.Callee == "constant") {
			return nil // terminal marker / declarative statement: no runtime effect
		}
		return errs.Newf(errs.RuntimeValidation, "unexpected statement %s", s).WithPos(s.Pos().Line, s.Pos().Column)
	case *ast.ProceduralDef:
		return nil // lifted helpers carry no effect at their original position
	case *ast.ReturnStmt:
		return nil // the caller reads scope[block.Return] directly
	default:
		return errs.Newf(errs.RuntimeValidation, "unexpected statement %T", stmt)
	}
}

// evalAssignmentRHS special-cases integ/delay call targets, which dispatch
// through Hooks instead of being evaluated as plain expressions.
func (ip *Interpreter) evalAssignmentRHS(a *ast.Assignment, scope Scope) (float64, error) {
	if call, ok := a.Value.(*ast.CallExpr); ok {
		switch call.Callee {
		case "integ":
			if ip.Hooks.Integ == nil {
				return 0, errs.Newf(errs.RuntimeValidation, "integ() is not available in this evaluation context")
			}
			derivName := call.Args[0].(*ast.Identifier).Name
			return ip.Hooks.Integ(a.Name, derivName)
		case "delay":
			if ip.Hooks.Delay == nil {
				return 0, errs.Newf(errs.RuntimeValidation, "delay() is not available in this evaluation context")
			}
			args := make([]float64, len(call.Args))
			for i, arg := range call.Args {
				v, err := ip.EvalExpr(arg, scope)
				if err != nil {
					return 0, err
				}
				args[i] = v
			}
			delayID := ip.DelayIDs[a.Name]
			return ip.Hooks.Delay(delayID, args)
		}
	}
	return ip.EvalExpr(a.Value, scope)
}

// EvalExpr evaluates a pure expression (no integ/delay) against scope.
func (ip *Interpreter) EvalExpr(node ast.Node, scope Scope) (float64, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		var f float64
		if _, err := fmt.Sscanf(n.Value, "%g", &f); err != nil {
			return 0, errs.Newf(errs.RuntimeValidation, "invalid numeric literal %q", n.Value)
		}
		return f, nil
	case *ast.BoolLiteral:
		if n.Value {
			return 1, nil
		}
		return 0, nil
	case *ast.Identifier:
		v, ok := scope[n.Name]
		if !ok {
			return 0, errs.Newf(errs.RuntimeValidation, "undefined name %q", n.Name).WithPos(n.At.Line, n.At.Column)
		}
		return v, nil
	case *ast.UnaryOp:
		v, err := ip.EvalExpr(n.Operand, scope)
		if err != nil {
			return 0, err
		}
		switch n.Operator {
		case "-":
			return -v, nil
		case "+":
			return v, nil
		}
		return 0, errs.Newf(errs.RuntimeValidation, "unknown unary operator %q", n.Operator)
	case *ast.BinaryOp:
		return ip.evalBinary(n, scope)
	case *ast.IndexExpr:
		return ip.evalIndex(n, scope)
	case *ast.CallExpr:
		return ip.evalCall(n, scope)
	default:
		return 0, errs.Newf(errs.RuntimeValidation, "cannot evaluate node %T", node)
	}
}

func (ip *Interpreter) evalBinary(n *ast.BinaryOp, scope Scope) (float64, error) {
	l, err := ip.EvalExpr(n.Left, scope)
	if err != nil {
		return 0, err
	}
	r, err := ip.EvalExpr(n.Right, scope)
	if err != nil {
		return 0, err
	}
	switch n.Operator {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		return l / r, nil
	case "%":
		return math.Mod(l, r), nil
	case "^":
		return math.Pow(l, r), nil
	case ">":
		return boolToFloat(l > r), nil
	case "<":
		return boolToFloat(l < r), nil
	case ">=":
		return boolToFloat(l >= r), nil
	case "<=":
		return boolToFloat(l <= r), nil
	case "==":
		return boolToFloat(l == r), nil
	case "!=":
		return boolToFloat(l != r), nil
	default:
		return 0, errs.Newf(errs.RuntimeValidation, "unknown binary operator %q", n.Operator)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (ip *Interpreter) evalIndex(n *ast.IndexExpr, scope Scope) (float64, error) {
	ident, ok := n.Object.(*ast.Identifier)
	if !ok {
		return 0, errs.Newf(errs.RuntimeValidation, "subscript target must be a constant name")
	}
	list, ok := ip.Lists[ident.Name]
	if !ok {
		return 0, errs.Newf(errs.RuntimeValidation, "%q is not a list constant", ident.Name)
	}
	idxF, err := ip.EvalExpr(n.Index, scope)
	if err != nil {
		return 0, err
	}
	idx := int(idxF)
	if idx < 0 || idx >= len(list) {
		return 0, errs.Newf(errs.RuntimeValidation, "index %d out of range for %q", idx, ident.Name)
	}
	return list[idx], nil
}

func (ip *Interpreter) evalCall(n *ast.CallExpr, scope Scope) (float64, error) {
	block, ok := ip.Procedurals[n.Callee]
	if !ok {
		return 0, errs.Newf(errs.RuntimeValidation, "unknown function %q", n.Callee).WithPos(n.At.Line, n.At.Column)
	}
	if len(n.Args) != len(block.Params) {
		return 0, errs.Newf(errs.RuntimeValidation, "%s expects %d arguments, got %d", n.Callee, len(block.Params), len(n.Args))
	}
	inner := Scope{}
	for i, param := range block.Params {
		v, err := ip.EvalExpr(n.Args[i], scope)
		if err != nil {
			return 0, err
		}
		inner[param] = v
	}
	if err := ip.Exec(block.Body, inner); err != nil {
		return 0, err
	}
	result, ok := inner[block.Return]
	if !ok {
		return 0, errs.Newf(errs.RuntimeValidation, "procedural %q did not bind its return name", n.Callee)
	}
	return result, nil
}
