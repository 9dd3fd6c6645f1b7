// Package analyze implements the Function Parser (§4.A): it walks one
// parsed section and builds the Variable Map and retained-expression list
// the Sorter (internal/sortsec) consumes, in the spirit of CalcMark's
// classifier package turning a parsed line into a classified statement
// before the validator runs over it.
package analyze

import (
	"fmt"

	"github.com/contisim/contisim/internal/ast"
	"github.com/contisim/contisim/internal/errs"
	"github.com/contisim/contisim/internal/model"
)

// Result is everything the Function Parser extracts from one section body.
type Result struct {
	Vars        map[string]*model.VarEntry
	Procedurals map[string]*model.ProceduralBlock
	Exprs       []*model.ExprEntry
	StateVars   []*model.StateVar
	// Order lists variable names in original source order, for callers that
	// want a deterministic fallback before the Sorter runs.
	Order []string
}

// Analyze builds a Result from a parsed section.
func Analyze(section *ast.Section) (*Result, error) {
	res := &Result{
		Vars:        map[string]*model.VarEntry{},
		Procedurals: map[string]*model.ProceduralBlock{},
	}

	for _, stmt := range section.Stmts {
		switch s := stmt.(type) {
		case *ast.ProceduralDef:
			block, err := analyzeProcedural(s)
			if err != nil {
				return nil, err
			}
			if _, exists := res.Procedurals[block.Name]; exists {
				return nil, errs.Newf(errs.Authoring, "procedural %q defined more than once", block.Name).WithPos(s.At.Line, s.At.Column)
			}
			res.Procedurals[block.Name] = block

		case *ast.ExprStmt:
			call, ok := s.Expr.(*ast.CallExpr)
			if !ok {
				return nil, errs.Newf(errs.Authoring, "bare expression statement must be a call").WithPos(s.At.Line, s.At.Column)
			}
			switch call.Callee {
			case "end":
				res.Exprs = append(res.Exprs, &model.ExprEntry{Stmt: s})
			case "constant":
				// Declarative; the Constant Manager (internal/constant) reads
				// these directly from the section tree.
			default:
				return nil, errs.Newf(errs.Authoring, "unknown bare-expression callee %q", call.Callee).WithPos(call.At.Line, call.At.Column)
			}

		case *ast.Assignment:
			if err := analyzeAssignment(s, res); err != nil {
				return nil, err
			}

		default:
			return nil, errs.Newf(errs.Authoring, "unexpected top-level statement %T", stmt)
		}
	}

	for _, entry := range res.Vars {
		if call, ok := entry.Stmt.Value.(*ast.CallExpr); ok {
			if _, isProcedural := res.Procedurals[call.Callee]; isProcedural {
				entry.Kind = model.KindProcedural
			}
		}
	}

	return res, nil
}

func analyzeProcedural(s *ast.ProceduralDef) (*model.ProceduralBlock, error) {
	var returnName string
	returns := 0
	var body []ast.Node
	assigned := map[string]bool{}
	for _, param := range s.Params {
		assigned[param] = true
	}
	for _, stmt := range s.Body {
		if ret, ok := stmt.(*ast.ReturnStmt); ok {
			returns++
			returnName = ret.Name
			continue
		}
		if a, ok := stmt.(*ast.Assignment); ok {
			assigned[a.Name] = true
		}
		body = append(body, stmt)
	}
	if returns == 0 {
		return nil, errs.Newf(errs.Authoring, "procedural %q has no return statement", s.Name).WithPos(s.At.Line, s.At.Column)
	}
	if returns > 1 {
		return nil, errs.Newf(errs.Authoring, "procedural %q has more than one return statement", s.Name).WithPos(s.At.Line, s.At.Column)
	}
	if !assigned[returnName] {
		return nil, errs.Newf(errs.Authoring, "procedural %q returns undefined name %q", s.Name, returnName).WithPos(s.At.Line, s.At.Column)
	}
	return &model.ProceduralBlock{Name: s.Name, Params: s.Params, Body: body, Return: returnName}, nil
}

func analyzeAssignment(s *ast.Assignment, res *Result) error {
	if _, exists := res.Vars[s.Name]; exists {
		return errs.Newf(errs.Authoring, "%q is assigned more than once", s.Name).WithPos(s.At.Line, s.At.Column)
	}

	entry := &model.VarEntry{Name: s.Name, Stmt: s}

	if s.Annotated {
		entry.Kind = model.KindAnnAssign
		entry.Deps = collectIdents(s.Value, nil)
		res.Vars[s.Name] = entry
		res.Order = append(res.Order, s.Name)
		return nil
	}

	if call, ok := s.Value.(*ast.CallExpr); ok {
		switch call.Callee {
		case "integ":
			sv, err := analyzeInteg(s, call)
			if err != nil {
				return err
			}
			res.StateVars = append(res.StateVars, sv)
			entry.Kind = model.KindAssign
			entry.Deps = collectIdents(s.Value, nil)
			res.Vars[s.Name] = entry
			res.Order = append(res.Order, s.Name)
			return nil
		case "delay":
			if len(call.Args) != 5 {
				return errs.Newf(errs.Authoring, "delay() expects 5 arguments (x, ic, tdl, nmx, delmin), got %d", len(call.Args)).WithPos(call.At.Line, call.At.Column)
			}
			entry.Kind = model.KindDelay
			entry.Deps = collectIdents(s.Value, nil)
			res.Vars[s.Name] = entry
			res.Order = append(res.Order, s.Name)
			return nil
		}
	}

	entry.Kind = model.KindAssign
	entry.Deps = collectIdents(s.Value, nil)
	res.Vars[s.Name] = entry
	res.Order = append(res.Order, s.Name)
	return nil
}

func analyzeInteg(s *ast.Assignment, call *ast.CallExpr) (*model.StateVar, error) {
	if len(call.Args) != 2 {
		return nil, errs.Newf(errs.Authoring, "integ() expects 2 arguments (derivative, initial condition), got %d", len(call.Args)).WithPos(call.At.Line, call.At.Column)
	}
	derivIdent, ok := call.Args[0].(*ast.Identifier)
	if !ok {
		return nil, errs.Newf(errs.Authoring, "integ()'s first argument must be the name of a derivative expression").WithPos(call.At.Line, call.At.Column)
	}
	sv := &model.StateVar{Name: s.Name, Deriv: derivIdent.Name}
	switch ic := call.Args[1].(type) {
	case *ast.NumberLiteral:
		sv.ICLiteral = ic.Value
	case *ast.Identifier:
		sv.ICName = ic.Name
		sv.ICIsName = true
	default:
		return nil, errs.Newf(errs.Authoring, "integ()'s initial condition must be a literal or a constant name").WithPos(call.At.Line, call.At.Column)
	}
	return sv, nil
}

// collectIdents walks expr and appends every referenced identifier name to
// seen, returning the deduplicated list in first-encountered order. The
// callee of a CallExpr is never a dependency; its arguments are.
func collectIdents(expr ast.Node, seen []string) []string {
	have := map[string]bool{}
	for _, s := range seen {
		have[s] = true
	}
	var walk func(n ast.Node)
	add := func(name string) {
		if !have[name] {
			have[name] = true
			seen = append(seen, name)
		}
	}
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Identifier:
			add(v.Name)
		case *ast.UnaryOp:
			walk(v.Operand)
		case *ast.BinaryOp:
			walk(v.Left)
			walk(v.Right)
		case *ast.IndexExpr:
			walk(v.Object)
			walk(v.Index)
		case *ast.CallExpr:
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.ListLiteral:
			for _, e := range v.Elements {
				walk(e)
			}
		case *ast.NumberLiteral, *ast.BoolLiteral:
			// leaves
		default:
			panic(fmt.Sprintf("collectIdents: unhandled node %T", n))
		}
	}
	walk(expr)
	return seen
}
