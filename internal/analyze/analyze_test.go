package analyze

import (
	"testing"

	"github.com/contisim/contisim/internal/parser"
)

func TestAnalyzeLinearDecay(t *testing.T) {
	_, _, section, err := parser.ParseSection(`DERIVATIVE sort {
		dAdt = -k * A / vol
		A = integ(dAdt, 3.81)
		end()
	}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := Analyze(section)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Vars) != 2 {
		t.Fatalf("expected 2 vars, got %d", len(res.Vars))
	}
	if len(res.StateVars) != 1 || res.StateVars[0].Name != "A" || res.StateVars[0].Deriv != "dAdt" {
		t.Fatalf("unexpected state vars: %+v", res.StateVars)
	}
	if res.StateVars[0].ICIsName {
		t.Fatalf("expected literal IC, got name IC")
	}
	if len(res.Exprs) != 1 {
		t.Fatalf("expected 1 retained expr (end()), got %d", len(res.Exprs))
	}
	deps := res.Vars["A"].Deps
	found := false
	for _, d := range deps {
		if d == "dAdt" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected A to depend on dAdt, got %v", deps)
	}
}

func TestAnalyzeProceduralBlock(t *testing.T) {
	_, _, section, err := parser.ParseSection(`DERIVATIVE sort {
		procedural helper(a, b) {
			c = a + b
			return c
		}
		x = helper(p, q)
		end()
	}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := Analyze(section)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	block, ok := res.Procedurals["helper"]
	if !ok {
		t.Fatalf("expected procedural helper to be registered")
	}
	if block.Return != "c" {
		t.Errorf("expected return name c, got %s", block.Return)
	}
	deps := res.Vars["x"].Deps
	if len(deps) != 2 || deps[0] != "p" || deps[1] != "q" {
		t.Errorf("expected deps [p q], got %v", deps)
	}
}

func TestAnalyzeRejectsMultipleReturns(t *testing.T) {
	_, _, section, err := parser.ParseSection(`DERIVATIVE sort {
		procedural helper(a) {
			return a
			return a
		}
		end()
	}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := Analyze(section); err == nil {
		t.Fatal("expected an authoring error for multiple returns")
	}
}

func TestAnalyzeRejectsUnknownBareCall(t *testing.T) {
	_, _, section, err := parser.ParseSection(`DERIVATIVE sort {
		foo()
	}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := Analyze(section); err == nil {
		t.Fatal("expected an authoring error for unknown bare call")
	}
}

func TestAnalyzeRejectsDuplicateAssignment(t *testing.T) {
	_, _, section, err := parser.ParseSection(`DERIVATIVE sort {
		x = 1
		x = 2
		end()
	}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := Analyze(section); err == nil {
		t.Fatal("expected an authoring error for duplicate assignment")
	}
}

func TestAnalyzeDelayStatement(t *testing.T) {
	_, _, section, err := parser.ParseSection(`DERIVATIVE sort {
		y = delay(x, 0.0, 2.0, 50, 0.01)
		end()
	}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := Analyze(section)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Vars["y"].Kind.String() != "delay" {
		t.Errorf("expected delay kind, got %s", res.Vars["y"].Kind)
	}
}
