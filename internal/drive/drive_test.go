package drive

import (
	"math"
	"testing"

	"github.com/contisim/contisim/internal/analyze"
	"github.com/contisim/contisim/internal/compile"
	"github.com/contisim/contisim/internal/delaybuf"
	"github.com/contisim/contisim/internal/derive"
	"github.com/contisim/contisim/internal/integrate"
	"github.com/contisim/contisim/internal/model"
	"github.com/contisim/contisim/internal/parser"
	"github.com/contisim/contisim/internal/sortsec"
)

func buildDerivative(t *testing.T, src string, isConstant func(string) bool) (*compile.Section, []*model.StateVar, map[string]*derive.Kernel) {
	t.Helper()
	_, _, section, err := parser.ParseSection(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ares, err := analyze.Analyze(section)
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	sres, err := sortsec.Sort(ares)
	if err != nil {
		t.Fatalf("sort error: %v", err)
	}
	kernels, err := derive.Synthesize(ares.StateVars, ares.Vars, ares.Procedurals, sres.DelayIDs, nil, nil, isConstant)
	if err != nil {
		t.Fatalf("synthesize error: %v", err)
	}
	return compile.Compile("DERIVATIVE", sres, nil), ares.StateVars, kernels
}

func TestDriverLinearDecayTrajectory(t *testing.T) {
	isConstant := func(name string) bool { return name == "k" }
	section, stateVars, kernels := buildDerivative(t, `DERIVATIVE sort {
		dAdt = -k * A
		A = integ(dAdt, 10.0)
		end()
	}`, isConstant)

	mgr, err := integrate.New(5, 1.0, 100, 1, kernels)
	if err != nil {
		t.Fatalf("integrate.New error: %v", err)
	}

	d := &Driver{
		StopTime:   1.0,
		CINT:       0.25,
		Constants:  map[string]float64{"k": 1.0},
		StateVars:  stateVars,
		Derivative: section,
		IntegMgr:   mgr,
		DelayMgr:   delaybuf.NewManager(),
		ReportVars: map[string]bool{"A": true},
	}

	result, err := d.Run()
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if result.Columns[0] != "t" || result.Columns[1] != "A" {
		t.Fatalf("unexpected columns: %v", result.Columns)
	}
	if len(result.Rows) == 0 {
		t.Fatal("expected at least one result row")
	}
	for i := 1; i < len(result.Rows); i++ {
		if result.Rows[i][0] < result.Rows[i-1][0] {
			t.Errorf("expected monotonically non-decreasing t, row %d (%v) precedes row %d (%v)", i, result.Rows[i][0], i-1, result.Rows[i-1][0])
		}
	}
	last := result.Rows[len(result.Rows)-1]
	want := 10.0 * math.Exp(-last[0])
	if diff := math.Abs(last[1] - want); diff > 0.05 {
		t.Errorf("expected final A near %v at t=%v, got %v", want, last[0], last[1])
	}
}

func TestDriverResolvesInitialConditionFromConstantName(t *testing.T) {
	isConstant := func(name string) bool { return name == "k" || name == "A0" }
	section, stateVars, kernels := buildDerivative(t, `DERIVATIVE sort {
		dAdt = -k * A
		A = integ(dAdt, A0)
		end()
	}`, isConstant)

	mgr, err := integrate.New(5, 1.0, 10, 1, kernels)
	if err != nil {
		t.Fatalf("integrate.New error: %v", err)
	}
	d := &Driver{
		StopTime:   0.1,
		CINT:       0.1,
		Constants:  map[string]float64{"k": 1.0, "A0": 7.0},
		StateVars:  stateVars,
		Derivative: section,
		IntegMgr:   mgr,
		DelayMgr:   delaybuf.NewManager(),
		ReportVars: map[string]bool{"A": true},
	}
	result, err := d.Run()
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if result.Rows[0][0] != 0 {
		t.Errorf("expected first row at t=0, got %v", result.Rows[0][0])
	}
}

func TestDriverStepSizeMatchesIntegrationManager(t *testing.T) {
	isConstant := func(name string) bool { return name == "k" }
	section, stateVars, kernels := buildDerivative(t, `DERIVATIVE sort {
		dAdt = -k * A
		A = integ(dAdt, 1.0)
		end()
	}`, isConstant)
	mgr, err := integrate.New(5, 2.0, 4, 1, kernels)
	if err != nil {
		t.Fatalf("integrate.New error: %v", err)
	}
	d := &Driver{
		StopTime:   0.5,
		CINT:       0.25,
		Constants:  map[string]float64{"k": 1.0},
		StateVars:  stateVars,
		Derivative: section,
		IntegMgr:   mgr,
		DelayMgr:   delaybuf.NewManager(),
		ReportVars: map[string]bool{"A": true},
	}
	if _, err := d.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	wantStep := 0.25 // CINT/NSTP = 1/4 binds since MAXT=2.0 is larger
	if mgr.StepSize != wantStep {
		t.Errorf("expected step size %v, got %v", wantStep, mgr.StepSize)
	}
}

func TestDriverRequiresDerivativeSection(t *testing.T) {
	d := &Driver{
		StopTime:  1,
		CINT:      1,
		Constants: map[string]float64{},
		IntegMgr:  &integrate.Manager{NSTP: 1},
		DelayMgr:  delaybuf.NewManager(),
	}
	if _, err := d.Run(); err == nil {
		t.Fatal("expected an error when no DERIVATIVE section is configured")
	}
}
