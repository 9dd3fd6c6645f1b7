package build

import (
	"testing"

	"github.com/contisim/contisim/internal/ast"
	"github.com/contisim/contisim/internal/parser"
)

func parseSections(t *testing.T, srcs ...string) map[string]*ast.Section {
	t.Helper()
	out := map[string]*ast.Section{}
	for _, src := range srcs {
		name, _, section, err := parser.ParseSection(src)
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}
		out[name] = section
	}
	return out
}

func TestBuildResolvesDefaultIntegrationSettings(t *testing.T) {
	sections := parseSections(t,
		`DYNAMIC {
			end()
		}`,
		`DERIVATIVE sort {
			constant("k", 1.0)
			dAdt = -k * A
			A = integ(dAdt, 10.0)
			end()
		}`,
	)
	artifact, err := Build(sections, Config{StopTime: 1.0, ReportVars: []string{"A"}})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if artifact.Settings.IALG != defaultIALG {
		t.Errorf("expected default IALG %d, got %d", defaultIALG, artifact.Settings.IALG)
	}
	if artifact.Settings.CINT != defaultCINT {
		t.Errorf("expected default CINT %d, got %d", defaultCINT, artifact.Settings.CINT)
	}

	result, err := artifact.Driver.Run()
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if len(result.Rows) == 0 {
		t.Fatal("expected at least one result row")
	}
}

func TestBuildExtractsIntegrationSettingsFromDynamic(t *testing.T) {
	sections := parseSections(t,
		`DYNAMIC {
			IALG = 5
			NSTP = 20
			MAXT = 0.5
			CINT = 2
			end()
		}`,
		`DERIVATIVE sort {
			constant("k", 1.0)
			dAdt = -k * A
			A = integ(dAdt, 10.0)
			end()
		}`,
	)
	artifact, err := Build(sections, Config{StopTime: 2.0})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if artifact.Settings.NSTP != 20 {
		t.Errorf("expected NSTP 20, got %d", artifact.Settings.NSTP)
	}
	if artifact.Settings.MAXT != 0.5 {
		t.Errorf("expected MAXT 0.5, got %v", artifact.Settings.MAXT)
	}
	if artifact.Settings.CINT != 2 {
		t.Errorf("expected CINT 2 from DYNAMIC, got %d", artifact.Settings.CINT)
	}
}

func TestBuildCallerCINTOverridesDynamic(t *testing.T) {
	sections := parseSections(t,
		`DYNAMIC {
			CINT = 2
			end()
		}`,
		`DERIVATIVE sort {
			constant("k", 1.0)
			dAdt = -k * A
			A = integ(dAdt, 10.0)
			end()
		}`,
	)
	artifact, err := Build(sections, Config{StopTime: 1.0, CINT: 5, CINTSet: true})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if artifact.Settings.CINT != 5 {
		t.Errorf("expected caller override CINT 5, got %d", artifact.Settings.CINT)
	}
}

func TestBuildRequiresDerivativeSection(t *testing.T) {
	sections := parseSections(t, `DYNAMIC {
		end()
	}`)
	if _, err := Build(sections, Config{StopTime: 1.0}); err == nil {
		t.Fatal("expected an error when no DERIVATIVE section is present")
	}
}

// A model with DERIVATIVE (and, here, INITIAL) but no DYNAMIC section must
// be rejected at build time rather than silently falling back to default
// integration settings.
func TestBuildRequiresDynamicSection(t *testing.T) {
	sections := parseSections(t,
		`INITIAL {
			constant("A0", 10.0)
			end()
		}`,
		`DERIVATIVE sort {
			constant("k", 1.0)
			dAdt = -k * A
			A = integ(dAdt, 10.0)
			end()
		}`,
	)
	if _, err := Build(sections, Config{StopTime: 1.0}); err == nil {
		t.Fatal("expected an error when no DYNAMIC section is present alongside DERIVATIVE")
	}
}

func TestBuildReportVarsIncludeStateVariables(t *testing.T) {
	sections := parseSections(t,
		`DYNAMIC {
			end()
		}`,
		`DERIVATIVE sort {
			constant("k", 1.0)
			dAdt = -k * A
			A = integ(dAdt, 10.0)
			end()
		}`,
	)
	artifact, err := Build(sections, Config{StopTime: 0.1})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if !artifact.Driver.ReportVars["A"] {
		t.Errorf("expected state variable A to be included in the report set by default")
	}
}
