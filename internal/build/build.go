// Package build implements the Build Coordinator (§4.H): the fixed
// nine-step pipeline that turns a parsed model (one ast.Section per
// recognized section name) plus caller-supplied run configuration into a
// ready-to-run Simulation Driver. Grounded on the overall shape of
// AcslRun's setup phase in the retrieved original implementation, which
// performs the same collect-sort-synthesize-compile sequence before
// entering its stepping loop, re-expressed here as an explicit pipeline
// with each stage's artifact threaded to the next rather than instance
// attributes set by side effect.
package build

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/contisim/contisim/internal/analyze"
	"github.com/contisim/contisim/internal/ast"
	"github.com/contisim/contisim/internal/compile"
	"github.com/contisim/contisim/internal/constant"
	"github.com/contisim/contisim/internal/delaybuf"
	"github.com/contisim/contisim/internal/derive"
	"github.com/contisim/contisim/internal/drive"
	"github.com/contisim/contisim/internal/errs"
	"github.com/contisim/contisim/internal/integrate"
	"github.com/contisim/contisim/internal/model"
	"github.com/contisim/contisim/internal/sortsec"
)

// Config carries the run-level inputs that are not themselves part of the
// authored model: how long to run, what to report, and the integration
// settings the caller wants to override rather than take from DYNAMIC.
type Config struct {
	StopTime   float64
	ReportVars []string
	CINT       int
	CINTSet    bool
}

var sectionOrder = []string{model.Initial, model.Dynamic, model.Derivative, model.Discrete, model.Terminal}

// Artifact is the fully built simulation, tagged with the build that
// produced it.
type Artifact struct {
	ID       string
	Settings model.IntegrationSettings
	Driver   *drive.Driver
}

// Build runs the nine-step pipeline: (1) collect declared constants across
// every section, (2) analyze the DERIVATIVE section for its variable map
// and state variables, (3) sort DERIVATIVE's statements into calculation
// order, (4) extract integration settings from DYNAMIC, (5) resolve CINT
// by precedence (explicit caller override, then DYNAMIC's declaration,
// then a built-in default), (6) synthesize one derivative kernel per
// state variable, (7) construct the Integration Manager, (8) analyze,
// sort and compile every present section, and (9) assemble the
// Simulation Driver.
func Build(sections map[string]*ast.Section, cfg Config) (*Artifact, error) {
	id := uuid.NewString()

	consts := constant.New()
	for _, name := range sectionOrder {
		sec, ok := sections[name]
		if !ok {
			continue
		}
		if err := consts.CollectDeclared(sec); err != nil {
			return nil, err
		}
	}

	derivativeSection, ok := sections[model.Derivative]
	if !ok {
		return nil, errs.New(errs.Configuration, "a DERIVATIVE section is required to build a simulation")
	}
	// DERIVATIVE needs DYNAMIC's integration settings and stepping cadence;
	// DISCRETE (fired on that same cadence) is covered transitively, since
	// Build never runs without a DERIVATIVE section present.
	if _, hasDynamic := sections[model.Dynamic]; !hasDynamic {
		return nil, errs.New(errs.Configuration, "a DYNAMIC section is required alongside DERIVATIVE or DISCRETE")
	}
	derivAnalysis, err := analyze.Analyze(derivativeSection)
	if err != nil {
		return nil, err
	}
	derivSorted, err := sortsec.Sort(derivAnalysis)
	if err != nil {
		return nil, err
	}

	settings := extractIntegrationSettings(sections[model.Dynamic])
	resolveCINT(&settings, cfg)

	kernels, err := derive.Synthesize(
		derivAnalysis.StateVars,
		derivAnalysis.Vars,
		derivAnalysis.Procedurals,
		derivSorted.DelayIDs,
		consts.Lists(),
		nil, // delay() is not resolved inside derivative kernel slices; see DESIGN.md
		consts.IsConstant,
	)
	if err != nil {
		return nil, err
	}

	integMgr, err := integrate.New(settings.IALG, settings.MAXT, settings.NSTP, settings.CINT, kernels)
	if err != nil {
		return nil, err
	}

	compiled, err := compileSections(sections, consts)
	if err != nil {
		return nil, err
	}

	reportVars := map[string]bool{}
	for _, name := range cfg.ReportVars {
		reportVars[name] = true
	}
	for _, sv := range derivAnalysis.StateVars {
		reportVars[sv.Name] = true
	}

	d := &drive.Driver{
		StopTime:   cfg.StopTime,
		CINT:       float64(settings.CINT),
		Constants:  consts.Floats(),
		Lists:      consts.Lists(),
		StateVars:  derivAnalysis.StateVars,
		Derivative: compiled[model.Derivative],
		Dynamic:    compiled[model.Dynamic],
		Discrete:   compiled[model.Discrete],
		Terminal:   compiled[model.Terminal],
		IntegMgr:   integMgr,
		DelayMgr:   delaybuf.NewManager(),
		ReportVars: reportVars,
	}

	return &Artifact{ID: id, Settings: settings, Driver: d}, nil
}

func compileSections(sections map[string]*ast.Section, consts *constant.Manager) (map[string]*compile.Section, error) {
	out := map[string]*compile.Section{}
	for _, name := range sectionOrder {
		sec, ok := sections[name]
		if !ok {
			continue
		}
		ares, err := analyze.Analyze(sec)
		if err != nil {
			return nil, errs.Newf(errs.Authoring, "analyzing %s", name).WithSection(name).WithErr(err)
		}
		sres, err := sortsec.Sort(ares)
		if err != nil {
			return nil, errs.Newf(errs.Authoring, "sorting %s", name).WithSection(name).WithErr(err)
		}
		out[name] = compile.Compile(name, sres, consts.Lists())
	}
	return out, nil
}

// Default integration settings used when DYNAMIC does not declare them:
// fourth-order Runge-Kutta, ten sub-steps per communication interval, and
// a maximum step large enough that CINT/NSTP always binds.
const (
	defaultIALG = 5
	defaultNSTP = 10
	defaultMAXT = 1e6
	defaultCINT = 1
)

// extractIntegrationSettings scans DYNAMIC's top-level assignments for the
// literal IALG/NSTP/MAXT/CINT declarations (§3 "Integration Settings"),
// falling back to the defaults above for anything not assigned.
func extractIntegrationSettings(dynamic *ast.Section) model.IntegrationSettings {
	settings := model.IntegrationSettings{
		IALG: defaultIALG,
		NSTP: defaultNSTP,
		MAXT: defaultMAXT,
		CINT: defaultCINT,
	}
	if dynamic == nil {
		return settings
	}
	for _, stmt := range dynamic.Stmts {
		a, ok := stmt.(*ast.Assignment)
		if !ok {
			continue
		}
		lit, ok := a.Value.(*ast.NumberLiteral)
		if !ok {
			continue
		}
		switch a.Name {
		case "IALG":
			if v, err := strconv.Atoi(lit.Value); err == nil {
				settings.IALG = v
			}
		case "NSTP":
			if v, err := strconv.Atoi(lit.Value); err == nil {
				settings.NSTP = v
			}
		case "MAXT":
			if v, err := strconv.ParseFloat(lit.Value, 64); err == nil {
				settings.MAXT = v
			}
		case "CINT":
			if v, err := strconv.Atoi(lit.Value); err == nil {
				settings.CINT = v
				settings.CINTSet = true
			}
		}
	}
	return settings
}

// resolveCINT applies the precedence order: an explicit run-config
// override always wins, otherwise DYNAMIC's own declaration stands,
// otherwise the default already populated by extractIntegrationSettings.
// The override is an int, so it is applied as given; a non-integer CINT
// literal in DYNAMIC fails strconv.Atoi in extractIntegrationSettings and
// leaves the default in place.
func resolveCINT(settings *model.IntegrationSettings, cfg Config) {
	if cfg.CINTSet {
		settings.CINT = cfg.CINT
		settings.CINTSet = true
	}
}
