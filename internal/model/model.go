// Package model holds the data types shared across the build pipeline:
// sections, the variable/expression maps produced by analysis, state
// variables, procedural blocks, delay entries and integration settings.
package model

import "github.com/contisim/contisim/internal/ast"

// Kind classifies a VariableMap entry (§3, "Variable Map entry").
type Kind int

const (
	KindAssign Kind = iota
	KindAnnAssign
	KindProcedural
	KindDelay
)

func (k Kind) String() string {
	switch k {
	case KindAssign:
		return "assign"
	case KindAnnAssign:
		return "ann-assign"
	case KindProcedural:
		return "procedural"
	case KindDelay:
		return "delay"
	default:
		return "unknown"
	}
}

// VarEntry is one Variable Map entry: the statement that defines a name,
// every identifier its expression reads (unfiltered — constants, t, and
// state variables are still present; the Sorter and Derivative Synthesizer
// each decide which of those are "always available" rather than blocking
// dependencies), and its statement kind.
type VarEntry struct {
	Name  string
	Stmt  *ast.Assignment
	Deps  []string
	Kind  Kind
	// DelayID is the sorter-assigned stable identifier for kind == KindDelay.
	DelayID string
}

// ExprEntry is a retained non-assigning statement (the `end()` marker).
type ExprEntry struct {
	Stmt *ast.ExprStmt
}

// ProceduralBlock is a nested helper lifted above the section by the sorter.
type ProceduralBlock struct {
	Name   string
	Params []string
	Body   []ast.Node
	Return string
}

// StateVar describes one integration call: `Name = integ(Deriv, IC)`.
type StateVar struct {
	Name string
	// Deriv is the name of the derivative expression (first positional
	// argument to integ); it must be a plain identifier.
	Deriv string
	// ICLiteral holds the literal initial-condition value when IC was not
	// given by constant name (ICIsName == false).
	ICLiteral string
	// ICName holds the constant name when the initial condition was given
	// by reference.
	ICName    string
	ICIsName  bool
}

// IntegrationSettings are the IALG/NSTP/MAXT/CINT values collected from
// DYNAMIC (§3, "Integration Settings").
type IntegrationSettings struct {
	IALG int
	NSTP int
	MAXT float64
	CINT int
	// CINTSet records whether DYNAMIC assigned CINT explicitly, since an
	// explicit 0 is distinguishable from "not present" during resolution
	// (§4.H step 5).
	CINTSet bool
}

// Flags are the per-section metadata flags a decorator would set in the
// authoring surface (§3 "Section", §6 "Authoring surface").
type Flags struct {
	CollectConstants bool
	CollectStateVars bool
	Sort             bool
}

// Section is one labeled section: its raw syntax tree, metadata flags and,
// after sorting/compilation, the derived artifacts hung off it by later
// pipeline stages.
type Section struct {
	Name  string
	Tree  *ast.Section
	Flags Flags
}

// Valid section names, in the order spec.md lists them.
const (
	Initial    = "INITIAL"
	Dynamic    = "DYNAMIC"
	Derivative = "DERIVATIVE"
	Discrete   = "DISCRETE"
	Terminal   = "TERMINAL"
)

// ValidNames reports whether name is one of the five recognized sections.
func ValidNames(name string) bool {
	switch name {
	case Initial, Dynamic, Derivative, Discrete, Terminal:
		return true
	default:
		return false
	}
}
