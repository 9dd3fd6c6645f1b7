// Package compile implements the Section Compiler (§4.D): it takes a
// Sorter Result and materializes a callable section body, with helper
// calls to the declarative constant() operator already stripped (they
// were never added to the Sorter's statement list in the first place,
// since the Function Parser skips them and the Constant Manager reads
// them straight from the section tree) and integ()/delay() calls left in place to dispatch through
// caller-supplied hooks at run time, matching how SignatureModifier and
// CallRemover rewrite a section's call site in the retrieved original
// implementation without touching integ/delay calls.
package compile

import (
	"github.com/contisim/contisim/internal/ast"
	"github.com/contisim/contisim/internal/runtime"
	"github.com/contisim/contisim/internal/sortsec"
)

// Section is a compiled, callable section body. An empty Stmts list (a
// section with no statements at all) is a valid, no-op Section.
type Section struct {
	Name   string
	Stmts  []ast.Node
	interp *runtime.Interpreter
}

// Compile materializes a Section from a Sorter Result.
func Compile(name string, sorted *sortsec.Result, lists map[string][]float64) *Section {
	if lists == nil {
		lists = map[string][]float64{}
	}
	return &Section{
		Name:  name,
		Stmts: sorted.Stmts,
		interp: &runtime.Interpreter{
			Procedurals: sorted.Procedurals,
			DelayIDs:    sorted.DelayIDs,
			Lists:       lists,
		},
	}
}

// Run executes the compiled section's statements against scope, mutating
// it in place. hooks supplies the integ/delay dispatch for this call,
// since both close over the Simulation Driver's per-step state rather
// than anything known at compile time.
func (s *Section) Run(scope runtime.Scope, hooks runtime.Hooks) error {
	s.interp.Hooks = hooks
	return s.interp.Exec(s.Stmts, scope)
}
