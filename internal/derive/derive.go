// Package derive implements the Derivative Synthesizer (§4.C): for every
// state variable's integ() call it walks backward from the named
// derivative expression, slicing out exactly the statements needed to
// recompute it, and materializes the slice as a typed Go closure instead
// of generating and compiling source text — the reverse-reachability walk
// here mirrors IntegFunctionCreator._create_dependency_map in the
// retrieved original implementation, breadth-first and with a
// deterministic traversal order instead of Python set iteration.
package derive

import (
	"sort"

	"github.com/contisim/contisim/internal/ast"
	"github.com/contisim/contisim/internal/errs"
	"github.com/contisim/contisim/internal/model"
	"github.com/contisim/contisim/internal/runtime"
)

// Kernel is a synthesized derivative: calling Eval recomputes the named
// derivative expression from the current simulation state.
type Kernel struct {
	DerivName string
	StateVar  string
	// ConstDeps and StateVarDeps record exactly the names this kernel reads,
	// for introspection and the minimality tests in internal/derive's test
	// suite: a kernel must never read a name it does not depend on.
	ConstDeps    []string
	StateVarDeps []string
	Body         []ast.Node

	interp *runtime.Interpreter
}

// Eval recomputes the derivative at time t given the current value of
// every state variable and every constant in scope.
func (k *Kernel) Eval(t float64, states, consts map[string]float64) (float64, error) {
	scope := runtime.Scope{"t": t}
	for _, name := range k.StateVarDeps {
		v, ok := states[name]
		if !ok {
			return 0, errs.Newf(errs.RuntimeValidation, "kernel %s requires state variable %q", k.DerivName, name)
		}
		scope[name] = v
	}
	for _, name := range k.ConstDeps {
		v, ok := consts[name]
		if !ok {
			return 0, errs.Newf(errs.RuntimeValidation, "kernel %s requires constant %q", k.DerivName, name)
		}
		scope[name] = v
	}
	if err := k.interp.Exec(k.Body, scope); err != nil {
		return 0, err
	}
	result, ok := scope[k.DerivName]
	if !ok {
		return 0, errs.Newf(errs.RuntimeValidation, "kernel %s did not define %q", k.DerivName, k.DerivName)
	}
	return result, nil
}

// Synthesize builds one Kernel per state variable.
func Synthesize(
	stateVars []*model.StateVar,
	vars map[string]*model.VarEntry,
	procedurals map[string]*model.ProceduralBlock,
	delayIDs map[string]string,
	lists map[string][]float64,
	delayHook func(delayID string, args []float64) (float64, error),
	isConstant func(string) bool,
) (map[string]*Kernel, error) {
	stateVarNames := map[string]bool{}
	for _, sv := range stateVars {
		stateVarNames[sv.Name] = true
	}

	interp := runtime.New()
	interp.Procedurals = procedurals
	interp.DelayIDs = delayIDs
	interp.Lists = lists
	interp.Hooks.Delay = delayHook

	kernels := map[string]*Kernel{}
	for _, sv := range stateVars {
		k, err := slice(sv, vars, stateVarNames, isConstant, interp)
		if err != nil {
			return nil, err
		}
		kernels[sv.Deriv] = k
	}
	return kernels, nil
}

func slice(
	sv *model.StateVar,
	vars map[string]*model.VarEntry,
	stateVarNames map[string]bool,
	isConstant func(string) bool,
	interp *runtime.Interpreter,
) (*Kernel, error) {
	constDeps := map[string]bool{}
	stateVarDeps := map[string]bool{}
	calcOrder := map[string]int{}
	visited := map[string]bool{}
	order := 0

	queue := []string{sv.Deriv}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		// t is checked before constants: the Constant Manager pre-registers
		// it, but Eval binds it to the time argument.
		if cur == "t" {
			continue
		}
		if isConstant(cur) {
			constDeps[cur] = true
			continue
		}
		if cur == sv.Name || stateVarNames[cur] {
			stateVarDeps[cur] = true
			continue
		}
		entry, ok := vars[cur]
		if !ok {
			return nil, errs.Newf(errs.Authoring, "derivative %q depends on undefined name %q", sv.Deriv, cur)
		}
		if cur != sv.Deriv {
			order++
			calcOrder[cur] = order
		}
		for _, dep := range entry.Deps {
			if !visited[dep] {
				queue = append(queue, dep)
			}
		}
	}

	intermediates := make([]string, 0, len(calcOrder))
	for name := range calcOrder {
		intermediates = append(intermediates, name)
	}
	sort.Slice(intermediates, func(i, j int) bool {
		return calcOrder[intermediates[i]] > calcOrder[intermediates[j]]
	})

	body := make([]ast.Node, 0, len(intermediates)+1)
	for _, name := range intermediates {
		body = append(body, vars[name].Stmt)
	}
	body = append(body, vars[sv.Deriv].Stmt)

	constNames := make([]string, 0, len(constDeps))
	for name := range constDeps {
		constNames = append(constNames, name)
	}
	sort.Strings(constNames)
	stateNames := make([]string, 0, len(stateVarDeps))
	for name := range stateVarDeps {
		stateNames = append(stateNames, name)
	}
	sort.Strings(stateNames)

	return &Kernel{
		DerivName:    sv.Deriv,
		StateVar:     sv.Name,
		ConstDeps:    constNames,
		StateVarDeps: stateNames,
		Body:         body,
		interp:       interp,
	}, nil
}
