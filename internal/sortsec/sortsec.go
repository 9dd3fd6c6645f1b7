// Package sortsec implements the Sorter (§4.B): it takes a Function
// Parser Result and produces a calculation order in which every name is
// computed only after its dependencies, in the manner of AcslSort's
// pick-next-variable loop in the retrieved original implementation,
// re-expressed as an explicit Go topological sort with a stable,
// deterministic pick order (map iteration in Go is randomized, so this
// walks a fixed candidate list rather than ranging over a set).
package sortsec

import (
	"sort"
	"strconv"

	"github.com/contisim/contisim/internal/analyze"
	"github.com/contisim/contisim/internal/ast"
	"github.com/contisim/contisim/internal/errs"
	"github.com/contisim/contisim/internal/model"
	"github.com/minio/highwayhash"
)

// Result is the sorted, lifted statement list ready for the Section
// Compiler (internal/compile) and the Derivative Synthesizer (internal/derive).
type Result struct {
	// Order lists variable names in calculation order.
	Order []string
	Vars  map[string]*model.VarEntry
	// Procedurals is analyze.Result's map, passed through unchanged; the
	// interpreter looks blocks up in it by name when an assignment calls one.
	Procedurals map[string]*model.ProceduralBlock
	// Stmts is the final statement list: sorted assignments (a procedural
	// block's definition is not in it; the assignment calling the block
	// stands at its sorted position), followed by the retained expression
	// statements (end()) in original order.
	Stmts []ast.Node
	// DelayIDs maps a delay-kind variable name to its stable identifier.
	DelayIDs map[string]string
}

// hashKey is a fixed 32-byte key; highwayhash requires one but the
// identifiers it produces only need to be stable within one build, not
// cryptographically keyed, so a fixed zero key is sufficient.
var hashKey = make([]byte, 32)

// Sort produces a Result from an analyze.Result.
func Sort(in *analyze.Result) (*Result, error) {
	stateVarNames := make(map[string]bool, len(in.StateVars))
	for _, sv := range in.StateVars {
		stateVarNames[sv.Name] = true
	}

	order, err := topoSort(in.Vars, stateVarNames)
	if err != nil {
		return nil, err
	}

	delayIDs := map[string]string{}
	for _, name := range order {
		entry := in.Vars[name]
		if entry.Kind == model.KindDelay {
			entry.DelayID = delayID(entry)
			delayIDs[name] = entry.DelayID
		}
	}

	stmts := make([]ast.Node, 0, len(order)+len(in.Exprs))
	for _, name := range order {
		stmts = append(stmts, in.Vars[name].Stmt)
	}
	for _, e := range in.Exprs {
		stmts = append(stmts, e.Stmt)
	}

	return &Result{
		Order:       order,
		Vars:        in.Vars,
		Procedurals: in.Procedurals,
		Stmts:       stmts,
		DelayIDs:    delayIDs,
	}, nil
}

// topoSort implements the pick-next-variable algorithm: repeatedly choose
// any not-yet-placed variable whose dependencies are all either already
// placed or external (a constant, t, a state variable fed back by the
// Simulation Driver, or some other name that is not itself a defined
// variable), preferring the lowest name alphabetically among equally-ready
// candidates so the result is deterministic across runs. A state variable
// is always available as an input to its own derivative expression (the
// defining case for an ODE, e.g. `dAdt = -k*A; A = integ(dAdt, ic)`), so
// stateVarNames is excluded from the "must already be placed" set the same
// way internal/derive's reverse-reachability walk stops at a state
// variable's own name.
func topoSort(vars map[string]*model.VarEntry, stateVarNames map[string]bool) ([]string, error) {
	remaining := make([]string, 0, len(vars))
	for name := range vars {
		remaining = append(remaining, name)
	}
	sort.Strings(remaining)

	placed := map[string]bool{}
	order := make([]string, 0, len(vars))

	for len(remaining) > 0 {
		pickedIdx := -1
		for i, name := range remaining {
			if dependenciesSatisfied(vars[name].Deps, vars, stateVarNames, placed) {
				pickedIdx = i
				break
			}
		}
		if pickedIdx == -1 {
			return nil, errs.Newf(errs.Authoring, "cyclic dependency among remaining variables: %v", remaining)
		}
		name := remaining[pickedIdx]
		order = append(order, name)
		placed[name] = true
		remaining = append(remaining[:pickedIdx], remaining[pickedIdx+1:]...)
	}
	return order, nil
}

// dependenciesSatisfied reports whether every dependency of a variable is
// ready to be read: either it is not itself a defined variable (a constant
// or t), it is a state variable (always available, fed by the Simulation
// Driver rather than computed in calculation order), or it has already
// been placed in the calculation order.
func dependenciesSatisfied(deps []string, vars map[string]*model.VarEntry, stateVarNames map[string]bool, placed map[string]bool) bool {
	for _, d := range deps {
		if stateVarNames[d] {
			continue
		}
		if _, isVariable := vars[d]; isVariable && !placed[d] {
			return false
		}
	}
	return true
}

// delayID assigns a stable identifier to a delay call site, grounded on
// the viant-linager Hash helper's highwayhash.New64 usage: hash the
// serialized argument list plus target name so the identifier is stable
// across rebuilds of the same model but distinct per call site.
func delayID(entry *model.VarEntry) string {
	call := entry.Stmt.Value.(*ast.CallExpr)
	payload := entry.Name + "|"
	for _, arg := range call.Args {
		payload += arg.String() + ","
	}
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		panic(err) // hashKey length is fixed and valid at compile time
	}
	h.Write([]byte(payload))
	return strconv.FormatUint(h.Sum64(), 16)
}
