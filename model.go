// Package contisim is the authoring surface for continuous-simulation
// models (§2, §6 "Authoring surface"): a Builder collects section source
// text, folds the parser's section-name and sort-modifier tokens into each
// model.Section's Flags the way a decorator would tag a Python section
// function with @collect_constants / @collect_statevars / @sort, and hands
// the resulting sections to the Build Coordinator.
package contisim

import (
	"strings"

	"github.com/contisim/contisim/internal/ast"
	"github.com/contisim/contisim/internal/build"
	"github.com/contisim/contisim/internal/errs"
	"github.com/contisim/contisim/internal/model"
	"github.com/contisim/contisim/internal/parser"
)

// Builder accumulates one model.Section per recognized section name.
type Builder struct {
	sections map[string]*model.Section
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{sections: map[string]*model.Section{}}
}

// AddSection parses one `NAME [sort] { ... }` block and registers it,
// rejecting a second definition of the same section name. Every section
// may declare constants. The `sort` modifier token is the Go-native stand-
// in for the decorator-style @sort tag: writing it on any section forces
// both CollectStateVars and Sort true for that section, the same pair the
// DERIVATIVE section always gets regardless of whether its source wrote
// the modifier (every integ() call in DERIVATIVE defines a state var, so
// both flags are implied).
func (b *Builder) AddSection(source string) error {
	name, sortForced, tree, err := parser.ParseSection(source)
	if err != nil {
		return errs.Newf(errs.Authoring, "parsing section").WithErr(err)
	}
	if !model.ValidNames(name) {
		return errs.Newf(errs.Authoring, "unrecognized section name %q", name)
	}
	if _, exists := b.sections[name]; exists {
		return errs.Newf(errs.Authoring, "section %q is already defined", name)
	}
	forceSort := sortForced || name == model.Derivative
	b.sections[name] = &model.Section{
		Name: name,
		Tree: tree,
		Flags: model.Flags{
			CollectConstants: true,
			CollectStateVars: forceSort,
			Sort:             forceSort,
		},
	}
	return nil
}

// Sections returns the raw syntax trees registered so far, keyed by
// section name, for the Build Coordinator.
func (b *Builder) Sections() map[string]*ast.Section {
	out := make(map[string]*ast.Section, len(b.sections))
	for name, sec := range b.sections {
		out[name] = sec.Tree
	}
	return out
}

// Flags returns the collected per-section metadata flags, for callers that
// want to validate a model's shape before building it (e.g. rejecting a
// DISCRETE section that never got its CollectConstants flag set would
// indicate a Builder bug, not an authoring error).
func (b *Builder) Flags() map[string]model.Flags {
	out := make(map[string]model.Flags, len(b.sections))
	for name, sec := range b.sections {
		out[name] = sec.Flags
	}
	return out
}

// Build runs the Build Coordinator over the sections collected so far.
func (b *Builder) Build(cfg build.Config) (*build.Artifact, error) {
	return build.Build(b.Sections(), cfg)
}

// SplitSections splits a multi-section model file into the individual
// `NAME [sort] { ... }` chunks ParseSection expects, scanning for lines
// that open a new section rather than requiring a single section per
// file. A model file is free to order its sections however it likes;
// INITIAL, DYNAMIC, DERIVATIVE, DISCRETE and TERMINAL are all optional
// except DERIVATIVE and DYNAMIC (enforced later, by the Build Coordinator).
func SplitSections(raw string) []string {
	lines := strings.Split(raw, "\n")
	var chunks []string
	var current []string
	for _, line := range lines {
		if startsSection(line) && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

func startsSection(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, name := range []string{model.Initial, model.Dynamic, model.Derivative, model.Discrete, model.Terminal} {
		if trimmed == name || strings.HasPrefix(trimmed, name+" ") || strings.HasPrefix(trimmed, name+"\t") {
			return true
		}
	}
	return false
}
