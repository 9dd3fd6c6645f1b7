// Package ast defines the node types produced by internal/parser.
package ast

import "fmt"

// Position is a 1-indexed source location.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
