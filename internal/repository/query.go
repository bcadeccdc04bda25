package repository

import (
	"fmt"
	"strings"
)

// predicates collects WHERE conditions and their bound arguments.
//
// Each condition is "<column> = $n" where n is the position of its argument,
// so caller values only ever travel as parameters. Columns come from the
// statements in this package, never from callers. Conditions keep the
// order they were added in.
type predicates struct {
	conds []string
	args  []any
}

func (p *predicates) eq(column string, arg any) {
	p.args = append(p.args, arg)
	p.conds = append(p.conds, fmt.Sprintf("%s = $%d", column, len(p.args)))
}

// eqOpt adds the condition only when arg is present.
func (p *predicates) eqOpt(column string, arg *int) {
	if arg != nil {
		p.eq(column, *arg)
	}
}

// build assembles base, the WHERE clause (omitted when empty), and tail.
func (p *predicates) build(base, tail string) string {
	var sb strings.Builder
	sb.WriteString(base)
	if len(p.conds) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(p.conds, "\n  AND "))
	}
	if tail != "" {
		sb.WriteString("\n")
		sb.WriteString(tail)
	}
	return sb.String()
}
