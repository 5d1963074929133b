package postgres

import (
	"fmt"

	"github.com/baechuer/ticketing/services/event-service/internal/domain"
)

// statusPredicateSQL renders sf as AND-able conditions with placeholders
// starting at argN. It returns the next free placeholder index.
func statusPredicateSQL(sf domain.StatusFilter, argN int) ([]string, []any, int) {
	var where []string
	var args []any
	if sf.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argN))
		args = append(args, string(sf.Status))
		argN++
	}
	bw, ba, argN := timeBoundsSQL(sf, argN)
	return append(where, bw...), append(args, ba...), argN
}

// timeBoundsSQL renders only the start/end bounds of sf.
func timeBoundsSQL(sf domain.StatusFilter, argN int) ([]string, []any, int) {
	var where []string
	var args []any
	add := func(col string, b *domain.TimeBound) {
		if b == nil {
			return
		}
		where = append(where, fmt.Sprintf("%s %s $%d", col, compareSQL(b.Op), argN))
		args = append(args, b.Value.UTC())
		argN++
	}
	add("start_time", sf.Start)
	add("end_time", sf.End)
	return where, args, argN
}

func compareSQL(op domain.CompareOp) string {
	switch op {
	case domain.OpGT:
		return ">"
	case domain.OpLTE:
		return "<="
	default:
		panic(fmt.Sprintf("postgres: unhandled compare op %q", op))
	}
}
