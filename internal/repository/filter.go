package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/safecase-systems/safecase/internal/models"
)

// casePredicate is one conjunct of the case filter. The clause contains
// one $%d placeholder per argument; placeholders are numbered when the
// predicate list is composed.
type casePredicate struct {
	clause string
	args   []any
}

// buildCasePredicates translates filter criteria into an ordered list of
// predicates. Absent or "all" values contribute nothing. A status value
// that is neither a group name nor numeric applies no status constraint.
func buildCasePredicates(f models.CaseFilter) []casePredicate {
	preds := make([]casePredicate, 0, 3)

	switch f.Status {
	case "", models.FilterAll:
	case models.StatusGroupOpen, models.StatusGroupClosed:
		preds = append(preds, casePredicate{
			clause: `st."group" = $%d`,
			args:   []any{f.Status},
		})
	default:
		if id, err := strconv.ParseInt(f.Status, 10, 64); err == nil {
			preds = append(preds, casePredicate{
				clause: "c.status_id = $%d",
				args:   []any{id},
			})
		}
	}

	if f.AssignedTo != "" && f.AssignedTo != models.FilterAll {
		if id, err := strconv.ParseInt(f.AssignedTo, 10, 64); err == nil {
			preds = append(preds, casePredicate{
				clause: "c.assigned_to = $%d",
				args:   []any{id},
			})
		}
	}

	// Free-text search is a single OR-group over the incident's title and
	// description and the survivor's name, ANDed with the predicates above.
	// The term is matched as a literal substring, so LIKE metacharacters in
	// the input are escaped.
	if f.Search != "" {
		term := "%" + escapeLikeTerm(f.Search) + "%"
		preds = append(preds, casePredicate{
			clause: `(i.title ILIKE $%d ESCAPE '\' OR i.description ILIKE $%d ESCAPE '\' OR s.name ILIKE $%d ESCAPE '\')`,
			args:   []any{term, term, term},
		})
	}

	return preds
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikeTerm neutralizes %, _ and \ so a search term only ever
// matches itself inside a LIKE pattern.
func escapeLikeTerm(s string) string {
	return likeEscaper.Replace(s)
}

// composePredicates joins predicates into a WHERE clause with positional
// arguments numbered from 1. An empty predicate list yields a clause that
// matches every row.
func composePredicates(preds []casePredicate) (string, []any) {
	clauses := []string{"1=1"}
	args := make([]any, 0)
	argPos := 1

	for _, p := range preds {
		verbs := make([]any, len(p.args))
		for i := range p.args {
			verbs[i] = argPos
			argPos++
		}
		clauses = append(clauses, fmt.Sprintf(p.clause, verbs...))
		args = append(args, p.args...)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}
