package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/ticketing/services/event-service/internal/application/event"
	"github.com/baechuer/ticketing/services/event-service/internal/domain"
)

func (r *Repo) ListPublicTimeKeyset(
	ctx context.Context,
	f event.ListFilter,
	hasCursor bool,
	afterStart time.Time,
	afterID string,
) ([]*domain.Event, error) {

	where, args, argN, _ := buildPublicBaseWhere(f)

	if hasCursor {
		where = append(where, fmt.Sprintf("(start_time, id) > ($%d, $%d)", argN, argN+1))
		args = append(args, afterStart.UTC(), afterID)
		argN += 2
	}

	q := `SELECT` + eventColumns + `
FROM events
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY start_time ASC, id ASC
LIMIT $` + fmt.Sprint(argN)

	args = append(args, f.PageSize)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list public events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *Repo) ListPublicRelevanceKeyset(
	ctx context.Context,
	f event.ListFilter,
	hasCursor bool,
	afterRank float64,
	afterStart time.Time,
	afterID string,
) ([]*domain.Event, []float64, error) {

	where, args, argN, qPos := buildPublicBaseWhere(f)
	if qPos == 0 {
		return nil, nil, domain.ErrValidation("q required for relevance sort")
	}

	rankSQL := fmt.Sprintf("ts_rank_cd(search_vector, to_tsquery('simple', $%d))", qPos)

	// ORDER BY rank DESC, start_time ASC, id ASC
	if hasCursor {
		where = append(where, fmt.Sprintf(
			"(%s < $%d OR (%s = $%d AND (start_time, id) > ($%d, $%d)))",
			rankSQL, argN, rankSQL, argN, argN+1, argN+2))
		args = append(args, afterRank, afterStart.UTC(), afterID)
		argN += 3
	}

	q := `SELECT` + eventColumns + `,
  ` + rankSQL + ` AS rank
FROM events
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY rank DESC, start_time ASC, id ASC
LIMIT $` + fmt.Sprint(argN)

	args = append(args, f.PageSize)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("search public events: %w", err)
	}
	defer rows.Close()

	var items []*domain.Event
	var ranks []float64
	for rows.Next() {
		var rank float64
		e, err := scanEvent(rows, &rank)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, e)
		ranks = append(ranks, rank)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return items, ranks, nil
}

// buildPublicBaseWhere returns the shared conditions, their args, the next
// placeholder index and the placeholder of the tsquery (0 when there is none).
// Public listings only ever see published rows; f.Predicate narrows them by time.
func buildPublicBaseWhere(f event.ListFilter) ([]string, []any, int, int) {
	where, args, argN := timeBoundsSQL(f.Predicate, 1)
	where = append([]string{"status = 'published'"}, where...)
	qPos := 0

	add := func(condFmt string, v any) {
		where = append(where, fmt.Sprintf(condFmt, argN))
		args = append(args, v)
		argN++
	}

	if city := domain.NormalizeCity(f.City); city != "" {
		add("city_norm = $%d", city)
	}
	if category := strings.TrimSpace(f.Category); category != "" {
		add("category = $%d", category)
	}
	if f.From != nil {
		add("start_time >= $%d", f.From.UTC())
	}
	if f.To != nil {
		add("start_time <= $%d", f.To.UTC())
	}
	if q := fmtTsQuery(f.Query); q != "" {
		qPos = argN
		add("search_vector @@ to_tsquery('simple', $%d)", q)
	}

	return where, args, argN, qPos
}

// fmtTsQuery turns free text into a prefix-matching AND query, dropping
// anything to_tsquery would choke on.
func fmtTsQuery(q string) string {
	q = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' {
			return r
		}
		return -1
	}, q)

	words := strings.Fields(q)
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = w + ":*"
	}
	return strings.Join(words, " & ")
}
