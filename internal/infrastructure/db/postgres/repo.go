package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/baechuer/ticketing/services/event-service/internal/application/event"
	"github.com/baechuer/ticketing/services/event-service/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repo) Create(ctx context.Context, e *domain.Event) error {
	tickets, err := ticketsJSON(e.Tickets)
	if err != nil {
		return err
	}
	reason, by, at := cancellationArgs(e.Cancellation)
	_, err = r.db.ExecContext(ctx, insertEventSQL,
		e.ID, e.OwnerID, e.Title, e.Description, e.City, domain.NormalizeCity(e.City), e.Category,
		e.StartTime.UTC(), e.EndTime.UTC(), tickets, string(e.Status),
		e.PublishedAt, e.CompletedAt, reason, by, at,
		e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, getEventSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	return e, err
}

func updateEvent(ctx context.Context, db execer, e *domain.Event) error {
	tickets, err := ticketsJSON(e.Tickets)
	if err != nil {
		return err
	}
	reason, by, at := cancellationArgs(e.Cancellation)
	res, err := db.ExecContext(ctx, updateEventSQL,
		e.ID,
		e.Title, e.Description, e.City, domain.NormalizeCity(e.City), e.Category,
		e.StartTime.UTC(), e.EndTime.UTC(), tickets, string(e.Status),
		e.PublishedAt, e.CompletedAt,
		reason, by, at,
		e.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound("event not found")
	}
	return nil
}

// ListManaged is the offset-paginated organizer/admin listing. ownerID "" means every owner.
func (r *Repo) ListManaged(ctx context.Context, ownerID string, sf domain.StatusFilter, page, pageSize int) ([]*domain.Event, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	where, args, argN := statusPredicateSQL(sf, 1)
	if ownerID != "" {
		where = append(where, fmt.Sprintf("owner_id = $%d", argN))
		args = append(args, ownerID)
		argN++
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events "+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	q := `SELECT` + eventColumns + `
FROM events
` + whereSQL + `
ORDER BY created_at DESC, id DESC
LIMIT $` + fmt.Sprint(argN) + ` OFFSET $` + fmt.Sprint(argN+1)

	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// scanEvent reads eventColumns, followed by any extra destinations.
func scanEvent(sc rowScanner, extra ...any) (*domain.Event, error) {
	var (
		e           domain.Event
		status      string
		tickets     []byte
		reason, by  sql.NullString
		cancelledAt sql.NullTime
	)
	dest := []any{
		&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.City, &e.Category,
		&e.StartTime, &e.EndTime, &tickets, &status,
		&e.PublishedAt, &e.CompletedAt, &reason, &by, &cancelledAt,
		&e.CreatedAt, &e.UpdatedAt,
	}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	e.Status = domain.EventStatus(status)
	if !e.Status.Valid() {
		return nil, fmt.Errorf("event %s: unknown status %q in db", e.ID, status)
	}
	if len(tickets) > 0 {
		if err := json.Unmarshal(tickets, &e.Tickets); err != nil {
			return nil, fmt.Errorf("event %s: decode tickets: %w", e.ID, err)
		}
	}
	if reason.Valid {
		e.Cancellation = &domain.Cancellation{
			Reason:      reason.String,
			CancelledBy: domain.CancelActor(by.String),
			CancelledAt: cancelledAt.Time,
		}
	}
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	var out []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func ticketsJSON(t []domain.TicketTier) (string, error) {
	if len(t) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode tickets: %w", err)
	}
	return string(b), nil
}

func cancellationArgs(c *domain.Cancellation) (reason, by, at any) {
	if c == nil {
		return nil, nil, nil
	}
	return c.Reason, string(c.CancelledBy), c.CancelledAt.UTC()
}

var _ event.EventRepo = (*Repo)(nil)
