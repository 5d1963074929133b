package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/baechuer/ticketing/services/event-service/internal/application/event"
	"github.com/baechuer/ticketing/services/event-service/internal/domain"
	"github.com/baechuer/ticketing/services/event-service/internal/logger"
	"github.com/baechuer/ticketing/services/event-service/internal/metrics"
)

type txRepo struct {
	tx *sql.Tx
}

const insertOutboxSQL = `
INSERT INTO event_outbox (
  message_id, routing_key, body, created_at, status, next_retry_at
) VALUES ($1, $2, $3::jsonb, $4, 'pending', $4)
`

func (r *txRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.tx.QueryRowContext(ctx, selectEventForUpdateSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	return e, err
}

func (r *txRepo) Update(ctx context.Context, e *domain.Event) error {
	return updateEvent(ctx, r.tx, e)
}

// InsertOutbox stores the message due immediately (next_retry_at = created_at).
func (r *txRepo) InsertOutbox(ctx context.Context, msg event.OutboxMessage) error {
	_, err := r.tx.ExecContext(ctx, insertOutboxSQL,
		msg.MessageID,
		msg.RoutingKey,
		string(msg.Body),
		msg.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}

// --- outbox worker ---

type outboxRow struct {
	ID         int64
	MessageID  string
	RoutingKey string
	Body       []byte
	Attempts   int
}

// SKIP LOCKED lets several instances poll the same table.
const selectOutboxClaimsSQL = `
SELECT id, message_id, routing_key, body, attempts
FROM event_outbox
WHERE status = 'pending'
  AND (next_retry_at IS NULL OR next_retry_at <= $2)
ORDER BY next_retry_at ASC, created_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED
`

const updateOutboxClaimSQL = `
UPDATE event_outbox
SET next_retry_at = $2,
    status = 'processing'
WHERE id = $1
`

const markOutboxSentSQL = `
UPDATE event_outbox
SET status = 'sent',
    sent_at = $2,
    last_error = NULL
WHERE id = $1
`

const markOutboxFailedSQL = `
UPDATE event_outbox
SET status = 'pending',
    attempts = attempts + 1,
    next_retry_at = $2,
    last_error = $3
WHERE id = $1
`

const markOutboxDeadSQL = `
UPDATE event_outbox
SET status = 'dead',
    attempts = attempts + 1,
    last_error = $2
WHERE id = $1
`

// Rows stuck in 'processing' past their reservation (worker crashed mid-publish)
// go back to pending.
const releaseStaleClaimsSQL = `
UPDATE event_outbox
SET status = 'pending'
WHERE status = 'processing'
  AND next_retry_at <= $1
`

type OutboxOptions struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

func (o *OutboxOptions) defaults() {
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 10
	}
}

// computeNextRetry: 2^attempt seconds, clamped to [5s, 30m], +/-10% jitter.
func computeNextRetry(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	sec := math.Pow(2, float64(attempt))
	if sec < 5 {
		sec = 5
	}
	if sec > 1800 {
		sec = 1800
	}
	d := time.Duration(sec) * time.Second
	j := time.Duration(rand.Int63n(int64(d/5))) - d/10
	return d + j
}

// StartOutboxWorker polls event_outbox and hands due rows to pub until ctx is done.
//  1. claim rows in a short tx
//  2. publish outside the tx
//  3. record the result per row
func (r *Repo) StartOutboxWorker(ctx context.Context, pub event.EventPublisher, opts OutboxOptions) {
	opts.defaults()
	go func() {
		log := logger.Logger.With().Str("component", "outbox_worker").Logger()

		// stagger instances that boot together
		time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()

		var lastErr string
		var lastAt time.Time

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopped")
				return
			case <-ticker.C:
				if err := r.processOutboxBatch(ctx, pub, opts); err != nil {
					if err.Error() != lastErr || time.Since(lastAt) > 10*time.Second {
						log.Warn().Err(err).Msg("outbox batch failed")
						lastErr = err.Error()
						lastAt = time.Now()
					}
				} else {
					lastErr = ""
				}
			}
		}
	}()
}

func (r *Repo) processOutboxBatch(ctx context.Context, pub event.EventPublisher, opts OutboxOptions) error {
	claimCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(claimCtx, releaseStaleClaimsSQL, now); err != nil {
		return fmt.Errorf("release stale claims: %w", err)
	}

	tx, err := r.db.BeginTx(claimCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(claimCtx, selectOutboxClaimsSQL, opts.BatchSize, now)
	if err != nil {
		return err
	}

	var batch []outboxRow
	for rows.Next() {
		var item outboxRow
		if err := rows.Scan(&item.ID, &item.MessageID, &item.RoutingKey, &item.Body, &item.Attempts); err != nil {
			rows.Close()
			return err
		}
		batch = append(batch, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(batch) == 0 {
		return tx.Commit()
	}

	// Reserve the rows so another worker skips them while we publish.
	reservation := now.Add(30 * time.Second)
	for _, item := range batch {
		if _, err := tx.ExecContext(claimCtx, updateOutboxClaimSQL, item.ID, reservation); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, item := range batch {
		r.processSingleItem(ctx, pub, item, opts.MaxAttempts)
	}
	return nil
}

func (r *Repo) processSingleItem(ctx context.Context, pub event.EventPublisher, item outboxRow, maxAttempts int) {
	log := logger.Logger.With().
		Str("component", "outbox_worker").
		Int64("outbox_id", item.ID).
		Str("message_id", item.MessageID).
		Str("routing_key", item.RoutingKey).
		Logger()

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pubErr := pub.PublishEvent(pubCtx, item.RoutingKey, item.MessageID, item.Body)

	resCtx, cancelRes := context.WithTimeout(ctx, 3*time.Second)
	defer cancelRes()

	if pubErr == nil {
		if _, err := r.db.ExecContext(resCtx, markOutboxSentSQL, item.ID, time.Now().UTC()); err != nil {
			log.Warn().Err(err).Msg("mark sent failed")
		}
		metrics.ObserveOutbox(item.RoutingKey, "sent")
		log.Debug().Msg("published")
		return
	}

	nextAttempt := item.Attempts + 1
	if nextAttempt >= maxAttempts {
		if _, err := r.db.ExecContext(resCtx, markOutboxDeadSQL, item.ID, pubErr.Error()); err != nil {
			log.Warn().Err(err).Msg("mark dead failed")
		}
		metrics.ObserveOutbox(item.RoutingKey, "dead")
		log.Error().Err(pubErr).Int("attempt", nextAttempt).Msg("outbox moved to DEAD")
		return
	}

	delay := computeNextRetry(nextAttempt)
	if _, err := r.db.ExecContext(resCtx, markOutboxFailedSQL, item.ID, time.Now().UTC().Add(delay), pubErr.Error()); err != nil {
		log.Warn().Err(err).Msg("mark retry failed")
	}
	metrics.ObserveOutbox(item.RoutingKey, "retry")
	log.Warn().Err(pubErr).Int("attempt", nextAttempt).Dur("retry_in", delay).Msg("outbox publish failed; scheduled retry")
}
