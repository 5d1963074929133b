package event

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/ticketing/services/event-service/internal/domain"
	appCtx "github.com/baechuer/ticketing/services/event-service/internal/pkg/context"
)

// --- Mocks & Helpers ---

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tt, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return tt.UTC()
}

// jsonCache round-trips through JSON like the redis client does.
type jsonCache struct {
	store map[string][]byte
	gets  int
	sets  int
}

func newJSONCache() *jsonCache { return &jsonCache{store: map[string][]byte{}} }

func (m *jsonCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.gets++
	b, ok := m.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *jsonCache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	m.sets++
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.store[key] = b
	return nil
}

func (m *jsonCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.store, k)
	}
	return nil
}

// memRepo stores copies so that a failed transaction leaves no trace.
type memRepo struct {
	byID   map[string]domain.Event
	outbox []OutboxMessage

	lastPublic ListFilter
	lastSF     domain.StatusFilter
	lastOwner  string

	// afterRead runs once after the next event read. A read taken inside WithTx
	// holds the row lock, so the hook is held back until that transaction
	// commits, the way a concurrent writer would block on the lock.
	afterRead func()
	inTx      bool
	blocked   []func()
}

func newMemRepo() *memRepo { return &memRepo{byID: map[string]domain.Event{}} }

func (m *memRepo) put(e domain.Event) { m.byID[e.ID] = e }

func (m *memRepo) Create(ctx context.Context, e *domain.Event) error {
	m.byID[e.ID] = *e
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	m.fireAfterRead()
	return &e, nil
}

func (m *memRepo) fireAfterRead() {
	f := m.afterRead
	if f == nil {
		return
	}
	m.afterRead = nil
	if m.inTx {
		m.blocked = append(m.blocked, f)
		return
	}
	f()
}

type memTx struct {
	parent  *memRepo
	updates []domain.Event
	outbox  []OutboxMessage
}

func (t *memTx) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return t.parent.GetByID(ctx, id)
}

func (t *memTx) Update(ctx context.Context, e *domain.Event) error {
	t.updates = append(t.updates, *e)
	return nil
}

func (t *memTx) InsertOutbox(ctx context.Context, msg OutboxMessage) error {
	t.outbox = append(t.outbox, msg)
	return nil
}

func (m *memRepo) WithTx(ctx context.Context, fn func(r TxEventRepo) error) error {
	tx := &memTx{parent: m}
	m.inTx = true
	err := fn(tx)
	m.inTx = false
	if err == nil {
		for _, e := range tx.updates {
			m.byID[e.ID] = e
		}
		m.outbox = append(m.outbox, tx.outbox...)
	}

	blocked := m.blocked
	m.blocked = nil
	for _, f := range blocked {
		f()
	}
	return err
}

func (m *memRepo) matching(status *domain.EventStatus, sf domain.StatusFilter, owner string) []*domain.Event {
	var out []*domain.Event
	for _, e := range m.byID {
		e := e
		if status != nil && e.Status != *status {
			continue
		}
		if owner != "" && e.OwnerID != owner {
			continue
		}
		if !sf.Matches(&e) {
			continue
		}
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func (m *memRepo) ListPublicTimeKeyset(ctx context.Context, f ListFilter, hasCursor bool, afterStart time.Time, afterID string) ([]*domain.Event, error) {
	m.lastPublic = f
	published := domain.StatusPublished
	all := m.matching(&published, f.Predicate, "")
	var out []*domain.Event
	for _, e := range all {
		if hasCursor && (e.StartTime.Before(afterStart) || (e.StartTime.Equal(afterStart) && e.ID <= afterID)) {
			continue
		}
		out = append(out, e)
		if len(out) == f.PageSize {
			break
		}
	}
	return out, nil
}

func (m *memRepo) ListPublicRelevanceKeyset(ctx context.Context, f ListFilter, hasCursor bool, afterRank float64, afterStart time.Time, afterID string) ([]*domain.Event, []float64, error) {
	m.lastPublic = f
	return []*domain.Event{}, []float64{}, nil
}

func (m *memRepo) ListManaged(ctx context.Context, ownerID string, sf domain.StatusFilter, page, pageSize int) ([]*domain.Event, int, error) {
	m.lastSF, m.lastOwner = sf, ownerID
	all := m.matching(nil, sf, ownerID)
	return all, len(all), nil
}

func publishedEvent(id, owner string, start, end time.Time) domain.Event {
	return domain.Event{
		ID: id, OwnerID: owner, Title: "t", Description: "d", City: "Sydney", Category: "music",
		Status: domain.StatusPublished, StartTime: start, EndTime: end,
	}
}

// --- Create / Update ---

func TestService_Create(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	svc := New(repo, fakeClock{t: now}, nil, 0, 0)

	t.Run("user_creates_draft", func(t *testing.T) {
		ev, err := svc.Create(context.Background(), CreateCmd{
			ActorID: "u1", ActorRole: RoleUser,
			Title: "Gig", Description: "Live", City: "Sydney", Category: "music",
			StartTime: now.Add(time.Hour), EndTime: now.Add(3 * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDraft, ev.Status)
		assert.Contains(t, repo.byID, ev.ID)
	})

	t.Run("unknown_role_is_forbidden", func(t *testing.T) {
		_, err := svc.Create(context.Background(), CreateCmd{ActorID: "u1", ActorRole: "guest"})
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})
}

func TestService_Update_InvalidatesCache(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	cache := newJSONCache()
	svc := New(repo, fakeClock{t: now}, cache, 0, 0)

	repo.put(publishedEvent("evt_1", "owner", now.Add(time.Hour), now.Add(2*time.Hour)))
	cache.store[cacheKeyEventDetails("evt_1")] = []byte(`{}`)

	title := "Renamed"
	ev, err := svc.Update(context.Background(), UpdateCmd{ActorID: "owner", ActorRole: RoleUser, EventID: "evt_1", Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", ev.Title)
	assert.Equal(t, "Renamed", repo.byID["evt_1"].Title)
	assert.NotContains(t, cache.store, cacheKeyEventDetails("evt_1"))
	assert.Contains(t, cache.store, cacheKeyListGeneration)

	_, err = svc.Update(context.Background(), UpdateCmd{ActorID: "other", ActorRole: RoleUser, EventID: "evt_1", Title: &title})
	assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
}

func TestService_Update_SerializesWithTakeDown(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	title := "Renamed"

	t.Run("suspend_racing_an_edit_is_applied_after_it", func(t *testing.T) {
		repo := newMemRepo()
		svc := New(repo, fakeClock{t: now}, nil, 0, 0)
		repo.put(publishedEvent("evt_r", "owner", now.Add(time.Hour), now.Add(2*time.Hour)))

		var suspendErr error
		repo.afterRead = func() {
			_, suspendErr = svc.Suspend(context.Background(), TransitionCmd{
				EventID: "evt_r", ActorID: "admin_user", ActorRole: RoleAdmin, Reason: "fraud",
			})
		}

		_, err := svc.Update(context.Background(), UpdateCmd{ActorID: "owner", ActorRole: RoleUser, EventID: "evt_r", Title: &title})
		require.NoError(t, err)
		require.NoError(t, suspendErr)

		final := repo.byID["evt_r"]
		assert.Equal(t, domain.StatusSuspended, final.Status)
		require.NotNil(t, final.Cancellation)
		assert.Equal(t, "fraud", final.Cancellation.Reason)
		assert.Equal(t, "Renamed", final.Title)
		require.Len(t, repo.outbox, 1)
		assert.Equal(t, RKSuspended, repo.outbox[0].RoutingKey)
	})

	t.Run("edit_after_take_down_is_rejected", func(t *testing.T) {
		repo := newMemRepo()
		svc := New(repo, fakeClock{t: now}, nil, 0, 0)
		repo.put(publishedEvent("evt_t", "owner", now.Add(time.Hour), now.Add(2*time.Hour)))

		_, err := svc.Suspend(context.Background(), TransitionCmd{EventID: "evt_t", ActorID: "a", ActorRole: RoleAdmin, Reason: "fraud"})
		require.NoError(t, err)

		_, err = svc.Update(context.Background(), UpdateCmd{ActorID: "owner", ActorRole: RoleUser, EventID: "evt_t", Title: &title})
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
		assert.Equal(t, domain.StatusSuspended, repo.byID["evt_t"].Status)
		assert.NotNil(t, repo.byID["evt_t"].Cancellation)
	})
}

func TestService_TransitionUsesRequestInstant(t *testing.T) {
	serviceNow := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	svc := New(repo, fakeClock{t: serviceNow}, nil, 0, 0)

	// ended by the service clock, still running at the request's instant
	end := serviceNow.Add(-time.Minute)
	repo.put(publishedEvent("evt_edge", "owner", end.Add(-time.Hour), end))
	requestNow := end.Add(-time.Millisecond)

	_, err := svc.Complete(context.Background(), TransitionCmd{EventID: "evt_edge", ActorID: "a", ActorRole: RoleAdmin, Now: requestNow})
	assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	assert.Equal(t, domain.StatusPublished, repo.byID["evt_edge"].Status)

	ev, err := svc.Complete(context.Background(), TransitionCmd{EventID: "evt_edge", ActorID: "a", ActorRole: RoleAdmin, Now: end})
	require.NoError(t, err)
	require.NotNil(t, ev.CompletedAt)
	assert.Equal(t, end, *ev.CompletedAt)
}

func TestService_TakeDownDropsCachedListPage(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	svc := New(repo, fakeClock{t: now}, newJSONCache(), 0, 0)

	repo.put(publishedEvent("evt_a", "owner", now.Add(time.Hour), now.Add(2*time.Hour)))
	repo.put(publishedEvent("evt_b", "owner", now.Add(3*time.Hour), now.Add(4*time.Hour)))

	first, err := svc.ListPublic(context.Background(), ListFilter{Now: now})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)

	_, err = svc.Cancel(context.Background(), TransitionCmd{EventID: "evt_a", ActorID: "owner", ActorRole: RoleUser, Reason: "weather", Now: now})
	require.NoError(t, err)

	second, err := svc.ListPublic(context.Background(), ListFilter{Now: now})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "evt_b", second.Items[0].ID)
}

// --- Lifecycle ---

func TestService_Publish(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	svc := New(repo, fakeClock{t: now}, nil, 0, 0)

	draft := publishedEvent("evt_d", "owner", now.Add(time.Hour), now.Add(2*time.Hour))
	draft.Status = domain.StatusDraft
	repo.put(draft)

	t.Run("other_user_forbidden", func(t *testing.T) {
		_, err := svc.Publish(context.Background(), TransitionCmd{EventID: "evt_d", ActorID: "intruder", ActorRole: RoleUser})
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
		assert.Empty(t, repo.outbox)
	})

	t.Run("owner_publishes_and_outbox_row_is_written", func(t *testing.T) {
		ctx := appCtx.WithRequestID(context.Background(), "req-42")
		ev, err := svc.Publish(ctx, TransitionCmd{EventID: "evt_d", ActorID: "owner", ActorRole: RoleUser})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPublished, ev.Status)
		assert.Equal(t, domain.StatusPublished, repo.byID["evt_d"].Status)

		require.Len(t, repo.outbox, 1)
		msg := repo.outbox[0]
		assert.Equal(t, RKPublished, msg.RoutingKey)

		var env DomainEventEnvelope[LifecyclePayload]
		require.NoError(t, json.Unmarshal(msg.Body, &env))
		assert.Equal(t, msg.MessageID, env.MessageID)
		assert.Equal(t, "req-42", env.TraceID)
		assert.Equal(t, "evt_d", env.Payload.EventID)
		assert.Equal(t, "published", env.Payload.Status)
	})

	t.Run("cannot_publish_twice", func(t *testing.T) {
		_, err := svc.Publish(context.Background(), TransitionCmd{EventID: "evt_d", ActorID: "owner", ActorRole: RoleUser})
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
		assert.Len(t, repo.outbox, 1)
	})

	t.Run("cannot_publish_with_start_time_in_past", func(t *testing.T) {
		past := publishedEvent("evt_past", "owner", now.Add(-time.Hour), now.Add(time.Hour))
		past.Status = domain.StatusDraft
		repo.put(past)

		_, err := svc.Publish(context.Background(), TransitionCmd{EventID: "evt_past", ActorID: "owner", ActorRole: RoleUser})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot publish event in the past")
		assert.Equal(t, domain.StatusDraft, repo.byID["evt_past"].Status)
	})
}

func TestService_CancelAndSuspend(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	svc := New(repo, fakeClock{t: now}, newJSONCache(), 0, 0)

	t.Run("owner_cancels_as_host", func(t *testing.T) {
		repo.put(publishedEvent("evt_c", "owner", now.Add(time.Hour), now.Add(2*time.Hour)))
		ev, err := svc.Cancel(context.Background(), TransitionCmd{EventID: "evt_c", ActorID: "owner", ActorRole: RoleUser, Reason: "weather"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, ev.Status)
		require.NotNil(t, ev.Cancellation)
		assert.Equal(t, domain.CancelledByHost, ev.Cancellation.CancelledBy)
		assert.Equal(t, RKCancelled, repo.outbox[len(repo.outbox)-1].RoutingKey)
	})

	t.Run("admin_can_cancel_any_event", func(t *testing.T) {
		repo.put(publishedEvent("evt_c2", "owner", now.Add(time.Hour), now.Add(2*time.Hour)))
		ev, err := svc.Cancel(context.Background(), TransitionCmd{EventID: "evt_c2", ActorID: "admin_user", ActorRole: RoleAdmin, Reason: "duplicate listing"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, ev.Status)
	})

	t.Run("suspend_is_admin_only", func(t *testing.T) {
		repo.put(publishedEvent("evt_s", "owner", now.Add(time.Hour), now.Add(2*time.Hour)))

		_, err := svc.Suspend(context.Background(), TransitionCmd{EventID: "evt_s", ActorID: "owner", ActorRole: RoleUser, Reason: "x"})
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))

		ev, err := svc.Suspend(context.Background(), TransitionCmd{EventID: "evt_s", ActorID: "admin_user", ActorRole: RoleAdmin, Reason: "policy"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSuspended, ev.Status)
		assert.Equal(t, domain.CancelledByAdmin, ev.Cancellation.CancelledBy)

		var env DomainEventEnvelope[LifecyclePayload]
		last := repo.outbox[len(repo.outbox)-1]
		require.NoError(t, json.Unmarshal(last.Body, &env))
		assert.Equal(t, RKSuspended, last.RoutingKey)
		assert.Equal(t, "admin", env.Payload.CancelledBy)
		assert.Equal(t, "policy", env.Payload.Reason)
	})
}

func TestService_Complete(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	svc := New(repo, fakeClock{t: now}, nil, 0, 0)

	repo.put(publishedEvent("evt_done", "owner", now.Add(-3*time.Hour), now.Add(-time.Hour)))
	repo.put(publishedEvent("evt_live", "owner", now.Add(-time.Hour), now.Add(time.Hour)))

	_, err := svc.Complete(context.Background(), TransitionCmd{EventID: "evt_live", ActorID: "a", ActorRole: RoleAdmin})
	assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))

	_, err = svc.Complete(context.Background(), TransitionCmd{EventID: "evt_done", ActorID: "owner", ActorRole: RoleUser})
	assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))

	ev, err := svc.Complete(context.Background(), TransitionCmd{EventID: "evt_done", ActorID: "a", ActorRole: RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, ev.Status)
	assert.Equal(t, RKCompleted, repo.outbox[len(repo.outbox)-1].RoutingKey)
}

// --- Reads ---

func TestService_GetPublic(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	cache := newJSONCache()
	svc := New(repo, fakeClock{t: now}, cache, 0, 0)

	repo.put(publishedEvent("evt_pub", "owner", now.Add(time.Hour), now.Add(2*time.Hour)))
	hidden := publishedEvent("evt_susp", "owner", now.Add(time.Hour), now.Add(2*time.Hour))
	hidden.Status = domain.StatusSuspended
	repo.put(hidden)

	t.Run("published_is_visible_and_cached", func(t *testing.T) {
		ev, err := svc.GetPublic(context.Background(), "evt_pub")
		require.NoError(t, err)
		assert.Equal(t, "evt_pub", ev.ID)
		assert.Contains(t, cache.store, cacheKeyEventDetails("evt_pub"))

		// served from cache on the second read
		delete(repo.byID, "evt_pub")
		ev, err = svc.GetPublic(context.Background(), "evt_pub")
		require.NoError(t, err)
		assert.Equal(t, "evt_pub", ev.ID)
	})

	t.Run("suspended_is_hidden", func(t *testing.T) {
		_, err := svc.GetPublic(context.Background(), "evt_susp")
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})

	t.Run("owner_view_sees_suspended", func(t *testing.T) {
		ev, err := svc.GetForOwner(context.Background(), "evt_susp", "owner", RoleUser)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSuspended, ev.Status)

		_, err = svc.GetForOwner(context.Background(), "evt_susp", "someone", RoleUser)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))

		_, err = svc.GetForOwner(context.Background(), "evt_susp", "mod", RoleModerator)
		assert.NoError(t, err)
	})
}

func TestService_ListPublic_StatusFilter(t *testing.T) {
	now := mustTime(t, "2025-06-01T11:00:00Z")
	repo := newMemRepo()
	cache := newJSONCache()
	svc := New(repo, fakeClock{t: now.Add(-time.Hour)}, cache, 0, 0)

	repo.put(publishedEvent("upcoming", "o", now.Add(time.Hour), now.Add(2*time.Hour)))
	repo.put(publishedEvent("ongoing", "o", now.Add(-time.Hour), now.Add(time.Hour)))
	repo.put(publishedEvent("lapsed", "o", now.Add(-3*time.Hour), now.Add(-2*time.Hour)))
	wrapped := publishedEvent("wrapped", "o", now.Add(-3*time.Hour), now.Add(-2*time.Hour))
	wrapped.Status = domain.StatusCompleted
	repo.put(wrapped)
	draft := publishedEvent("draft", "o", now.Add(time.Hour), now.Add(2*time.Hour))
	draft.Status = domain.StatusDraft
	repo.put(draft)

	ids := func(items []*domain.Event) []string {
		var out []string
		for _, e := range items {
			out = append(out, e.ID)
		}
		return out
	}

	tests := []struct {
		status domain.DisplayStatus
		want   []string
	}{
		{"", []string{"lapsed", "ongoing", "upcoming"}},
		{domain.DisplayUpcoming, []string{"upcoming"}},
		{domain.DisplayOngoing, []string{"ongoing"}},
		{domain.DisplayCompleted, []string{"lapsed"}},
		{domain.DisplayPublished, []string{"lapsed", "ongoing", "upcoming"}},
		{domain.DisplayDraft, nil},
		{domain.DisplayStatus("bogus"), []string{"lapsed", "ongoing", "upcoming"}},
	}
	for _, tt := range tests {
		t.Run("status_"+string(tt.status), func(t *testing.T) {
			res, err := svc.ListPublic(context.Background(), ListFilter{Status: tt.status, Now: now})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(res.Items))
			for _, e := range res.Items {
				if tt.status.TimeDerived() {
					assert.Equal(t, tt.status, e.DisplayStatus(now))
				}
			}
		})
	}

	t.Run("request_now_wins_over_service_clock", func(t *testing.T) {
		_, err := svc.ListPublic(context.Background(), ListFilter{Status: domain.DisplayOngoing, Now: now})
		require.NoError(t, err)
		require.NotNil(t, repo.lastPublic.Predicate.End)
		assert.Equal(t, now, repo.lastPublic.Predicate.End.Value)
	})

	t.Run("time_derived_status_bypasses_cache", func(t *testing.T) {
		cache.store = map[string][]byte{}
		sets := cache.sets
		_, err := svc.ListPublic(context.Background(), ListFilter{Status: domain.DisplayUpcoming, Now: now})
		require.NoError(t, err)
		assert.Equal(t, sets, cache.sets)

		_, err = svc.ListPublic(context.Background(), ListFilter{Status: domain.DisplayPublished, Now: now})
		require.NoError(t, err)
		assert.Equal(t, sets+1, cache.sets)
	})
}

func TestService_ListPublic_CursorLogic(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	svc := New(repo, fakeClock{t: now}, nil, 0, 0)

	repo.put(publishedEvent("a", "o", now.Add(time.Hour), now.Add(2*time.Hour)))
	repo.put(publishedEvent("b", "o", now.Add(2*time.Hour), now.Add(3*time.Hour)))
	repo.put(publishedEvent("c", "o", now.Add(3*time.Hour), now.Add(4*time.Hour)))

	t.Run("pages_follow_the_cursor", func(t *testing.T) {
		first, err := svc.ListPublic(context.Background(), ListFilter{PageSize: 2})
		require.NoError(t, err)
		require.Len(t, first.Items, 2)
		require.NotEmpty(t, first.NextCursor)

		second, err := svc.ListPublic(context.Background(), ListFilter{PageSize: 2, Cursor: first.NextCursor})
		require.NoError(t, err)
		require.Len(t, second.Items, 1)
		assert.Equal(t, "c", second.Items[0].ID)
		assert.Empty(t, second.NextCursor)
	})

	t.Run("relevance_sort_requires_query", func(t *testing.T) {
		_, err := svc.ListPublic(context.Background(), ListFilter{Sort: "relevance"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required when sort=relevance")
	})

	t.Run("bad_cursor_is_validation_error", func(t *testing.T) {
		_, err := svc.ListPublic(context.Background(), ListFilter{Cursor: "nope"})
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})
}

func TestService_ManagedLists(t *testing.T) {
	now := mustTime(t, "2025-12-25T10:00:00Z")
	repo := newMemRepo()
	svc := New(repo, fakeClock{t: now}, nil, 0, 0)

	mine := publishedEvent("mine", "me", now.Add(time.Hour), now.Add(2*time.Hour))
	mine.Status = domain.StatusDraft
	repo.put(mine)
	repo.put(publishedEvent("theirs", "them", now.Add(time.Hour), now.Add(2*time.Hour)))

	t.Run("organizer_sees_own_drafts", func(t *testing.T) {
		page, err := svc.ListMyEvents(context.Background(), "me", ManagedListQuery{Status: domain.DisplayDraft})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, "mine", page.Items[0].ID)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
		assert.Equal(t, "me", repo.lastOwner)
		assert.Equal(t, domain.StatusDraft, repo.lastSF.Status)
	})

	t.Run("anonymous_organizer_forbidden", func(t *testing.T) {
		_, err := svc.ListMyEvents(context.Background(), "", ManagedListQuery{})
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("staff_lists_everyone", func(t *testing.T) {
		page, err := svc.ListAll(context.Background(), RoleModerator, ManagedListQuery{Status: domain.DisplayUpcoming})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, "", repo.lastOwner)
		require.NotNil(t, repo.lastSF.Start)
		assert.Equal(t, now, repo.lastSF.Start.Value)

		_, err = svc.ListAll(context.Background(), RoleUser, ManagedListQuery{})
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("paging_is_clamped_once", func(t *testing.T) {
		page, err := svc.ListAll(context.Background(), RoleAdmin, ManagedListQuery{Page: -3, PageSize: 500})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 100, page.PageSize)
		assert.NotNil(t, page.Items)
	})
}
