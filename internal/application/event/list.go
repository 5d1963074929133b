package event

import (
	"context"
	"strconv"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/ticketing/services/event-service/internal/domain"
)

type ListFilter struct {
	City     string
	Query    string // q
	Category string
	From     *time.Time
	To       *time.Time

	// Status is the requested display status; "" means no status filter.
	Status domain.DisplayStatus
	// Now is the instant sampled for this request. Predicates and the response
	// projection must share it.
	Now time.Time

	// Predicate is derived from Status and Now by the service; repositories read it.
	Predicate domain.StatusFilter

	PageSize int

	Sort   string // time | relevance
	Cursor string // time: "time|uuid"; relevance: "rank|time|uuid"
}

func (f *ListFilter) Normalize() error {
	f.City = strings.TrimSpace(f.City)
	f.Query = strings.TrimSpace(f.Query)
	f.Category = strings.TrimSpace(f.Category)
	f.Sort = strings.TrimSpace(f.Sort)
	f.Cursor = strings.TrimSpace(f.Cursor)
	if !f.Status.Valid() {
		f.Status = ""
	}

	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}

	if f.Sort == "" {
		f.Sort = "time"
	}
	if f.Sort != "time" && f.Sort != "relevance" {
		return domain.ErrValidationMeta("invalid query param", map[string]string{
			"sort": "must be one of: time, relevance",
		})
	}
	if f.Sort == "relevance" && f.Query == "" {
		return domain.ErrValidationMeta("invalid query param", map[string]string{
			"q": "required when sort=relevance",
		})
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return domain.ErrValidation("to must be >= from")
	}
	return nil
}

type PublicListResult struct {
	Items      []*domain.Event
	NextCursor string
}

// ListPublic lists events persisted as published, narrowed by the requested display status.
func (s *Service) ListPublic(ctx context.Context, f ListFilter) (PublicListResult, error) {
	if err := f.Normalize(); err != nil {
		return PublicListResult{}, err
	}
	if f.Now.IsZero() {
		f.Now = s.clock.Now()
	}
	f.Now = f.Now.UTC()
	f.Predicate = domain.BuildStatusFilter(f.Status, f.Now)

	// The public listing is scoped to published rows; asking for drafts or
	// take-downs there can never match.
	if !f.Predicate.IsEmpty() && f.Predicate.Status != domain.StatusPublished {
		return PublicListResult{Items: []*domain.Event{}}, nil
	}

	// Only the first page is cached, and only when membership does not depend on
	// the clock: a cached "ongoing" page could be projected as something else later.
	useCache := s.cache != nil && f.Cursor == "" && !f.Status.TimeDerived()
	cacheKey := ""
	if useCache {
		var gen string
		if _, err := s.cache.Get(ctx, cacheKeyListGeneration, &gen); err != nil {
			// without the generation a stale page could be served
			zlog.Warn().Err(err).Msg("cache list generation get failed")
			useCache = false
		}
		cacheKey = cacheKeyPublicList(gen, f)
	}
	if useCache {
		var cached PublicListResult
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", cacheKey).Msg("cache list get failed")
		} else if found {
			zlog.Debug().Str("key", cacheKey).Msg("cache list hit")
			return cached, nil
		}
	}

	var res PublicListResult

	switch f.Sort {
	case "time":
		afterStart, afterID, hasCursor, err := parseTimeCursorOrEmpty(f.Cursor)
		if err != nil {
			return PublicListResult{}, err
		}
		items, err := s.repo.ListPublicTimeKeyset(ctx, f, hasCursor, afterStart, afterID)
		if err != nil {
			return PublicListResult{}, err
		}
		res.Items = items
		if len(items) == f.PageSize {
			last := items[len(items)-1]
			res.NextCursor = formatTimeCursor(last.StartTime.UTC(), last.ID)
		}

	case "relevance":
		afterRank, afterStart, afterID, hasCursor, err := parseRelevanceCursorOrEmpty(f.Cursor)
		if err != nil {
			return PublicListResult{}, err
		}
		items, ranks, err := s.repo.ListPublicRelevanceKeyset(ctx, f, hasCursor, afterRank, afterStart, afterID)
		if err != nil {
			return PublicListResult{}, err
		}
		res.Items = items
		if len(items) == f.PageSize && len(ranks) == len(items) {
			last := items[len(items)-1]
			res.NextCursor = formatRelevanceCursor(ranks[len(ranks)-1], last.StartTime.UTC(), last.ID)
		}
	}

	if res.Items == nil {
		res.Items = []*domain.Event{}
	}

	if useCache && len(res.Items) > 0 {
		if err := s.cache.Set(ctx, cacheKey, res, s.ttlList); err != nil {
			zlog.Warn().Err(err).Str("key", cacheKey).Msg("cache list set failed")
		}
	}
	return res, nil
}

// ManagedListQuery drives the organizer and admin listings, which see every persisted status.
type ManagedListQuery struct {
	Status   domain.DisplayStatus
	Now      time.Time
	Page     int
	PageSize int
}

func (q *ManagedListQuery) normalize(clock Clock) {
	if !q.Status.Valid() {
		q.Status = ""
	}
	if q.Now.IsZero() {
		q.Now = clock.Now()
	}
	q.Now = q.Now.UTC()
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
}

// ManagedPage is one offset page; Page and PageSize are the normalized values.
type ManagedPage struct {
	Items    []*domain.Event
	Total    int
	Page     int
	PageSize int
}

func (s *Service) ListMyEvents(ctx context.Context, actorID string, q ManagedListQuery) (ManagedPage, error) {
	if strings.TrimSpace(actorID) == "" {
		return ManagedPage{}, domain.ErrForbidden("not allowed")
	}
	return s.listManaged(ctx, actorID, q)
}

// ListAll is the staff moderation view across all owners.
func (s *Service) ListAll(ctx context.Context, actorRole string, q ManagedListQuery) (ManagedPage, error) {
	if !isStaff(actorRole) {
		return ManagedPage{}, domain.ErrForbidden("staff only")
	}
	return s.listManaged(ctx, "", q)
}

func (s *Service) listManaged(ctx context.Context, ownerID string, q ManagedListQuery) (ManagedPage, error) {
	q.normalize(s.clock)
	items, total, err := s.repo.ListManaged(ctx, ownerID, domain.BuildStatusFilter(q.Status, q.Now), q.Page, q.PageSize)
	if err != nil {
		return ManagedPage{}, err
	}
	if items == nil {
		items = []*domain.Event{}
	}
	return ManagedPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// -------- cursor helpers --------

func formatTimeCursor(t time.Time, id string) string {
	return t.Format(time.RFC3339Nano) + "|" + id
}

func parseTimeCursorOrEmpty(cur string) (time.Time, string, bool, error) {
	if cur == "" {
		return time.Time{}, "", false, nil
	}
	bad := domain.ErrValidation("invalid cursor (expected time|uuid)")
	parts := strings.Split(cur, "|")
	if len(parts) != 2 {
		return time.Time{}, "", false, bad
	}
	t, err := parseRFC3339OrNano(parts[0])
	if err != nil {
		return time.Time{}, "", false, bad
	}
	id := strings.TrimSpace(parts[1])
	if id == "" {
		return time.Time{}, "", false, bad
	}
	return t.UTC(), id, true, nil
}

func formatRelevanceCursor(rank float64, t time.Time, id string) string {
	return strconv.FormatFloat(rank, 'f', 8, 64) + "|" + t.Format(time.RFC3339Nano) + "|" + id
}

func parseRelevanceCursorOrEmpty(cur string) (float64, time.Time, string, bool, error) {
	if cur == "" {
		return 0, time.Time{}, "", false, nil
	}
	bad := domain.ErrValidation("invalid cursor (expected rank|time|uuid)")
	parts := strings.Split(cur, "|")
	if len(parts) != 3 {
		return 0, time.Time{}, "", false, bad
	}
	rk, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, time.Time{}, "", false, bad
	}
	t, err := parseRFC3339OrNano(parts[1])
	if err != nil {
		return 0, time.Time{}, "", false, bad
	}
	id := strings.TrimSpace(parts[2])
	if id == "" {
		return 0, time.Time{}, "", false, bad
	}
	return rk, t.UTC(), id, true, nil
}

func parseRFC3339OrNano(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
