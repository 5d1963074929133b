package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/ticketing/services/event-service/internal/application/event"
	"github.com/baechuer/ticketing/services/event-service/internal/domain"
	"github.com/baechuer/ticketing/services/event-service/internal/metrics"
	"github.com/baechuer/ticketing/services/event-service/internal/transport/http/dto"
	"github.com/baechuer/ticketing/services/event-service/internal/transport/http/middleware"
	"github.com/baechuer/ticketing/services/event-service/internal/transport/http/response"
	"github.com/baechuer/ticketing/services/event-service/internal/transport/http/validate"
)

type Clock interface{ Now() time.Time }

type EventsHandler struct {
	svc   *event.Service
	clock Clock
}

func NewEventsHandler(svc *event.Service, clock Clock) *EventsHandler {
	return &EventsHandler{svc: svc, clock: clock}
}

// now is sampled once per request. It is handed to the service for the write or
// the status filter and used again to project every item in the response.
func (h *EventsHandler) now() time.Time { return h.clock.Now().UTC() }

// ---------- Public ----------

func (h *EventsHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	q := r.URL.Query()

	from, err := parseTimeParam(q.Get("from"), "from")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	to, err := parseTimeParam(q.Get("to"), "to")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	status := parseStatus(q.Get("status"))

	res, err := h.svc.ListPublic(r.Context(), event.ListFilter{
		City:     q.Get("city"),
		Query:    q.Get("q"),
		Category: q.Get("category"),
		From:     from,
		To:       to,
		Status:   status,
		Now:      now,
		PageSize: pageSize,
		Sort:     q.Get("sort"),
		Cursor:   q.Get("cursor"),
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	metrics.ObserveList("public", status)

	response.Data(w, http.StatusOK, dto.CursorResp[dto.EventResp]{
		Items:      dto.ToEventResps(res.Items, now),
		NextCursor: res.NextCursor,
	})
}

func (h *EventsHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	ev, err := h.svc.GetPublic(r.Context(), id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, now))
}

// ---------- Organizer ----------

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	var req dto.CreateEventReq
	if !decodeBody(w, r, &req) {
		return
	}
	ev, err := h.svc.Create(r.Context(), event.CreateCmd{
		ActorID:     middleware.UserID(r),
		ActorRole:   middleware.Role(r),
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
		Category:    req.Category,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Tickets:     dto.ToTicketTiers(req.Tickets),
		Now:         now,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToEventResp(ev, now))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateEventReq
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := event.UpdateCmd{
		ActorID:     middleware.UserID(r),
		ActorRole:   middleware.Role(r),
		EventID:     id,
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
		Category:    req.Category,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Now:         now,
	}
	if req.Tickets != nil {
		tiers := dto.ToTicketTiers(*req.Tickets)
		cmd.Tickets = &tiers
	}

	ev, err := h.svc.Update(r.Context(), cmd)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, now))
}

func (h *EventsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	ev, err := h.svc.Publish(r.Context(), transitionCmd(r, id, "", now))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, now))
}

func (h *EventsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	var req dto.TakeDownReq
	if !decodeBody(w, r, &req) {
		return
	}
	ev, err := h.svc.Cancel(r.Context(), transitionCmd(r, id, req.Reason, now))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, now))
}

func (h *EventsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	q := managedQuery(r, now)
	page, err := h.svc.ListMyEvents(r.Context(), middleware.UserID(r), q)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	metrics.ObserveList("organizer", q.Status)
	writePage(w, page, now)
}

func (h *EventsHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	ev, err := h.svc.GetForOwner(r.Context(), id, middleware.UserID(r), middleware.Role(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, now))
}

// ---------- Admin ----------

func (h *EventsHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	var req dto.TakeDownReq
	if !decodeBody(w, r, &req) {
		return
	}
	ev, err := h.svc.Suspend(r.Context(), transitionCmd(r, id, req.Reason, now))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, now))
}

func (h *EventsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	ev, err := h.svc.Complete(r.Context(), transitionCmd(r, id, "", now))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, now))
}

func (h *EventsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	q := managedQuery(r, now)
	page, err := h.svc.ListAll(r.Context(), middleware.Role(r), q)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	metrics.ObserveList("admin", q.Status)
	writePage(w, page, now)
}

// ---------- helpers ----------

func eventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "event_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"event_id": "must be uuid",
		}))
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := validate.DecodeJSON(r, dst); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		response.Err(w, r, err)
		return false
	}
	return true
}

// parseStatus ignores values outside the display set.
func parseStatus(raw string) domain.DisplayStatus {
	s, ok := domain.ParseDisplayStatus(raw)
	if !ok {
		return ""
	}
	return s
}

func parseTimeParam(v, name string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, domain.ErrValidationMeta("invalid query param", map[string]string{
			name: "must be RFC3339 timestamp",
		})
	}
	t = t.UTC()
	return &t, nil
}

// managedQuery passes paging through as given; the service clamps it.
func managedQuery(r *http.Request, now time.Time) event.ManagedListQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	return event.ManagedListQuery{
		Status:   parseStatus(q.Get("status")),
		Now:      now,
		Page:     page,
		PageSize: pageSize,
	}
}

func transitionCmd(r *http.Request, id, reason string, now time.Time) event.TransitionCmd {
	return event.TransitionCmd{
		EventID:   id,
		ActorID:   middleware.UserID(r),
		ActorRole: middleware.Role(r),
		Reason:    reason,
		Now:       now,
	}
}

func writePage(w http.ResponseWriter, page event.ManagedPage, now time.Time) {
	response.Data(w, http.StatusOK, dto.PageResp[dto.EventResp]{
		Items:    dto.ToEventResps(page.Items, now),
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
	})
}
