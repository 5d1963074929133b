//go:build integration

package cases

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/baechuer/ticketing/services/event-service/test/integration/infra"
)

const (
	hostID  = "11111111-1111-1111-1111-111111111111"
	otherID = "33333333-3333-3333-3333-333333333333"
	adminID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	modID   = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
)

type Env struct {
	HostToken  string
	OtherToken string
	AdminToken string
	ModToken   string
}

func setup(t *testing.T) Env {
	t.Helper()
	require.NoError(t, infra.Reset(testDB))

	tok := func(uid, role string) string {
		s, err := infra.MakeToken(uid, role, 15*time.Minute)
		require.NoError(t, err)
		return s
	}
	return Env{
		HostToken:  tok(hostID, "user"),
		OtherToken: tok(otherID, "user"),
		AdminToken: tok(adminID, "admin"),
		ModToken:   tok(modID, "moderator"),
	}
}

type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Meta    map[string]string `json:"meta"`
	} `json:"error,omitempty"`
}

type EventResp struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Ended        bool   `json:"ended"`
	TotalTickets int    `json:"total_tickets"`
	Cancellation *struct {
		Reason      string `json:"reason"`
		CancelledBy string `json:"cancelled_by"`
	} `json:"cancellation"`
}

type ListResp struct {
	Items      []EventResp `json:"items"`
	Total      int         `json:"total"`
	NextCursor string      `json:"next_cursor"`
}

func doJSON(t *testing.T, method, path, token string, body any) (int, Envelope) {
	t.Helper()

	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env Envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func data[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func createBody(start time.Time) map[string]any {
	return map[string]any{
		"title":       "Integration Event",
		"description": "desc",
		"city":        "Sydney",
		"category":    "test",
		"start_time":  start.UTC().Format(time.RFC3339),
		"end_time":    start.Add(time.Hour).UTC().Format(time.RFC3339),
		"tickets": []map[string]any{
			{"name": "GA", "price": "10", "quantity": 50},
		},
	}
}
