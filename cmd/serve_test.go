package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/marketdesk/feedsync/internal/ingest"
	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/store"
)

func newTestAPIServer(t *testing.T) (*apiServer, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	return &apiServer{st: st, ingestGate: semaphore.NewWeighted(1)}, st
}

func seedAPITicket(t *testing.T, st store.Store, subject, description string) {
	t.Helper()
	ctx := context.Background()

	customer := &model.Customer{ID: "c-" + subject, Name: "kim", Email: "kim@customer.invalid", Status: model.CustomerStatusActive}
	require.NoError(t, st.CreateCustomer(ctx, customer))
	require.NoError(t, st.CreateTicket(ctx, &model.Ticket{
		ID: "t-" + subject, Subject: subject, Description: description,
		Status: model.TicketStatusOpen, Priority: model.PriorityHigh, CustomerID: customer.ID,
	}))
}

func TestServe_Health(t *testing.T) {
	api, _ := newTestAPIServer(t)
	srv := httptest.NewServer(api.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServe_TicketStats(t *testing.T) {
	api, st := newTestAPIServer(t)
	seedAPITicket(t, st, "a", "[Source QNA - x]\n...")
	srv := httptest.NewServer(api.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/tickets/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats model.TicketStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Open)
}

func TestServe_ListTickets_SourceFilter(t *testing.T) {
	api, st := newTestAPIServer(t)
	seedAPITicket(t, st, "q", ingest.QnAPrefix+"x]\n...")
	seedAPITicket(t, st, "r", ingest.ReviewPrefix+"y]\n...")
	srv := httptest.NewServer(api.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/tickets?source=qna")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool           `json:"success"`
		Tickets []model.Ticket `json:"tickets"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Tickets, 1)
	assert.Equal(t, "q", body.Tickets[0].Subject)
}

func TestServe_Purge(t *testing.T) {
	api, st := newTestAPIServer(t)
	seedAPITicket(t, st, "q", ingest.QnAPrefix+"x]\n...")
	seedAPITicket(t, st, "manual", "hand-written ticket")
	srv := httptest.NewServer(api.routes())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/tickets/source/qna", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Count)
}

func TestServe_Ingest_BadKind(t *testing.T) {
	api, _ := newTestAPIServer(t)
	srv := httptest.NewServer(api.routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/ingest/bogus", "application/json",
		strings.NewReader(`{"url":"https://shop.example/p/1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServe_Ingest_MissingURL(t *testing.T) {
	api, _ := newTestAPIServer(t)
	srv := httptest.NewServer(api.routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/ingest/qna", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "url is required", body.Error)
}

func TestServe_Ingest_BusyGuard(t *testing.T) {
	api, _ := newTestAPIServer(t)
	srv := httptest.NewServer(api.routes())
	defer srv.Close()

	// Hold the gate the way a running ingestion would.
	require.True(t, api.ingestGate.TryAcquire(1))
	defer api.ingestGate.Release(1)

	resp, err := http.Post(srv.URL+"/api/ingest/qna", "application/json",
		strings.NewReader(`{"url":"https://shop.example/p/1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServe_RespondBatch_NoKeyConfigured(t *testing.T) {
	api, _ := newTestAPIServer(t)
	srv := httptest.NewServer(api.routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/respond/batch", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestParseKind(t *testing.T) {
	kind, err := parseKind("qna")
	require.NoError(t, err)
	assert.Equal(t, model.SourceKindQnA, kind)

	kind, err = parseKind("reviews")
	require.NoError(t, err)
	assert.Equal(t, model.SourceKindReview, kind)

	_, err = parseKind("bogus")
	assert.Error(t, err)
}
