package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/beauty-leads/internal/apperror"
	"github.com/xavierca1/beauty-leads/internal/entity"
	"github.com/xavierca1/beauty-leads/internal/infra/auth"
	"github.com/xavierca1/beauty-leads/internal/infra/http/middleware"
	"github.com/xavierca1/beauty-leads/internal/infra/memstore"
	"github.com/xavierca1/beauty-leads/internal/usecase"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memstore.Store
	tokens *auth.Service
	token  string
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	tokens := auth.New("test-secret", time.Hour)
	token, err := tokens.GenerateToken(auth.User{Username: "maya", Name: "Maya"})
	require.NoError(t, err)

	leads := NewLeadHandler(store, nil, nil, apperror.NewValidator(), nil)
	leads.Now = func() time.Time { return testNow }
	authH := NewAuthHandler(tokens, nil)
	stream := NewStreamHandler(NewHub(), usecase.NewLiveCollection(store, store, nil), tokens, []string{"*"}, nil)

	r := chi.NewRouter()
	r.Get("/api/leads/stream", stream.Handle)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens))
		r.Get("/api/me", authH.Me)
		r.Post("/api/logout", authH.Logout)
		r.Get("/api/leads", leads.List)
		r.Post("/api/leads", leads.Create)
		r.Get("/api/leads/{id}", leads.Get)
		r.Put("/api/leads/{id}", leads.Update)
		r.Post("/api/leads/{id}/descriptions", leads.AppendDescription)
		r.Delete("/api/leads/{id}", leads.Delete)
	})

	return &fixture{store: store, tokens: tokens, token: token, router: r}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+f.token)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) seed(t *testing.T, name string, status entity.Status, at time.Time) string {
	t.Helper()
	lead := &entity.Lead{
		LeadFormData: entity.LeadFormData{
			FullName:    name,
			Source:      entity.SourceInstagram,
			Status:      status,
			InquiryType: entity.InquiryBridalFull,
			Closed:      status == entity.StatusClosed,
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, f.store.Create(context.Background(), lead))
	return lead.ID
}

func validRequest() LeadRequest {
	return LeadRequest{
		FullName:    "Noa Levi",
		Source:      string(entity.SourceInstagram),
		Status:      string(entity.StatusNew),
		InquiryType: string(entity.InquiryBridalFull),
	}
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestCreateLead(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Descriptions = []DescriptionRequest{{Text: "first call"}}

	w := f.do(t, http.MethodPost, "/api/leads", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeBody[LeadResponse](t, w)
	assert.NotEmpty(t, resp.Lead.ID)
	assert.Equal(t, testNow, resp.Lead.CreatedAt)
	assert.Equal(t, resp.Lead.CreatedAt, resp.Lead.UpdatedAt)
	assert.Equal(t, "instagram", resp.Lead.SourceSlug)
	assert.Equal(t, 1, resp.Lead.EntriesCount)
	assert.Equal(t, []Toast{{Kind: ToastSuccess, Message: usecase.MsgLeadCreated}}, resp.Toasts)

	stored, err := f.store.FindByID(context.Background(), resp.Lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Noa Levi", stored.FullName)
	assert.Equal(t, entity.Timeline{{Date: "10/06/2024", Text: "first call"}}, stored.Descriptions)
}

func TestCreateLeadTimelineFollowsAppendRule(t *testing.T) {
	f := newFixture(t)

	req := validRequest()
	req.Descriptions = []DescriptionRequest{{Text: "", Skipped: true}}
	w := f.do(t, http.MethodPost, "/api/leads", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody[LeadResponse](t, w)
	assert.Equal(t, entity.Timeline{{Date: "10/06/2024", Text: entity.SkipSentinel, Skipped: true}}, resp.Lead.Descriptions)

	req.Descriptions = []DescriptionRequest{{Text: "   "}}
	w = f.do(t, http.MethodPost, "/api/leads", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_DESCRIPTION", decodeBody[ErrorResponse](t, w).Error)

	leads, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestCreateLeadValidation(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Source = "fax"
	req.Status = ""

	w := f.do(t, http.MethodPost, "/api/leads", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, "VALIDATION_ERROR", body.Error)
	assert.Len(t, body.Fields, 2)

	r := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader("{"))
	r.Header.Set("Authorization", "Bearer "+f.token)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListFiltersAndCounts(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "Noa Levi", entity.StatusNew, testNow.Add(-2*time.Hour))
	f.seed(t, "Dana Cohen", entity.StatusClosed, testNow.Add(-time.Hour))

	w := f.do(t, http.MethodGet, "/api/leads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decodeBody[ListResponse](t, w)
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, "Dana Cohen", all.Leads[0].FullName)
	assert.False(t, all.HasActiveFilters)

	w = f.do(t, http.MethodGet, "/api/leads?"+url.Values{"status": {string(entity.StatusClosed)}}.Encode(), nil)
	closed := decodeBody[ListResponse](t, w)
	require.Len(t, closed.Leads, 1)
	assert.Equal(t, "Dana Cohen", closed.Leads[0].FullName)
	assert.Equal(t, 1, closed.Shown)
	assert.Equal(t, 2, closed.Total)
	assert.Equal(t, 1, closed.Stats.Closed)
	assert.True(t, closed.HasActiveFilters)

	w = f.do(t, http.MethodGet, "/api/leads?q=noa", nil)
	search := decodeBody[ListResponse](t, w)
	require.Len(t, search.Leads, 1)
	assert.Equal(t, "Noa Levi", search.Leads[0].FullName)

	w = f.do(t, http.MethodGet, "/api/leads?paid=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListServesCache(t *testing.T) {
	f := newFixture(t)
	cache := usecase.NewLeadCache()
	cache.Replace([]entity.Lead{{ID: "cached", LeadFormData: entity.LeadFormData{FullName: "from cache"}}})

	h := NewLeadHandler(f.store, cache, nil, apperror.NewValidator(), nil)
	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/leads", nil))

	resp := decodeBody[ListResponse](t, w)
	require.Len(t, resp.Leads, 1)
	assert.Equal(t, "from cache", resp.Leads[0].FullName)
}

func TestListFlagsFrozenCache(t *testing.T) {
	f := newFixture(t)
	cache := usecase.NewLeadCache()
	cache.Replace([]entity.Lead{{ID: "cached", LeadFormData: entity.LeadFormData{FullName: "from cache"}}})
	cache.MarkFailed(errors.New("permission denied"))

	h := NewLeadHandler(f.store, cache, nil, apperror.NewValidator(), nil)
	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/leads", nil))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[ListResponse](t, w)
	require.Len(t, resp.Leads, 1)
	assert.Equal(t, []Toast{{Kind: ToastError, Message: usecase.MsgLoadFailed}}, resp.Toasts)

	cache.Replace(nil)
	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/leads", nil))
	assert.Empty(t, decodeBody[ListResponse](t, w).Toasts)
}

type failingStore struct {
	*memstore.Store
}

func (failingStore) List(context.Context) ([]entity.Lead, error) {
	return nil, errors.New("permission denied")
}

func (failingStore) Create(context.Context, *entity.Lead) error {
	return errors.New("network unreachable")
}

func TestListLoadFailure(t *testing.T) {
	h := NewLeadHandler(failingStore{memstore.New()}, nil, nil, apperror.NewValidator(), nil)
	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/leads", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, []Toast{{Kind: ToastError, Message: usecase.MsgLoadFailed}}, body.Toasts)
}

func TestCreateFailureReturnsSingleErrorToast(t *testing.T) {
	h := NewLeadHandler(failingStore{memstore.New()}, nil, nil, apperror.NewValidator(), nil)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(validRequest()))
	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/leads", &buf))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, "SAVE_FAILED", body.Error)
	assert.Equal(t, []Toast{{Kind: ToastError, Message: usecase.MsgSaveFailed}}, body.Toasts)
}

func TestGetLead(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, "", entity.StatusNew, testNow)

	w := f.do(t, http.MethodGet, "/api/leads/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[LeadResponse](t, w)
	assert.Equal(t, entity.UnnamedLead, resp.Lead.DisplayName)
	assert.NotNil(t, resp.Lead.Descriptions)

	w = f.do(t, http.MethodGet, "/api/leads/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateLeadKeepsCreatedAtAndTimeline(t *testing.T) {
	f := newFixture(t)
	created := testNow.Add(-48 * time.Hour)
	id := f.seed(t, "Noa", entity.StatusNew, created)

	w := f.do(t, http.MethodPost, "/api/leads/"+id+"/descriptions", AppendDescriptionRequest{Text: "sent prices"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req := validRequest()
	req.Status = string(entity.StatusFollowUp)
	w = f.do(t, http.MethodPut, "/api/leads/"+id, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[LeadResponse](t, w)
	assert.Equal(t, created, resp.Lead.CreatedAt)
	assert.Equal(t, testNow, resp.Lead.UpdatedAt)
	assert.Equal(t, entity.StatusFollowUp, resp.Lead.Status)
	require.Len(t, resp.Lead.Descriptions, 1)
	assert.Equal(t, entity.DescriptionEntry{Date: "10/06/2024", Text: "sent prices"}, resp.Lead.Descriptions[0])
	assert.Equal(t, []Toast{{Kind: ToastSuccess, Message: usecase.MsgLeadUpdated}}, resp.Toasts)

	w = f.do(t, http.MethodPut, "/api/leads/missing", req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateRejectsTimelineChanges(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, "Noa", entity.StatusNew, testNow.Add(-time.Hour))
	w := f.do(t, http.MethodPost, "/api/leads/"+id+"/descriptions", AppendDescriptionRequest{Text: "sent prices"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored := decodeBody[LeadResponse](t, w).Lead.Descriptions

	req := UpdateLeadRequest{LeadRequest: validRequest()}
	rewritten := entity.Timeline{{Date: "01/01/2024", Text: "rewritten"}}
	req.Descriptions = &rewritten
	w = f.do(t, http.MethodPut, "/api/leads/"+id, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TIMELINE_READ_ONLY", decodeBody[ErrorResponse](t, w).Error)

	req.Descriptions = &stored
	w = f.do(t, http.MethodPut, "/api/leads/"+id, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, stored, decodeBody[LeadResponse](t, w).Lead.Descriptions)
}

func TestAppendDescription(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, "Noa", entity.StatusNew, testNow)

	w := f.do(t, http.MethodPost, "/api/leads/"+id+"/descriptions", AppendDescriptionRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/leads/"+id+"/descriptions", AppendDescriptionRequest{Skipped: true})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[LeadResponse](t, w)
	require.Len(t, resp.Lead.Descriptions, 1)
	assert.Equal(t, entity.SkipSentinel, resp.Lead.Descriptions[0].Text)
	assert.True(t, resp.Lead.Descriptions[0].Skipped)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, "Noa", entity.StatusNew, testNow)

	w := f.do(t, http.MethodDelete, "/api/leads/"+id, nil)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	assert.Equal(t, usecase.MsgConfirmDelete, decodeBody[ErrorResponse](t, w).Message)
	_, err := f.store.FindByID(context.Background(), id)
	require.NoError(t, err)

	w = f.do(t, http.MethodDelete, "/api/leads/"+id, nil, ConfirmHeader, "false")
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)

	w = f.do(t, http.MethodDelete, "/api/leads/"+id, nil, ConfirmHeader, "true")
	require.Equal(t, http.StatusOK, w.Code)
	_, err = f.store.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
}

func TestDeleteConfirmQuery(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, "Noa", entity.StatusNew, testNow)

	w := f.do(t, http.MethodDelete, "/api/leads/"+id+"?confirm=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), usecase.MsgLeadDeleted)
}

func TestMeAndLogout(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, auth.User{Username: "maya", Name: "Maya"}, decodeBody[auth.User](t, w))

	w = f.do(t, http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"redirect": "/"}, decodeBody[map[string]string](t, w))

	w = f.do(t, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	cache := usecase.NewLeadCache()
	h := NewHealthHandler(cache, map[string]Probe{
		"database": func(context.Context) error { return nil },
		"rabbitmq": nil,
	})

	w := httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Dependencies["database"])
	assert.Equal(t, "not configured", resp.Dependencies["rabbitmq"])
	assert.Equal(t, "loading", resp.Dependencies["live_sync"])
	assert.Empty(t, resp.SnapshotAt)

	cache.Replace([]entity.Lead{{ID: "a"}})
	w = httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	resp = decodeBody[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Dependencies["live_sync"])
	assert.NotEmpty(t, resp.SnapshotAt)

	cache.MarkFailed(errors.New("permission denied"))
	w = httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func readFrame(t *testing.T, conn *websocket.Conn) StreamFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame StreamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestStreamPushesFilteredSnapshots(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "Noa Levi", entity.StatusNew, testNow.Add(-time.Hour))

	srv := httptest.NewServer(f.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/leads/stream?token=" + f.token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn)
	require.Equal(t, FrameSnapshot, first.Type)
	assert.Equal(t, 1, first.Data.Total)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "filter", Filter: map[string]string{"status": string(entity.StatusClosed)}}))
	filtered := readFrame(t, conn)
	require.Equal(t, FrameSnapshot, filtered.Type)
	assert.Equal(t, 0, filtered.Data.Shown)
	assert.True(t, filtered.Data.HasActiveFilters)

	f.seed(t, "Dana Cohen", entity.StatusClosed, testNow)
	var live StreamFrame
	for i := 0; i < 5; i++ {
		live = readFrame(t, conn)
		if live.Data != nil && live.Data.Shown == 1 {
			break
		}
	}
	require.NotNil(t, live.Data)
	assert.Equal(t, "Dana Cohen", live.Data.Leads[0].FullName)
	assert.Equal(t, 2, live.Data.Total)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "filter", Filter: map[string]string{"paid": "maybe"}}))
	assert.Equal(t, FrameError, readFrame(t, conn).Type)
}

func TestStreamSendsLoadFailureToast(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/leads/stream?token=" + f.token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, FrameSnapshot, readFrame(t, conn).Type)

	f.store.FailWatchers(errors.New("permission denied"))
	frame := readFrame(t, conn)
	require.Equal(t, FrameToast, frame.Type)
	assert.Equal(t, &Toast{Kind: ToastError, Message: usecase.MsgLoadFailed}, frame.Toast)
}

func TestStreamRejectsMissingToken(t *testing.T) {
	f := newFixture(t)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/"`)
}
