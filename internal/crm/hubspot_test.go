package crm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"sync/atomic"
	"time"

	"outreach-sync/internal/config"
	"outreach-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jane = domain.Contact{
	Email: "jane@x.com", FirstName: "Jane", LastName: "Doe", JobTitle: "Engineer",
	Company: "Acme", LinkedInURL: "http://li/jane", Industry: "Tech", CompanySize: "50-100",
}

type captured struct {
	method string
	auth   string
	ctype  string
	body   map[string]any
}

func newServer(t *testing.T, status int, respBody string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.method = r.Method
			got.auth = r.Header.Get("Authorization")
			got.ctype = r.Header.Get("Content-Type")
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUpsertCreated(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusCreated, `{"id":"1"}`, &got)

	c := New(Config{Endpoint: srv.URL, Token: "tok"}, nil)
	res := c.Upsert(context.Background(), jane)

	require.True(t, res.OK)
	assert.False(t, res.Duplicate)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.NoError(t, res.Err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Contains(t, got.ctype, "application/json")
	assert.Equal(t, map[string]any{
		"properties": map[string]any{
			"email":           "jane@x.com",
			"firstname":       "Jane",
			"lastname":        "Doe",
			"jobtitle":        "Engineer",
			"company":         "Acme",
			"hs_linkedin_url": "http://li/jane",
			"industry":        "Tech",
			"company_size":    "50-100",
		},
	}, got.body)
}

func TestUpsertDuplicateIsSuccess(t *testing.T) {
	srv := newServer(t, http.StatusConflict,
		`{"status":"error","message":"Contact already exists. Existing ID: 101","category":"CONFLICT"}`, nil)

	res := New(Config{Endpoint: srv.URL, Token: "tok"}, nil).Upsert(context.Background(), jane)

	assert.True(t, res.OK)
	assert.True(t, res.Duplicate)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.NoError(t, res.Err)
}

func TestUpsertRejected(t *testing.T) {
	srv := newServer(t, http.StatusBadRequest, `{"status":"error","message":"Property values were not valid"}`, nil)

	res := New(Config{Endpoint: srv.URL, Token: "tok"}, nil).Upsert(context.Background(), jane)

	assert.False(t, res.OK)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.ErrorIs(t, res.Err, ErrRejected)
	assert.Contains(t, res.Err.Error(), "Property values were not valid")
}

func TestUpsertRejectedNonJSONBody(t *testing.T) {
	srv := newServer(t, http.StatusBadGateway, `upstream down`, nil)

	res := New(Config{Endpoint: srv.URL, Token: "tok"}, nil).Upsert(context.Background(), jane)

	assert.False(t, res.OK)
	assert.ErrorContains(t, res.Err, "upstream down")
}

func TestUpsertTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := New(Config{Endpoint: url, Token: "tok", Timeout: time.Second}, nil).Upsert(context.Background(), jane)

	assert.False(t, res.OK)
	assert.Zero(t, res.StatusCode)
	assert.Error(t, res.Err)
	assert.NotErrorIs(t, res.Err, ErrRejected)
}

func TestUpsertCancelledContext(t *testing.T) {
	srv := newServer(t, http.StatusCreated, `{}`, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(Config{Endpoint: srv.URL, Token: "tok"}, nil).Upsert(ctx, jane)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestUpsertWithoutTokenMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{Endpoint: srv.URL, Token: "  "}, nil)
	require.ErrorIs(t, c.Ready(), config.ErrNotConfigured)

	res := c.Upsert(context.Background(), jane)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, config.ErrNotConfigured)
	assert.Zero(t, hits.Load())
}

func TestTokenSourceResolvedLazily(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusCreated, `{}`, &got)

	var calls int
	tok := ""
	c := New(Config{Endpoint: srv.URL, Token: "ignored", TokenSource: func() (string, error) {
		calls++
		return tok, nil
	}}, nil)

	require.ErrorIs(t, c.Ready(), config.ErrNotConfigured)

	tok = "later"
	require.NoError(t, c.Ready())
	res := c.Upsert(context.Background(), jane)
	require.True(t, res.OK)
	assert.Equal(t, "Bearer later", got.auth)
	assert.Equal(t, 2, calls, "token is cached after the first success")
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, IsDuplicate(`{"message":"Contact already exists. Existing ID: 5"}`))
	assert.False(t, IsDuplicate(`{"message":"contact already exists"}`))
	assert.False(t, IsDuplicate(""))
}
