package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"vet-med-tracker/internal/offline/queue"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seen struct {
	method, path, body, key, user, auth string
}

func newServer(t *testing.T, status int) (*httptest.Server, func() []seen) {
	t.Helper()
	var mu sync.Mutex
	var calls []seen

	r := chi.NewRouter()
	record := func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		mu.Lock()
		calls = append(calls, seen{
			method: req.Method,
			path:   req.URL.Path,
			body:   string(b),
			key:    req.Header.Get("Idempotency-Key"),
			user:   req.Header.Get("X-Debug-User-ID"),
			auth:   req.Header.Get("Authorization"),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}
	r.Post("/animals/{animalID}/administrations", record)
	r.Patch("/inventory/{itemID}", record)
	r.Post("/inventory/{itemID}/in-use", record)
	r.Get("/health", record)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, func() []seen {
		mu.Lock()
		defer mu.Unlock()
		return append([]seen(nil), calls...)
	}
}

func TestDispatch_RoutesEachKind(t *testing.T) {
	srv, calls := newServer(t, http.StatusCreated)
	d, err := NewDispatcher(Config{BaseURL: srv.URL, Timeout: time.Second, UserID: "u-1", HouseholdID: "h-1"})
	require.NoError(t, err)

	ctx := context.Background()
	delta := -1.0
	require.NoError(t, d.Dispatch(ctx, "k-admin", queue.CreateAdministration{
		AnimalID: "a-1", RegimenID: "r-1", AdministeredAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}, nil))
	require.NoError(t, d.Dispatch(ctx, "k-inv", queue.UpdateInventory{ItemID: "i-1", QuantityDelta: &delta}, nil))
	require.NoError(t, d.Dispatch(ctx, "k-use", queue.MarkInventoryInUse{ItemID: "i-1"}, nil))

	got := calls()
	require.Len(t, got, 3)

	assert.Equal(t, http.MethodPost, got[0].method)
	assert.Equal(t, "/animals/a-1/administrations", got[0].path)
	assert.Equal(t, "k-admin", got[0].key)
	assert.JSONEq(t, `{"animal_id":"a-1","regimen_id":"r-1","administered_at":"2025-03-10T08:00:00Z"}`, got[0].body)
	assert.Equal(t, "u-1", got[0].user)

	assert.Equal(t, http.MethodPatch, got[1].method)
	assert.Equal(t, "/inventory/i-1", got[1].path)
	assert.JSONEq(t, `{"item_id":"i-1","quantity_delta":-1}`, got[1].body)
	assert.Equal(t, "k-inv", got[1].key)

	assert.Equal(t, "/inventory/i-1/in-use", got[2].path)
	assert.Empty(t, got[2].body)
}

func TestDispatch_SendsStoredPayloadVerbatim(t *testing.T) {
	srv, calls := newServer(t, http.StatusCreated)
	d, err := NewDispatcher(Config{BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)

	// Encolado por un cliente más nuevo: trae campos que este build no conoce.
	stored := json.RawMessage(`{"animal_id":"a-1","regimen_id":"r-1","administered_at":"2025-03-10T08:00:00Z","site":"left ear"}`)
	m, err := queue.Decode(queue.KindCreateAdministration, stored)
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), "k", m, stored))

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, "/animals/a-1/administrations", got[0].path)
	assert.JSONEq(t, string(stored), got[0].body)
}

func TestDispatch_ErrorClassification(t *testing.T) {
	cases := map[int]bool{ // status -> permanent
		http.StatusBadRequest:          true,
		http.StatusForbidden:           true,
		http.StatusConflict:            true,
		http.StatusRequestTimeout:      false,
		http.StatusTooManyRequests:     false,
		http.StatusInternalServerError: false,
		http.StatusBadGateway:          false,
	}
	for status, permanent := range cases {
		srv, _ := newServer(t, status)
		d, err := NewDispatcher(Config{BaseURL: srv.URL, Timeout: time.Second})
		require.NoError(t, err)

		err = d.Dispatch(context.Background(), "k", queue.MarkInventoryInUse{ItemID: "i-1"}, nil)
		require.Error(t, err)
		assert.Equal(t, permanent, errors.Is(err, queue.ErrPermanent), "status %d", status)
	}
}

func TestDispatch_NetworkErrorIsTransient(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	d, err := NewDispatcher(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	err = d.Dispatch(context.Background(), "k", queue.MarkInventoryInUse{ItemID: "i-1"}, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, queue.ErrPermanent))
}

func TestBearerTokenWinsOverDebugHeaders(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK)
	p, err := NewHealthProber(Config{BaseURL: srv.URL, AuthToken: "tok", UserID: "u-1"})
	require.NoError(t, err)

	require.NoError(t, p.Probe(context.Background()))
	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, "Bearer tok", got[0].auth)
	assert.Empty(t, got[0].user)
}

func TestNewDispatcher_RequiresBaseURL(t *testing.T) {
	_, err := NewDispatcher(Config{})
	assert.Error(t, err)
}
