package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_RawBodyAndHeaders(t *testing.T) {
	var gotBody string
	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"adm-1"}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, time.Second)
	require.NoError(t, err)
	c.Header.Set("Authorization", "Bearer tok")

	var out struct {
		ID string `json:"id"`
	}
	err = c.DoJSON(context.Background(), http.MethodPost, "animals/a-1/administrations",
		map[string]string{"Idempotency-Key": "k-1"}, json.RawMessage(`{"regimen_id":"r-1"}`), &out)
	require.NoError(t, err)

	assert.Equal(t, `{"regimen_id":"r-1"}`, gotBody)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "k-1", gotKey)
	assert.Equal(t, "adm-1", out.ID)
}

func TestDoJSON_HTTPErrorClassification(t *testing.T) {
	status := http.StatusBadRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", status)
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, time.Second)
	require.NoError(t, err)

	err = c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.False(t, IsTransient(err))

	for _, s := range []int{http.StatusInternalServerError, http.StatusTooManyRequests, http.StatusRequestTimeout} {
		status = s
		err = c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil)
		assert.True(t, IsTransient(err), "status %d", s)
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(context.Canceled))
	assert.True(t, IsTransient(errors.New("connection refused")))
	assert.True(t, IsTransient(context.DeadlineExceeded))
}

func TestDoJSON_RejectsInvalidRaw(t *testing.T) {
	c, err := NewWithBaseURL("http://localhost:1", time.Second)
	require.NoError(t, err)

	err = c.DoJSON(context.Background(), http.MethodPost, "/x", nil, json.RawMessage(`{bad`), nil)
	assert.ErrorContains(t, err, "invalid raw json")
}

func TestResolveURL(t *testing.T) {
	c := New(0)
	_, err := c.resolveURL("/x")
	assert.Error(t, err)

	u, err := c.resolveURL("https://idp.example/v1")
	require.NoError(t, err)
	assert.Equal(t, "https://idp.example/v1", u)
}
