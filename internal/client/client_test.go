package client_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MegaGrindStone/portfolio-chat/internal/client"
	"github.com/MegaGrindStone/portfolio-chat/internal/endpoint"
	"github.com/MegaGrindStone/portfolio-chat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, baseURL string) client.Client {
	t.Helper()
	r := endpoint.New(endpoint.Config{
		BaseURL:   baseURL,
		Endpoints: map[string]string{endpoint.Chat: "/api/chat", endpoint.Health: "/api/health"},
	}, "portfolio.example", nil)
	return client.New(r, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSend(t *testing.T) {
	var got models.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.ChatResponse{Response: "Hi there"})
	}))
	defer srv.Close()

	reply, err := newClient(t, srv.URL).Send(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply)
	assert.Equal(t, []models.ChatMessage{{Role: models.RoleUser, Content: "Hello"}}, got.Messages)
}

func TestSendFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"detail":"boom"}`))
			},
			status: http.StatusInternalServerError,
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", http.StatusBadRequest)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newClient(t, srv.URL).Send(context.Background(), "Hello")
			require.Error(t, err)
			if tt.status != 0 {
				assert.True(t, client.IsStatus(err, tt.status), "got %v", err)
			}
		})
	}
}

func TestSendStatusErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"boom"}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Send(context.Background(), "Hello")
	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "boom", se.Detail)
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url).Send(context.Background(), "Hello")
	require.Error(t, err)
	assert.False(t, client.IsStatus(err, http.StatusNotFound))
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","message":"Portfolio API is running"}`))
	}))
	defer srv.Close()

	h, err := newClient(t, srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "Portfolio API is running", h.Message)
}
