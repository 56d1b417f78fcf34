package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSendsPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch, err := NewWebhookChannel(srv.URL)
	require.NoError(t, err)

	require.NoError(t, ch.Send(context.Background(), "LOW STOCK WARNING - Coke", "<h2>warning</h2>"))
	assert.Equal(t, "LOW STOCK WARNING - Coke", got.Subject)
	assert.Equal(t, "<h2>warning</h2>", got.HTML)
}

func TestWebhookRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ch, err := NewWebhookChannel(srv.URL)
	require.NoError(t, err)

	assert.Error(t, ch.Send(context.Background(), "subject", "body"))
}

func TestWebhookRequiresURL(t *testing.T) {
	_, err := NewWebhookChannel("")
	assert.Error(t, err)
}
