package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/tripflow/internal/logging"
	"github.com/dmitrijs2005/tripflow/internal/netx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppNotifier_Send(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotMsg  message
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotMsg)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.123"}]}`))
	}))
	defer ts.Close()

	n := NewWhatsAppNotifier(ts.Client(), ts.URL+"/v21.0/", "1234567890", "secret-token", logging.Nop())
	err := n.Send(context.Background(), "+15551234567", "Your trip to Kyoto, Japan is confirmed!")
	require.NoError(t, err)

	assert.Equal(t, "/v21.0/1234567890/messages", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "whatsapp", gotMsg.MessagingProduct)
	assert.Equal(t, "15551234567", gotMsg.To)
	assert.Equal(t, "text", gotMsg.Type)
	assert.Equal(t, "Your trip to Kyoto, Japan is confirmed!", gotMsg.Text.Body)
}

func TestWhatsAppNotifier_SendRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer ts.Close()

	n := NewWhatsAppNotifier(ts.Client(), ts.URL, "1", "bad", logging.Nop())
	err := n.Send(context.Background(), "15551234567", "hi")
	require.Error(t, err)

	var se *netx.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Contains(t, se.Body, "Invalid OAuth access token")
}

func TestWhatsAppNotifier_NoRecipient(t *testing.T) {
	n := NewWhatsAppNotifier(nil, "http://127.0.0.1:1", "1", "t", logging.Nop())
	assert.ErrorIs(t, n.Send(context.Background(), "  ", "hi"), ErrNoRecipient)
}

func TestLogNotifier_Send(t *testing.T) {
	n := NewLogNotifier(logging.Nop())
	assert.NoError(t, n.Send(context.Background(), "15551234567", "hi"))
	assert.ErrorIs(t, n.Send(context.Background(), "", "hi"), ErrNoRecipient)
}
