package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/NordCoder/Sentinel/internal/config/monitor"
	"github.com/NordCoder/Sentinel/internal/domain/check"
	"github.com/NordCoder/Sentinel/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTwilio(t *testing.T, h http.HandlerFunc) *Twilio {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewTwilio(config.Twilio{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+15550000000",
		BaseURL:    srv.URL + "/",
		Timeout:    2 * time.Second,
	}, zap.NewNop())
}

type twilioCall struct {
	path, user, pass string
	to, from, body   string
}

func TestTwilio_SendsForm(t *testing.T) {
	calls := make(chan twilioCall, 1)
	tw := newTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		assert.NoError(t, r.ParseForm())
		calls <- twilioCall{
			path: r.URL.Path, user: user, pass: pass,
			to: r.PostForm.Get("To"), from: r.PostForm.Get("From"), body: r.PostForm.Get("Body"),
		}
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, tw.Send(context.Background(), "5551234567", "hello"))
	got := <-calls
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.path)
	assert.Equal(t, "AC123", got.user)
	assert.Equal(t, "secret", got.pass)
	assert.Equal(t, "+15551234567", got.to)
	assert.Equal(t, "+15550000000", got.from)
	assert.Equal(t, "hello", got.body)
}

func TestTwilio_RejectsBadInput(t *testing.T) {
	var called atomic.Bool
	tw := newTwilio(t, func(w http.ResponseWriter, r *http.Request) { called.Store(true) })

	require.ErrorIs(t, tw.Send(context.Background(), "555", "hi"), ErrInvalidPhone)
	require.ErrorIs(t, tw.Send(context.Background(), "5551234567", "  "), ErrInvalidMessage)
	long := make([]byte, MaxMessageSize+1)
	for i := range long {
		long[i] = 'a'
	}
	require.ErrorIs(t, tw.Send(context.Background(), "5551234567", string(long)), ErrInvalidMessage)
	assert.False(t, called.Load())
}

func TestTwilio_NonSuccessStatus(t *testing.T) {
	tw := newTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	err := tw.Send(context.Background(), "5551234567", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestSMS_SendsAlertMessage(t *testing.T) {
	bodies := make(chan string, 1)
	tw := newTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		bodies <- r.PostForm.Get("Body")
		w.WriteHeader(http.StatusOK)
	})

	err := notification.SMS{S: tw}.Notify(context.Background(), notification.Alert{
		Phone:  "5551234567",
		Method: check.MethodPost,
		Target: "http://example.com/a",
		State:  check.StateUp,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alert: Your check for POST http://example.com/a is currently up", <-bodies)
}

func TestLog_RecordsAlert(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := NewLog(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), notification.Alert{CheckID: "c1", State: check.StateDown}))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "check state changed", entry.Message)
	assert.Equal(t, "c1", entry.ContextMap()["check_id"])
}
