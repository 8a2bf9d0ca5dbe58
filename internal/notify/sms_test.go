package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agebe/pingalert/internal/logging"
	"github.com/agebe/pingalert/internal/model"
)

type capturedSMS struct {
	token       string
	contentType string
	body        map[string]any
}

func smsServer(t *testing.T, status int) (*httptest.Server, *[]capturedSMS) {
	t.Helper()
	var got []capturedSMS
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		got = append(got, capturedSMS{
			token:       r.Header.Get("x-api-token"),
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newTestSMSSink(url, prefix, group string, log logging.Logger) *SMSSink {
	s := NewSMSSink("secret", prefix, group, log)
	s.Endpoint = url
	return s
}

func TestSMSSink_Escalation(t *testing.T) {
	srv, got := smsServer(t, http.StatusOK)
	log := &recordingLogger{}
	s := newTestSMSSink(srv.URL, "[lab] ", "", log)

	require.NoError(t, s.Send(context.Background(), event(model.EventEscalation, 3)))

	require.Len(t, *got, 1)
	req := (*got)[0]
	assert.Equal(t, "secret", req.token)
	assert.Equal(t, "application/json", req.contentType)
	assert.Equal(t, map[string]any{
		"Body":               "[lab] service 'web' is down",
		"Recipients":         []any{map[string]any{"type": "group", "value": "42"}},
		"From":               "",
		"AddUnsubscribeLink": false,
	}, req.body)
	assert.Contains(t, log.all(), "INFO notifyre respondio status '200'")
}

func TestSMSSink_RecoveryUsesDefaultGroupAndEndpointName(t *testing.T) {
	srv, got := smsServer(t, http.StatusOK)
	s := newTestSMSSink(srv.URL, "", "default", nil)

	ev := event(model.EventRecoveryAlert, 3)
	ev.Target.Name = ""
	ev.Target.Group = ""
	require.NoError(t, s.Send(context.Background(), ev))

	require.Len(t, *got, 1)
	assert.Equal(t, "service 'https://example.com' is back to normal", (*got)[0].body["Body"])
	recipients := (*got)[0].body["Recipients"].([]any)
	assert.Equal(t, "default", recipients[0].(map[string]any)["value"])
}

func TestSMSSink_StatusIsOnlyLogged(t *testing.T) {
	srv, got := smsServer(t, http.StatusUnauthorized)
	log := &recordingLogger{}
	s := newTestSMSSink(srv.URL, "", "", log)

	require.NoError(t, s.Send(context.Background(), event(model.EventEscalation, 3)))
	assert.Len(t, *got, 1)
	assert.Contains(t, log.all(), "INFO notifyre respondio status '401'")
}

func TestSMSSink_SkipsWithoutGroup(t *testing.T) {
	srv, got := smsServer(t, http.StatusOK)
	log := &recordingLogger{}
	s := newTestSMSSink(srv.URL, "", "", log)

	ev := event(model.EventEscalation, 3)
	ev.Target.Group = ""
	require.NoError(t, s.Send(context.Background(), ev))
	assert.Empty(t, *got)
	require.Len(t, log.all(), 1)
	assert.True(t, strings.HasPrefix(log.all()[0], "DEBUG"))
}

func TestSMSSink_IgnoresOtherEvents(t *testing.T) {
	srv, got := smsServer(t, http.StatusOK)
	s := newTestSMSSink(srv.URL, "", "", nil)

	require.NoError(t, s.Send(context.Background(), event(model.EventWarn, 1)))
	require.NoError(t, s.Send(context.Background(), event(model.EventRecoveryInfo, 1)))
	assert.Empty(t, *got)
}

func TestSMSSink_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := newTestSMSSink(url, "", "", nil)
	err := s.Send(context.Background(), event(model.EventEscalation, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "envio de SMS fallo")
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("ñ", 200)
	assert.Len(t, []rune(truncate(long, maxSMSLength)), maxSMSLength)
	assert.Equal(t, "corto", truncate("corto", maxSMSLength))
}
