package check

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agebe/pingalert/internal/model"
)

func httpTarget(url string) model.Target {
	return model.Target{ID: "h", Kind: model.KindHTTP, Endpoint: url, DisplayURL: url}
}

func TestClassify(t *testing.T) {
	cases := map[int]bool{
		99:  false,
		100: true,
		200: true,
		301: true,
		404: true,
		499: true,
		500: false,
		503: false,
	}
	for status, want := range cases {
		assert.Equal(t, want, Classify(status), "status %d", status)
	}
}

func TestCheckHTTP(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"ok", http.StatusOK, true},
		{"not found counts as up", http.StatusNotFound, true},
		{"unauthorized counts as up", http.StatusUnauthorized, true},
		{"service unavailable is down", http.StatusServiceUnavailable, false},
		{"internal error is down", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body is discarded"))
			}))
			defer srv.Close()

			up, err := NewRunner("", 0).Check(context.Background(), httpTarget(srv.URL))
			require.NoError(t, err)
			assert.Equal(t, tt.want, up)
		})
	}
}

func TestCheckHTTP_DoesNotFollowRedirects(t *testing.T) {
	var followed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			followed = true
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		http.Redirect(w, r, "/broken", http.StatusFound)
	}))
	defer srv.Close()

	up, err := NewRunner("", 0).Check(context.Background(), httpTarget(srv.URL+"/start"))
	require.NoError(t, err)
	assert.True(t, up)
	assert.False(t, followed)
}

func TestCheckHTTP_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	up, err := NewRunner("", 0).Check(context.Background(), httpTarget(url))
	require.NoError(t, err)
	assert.False(t, up)
}

func TestCheckHTTP_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	up, err := NewRunner("", 50*time.Millisecond).Check(context.Background(), httpTarget(srv.URL))
	require.NoError(t, err)
	assert.False(t, up)
}

func TestCheckPing(t *testing.T) {
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true no disponible")
	}
	falsePath, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false no disponible")
	}
	target := model.Target{ID: "p", Kind: model.KindPing, Endpoint: "127.0.0.1", DisplayURL: "ping://127.0.0.1"}

	up, err := NewRunner(truePath, 0).Check(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, up)

	up, err = NewRunner(falsePath, 0).Check(context.Background(), target)
	require.NoError(t, err)
	assert.False(t, up)
}

func TestCheckPing_MissingBinaryIsEnvironmentError(t *testing.T) {
	target := model.Target{ID: "p", Kind: model.KindPing, Endpoint: "127.0.0.1"}
	missing := filepath.Join(t.TempDir(), "no-such-ping")

	up, err := NewRunner(missing, 0).Check(context.Background(), target)
	require.Error(t, err)
	assert.False(t, up)
}

func TestCheck_UnknownKind(t *testing.T) {
	_, err := NewRunner("", 0).Check(context.Background(), model.Target{Kind: model.TargetKind(99)})
	assert.ErrorIs(t, err, ErrUnknownKind)
}
