package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.QuizFinished(true)
	m.QuizFinished(false)
	m.QuizFinished(true)
	m.ProgressChanged("quiz")
	m.SyncFinished("push", nil, 10*time.Millisecond)
	m.SyncFinished("push", errors.New("offline"), time.Millisecond)
	m.SetCompletion("alice", 42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QuizzesTotal.WithLabelValues("passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuizzesTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProgressChanges.WithLabelValues("quiz")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncTotal.WithLabelValues("push", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncTotal.WithLabelValues("push", "error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.CompletionPercent.WithLabelValues("alice")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/users/alice")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/users/{id}", "418")))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "studyplan_http_requests_total")
}
