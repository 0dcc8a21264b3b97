package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bistscrapper/logger"
	"bistscrapper/pipeline"
	"bistscrapper/publish"
	"bistscrapper/scraper"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	runs []string
	err  error
}

func (f *fakeRunner) Run(_ context.Context, job string) (pipeline.Summary, error) {
	f.runs = append(f.runs, job)
	if job == "nope" {
		return pipeline.Summary{Job: job}, fmt.Errorf("%w: %q", pipeline.ErrUnknownJob, job)
	}
	return pipeline.Summary{Job: job, Records: 3, Files: []string{"x.json"}}, f.err
}

func (f *fakeRunner) RunAll(ctx context.Context) ([]pipeline.Summary, error) {
	s, err := f.Run(ctx, "all")
	return []pipeline.Summary{s}, err
}

type fakeScraper struct{}

func (fakeScraper) ScrapeURL(_ context.Context, rawURL string) (scraper.Result, error) {
	switch {
	case strings.Contains(rawURL, "halkarz"):
		return scraper.Result{Source: "halkarz", Data: []string{"a"}, Count: 1}, nil
	case strings.Contains(rawURL, "down"):
		return scraper.Result{}, errors.New("timeout")
	}
	return scraper.Result{}, scraper.ErrNoSource
}

func newTestServer(t *testing.T) (*Server, *publish.Writer, *fakeRunner) {
	t.Helper()
	out := publish.New(t.TempDir())
	runner := &fakeRunner{}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "bist_test_total", Help: "test"}))
	return New(out, runner, fakeScraper{}, reg, logger.NewNop()), out, runner
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServesPublishedDocuments(t *testing.T) {
	srv, out, _ := newTestServer(t)
	require.NoError(t, out.WriteJSON(pipeline.FileIPOs, map[string]any{"active_ipos": []any{}, "draft_ipos": []any{}}))
	require.NoError(t, out.WriteJSON(pipeline.DirDividendArchive+"/temettu_2024.json", []any{map[string]any{"t_bistkod": "AAA"}}))

	rec := do(t, srv.Handler(), http.MethodGet, "/api/ipos", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"active_ipos":[],"draft_ipos":[]}`, rec.Body.String())

	rec = do(t, srv.Handler(), http.MethodGet, "/api/dividends/archive/2024", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AAA")

	rec = do(t, srv.Handler(), http.MethodGet, "/api/stocks", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/dividends/archive/24", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefresh(t *testing.T) {
	srv, _, runner := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/refresh/capital", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary pipeline.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "capital", summary.Job)
	assert.Equal(t, 3, summary.Records)

	rec = do(t, srv.Handler(), http.MethodPost, "/api/refresh/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/refresh/capital", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	runner.err = errors.New("disk full")
	rec = do(t, srv.Handler(), http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk full")

	assert.Equal(t, []string{"capital", "nope", "all"}, runner.runs)
}

func TestScrapeEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	tests := []struct {
		body string
		code int
	}{
		{`{"url":"https://halkarz.com/"}`, http.StatusOK},
		{`{"url":"https://example.com/"}`, http.StatusUnprocessableEntity},
		{`{"url":"https://down.example/"}`, http.StatusBadGateway},
		{`{"url":" "}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := do(t, srv.Handler(), http.MethodPost, "/api/scrape", tt.body)
		assert.Equal(t, tt.code, rec.Code, tt.body)
	}

	rec := do(t, srv.Handler(), http.MethodPost, "/api/scrape", `{"url":"https://halkarz.com/"}`)
	assert.JSONEq(t, `{"source":"halkarz","count":1,"data":["a"]}`, rec.Body.String())
}

func TestHealthMetricsAndCORS(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bist_test_total")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://example.com")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestScheduler(t *testing.T) {
	runner := &fakeRunner{}
	_, err := NewScheduler("not a schedule", runner, time.Minute, logger.NewNop())
	assert.Error(t, err)

	s, err := NewScheduler("0 */2 * * *", runner, time.Minute, logger.NewNop())
	require.NoError(t, err)
	s.Start()
	next := s.Next()
	s.Stop()
	assert.False(t, next.IsZero())
	assert.Equal(t, 0, next.Minute())

	s.run()
	assert.Equal(t, []string{"all"}, runner.runs)
}
