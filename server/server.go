// Package server serves the published documents over HTTP and refreshes
// them on demand and on a schedule.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"bistscrapper/logger"
	"bistscrapper/pipeline"
	"bistscrapper/publish"
	"bistscrapper/scraper"
	"bistscrapper/utils"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresher runs scrape jobs.
type Refresher interface {
	Run(ctx context.Context, job string) (pipeline.Summary, error)
	RunAll(ctx context.Context) ([]pipeline.Summary, error)
}

// URLScraper parses a single page with whichever source handles it.
type URLScraper interface {
	ScrapeURL(ctx context.Context, rawURL string) (scraper.Result, error)
}

type Server struct {
	router   *mux.Router
	out      *publish.Writer
	runner   Refresher
	scraper  URLScraper
	gatherer prometheus.Gatherer
	log      logger.Logger
}

// New wires the routes. A nil gatherer serves the default registry.
func New(out *publish.Writer, runner Refresher, s URLScraper, gatherer prometheus.Gatherer, log logger.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	srv := &Server{router: mux.NewRouter(), out: out, runner: runner, scraper: s, gatherer: gatherer, log: log}
	srv.routes()
	return srv
}

// documents maps API paths to published files.
var documents = map[string]string{
	"/api/ipos":              pipeline.FileIPOs,
	"/api/piapiri":           pipeline.FilePiapiri,
	"/api/capital-increases": pipeline.FileCapital,
	"/api/target-prices":     pipeline.FileTargets,
	"/api/dividends":         pipeline.FileDividends,
	"/api/dividends/archive": pipeline.DirDividendArchive + "/index.json",
	"/api/stocks":            pipeline.FileQuotes,
	"/api/brokers":           pipeline.FileBrokers,
}

func (s *Server) routes() {
	for path, file := range documents {
		s.router.HandleFunc(path, s.serveFile(file)).Methods(http.MethodGet)
	}
	s.router.HandleFunc("/api/dividends/archive/{year:[0-9]{4}}", s.archiveHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/api/refresh", s.refreshAllHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/refresh/{job}", s.refreshHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/scrape", s.scrapeHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Handler returns the router wrapped with panic recovery, CORS and access
// logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = handlers.CombinedLoggingHandler(logWriter{s.log}, h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.log}))(h)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	s.log.Info("server listening", logger.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) serveFile(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := s.out.Read(name)
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "document not published yet")
			return
		}
		if err != nil {
			s.log.Error("reading document failed", logger.String("file", name), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "document unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		_, _ = w.Write(data)
	}
}

func (s *Server) archiveHandler(w http.ResponseWriter, r *http.Request) {
	year := mux.Vars(r)["year"]
	s.serveFile(pipeline.DirDividendArchive+"/temettu_"+year+".json")(w, r)
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	job := mux.Vars(r)["job"]
	summary, err := s.runner.Run(r.Context(), job)
	switch {
	case errors.Is(err, pipeline.ErrUnknownJob):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) refreshAllHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.runner.RunAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "jobs": summaries})
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) scrapeHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	res, err := s.scraper.ScrapeURL(r.Context(), body.URL)
	switch {
	case errors.Is(err, scraper.ErrNoSource):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]any{"source": res.Source, "count": res.Count, "data": res.Data})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := utils.MarshalIndent(v)
	if err != nil {
		http.Error(w, "Error marshaling to JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// logWriter sends access log lines to the structured logger.
type logWriter struct{ log logger.Logger }

func (l logWriter) Write(p []byte) (int, error) {
	l.log.Info("http request", logger.String("line", strings.TrimSpace(string(p))))
	return len(p), nil
}

type recoveryLogger struct{ log logger.Logger }

func (l recoveryLogger) Println(v ...any) {
	l.log.Error("handler panic", logger.Any("panic", v))
}
