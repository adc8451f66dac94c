// Package server is the HTTP + WebSocket API surface for PageWatch.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/pagewatch/internal/app"
	"github.com/raysh454/pagewatch/internal/diffview"
	"github.com/raysh454/pagewatch/internal/logging"
	"github.com/raysh454/pagewatch/internal/report"
	"github.com/raysh454/pagewatch/internal/search"
	"github.com/raysh454/pagewatch/internal/watcher"
)

// Server exposes the application over REST plus a websocket event stream.
type Server struct {
	cfg      Config
	app      *app.Application
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer creates a Server with its own Application.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	a, err := app.New(cfg.AppConfig, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:    cfg,
		app:    a,
		router: r,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// App returns the underlying application for advanced use (tests, etc.).
func (s *Server) App() *app.Application {
	return s.app
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/urls", s.optionsHandler("GET, POST, DELETE"))
	r.Options("/observe", s.optionsHandler("POST"))
	r.Options("/history", s.optionsHandler("GET, DELETE"))
	r.Options("/state", s.optionsHandler("GET, DELETE"))
	r.Options("/search", s.optionsHandler("POST"))
	r.Options("/report", s.optionsHandler("POST"))
	r.Options("/export", s.optionsHandler("POST"))
	r.Options("/export/history.csv", s.optionsHandler("GET"))
	r.Options("/diff", s.optionsHandler("POST"))
	r.Options("/checks/run", s.optionsHandler("POST"))
	r.Options("/ws/changes", s.optionsHandler("GET"))

	// Monitored URLs
	r.Get("/urls", s.handleListURLs)
	r.Post("/urls", s.handleAddURL)
	r.Delete("/urls", s.handleRemoveURL)

	// Detection
	r.Post("/observe", s.handleObserve)
	r.Post("/checks/run", s.handleRunChecks)

	// State
	r.Get("/history", s.handleGetHistory)
	r.Delete("/history", s.handleClearHistory)
	r.Get("/state", s.handleGetState)
	r.Delete("/state", s.handleClearState)

	// Search and reporting
	r.Post("/search", s.handleSearch)
	r.Post("/report", s.handleReport)
	r.Post("/export", s.handleExport)
	r.Get("/export/history.csv", s.handleExportHistoryCSV)
	r.Post("/diff", s.handleDiff)

	// WebSocket change events
	r.Get("/ws/changes", s.handleChangesWS)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body_bytes", Value: len(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the application and underlying resources.
func (s *Server) Close() {
	if s.app != nil {
		if err := s.app.Close(); err != nil {
			s.logger.Warn("closing application", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

// Monitored URLs

func (s *Server) handleListURLs(w http.ResponseWriter, r *http.Request) {
	urls := s.app.Store.URLs()
	s.logger.Info("listed urls", logging.Field{Key: "count", Value: len(urls)})
	writeJSON(w, http.StatusOK, map[string][]string{"urls": urls})
}

func (s *Server) handleAddURL(w http.ResponseWriter, r *http.Request) {
	var body addURLRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}

	canonical, err := s.app.AddURL(r.Context(), body.URL)
	if err != nil {
		if errors.Is(err, watcher.ErrAlreadyMonitored) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Warn("adding url", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("added url", logging.Field{Key: "url", Value: canonical})
	writeJSON(w, http.StatusCreated, addURLResponse{URL: canonical})
}

func (s *Server) handleRemoveURL(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "missing url query parameter")
		return
	}

	if err := s.app.RemoveURL(r.Context(), url); err != nil {
		if errors.Is(err, watcher.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Warn("removing url", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("removed url", logging.Field{Key: "url", Value: url})
	writeJSON(w, http.StatusNoContent, nil)
}

// Detection

func (s *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	var body observeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}

	outcome, rec, err := s.app.Detector.Observe(r.Context(), body.URL, body.HTML)
	if err != nil {
		if errors.Is(err, watcher.ErrEmptyContent) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Warn("observing", logging.Field{Key: "url", Value: body.URL}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, observeResponse{Outcome: outcome, Record: rec})
}

func (s *Server) handleRunChecks(w http.ResponseWriter, r *http.Request) {
	var body runChecksRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if body.URL != "" {
		outcome, err := s.app.Sched.RunNow(r.Context(), body.URL)
		res := []struct {
			URL     string          `json:"url"`
			Outcome watcher.Outcome `json:"outcome,omitempty"`
			Err     string          `json:"error,omitempty"`
		}{{URL: body.URL, Outcome: outcome}}
		if err != nil {
			res[0].Err = err.Error()
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": res})
		return
	}

	results := s.app.Sched.CheckAll(r.Context())
	s.logger.Info("ran checks", logging.Field{Key: "count", Value: len(results)})
	writeJSON(w, http.StatusOK, runChecksResponse{Results: results})
}

// State

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if url := r.URL.Query().Get("url"); url != "" {
		writeJSON(w, http.StatusOK, map[string]any{"history": s.app.Store.History(url)})
		return
	}
	st := s.app.Store.Export()
	writeJSON(w, http.StatusOK, map[string]any{"history": st.History})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.app.ClearHistory(r.Context())
	s.logger.Info("cleared history")
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Store.Export())
}

func (s *Server) handleClearState(w http.ResponseWriter, r *http.Request) {
	s.app.ClearAll(r.Context())
	s.logger.Info("cleared all state")
	writeJSON(w, http.StatusNoContent, nil)
}

// Search and reporting

func (s *Server) decodeSearch(w http.ResponseWriter, r *http.Request) (*searchRequest, []search.Result, bool) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, nil, false
	}
	if body.Query == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return nil, nil, false
	}

	results, err := s.app.Search.Search(body.Query, body.Options)
	if err != nil {
		if errors.Is(err, search.ErrInvalidPattern) {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, nil, false
		}
		s.logger.Warn("searching", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	return &body, results, true
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	body, results, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	s.logger.Info("searched",
		logging.Field{Key: "query", Value: body.Query},
		logging.Field{Key: "results", Value: len(results)})
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	body, results, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	text := report.BuildReport(results, body.Query, time.Now().UTC())
	writeJSON(w, http.StatusOK, reportResponse{Report: text})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	body, results, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	ex := report.BuildExport(results, body.Query, body.Options, time.Now().UTC())
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleExportHistoryCSV(w http.ResponseWriter, r *http.Request) {
	data, err := report.HistoryCSV(s.app.Store.Export())
	if err != nil {
		s.logger.Warn("exporting csv", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="pagewatch-history.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var body diffRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	mode := body.Mode
	if mode == "" {
		mode = diffview.Formatted
	}
	if mode != diffview.Formatted && mode != diffview.Raw {
		writeError(w, http.StatusBadRequest, "invalid mode")
		return
	}

	oldContent, newContent := body.OldContent, body.NewContent
	if body.RecordID != "" {
		rec, err := s.app.Store.HistoryRecord(body.URL, body.RecordID)
		if err != nil {
			if errors.Is(err, watcher.ErrNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		oldContent, newContent = rec.OldContent, rec.NewContent
	}

	oldView, newView := diffview.Render(oldContent, newContent, mode)
	writeJSON(w, http.StatusOK, diffResponse{
		Old:     oldView,
		New:     newView,
		Summary: diffview.Summarize(oldContent, newContent),
	})
}

// WebSocket

func (s *Server) handleChangesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	events, cancel := s.app.Hub.Subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				// Assume client disconnected
				return
			}
		}
	}
}
