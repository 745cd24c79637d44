package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sjsage522/cardmonitor/logger"
)

// HistoryStore is the part of the seen store the server resets
type HistoryStore interface {
	Len() int
	ResetQuery(watchKey string) int
	ResetAll() int
	Save() error
}

// ClearURL builds the link that clears the history of one watch key
func ClearURL(baseURL, watchKey string) string {
	return strings.TrimRight(baseURL, "/") + "/clear?query=" + url.QueryEscape(watchKey)
}

var pages = template.Must(template.New("pages").Parse(`
{{define "index"}}<!DOCTYPE html>
<html>
<head><title>eBay Card Monitor</title></head>
<body style="font-family: system-ui; max-width: 600px; margin: 50px auto; padding: 20px;">
  <h1>eBay Card Monitor</h1>
  <p>Currently tracking <strong>{{.Count}}</strong> seen listings.</p>
  <p><a href="/clear-all">Clear all seen listings</a></p>
</body>
</html>
{{end}}
{{define "cleared"}}<!DOCTYPE html>
<html>
<head><title>Cleared</title></head>
<body style="font-family: system-ui; max-width: 600px; margin: 50px auto; padding: 20px;">
  {{if .Query}}
  <h1>History Cleared</h1>
  <p>Cleared {{.Removed}} seen listing(s). Results for "<strong>{{.Query}}</strong>" will appear in the next scan.</p>
  {{else}}
  <h1>All History Cleared</h1>
  <p>Cleared {{.Removed}} seen listing(s). All results will appear in the next scan.</p>
  {{end}}
  <p><a href="/">Back to home</a></p>
</body>
</html>
{{end}}`))

// Server is the local HTTP endpoint behind the clear links in alerts
type Server struct {
	store HistoryStore
	http  *http.Server
	log   *logger.Logger
}

// New creates a server listening on addr
func New(addr string, store HistoryStore) *Server {
	s := &Server{
		store: store,
		log:   logger.ForServer(),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /clear", s.handleClear)
	mux.HandleFunc("GET /clear-all", s.handleClearAll)
	return mux
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("Clear server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index", map[string]any{"Count": s.store.Len()})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		http.Error(w, "No query specified", http.StatusBadRequest)
		return
	}

	removed := s.store.ResetQuery(query)
	if err := s.store.Save(); err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("Failed to persist cleared history")
		http.Error(w, "Failed to save seen listings", http.StatusInternalServerError)
		return
	}

	s.log.Info().Str("query", query).Int("removed", removed).Msg("Cleared history for query")
	s.render(w, "cleared", map[string]any{"Query": query, "Removed": removed})
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	removed := s.store.ResetAll()
	if err := s.store.Save(); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist cleared history")
		http.Error(w, "Failed to save seen listings", http.StatusInternalServerError)
		return
	}

	s.log.Info().Int("removed", removed).Msg("Cleared all history")
	s.render(w, "cleared", map[string]any{"Removed": removed})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error().Err(err).Str("template", name).Msg("Failed to render page")
	}
}
