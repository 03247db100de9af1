package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fxradar/internal/artifact"
	"fxradar/internal/config"
	"fxradar/internal/join"
	"fxradar/internal/logger"
	"fxradar/internal/models"
	"fxradar/internal/search"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	store := artifact.NewStore(cfg.DataDir, cfg.Category)

	var idx *search.Client
	if cfg.SearchEnabled {
		idx, err = search.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err != nil {
			log.Error("init search index", slog.Any("err", err))
			os.Exit(1)
		}
	}

	srv := &server{log: log, cfg: cfg, store: store, idx: idx}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Get("/artifacts/{family}/latest", srv.handleLatest)
	r.Get("/artifacts/{family}/{date}", srv.handleDated)
	r.Get("/digest", srv.handleDigest)
	r.Get("/news", srv.handleSearch)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log   *slog.Logger
	cfg   *config.API
	store *artifact.Store
	idx   *search.Client
}

type errorResponse struct {
	Error string `json:"error"`
}

var dateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func parseFamily(raw string) (artifact.Family, bool) {
	for _, f := range artifact.Families {
		if string(f) == raw {
			return f, true
		}
	}
	return "", false
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.idx != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.idx.Health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	} else if _, err := os.Stat(s.store.AnalysisDir()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "artifact tree unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleLatest(w http.ResponseWriter, r *http.Request) {
	family, ok := parseFamily(chi.URLParam(r, "family"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown family"})
		return
	}
	s.serveArtifact(w, r, s.store.LatestPath(family))
}

func (s *server) handleDated(w http.ResponseWriter, r *http.Request) {
	family, ok := parseFamily(chi.URLParam(r, "family"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown family"})
		return
	}
	date := chi.URLParam(r, "date")
	if !dateRE.MatchString(date) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}
	s.serveArtifact(w, r, s.store.DatedPath(family, date))
}

// serveArtifact streams a published artifact file. The rename-based publish
// discipline guarantees the file is never half-written.
func (s *server) serveArtifact(w http.ResponseWriter, r *http.Request, path string) {
	if !artifact.Exists(path) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "artifact not found"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}

type digestResponse struct {
	Date      string                  `json:"date"`
	Sentiment models.SentimentSummary `json:"sentiment"`
	Articles  []models.JoinedArticle  `json:"articles"`
}

// handleDigest runs the read-time dedup/join over news and sentiment.
func (s *server) handleDigest(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	newsPath := s.store.LatestPath(artifact.FamilyNews)
	sentPath := s.store.LatestPath(artifact.FamilySentiment)
	if date != "" {
		if !dateRE.MatchString(date) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
			return
		}
		newsPath = s.store.DatedPath(artifact.FamilyNews, date)
		sentPath = s.store.DatedPath(artifact.FamilySentiment, date)
	}

	var news models.NewsDocument
	if err := artifact.ReadJSON(newsPath, &news); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "news artifact unavailable"})
		return
	}

	// Sentiment may lag news; the join degrades to unscored articles.
	var sent models.SentimentDocument
	if err := artifact.ReadJSON(sentPath, &sent); err != nil {
		sent = models.SentimentDocument{Date: news.Date}
	}

	writeJSON(w, http.StatusOK, digestResponse{
		Date:      news.Date,
		Sentiment: sent.Today,
		Articles:  join.Merge(news, sent),
	})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.idx == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "search disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	params := search.SearchParams{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Source: strings.TrimSpace(r.URL.Query().Get("source")),
		Start:  validDateOrEmpty(r.URL.Query().Get("start")),
		End:    validDateOrEmpty(r.URL.Query().Get("end")),
		From:   clampInt(r.URL.Query().Get("from"), 0, 10_000),
		Size:   clampInt(r.URL.Query().Get("size"), s.cfg.DefaultPage, s.cfg.MaxPage),
		Sort:   strings.TrimSpace(r.URL.Query().Get("sort")),
	}

	result, err := s.idx.SearchArticles(ctx, params)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func validDateOrEmpty(raw string) string {
	raw = strings.TrimSpace(raw)
	if dateRE.MatchString(raw) {
		return raw
	}
	return ""
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
