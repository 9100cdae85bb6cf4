package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"daily-scripture/internal/seeder"
	"daily-scripture/internal/video"
)

const jobTimeout = 15 * time.Minute

// Seeding runs the readings pipeline over a set of dates.
type Seeding interface {
	SeedDates(ctx context.Context, dates []time.Time) []seeder.Outcome
}

// VideoRunner links reflection videos for a set of dates.
type VideoRunner interface {
	Run(ctx context.Context, dates []time.Time, stores []video.VideoStore, dryRun bool) video.Result
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	seeding     Seeding
	videos      VideoRunner
	videoStores []video.VideoStore
	dryRun      bool
	loc         *time.Location
	logger      *zap.Logger
	now         func() time.Time

	// One job at a time; scheduler retries are turned away while a run is
	// in progress.
	running sync.Mutex
}

// New creates a new Handler. videos may be nil when no YouTube key is
// configured.
func New(seeding Seeding, videos VideoRunner, videoStores []video.VideoStore, dryRun bool, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		seeding:     seeding,
		videos:      videos,
		videoStores: videoStores,
		dryRun:      dryRun,
		loc:         loc,
		logger:      logger,
		now:         time.Now,
	}
}

// RegisterRoutes registers all HTTP routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /seed", h.noCache(h.exclusive(h.handleSeed)))
	mux.HandleFunc("POST /videos", h.noCache(h.exclusive(h.handleVideos)))
	mux.HandleFunc("GET /health", h.handleHealth)
}

func (h *Handler) noCache(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next(w, r)
	}
}

func (h *Handler) exclusive(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.running.TryLock() {
			writeJSON(w, http.StatusConflict, map[string]string{
				"status":  "error",
				"message": "another run is in progress",
			})
			return
		}
		defer h.running.Unlock()
		next(w, r)
	}
}

// handleSeed seeds ?date=YYYY-MM-DD, ?from=&to=, ?scope=today (today and
// tomorrow), or by default every day of next month.
func (h *Handler) handleSeed(w http.ResponseWriter, r *http.Request) {
	dates, err := h.seedDates(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), jobTimeout)
	defer cancel()

	h.logger.Info("seeding started", zap.Int("dates", len(dates)), zap.Bool("dry_run", h.dryRun))
	sum := seeder.Summarize(h.seeding.SeedDates(ctx, dates))
	h.logger.Info("seeding finished",
		zap.String("status", sum.Status),
		zap.Int("successful", sum.Successful),
		zap.Int("partial", sum.Partial),
		zap.Int("failed", sum.Failed),
	)

	code := http.StatusOK
	if sum.Status == "error" {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, sum)
}

func (h *Handler) seedDates(r *http.Request) ([]time.Time, error) {
	q := r.URL.Query()
	now := h.now().In(h.loc)

	switch {
	case q.Get("date") != "":
		d, err := seeder.ParseDate(q.Get("date"), h.loc)
		if err != nil {
			return nil, err
		}
		return []time.Time{d}, nil

	case q.Get("from") != "" || q.Get("to") != "":
		from, err := seeder.ParseDate(q.Get("from"), h.loc)
		if err != nil {
			return nil, err
		}
		to, err := seeder.ParseDate(q.Get("to"), h.loc)
		if err != nil {
			return nil, err
		}
		return seeder.Range(from, to)

	case q.Get("scope") == "today":
		return seeder.TodayAndTomorrow(now), nil

	default:
		return seeder.NextMonth(now), nil
	}
}

func (h *Handler) handleVideos(w http.ResponseWriter, r *http.Request) {
	if h.videos == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "video lookup is not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), jobTimeout)
	defer cancel()

	res := h.videos.Run(ctx, seeder.TodayAndTomorrow(h.now().In(h.loc)), h.videoStores, h.dryRun)

	code := http.StatusOK
	if res.Status == "error" {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, res)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
