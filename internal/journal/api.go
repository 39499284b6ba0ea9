package journal

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chainreaction/client/internal/analytics"
	"github.com/chainreaction/client/internal/cache"
	"github.com/chainreaction/client/internal/logger"
	"github.com/chainreaction/client/internal/middleware"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	statsTTL     = 10 * time.Second
)

// Reader is the read side of the journal.
type Reader interface {
	RecentEvents(ctx context.Context, sessionID string, limit int) ([]analytics.ClientEvent, error)
	Stats(ctx context.Context) (Stats, error)
}

// API serves journal queries.
type API struct {
	reader Reader
	cache  *cache.Cache
	log    *logger.Logger
}

func NewAPI(reader Reader, c *cache.Cache, log *logger.Logger) *API {
	if log == nil {
		log = logger.Default()
	}
	return &API{reader: reader, cache: c, log: log}
}

// Routes builds the router. Origins and the per-client rate come from
// the security settings.
func (a *API) Routes(allowedOrigins []string, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(allowedOrigins))
	if limiter != nil {
		r.Use(middleware.RateLimitMiddleware(limiter))
	}

	r.Get("/healthz", a.healthz)
	r.Get("/events", a.events)
	r.Get("/stats", a.stats)
	return r
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) events(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLimit)
	}

	events, err := a.reader.RecentEvents(r.Context(), r.URL.Query().Get("session"), limit)
	if err != nil {
		a.log.Error("Error listing events", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	v, err := a.cache.GetOrLoad("stats", statsTTL, func() (interface{}, error) {
		return a.reader.Stats(r.Context())
	})
	if err != nil {
		a.log.Error("Error fetching stats", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
