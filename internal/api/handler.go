package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/obsidianstack/fail2ban-exporter/internal/store"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	store *store.Store
	mux   *http.ServeMux
}

// New creates a Handler wired to the given jail store and registers all routes.
func New(st *store.Store) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/jails", h.listJails)
	h.mux.HandleFunc("/api/v1/jails/", h.getJail) // subtree, extracts {name}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
// The status code is 503 when the last discovery failed so load balancers
// and health checks can use it directly.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	l := h.store.Liveness()
	resp := HealthResponse{
		Up:          l.Up,
		Error:       l.Err,
		JailCount:   l.Jails,
		FailedCount: l.Failed,
		LastPoll:    formatTime(l.PolledAt),
	}

	code := http.StatusOK
	if !l.Up {
		code = http.StatusServiceUnavailable
	}
	jsonResp(w, code, resp)
}

// listJails returns GET /api/v1/jails.
func (h *Handler) listJails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.List()
	out := make([]JailResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toJailResponse(e))
	}
	jsonResp(w, http.StatusOK, out)
}

// getJail returns GET /api/v1/jails/{name}.
func (h *Handler) getJail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/jails/")
	if name == "" {
		h.listJails(w, r)
		return
	}

	e, ok := h.store.Get(name)
	if !ok {
		jsonErr(w, http.StatusNotFound, "jail not found")
		return
	}
	jsonResp(w, http.StatusOK, toJailResponse(e))
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toJailResponse maps a store.Entry to its JSON representation.
func toJailResponse(e store.Entry) JailResponse {
	return JailResponse{
		Jail:            e.Jail,
		CurrentlyBanned: e.Stats.CurrentlyBanned,
		CurrentlyFailed: e.Stats.CurrentlyFailed,
		TotalBanned:     e.Stats.TotalBanned,
		TotalFailed:     e.Stats.TotalFailed,
		LastError:       e.LastError,
		UpdatedAt:       formatTime(e.UpdatedAt),
		SeenAt:          formatTime(e.SeenAt),
	}
}
