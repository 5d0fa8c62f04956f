package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/obsidianstack/fail2ban-exporter/internal/api"
	"github.com/obsidianstack/fail2ban-exporter/internal/fail2ban"
	"github.com/obsidianstack/fail2ban-exporter/internal/store"
)

// --- test helpers -----------------------------------------------------------

func i64(v int64) *int64 { return &v }

func newStore() *store.Store {
	st := store.New()
	st.PutStats("sshd", fail2ban.JailStats{
		CurrentlyBanned: i64(4),
		CurrentlyFailed: i64(2),
		TotalBanned:     i64(312),
	})
	st.PutError("nginx", errors.New("read: i/o timeout"))
	st.SetLiveness(store.Liveness{Up: true, Jails: 2, Failed: 1})
	return st
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth_Up(t *testing.T) {
	rr := do(t, api.New(newStore()), http.MethodGet, "/api/v1/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if !resp.Up || resp.JailCount != 2 || resp.FailedCount != 1 {
		t.Errorf("health: got %+v", resp)
	}
	if resp.LastPoll == "" {
		t.Error("last_poll should be set")
	}
}

func TestHealth_Down(t *testing.T) {
	st := store.New()
	st.SetLiveness(store.Liveness{Up: false, Err: "connect: no such file or directory"})

	rr := do(t, api.New(st), http.MethodGet, "/api/v1/health")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Up || resp.Error == "" {
		t.Errorf("health: got %+v", resp)
	}
}

func TestHealth_BeforeFirstPoll(t *testing.T) {
	rr := do(t, api.New(store.New()), http.MethodGet, "/api/v1/health")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if _, ok := resp["last_poll"]; ok {
		t.Errorf("last_poll should be omitted before the first poll: %v", resp)
	}
}

// --- /api/v1/jails ----------------------------------------------------------

func TestListJails(t *testing.T) {
	rr := do(t, api.New(newStore()), http.MethodGet, "/api/v1/jails")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}

	var jails []api.JailResponse
	decode(t, rr, &jails)
	if len(jails) != 2 {
		t.Fatalf("jails: got %d, want 2", len(jails))
	}
	if jails[0].Jail != "nginx" || jails[1].Jail != "sshd" {
		t.Errorf("order: got %q, %q", jails[0].Jail, jails[1].Jail)
	}
	if jails[0].LastError == "" || jails[0].UpdatedAt != "" {
		t.Errorf("nginx: got %+v", jails[0])
	}
	if jails[1].TotalBanned == nil || *jails[1].TotalBanned != 312 {
		t.Errorf("sshd total_banned: got %v", jails[1].TotalBanned)
	}
	if jails[1].TotalFailed != nil {
		t.Errorf("sshd total_failed should be omitted, got %v", *jails[1].TotalFailed)
	}
}

func TestListJails_Empty(t *testing.T) {
	rr := do(t, api.New(store.New()), http.MethodGet, "/api/v1/jails")
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("body: got %q, want empty JSON array", body)
	}
}

func TestGetJail(t *testing.T) {
	h := api.New(newStore())

	rr := do(t, h, http.MethodGet, "/api/v1/jails/sshd")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var j api.JailResponse
	decode(t, rr, &j)
	if j.Jail != "sshd" || j.CurrentlyBanned == nil || *j.CurrentlyBanned != 4 {
		t.Errorf("jail: got %+v", j)
	}

	if rr := do(t, h, http.MethodGet, "/api/v1/jails/postfix"); rr.Code != http.StatusNotFound {
		t.Errorf("missing jail: got %d, want 404", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/api/v1/jails/")
	var all []api.JailResponse
	decode(t, rr, &all)
	if len(all) != 2 {
		t.Errorf("bare subtree should list jails, got %d", len(all))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := api.New(newStore())
	for _, path := range []string{"/api/v1/health", "/api/v1/jails", "/api/v1/jails/sshd"} {
		if rr := do(t, h, http.MethodPost, path); rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, rr.Code)
		}
	}
}
