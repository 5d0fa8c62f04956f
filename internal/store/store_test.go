package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/obsidianstack/fail2ban-exporter/internal/fail2ban"
)

func i64(v int64) *int64 { return &v }

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutStatsAndGet(t *testing.T) {
	st := New()
	st.PutStats("sshd", fail2ban.JailStats{CurrentlyBanned: i64(3)})

	e, ok := st.Get("sshd")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if e.Jail != "sshd" {
		t.Errorf("Jail: got %q, want sshd", e.Jail)
	}
	if e.Stats.CurrentlyBanned == nil || *e.Stats.CurrentlyBanned != 3 {
		t.Errorf("CurrentlyBanned: got %v, want 3", e.Stats.CurrentlyBanned)
	}
}

func TestGet_Missing(t *testing.T) {
	st := New()
	if _, ok := st.Get("unknown"); ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestPutError_KeepsStats(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := New()
	st.now = fixedClock(base)
	st.PutStats("sshd", fail2ban.JailStats{TotalBanned: i64(10)})

	st.now = fixedClock(base.Add(time.Minute))
	st.PutError("sshd", errors.New("connection reset"))

	e, _ := st.Get("sshd")
	if e.LastError != "connection reset" {
		t.Errorf("LastError: got %q", e.LastError)
	}
	if e.Stats.TotalBanned == nil || *e.Stats.TotalBanned != 10 {
		t.Errorf("stats lost after error: %+v", e.Stats)
	}
	if !e.UpdatedAt.Equal(base) {
		t.Errorf("UpdatedAt: got %v, want %v", e.UpdatedAt, base)
	}
	if !e.SeenAt.Equal(base.Add(time.Minute)) {
		t.Errorf("SeenAt: got %v, want %v", e.SeenAt, base.Add(time.Minute))
	}

	st.PutStats("sshd", fail2ban.JailStats{TotalBanned: i64(11)})
	if e, _ := st.Get("sshd"); e.LastError != "" {
		t.Errorf("LastError not cleared on success: %q", e.LastError)
	}
}

func TestList_SortedCopies(t *testing.T) {
	st := New()
	st.PutStats("sshd", fail2ban.JailStats{})
	st.PutStats("apache", fail2ban.JailStats{})
	st.PutError("nginx", errors.New("timeout"))

	list := st.List()
	if len(list) != 3 {
		t.Fatalf("List: got %d entries, want 3", len(list))
	}
	for i, want := range []string{"apache", "nginx", "sshd"} {
		if list[i].Jail != want {
			t.Errorf("List[%d]: got %q, want %q", i, list[i].Jail, want)
		}
	}

	list[0].LastError = "mutated"
	if e, _ := st.Get("apache"); e.LastError != "" {
		t.Error("List returned a reference into the store")
	}
	if st.Count() != 3 {
		t.Errorf("Count: got %d, want 3", st.Count())
	}
}

func TestLiveness(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := New()
	st.now = fixedClock(base)

	if st.Liveness().Up {
		t.Fatal("zero Liveness should be down")
	}

	st.SetLiveness(Liveness{Up: true, Jails: 2})
	l := st.Liveness()
	if !l.Up || l.Jails != 2 {
		t.Errorf("Liveness: got %+v", l)
	}
	if !l.PolledAt.Equal(base) {
		t.Errorf("PolledAt defaulted to %v, want %v", l.PolledAt, base)
	}
}

func TestConcurrentAccess(t *testing.T) {
	st := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				st.PutStats("sshd", fail2ban.JailStats{})
				st.SetLiveness(Liveness{Up: true})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = st.List()
				_ = st.Liveness()
			}
		}()
	}
	wg.Wait()
}
