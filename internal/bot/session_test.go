package bot

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"washbot/internal/source"
)

func TestSessionToggleAndSelection(t *testing.T) {
	t.Parallel()
	st := newSessionStore(time.Minute)

	machines := []source.Machine{{ID: 1}, {ID: 2}, {ID: 3}}
	s := st.start(100, machines, "ru", []int{3, 1})

	// Seeded from the user's existing subscriptions, sorted ascending.
	if got := s.selection(); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Fatalf("initial selection = %v, want [1 3]", got)
	}

	s.toggle(2)
	s.toggle(1) // deselect
	if got := s.selection(); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("selection after toggles = %v, want [2 3]", got)
	}

	s.toggle(2)
	s.toggle(3)
	if got := s.selection(); len(got) != 0 {
		t.Fatalf("selection = %v, want empty", got)
	}
}

// Callback handlers each run in their own goroutine, so one user tapping
// the picker quickly hits the same session from several goroutines at once.
func TestSessionConcurrentToggles(t *testing.T) {
	t.Parallel()
	st := newSessionStore(time.Minute)
	s := st.start(100, nil, "ru", nil)

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		id := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.toggle(id)
			_ = s.selection()
			_ = s.marked()
		}()
	}
	wg.Wait()

	// Each id toggled exactly once, so every one of them ends up selected.
	if got := s.selection(); len(got) != n {
		t.Fatalf("selection has %d ids after %d concurrent toggles, want %d", len(got), n, n)
	}
}

func TestSessionMarkedReturnsCopy(t *testing.T) {
	t.Parallel()
	st := newSessionStore(time.Minute)
	s := st.start(100, nil, "ru", []int{1})

	m := s.marked()
	m[2] = true
	if got := s.selection(); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("mutating the rendered copy leaked into the session: %v", got)
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	t.Parallel()
	st := newSessionStore(time.Minute)

	if _, ok := st.get(100); ok {
		t.Fatal("got a session before start")
	}

	st.start(100, nil, "en", nil)
	s, ok := st.get(100)
	if !ok {
		t.Fatal("no session after start")
	}
	if s.lang != "en" {
		t.Fatalf("session lang = %q, want en", s.lang)
	}

	// Starting again replaces the draft.
	st.start(100, nil, "ru", []int{5})
	s, ok = st.get(100)
	if !ok {
		t.Fatal("no session after restart")
	}
	if !reflect.DeepEqual(s.selection(), []int{5}) {
		t.Fatalf("restart did not replace session: sel=%v", s.selection())
	}

	st.end(100)
	if _, ok := st.get(100); ok {
		t.Fatal("session survived end")
	}
}

func TestSessionExpiry(t *testing.T) {
	t.Parallel()
	st := newSessionStore(10 * time.Millisecond)

	st.start(100, nil, "ru", nil)
	time.Sleep(30 * time.Millisecond)
	if _, ok := st.get(100); ok {
		t.Fatal("expired session still returned")
	}
	// Expired entries are dropped on access.
	st.mu.Lock()
	_, present := st.m[100]
	st.mu.Unlock()
	if present {
		t.Fatal("expired session not removed from the store")
	}
}
