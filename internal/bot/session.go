package bot

import (
	"sort"
	"sync"
	"time"

	"washbot/internal/source"
)

// session holds one user's pending subscription selection. Nothing is
// persisted until the user confirms; cancel or expiry discards the draft.
//
// Callback handlers run in their own goroutines, so selected has its own
// lock: rapid taps on the picker hit toggle and selection concurrently.
// machines, lang and expires are fixed at start and read without it.
type session struct {
	machines []source.Machine
	lang     string
	expires  time.Time

	mu       sync.Mutex
	selected map[int]bool
}

func (s *session) toggle(machineID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected[machineID] {
		delete(s.selected, machineID)
	} else {
		s.selected[machineID] = true
	}
}

func (s *session) selection() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// marked returns a copy of the selection set for rendering, so the keyboard
// builder never reads the live map.
func (s *session) marked() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]bool, len(s.selected))
	for id := range s.selected {
		out[id] = true
	}
	return out
}

type sessionStore struct {
	mu  sync.Mutex
	m   map[int64]*session
	ttl time.Duration
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &sessionStore{m: make(map[int64]*session), ttl: ttl}
}

func (st *sessionStore) start(userID int64, machines []source.Machine, lang string, subs []int) *session {
	sel := make(map[int]bool, len(subs))
	for _, id := range subs {
		sel[id] = true
	}
	s := &session{
		machines: machines,
		lang:     lang,
		selected: sel,
		expires:  time.Now().Add(st.ttl),
	}
	st.mu.Lock()
	st.m[userID] = s
	st.mu.Unlock()
	return s
}

// get returns the user's live session. Expired sessions are dropped on
// access, which doubles as the sweep.
func (st *sessionStore) get(userID int64) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.m[userID]
	if !ok {
		return nil, false
	}
	if time.Now().After(s.expires) {
		delete(st.m, userID)
		return nil, false
	}
	return s, true
}

func (st *sessionStore) end(userID int64) {
	st.mu.Lock()
	delete(st.m, userID)
	st.mu.Unlock()
}
