package source

import "errors"

// Machine is one catalog entry scraped from the upstream page.
// The upstream id is stable across fetches and keys both snapshots and
// subscriptions.
type Machine struct {
	ID    int
	Kind  string
	Price int
}

// Snapshot maps machine id to its current status label, one entry per
// machine currently shown on the page. It is held only in memory.
type Snapshot map[int]string

// LastUpdate is the page's own "data as of" stamp. Display-only; the parts
// are kept as the page formats them (DD.MM.YYYY and HH:MM).
type LastUpdate struct {
	Date string
	Time string
}

func (u LastUpdate) IsZero() bool { return u.Date == "" && u.Time == "" }

var (
	// ErrUnavailable covers network failures and non-2xx responses.
	// Callers treat it as transient and retry on the next cycle.
	ErrUnavailable = errors.New("source unavailable")

	// ErrFormatChanged means the page fetched fine but the structural
	// elements the parser anchors on are gone. This is not transient:
	// it signals the parser is stale and needs operator attention.
	ErrFormatChanged = errors.New("source format changed")
)
