// Package watch owns the change-detection loop: poll the source on a fixed
// cadence, diff against the last observed snapshot, resolve affected
// subscribers and hand the rendered report to the notifier.
package watch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"washbot/internal/source"
	"washbot/pkg/logx"
)

// Source is the upstream page adapter.
type Source interface {
	FetchSnapshot(ctx context.Context) (source.Snapshot, source.LastUpdate, error)
	FetchCatalog(ctx context.Context) ([]source.Machine, error)
}

// Subscriptions is the slice of the store the loop needs.
type Subscriptions interface {
	Catalog(ctx context.Context) ([]source.Machine, error)
	Subscribers(ctx context.Context, machineID int) ([]int64, error)
}

// Reporter renders the per-language report once per cycle.
type Reporter interface {
	Status(machines []source.Machine, snap source.Snapshot, at source.LastUpdate) map[string]string
}

// Notifier fans the rendered report out to the recipients.
type Notifier interface {
	Notify(ctx context.Context, recipients []int64, text map[string]string)
}

type Config struct {
	Interval time.Duration
}

// Service runs the loop as a single long-lived goroutine. Only that
// goroutine touches the previous snapshot, so no locking is needed around
// it; starting a second instance is a caller bug and Start() refuses it.
type Service struct {
	src   Source
	subs  Subscriptions
	rep   Reporter
	notif Notifier
	log   logx.Logger

	interval atomic.Int64 // nanoseconds; hot-reloadable

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(cfg Config, src Source, subs Subscriptions, rep Reporter, notif Notifier, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{src: src, subs: subs, rep: rep, notif: notif, log: log}
	s.Apply(cfg)
	return s
}

// Apply updates the poll interval. Takes effect at the next sleep.
func (s *Service) Apply(cfg Config) {
	iv := cfg.Interval
	if iv <= 0 {
		iv = time.Minute
	}
	s.interval.Store(int64(iv))
}

func (s *Service) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("watcher already running; second instance refused")
		return
	}
	s.running = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.run(runCtx)
	}()
	s.log.Info("watcher started", logx.Duration("interval", s.Interval()))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.running = false
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (s *Service) run(ctx context.Context) {
	prev, ok := s.baseline(ctx)
	if !ok {
		return
	}

	for {
		if !sleepCtx(ctx, s.Interval()) {
			return
		}

		cur, at, err := s.src.FetchSnapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, source.ErrFormatChanged) {
				s.log.Error("snapshot unusable: page format changed, cycle skipped", logx.Err(err))
			} else {
				s.log.Warn("snapshot fetch failed, cycle skipped", logx.Err(err))
			}
			continue
		}

		changed := Diff(prev, cur)
		if len(changed) == 0 {
			prev = cur
			continue
		}

		s.log.Info("machine status changed", logx.Ints("machines", changed))
		s.notifyChanged(ctx, changed, cur, at)

		// The loop never replays a missed notification: each tick reflects
		// only the delta since the last observed snapshot.
		prev = cur
	}
}

// baseline establishes the first observed snapshot without notifying anyone.
func (s *Service) baseline(ctx context.Context) (source.Snapshot, bool) {
	for {
		snap, _, err := s.src.FetchSnapshot(ctx)
		if err == nil {
			s.log.Info("baseline snapshot established", logx.Int("machines", len(snap)))
			return snap, true
		}
		if ctx.Err() != nil {
			return nil, false
		}
		s.log.Warn("baseline snapshot not available yet", logx.Err(err))
		if !sleepCtx(ctx, s.Interval()) {
			return nil, false
		}
	}
}

func (s *Service) notifyChanged(ctx context.Context, changed []int, cur source.Snapshot, at source.LastUpdate) {
	machines, err := s.subs.Catalog(ctx)
	if err != nil || len(machines) == 0 {
		if err != nil {
			s.log.Warn("persisted catalog unavailable, falling back to source", logx.Err(err))
		}
		machines, err = s.src.FetchCatalog(ctx)
		if err != nil {
			s.log.Warn("catalog fallback failed, notifications skipped this cycle", logx.Err(err))
			return
		}
	}

	seen := make(map[int64]struct{})
	var recipients []int64
	for _, id := range changed {
		users, err := s.subs.Subscribers(ctx, id)
		if err != nil {
			s.log.Warn("subscriber lookup failed", logx.Int("machine", id), logx.Err(err))
			continue
		}
		for _, u := range users {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			recipients = append(recipients, u)
		}
	}
	if len(recipients) == 0 {
		s.log.Debug("no subscribers for changed machines", logx.Ints("machines", changed))
		return
	}
	sort.Slice(recipients, func(i, j int) bool { return recipients[i] < recipients[j] })

	text := s.rep.Status(machines, cur, at)
	s.notif.Notify(ctx, recipients, text)
}

// sleepCtx waits d, returning false when ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
