// Package catalog keeps the persisted machine catalog in step with the
// upstream page. The catalog changes rarely, so a startup sync plus a cron
// refresh is enough; live status never goes through here.
package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"washbot/internal/source"
	"washbot/pkg/logx"
)

type Source interface {
	FetchCatalog(ctx context.Context) ([]source.Machine, error)
}

type Sink interface {
	UpsertCatalog(ctx context.Context, machines []source.Machine) error
}

type Syncer struct {
	src  Source
	sink Sink
	spec string
	log  logx.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// New builds a syncer. spec is a standard 5-field cron expression; empty
// disables the periodic refresh (the startup sync still runs).
func New(src Source, sink Sink, spec string, log logx.Logger) *Syncer {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Syncer{src: src, sink: sink, spec: strings.TrimSpace(spec), log: log}
}

func (s *Syncer) Start(ctx context.Context) {
	// Startup sync is best-effort: the watcher can fall back to re-deriving
	// the catalog from the source when the store copy is missing.
	go func() {
		syncCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.SyncOnce(syncCtx); err != nil {
			s.log.Warn("initial catalog sync failed", logx.Err(err))
		}
	}()

	if s.spec == "" {
		return
	}

	c := cron.New()
	_, err := c.AddFunc(s.spec, func() {
		syncCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.SyncOnce(syncCtx); err != nil {
			s.log.Warn("scheduled catalog sync failed", logx.Err(err))
		}
	})
	if err != nil {
		// The spec is validated at config load; reaching this is a bug.
		s.log.Error("invalid catalog refresh schedule", logx.String("spec", s.spec), logx.Err(err))
		return
	}
	c.Start()

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	s.log.Info("catalog refresh scheduled", logx.String("spec", s.spec))
}

func (s *Syncer) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	done := c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// SyncOnce fetches the catalog from the source and upserts it into the store.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	machines, err := s.src.FetchCatalog(ctx)
	if err != nil {
		return err
	}
	if err := s.sink.UpsertCatalog(ctx, machines); err != nil {
		return err
	}
	s.log.Info("catalog synced", logx.Int("machines", len(machines)))
	return nil
}
