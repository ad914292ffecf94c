package app

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	"washbot/internal/delivery"
	"washbot/internal/report"
	"washbot/internal/source"
	"washbot/internal/statuscache"
	"washbot/pkg/logx"
)

const statusFetchTimeout = 20 * time.Second

type statusSource interface {
	FetchSnapshot(ctx context.Context) (source.Snapshot, source.LastUpdate, error)
	FetchCatalog(ctx context.Context) ([]source.Machine, error)
}

type catalogStore interface {
	Catalog(ctx context.Context) ([]source.Machine, error)
}

// statusProvider backs the bot's /status path. The TTL cache keeps the
// command path and the watcher from hammering the source when users mash
// the update button.
type statusProvider struct {
	cache *statuscache.Cache[map[string]string]
	src   statusSource
	st    catalogStore
	rep   *report.Renderer
	log   logx.Logger
}

func (p *statusProvider) Report(ctx context.Context) (map[string]string, error) {
	return p.cache.GetOrCompute(ctx, "status", func(ctx context.Context) (map[string]string, error) {
		// One flight serves every coalesced caller in the window, so it runs
		// on its own deadline instead of dying with the first caller's
		// request.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusFetchTimeout)
		defer cancel()

		machines, err := p.st.Catalog(fctx)
		if err != nil || len(machines) == 0 {
			if err != nil {
				p.log.Warn("persisted catalog unavailable, falling back to source", logx.Err(err))
			}
			machines, err = p.src.FetchCatalog(fctx)
			if err != nil {
				return nil, err
			}
		}
		snap, at, err := p.src.FetchSnapshot(fctx)
		if err != nil {
			return nil, err
		}
		return p.rep.Status(machines, snap, at), nil
	})
}

// loopNotifier adapts the delivery fan-out to the watcher's Notifier
// contract, attaching the per-language notification keyboard.
type loopNotifier struct {
	fan   *delivery.Fanout
	menus map[string]*tele.ReplyMarkup
}

func (n *loopNotifier) Notify(ctx context.Context, recipients []int64, text map[string]string) {
	n.fan.Notify(ctx, recipients, text, n.menus)
}
