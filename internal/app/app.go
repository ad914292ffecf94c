package app

import (
	"context"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"washbot/internal/bot"
	"washbot/internal/catalog"
	"washbot/internal/config"
	"washbot/internal/delivery"
	"washbot/internal/report"
	"washbot/internal/source"
	"washbot/internal/statuscache"
	"washbot/internal/store"
	"washbot/internal/watch"
	"washbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	tb    *tele.Bot
	st    store.Store
	src   *source.Client
	rep   *report.Renderer
	cache *statuscache.Cache[map[string]string]

	watcher *watch.Service
	syncer  *catalog.Syncer
	bot     *bot.Bot

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	// Durations are validated at load; errors here would be config bugs.
	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := config.ParseDurationOrDefault("source.http_timeout", cfg.Source.HTTPTimeout, 15*time.Second)
	if err != nil {
		return nil, err
	}
	pollInterval, err := config.ParseDurationOrDefault("source.poll_interval", cfg.Source.PollInterval, time.Minute)
	if err != nil {
		return nil, err
	}
	statusTTL, err := config.ParseDurationOrDefault("source.status_ttl", cfg.Source.StatusTTL, 10*time.Second)
	if err != nil {
		return nil, err
	}
	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := config.ParseDurationOrDefault("telegram.session_ttl", cfg.Telegram.SessionTTL, 10*time.Minute)
	if err != nil {
		return nil, err
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
	})
	if err != nil {
		return nil, err
	}

	src := source.NewClient(source.ClientConfig{
		URL:     cfg.Source.URL,
		Timeout: httpTimeout,
	}, log.With(logx.String("comp", "source")))

	st, err := store.Open(store.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	rep := report.NewRenderer(cfg.Languages.Default, cfg.Languages.Supported,
		log.With(logx.String("comp", "report")))

	gw := delivery.NewGateway(tb, cfg.Notify.RatePerSec, log.With(logx.String("comp", "delivery")))
	fan := delivery.NewFanout(gw, st, rep.Resolve, log.With(logx.String("comp", "delivery")))

	cache := statuscache.New[map[string]string](statusTTL)
	status := &statusProvider{cache: cache, src: src, st: st, rep: rep,
		log: log.With(logx.String("comp", "status"))}

	watcher := watch.New(watch.Config{Interval: pollInterval}, src, st, rep,
		&loopNotifier{fan: fan, menus: bot.UpdateMenus(rep.Languages())},
		log.With(logx.String("comp", "watch")))

	syncer := catalog.New(src, st, cfg.Catalog.RefreshSchedule,
		log.With(logx.String("comp", "catalog")))

	tgBot := bot.New(tb, st, rep, status, bot.Config{
		SiteURL:     cfg.Source.URL,
		SupportURL:  cfg.Telegram.SupportURL,
		DefaultLang: cfg.Languages.Default,
		Supported:   cfg.Languages.Supported,
		SessionTTL:  sessionTTL,
	}, log.With(logx.String("comp", "bot")))

	return &App{
		cfgm:    cfgm,
		logs:    logSvc,
		log:     log,
		tb:      tb,
		st:      st,
		src:     src,
		rep:     rep,
		cache:   cache,
		watcher: watcher,
		syncer:  syncer,
		bot:     tgBot,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.bot.Start(runCtx)
	a.syncer.Start(runCtx)
	a.watcher.Start(runCtx)

	// Config hot reload: live-apply what can change live, warn for the rest.
	sub := a.cfgm.Subscribe(8)
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-runCtx.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(newCfg)
			}
		}
	}()
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	a.log.Info("app started")
	return nil
}

func (a *App) applyConfig(cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	if iv, err := config.ParseDurationOrDefault("source.poll_interval", cfg.Source.PollInterval, time.Minute); err == nil {
		a.watcher.Apply(watch.Config{Interval: iv})
	}
	if ttl, err := config.ParseDurationOrDefault("source.status_ttl", cfg.Source.StatusTTL, 10*time.Second); err == nil {
		a.cache.SetTTL(ttl)
	}

	// Everything routed through constructors (token, database path, source
	// URL, languages) needs a restart to change.
	a.log.Info("config reloaded")
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping")
	if a.cancel != nil {
		a.cancel()
	}

	a.watcher.Stop(ctx)
	a.syncer.Stop(ctx)

	// The bot poller stops via context cancellation; wait for the config
	// goroutines before closing storage under them.
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if err := a.st.Close(); err != nil {
		a.log.Warn("storage close failed", logx.Err(err))
	}

	a.log.Info("stopped")
	a.logs.Close()
	return nil
}
