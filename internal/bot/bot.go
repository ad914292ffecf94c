// Package bot is the Telegram presentation layer: commands, callbacks and
// the subscription picker dialog. It is a thin surface over the store, the
// status cache and the report renderer; the change-detection loop does not
// go through here.
package bot

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	"washbot/internal/report"
	"washbot/internal/store"
	"washbot/pkg/logx"
)

type Config struct {
	SiteURL     string
	SupportURL  string
	DefaultLang string
	Supported   []string
	SessionTTL  time.Duration
}

// StatusProvider returns the per-language status report. Backed by the TTL
// cache so a burst of /status requests costs one upstream fetch.
type StatusProvider interface {
	Report(ctx context.Context) (map[string]string, error)
}

type Bot struct {
	tb       *tele.Bot
	st       store.Store
	rep      *report.Renderer
	status   StatusProvider
	sessions *sessionStore
	cfg      Config
	log      logx.Logger
}

func New(tb *tele.Bot, st store.Store, rep *report.Renderer, status StatusProvider, cfg Config, log logx.Logger) *Bot {
	if log.IsZero() {
		log = logx.Nop()
	}
	b := &Bot{
		tb:       tb,
		st:       st,
		rep:      rep,
		status:   status,
		sessions: newSessionStore(cfg.SessionTTL),
		cfg:      cfg,
		log:      log,
	}
	b.register()
	return b
}

func (b *Bot) register() {
	b.tb.Use(privateOnly)

	b.tb.Handle("/start", b.onStart)
	b.tb.Handle("/status", b.onStatus)
	b.tb.Handle("/sub", b.onSub)
	b.tb.Handle("/unsub", b.onUnsub)

	b.tb.Handle(&tele.Btn{Unique: cbUpdate}, b.onUpdateCb)
	b.tb.Handle(&tele.Btn{Unique: cbLang}, b.onLangCb)
	b.tb.Handle(&tele.Btn{Unique: cbMachine}, b.onToggleCb)
	b.tb.Handle(&tele.Btn{Unique: cbSub}, b.onConfirmCb)
	b.tb.Handle(&tele.Btn{Unique: cbUnsub}, b.onUnsubCb)
	b.tb.Handle(&tele.Btn{Unique: cbDelete}, b.onDeleteCb)
}

// Start launches long polling. The poll loop stops when ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.tb.Stop()
	}()
	go func() {
		b.log.Info("polling started")
		b.tb.Start()
		b.log.Info("polling stopped")
	}()
}

// privateOnly drops group traffic: the bot only talks in private chats.
func privateOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if ch := c.Chat(); ch != nil && ch.Type != tele.ChatPrivate {
			return nil
		}
		return next(c)
	}
}
