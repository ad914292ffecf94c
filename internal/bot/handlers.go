package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"washbot/internal/store"
	"washbot/pkg/logx"
)

const (
	storeTimeout  = 5 * time.Second
	reportTimeout = 20 * time.Second
)

func opCtx(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

// ensureUser creates the user row on first contact. The initial language
// comes from the Telegram client when it is one we support.
func (b *Bot) ensureUser(ctx context.Context, u *tele.User) error {
	if u == nil {
		return nil
	}
	return b.st.UpsertUser(ctx, store.User{
		ID:       u.ID,
		Username: u.Username,
		Lang:     b.rep.Resolve(u.LanguageCode),
	})
}

// userLang resolves the stored language, falling back to the default when
// the store is unavailable or the stored value is stale.
func (b *Bot) userLang(ctx context.Context, userID int64) string {
	l, err := b.st.UserLang(ctx, userID)
	if err != nil {
		return b.cfg.DefaultLang
	}
	return b.rep.Resolve(l)
}

func (b *Bot) onStart(c tele.Context) error {
	ctx, cancel := opCtx(storeTimeout)
	defer cancel()

	lang := b.cfg.DefaultLang
	if err := b.ensureUser(ctx, c.Sender()); err != nil {
		b.log.Warn("user upsert failed", logx.Int64("user_id", c.Sender().ID), logx.Err(err))
	} else {
		lang = b.userLang(ctx, c.Sender().ID)
	}
	return c.Send(b.rep.Description(lang, b.cfg.SiteURL, b.cfg.SupportURL),
		b.langMenu(), tele.ModeHTML, tele.NoPreview)
}

func (b *Bot) onStatus(c tele.Context) error {
	sctx, cancel := opCtx(storeTimeout)
	lang := b.cfg.DefaultLang
	if err := b.ensureUser(sctx, c.Sender()); err == nil {
		lang = b.userLang(sctx, c.Sender().ID)
	}
	cancel()

	rctx, cancel := opCtx(reportTimeout)
	defer cancel()
	rep, err := b.status.Report(rctx)
	if err != nil {
		b.log.Warn("status report unavailable", logx.Err(err))
		return c.Send(b.rep.Unavailable(lang), updateMenu(lang))
	}
	return c.Send(rep[lang], updateMenu(lang))
}

func (b *Bot) onUpdateCb(c tele.Context) error {
	_ = c.Respond(&tele.CallbackResponse{})

	sctx, cancel := opCtx(storeTimeout)
	lang := b.userLang(sctx, c.Sender().ID)
	cancel()

	rctx, cancel := opCtx(reportTimeout)
	defer cancel()
	rep, err := b.status.Report(rctx)
	if err != nil {
		return b.ignoreNotModified(c.Edit(b.rep.Unavailable(lang), updateMenu(lang)))
	}
	return b.ignoreNotModified(c.Edit(rep[lang], updateMenu(lang)))
}

func (b *Bot) onSub(c tele.Context) error {
	ctx, cancel := opCtx(storeTimeout)
	defer cancel()

	userID := c.Sender().ID
	if err := b.ensureUser(ctx, c.Sender()); err != nil {
		return c.Send(b.rep.Unavailable(b.cfg.DefaultLang), deleteMenu(b.cfg.DefaultLang))
	}
	lang := b.userLang(ctx, userID)

	machines, err := b.st.Catalog(ctx)
	if err != nil || len(machines) == 0 {
		if err != nil {
			b.log.Warn("catalog unavailable for /sub", logx.Err(err))
		}
		return c.Send(b.rep.Unavailable(lang), deleteMenu(lang))
	}
	subs, err := b.st.Subscriptions(ctx, userID)
	if err != nil {
		return c.Send(b.rep.Unavailable(lang), deleteMenu(lang))
	}

	sess := b.sessions.start(userID, machines, lang, subs)
	return c.Send(b.rep.SubPrompt(lang), b.subMenu(lang, machines, sess.marked()))
}

func (b *Bot) onToggleCb(c tele.Context) error {
	sess, ok := b.sessions.get(c.Sender().ID)
	if !ok {
		// Selection expired or never started; the buttons are stale.
		return c.Respond(&tele.CallbackResponse{})
	}
	machineID, err := strconv.Atoi(strings.TrimSpace(c.Data()))
	if err != nil {
		return c.Respond(&tele.CallbackResponse{})
	}
	sess.toggle(machineID)
	_ = c.Respond(&tele.CallbackResponse{})
	return b.ignoreNotModified(
		c.Edit(b.rep.SubPrompt(sess.lang), b.subMenu(sess.lang, sess.machines, sess.marked())))
}

func (b *Bot) onConfirmCb(c tele.Context) error {
	userID := c.Sender().ID
	sess, ok := b.sessions.get(userID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{})
	}

	ctx, cancel := opCtx(storeTimeout)
	defer cancel()
	if err := b.st.SetSubscriptions(ctx, userID, sess.selection()); err != nil {
		b.log.Warn("subscription commit failed", logx.Int64("user_id", userID), logx.Err(err))
		_ = c.Respond(&tele.CallbackResponse{})
		return c.Send(b.rep.Unavailable(sess.lang), deleteMenu(sess.lang))
	}
	b.sessions.end(userID)
	_ = c.Respond(&tele.CallbackResponse{Text: b.rep.SubConfirmed(sess.lang)})
	return c.Delete()
}

func (b *Bot) onUnsub(c tele.Context) error {
	ctx, cancel := opCtx(storeTimeout)
	defer cancel()

	userID := c.Sender().ID
	lang := b.userLang(ctx, userID)
	if err := b.st.ClearSubscriptions(ctx, userID); err != nil {
		b.log.Warn("unsubscribe failed", logx.Int64("user_id", userID), logx.Err(err))
		return c.Send(b.rep.Unavailable(b.cfg.DefaultLang), deleteMenu(b.cfg.DefaultLang))
	}
	return c.Send(b.rep.UnsubDone(lang), deleteMenu(lang))
}

func (b *Bot) onUnsubCb(c tele.Context) error {
	ctx, cancel := opCtx(storeTimeout)
	defer cancel()

	userID := c.Sender().ID
	sess, hadSession := b.sessions.get(userID)
	lang := b.cfg.DefaultLang
	if hadSession {
		lang = sess.lang
	} else {
		lang = b.userLang(ctx, userID)
	}

	if err := b.st.ClearSubscriptions(ctx, userID); err != nil {
		b.log.Warn("unsubscribe failed", logx.Int64("user_id", userID), logx.Err(err))
		_ = c.Respond(&tele.CallbackResponse{})
		return c.Send(b.rep.Unavailable(lang), deleteMenu(lang))
	}
	_ = c.Respond(&tele.CallbackResponse{Text: b.rep.UnsubDone(lang)})
	if hadSession {
		b.sessions.end(userID)
		return c.Delete()
	}
	return nil
}

func (b *Bot) onLangCb(c tele.Context) error {
	code := strings.TrimSpace(c.Data())
	lang := b.rep.Resolve(code)
	_ = c.Respond(&tele.CallbackResponse{})

	err := b.ignoreNotModified(
		c.Edit(b.rep.Description(lang, b.cfg.SiteURL, b.cfg.SupportURL),
			b.langMenu(), tele.ModeHTML, tele.NoPreview))

	ctx, cancel := opCtx(storeTimeout)
	defer cancel()
	userID := c.Sender().ID
	if cur, lerr := b.st.UserLang(ctx, userID); lerr == nil && cur != lang {
		if serr := b.st.SetUserLang(ctx, userID, lang); serr != nil {
			b.log.Warn("language change failed", logx.Int64("user_id", userID), logx.Err(serr))
		}
	}
	return err
}

func (b *Bot) onDeleteCb(c tele.Context) error {
	_ = c.Respond(&tele.CallbackResponse{})
	b.sessions.end(c.Sender().ID)
	return c.Delete()
}

// ignoreNotModified swallows Telegram's "message is not modified" editing
// error: re-rendering identical content is routine, not a failure.
func (b *Bot) ignoreNotModified(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "message is not modified") {
		b.log.Debug("edit skipped: content unchanged")
		return nil
	}
	return err
}
