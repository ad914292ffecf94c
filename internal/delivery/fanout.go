package delivery

import (
	"context"
	"errors"

	tele "gopkg.in/telebot.v4"

	"washbot/internal/store"
	"washbot/pkg/logx"
)

// Sender delivers one message to one recipient. Implemented by Gateway;
// tests substitute fakes.
type Sender interface {
	Send(ctx context.Context, userID int64, text string, markup *tele.ReplyMarkup) error
}

// Directory is the slice of the store the fan-out needs: language lookup and
// subscriber removal.
type Directory interface {
	UserLang(ctx context.Context, userID int64) (string, error)
	RemoveUser(ctx context.Context, userID int64) error
}

// Fanout delivers one pre-rendered notification to a list of recipients,
// each in their own language.
type Fanout struct {
	send    Sender
	dir     Directory
	resolve func(string) string
	log     logx.Logger
}

// NewFanout builds the fan-out. resolve maps a stored language code to a
// supported one (report.Renderer.Resolve).
func NewFanout(send Sender, dir Directory, resolve func(string) string, log logx.Logger) *Fanout {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fanout{send: send, dir: dir, resolve: resolve, log: log}
}

// Notify sends text[lang] to every recipient sequentially. Failure policy:
//   - language lookup failure: the recipient is skipped for this cycle
//   - transient send failure: logged, no retry within the cycle
//   - permanent failure (recipient unreachable): the subscriber and all
//     their subscriptions are removed from the store
func (f *Fanout) Notify(ctx context.Context, recipients []int64, text map[string]string, markup map[string]*tele.ReplyMarkup) {
	for _, id := range recipients {
		if ctx.Err() != nil {
			return
		}

		lang, err := f.dir.UserLang(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			f.log.Debug("recipient unknown, skipping", logx.Int64("user_id", id))
			continue
		case err != nil:
			f.log.Warn("language lookup failed, skipping recipient", logx.Int64("user_id", id), logx.Err(err))
			continue
		}
		lang = f.resolve(lang)

		var mk *tele.ReplyMarkup
		if markup != nil {
			mk = markup[lang]
		}

		err = f.send.Send(ctx, id, text[lang], mk)
		switch {
		case err == nil:
		case errors.Is(err, ErrRecipientUnreachable):
			f.log.Info("recipient unreachable, pruning subscriber", logx.Int64("user_id", id))
			if rmErr := f.dir.RemoveUser(ctx, id); rmErr != nil {
				f.log.Warn("failed to prune unreachable subscriber", logx.Int64("user_id", id), logx.Err(rmErr))
			}
		case ctx.Err() != nil:
			return
		default:
			f.log.Warn("notification send failed", logx.Int64("user_id", id), logx.Err(err))
		}
	}
}
