// Package delivery sends rendered notifications to Telegram recipients and
// keeps the subscriber list clean when a recipient becomes unreachable.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"washbot/pkg/logx"
)

// ErrRecipientUnreachable means the recipient blocked the bot or deleted
// their account. It is permanent: retrying is pointless and the subscriber
// record should be pruned.
var ErrRecipientUnreachable = errors.New("recipient unreachable")

// Gateway wraps the Telegram bot for outbound sends. All sends share one
// rate limiter so fan-out bursts stay under the Bot API limits.
type Gateway struct {
	bot *tele.Bot
	lim *rate.Limiter
	log logx.Logger
}

func NewGateway(bot *tele.Bot, ratePerSec int, log logx.Logger) *Gateway {
	if ratePerSec <= 0 {
		ratePerSec = 20
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Gateway{
		bot: bot,
		lim: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		log: log,
	}
}

// Send delivers one message to one user. Telegram 403 responses (bot
// blocked, account deleted) come back as ErrRecipientUnreachable; any other
// failure is transient from the caller's point of view.
func (g *Gateway) Send(ctx context.Context, userID int64, text string, markup *tele.ReplyMarkup) error {
	if err := g.lim.Wait(ctx); err != nil {
		return err
	}

	opts := &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	}
	if markup != nil {
		opts.ReplyMarkup = markup
	}

	_, err := g.bot.Send(&tele.User{ID: userID}, text, opts)
	if err == nil {
		return nil
	}

	var terr *tele.Error
	if errors.As(err, &terr) && terr.Code == 403 {
		return fmt.Errorf("%w: %v", ErrRecipientUnreachable, err)
	}
	return err
}
