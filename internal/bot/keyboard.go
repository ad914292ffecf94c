package bot

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"washbot/internal/source"
)

// Callback uniques. Handlers are registered on these; button texts vary per
// language but the unique stays stable.
const (
	cbUpdate  = "update"
	cbUnsub   = "unsub"
	cbSub     = "sub"
	cbDelete  = "del"
	cbLang    = "lang"
	cbMachine = "m"
)

var buttonLabels = map[string]map[string]string{
	"ru": {
		cbUpdate: "🔄 Обновить",
		cbUnsub:  "🔕 Отписаться",
		cbSub:    "🔔 Подписаться",
		cbDelete: "🗑️ Удалить",
	},
	"en": {
		cbUpdate: "🔄 Update",
		cbUnsub:  "🔕 Unsubscribe",
		cbSub:    "🔔 Subscribe",
		cbDelete: "🗑️ Delete",
	},
}

var langFlags = map[string]string{
	"ru": "🇷🇺 Ru",
	"en": "🇬🇧 En",
}

func label(lang, key string) string {
	if m, ok := buttonLabels[lang]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	return buttonLabels["en"][key]
}

// langMenu offers every supported language plus delete.
func (b *Bot) langMenu() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	row := make([]tele.Btn, 0, len(b.cfg.Supported))
	for _, l := range b.cfg.Supported {
		text, ok := langFlags[l]
		if !ok {
			text = l
		}
		row = append(row, m.Data(text, cbLang, l))
	}
	m.Inline(m.Row(row...), m.Row(m.Data("🗑️ Delete", cbDelete)))
	return m
}

// updateMenu is attached to status reports and notifications.
func updateMenu(lang string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data(label(lang, cbUpdate), cbUpdate)),
		m.Row(m.Data(label(lang, cbUnsub), cbUnsub)),
		m.Row(m.Data(label(lang, cbDelete), cbDelete)),
	)
	return m
}

func deleteMenu(lang string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data(label(lang, cbDelete), cbDelete)))
	return m
}

// subMenu renders the machine picker for the current pending selection.
func (b *Bot) subMenu(lang string, machines []source.Machine, selected map[int]bool) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(machines)+3)
	for _, mc := range machines {
		mark := ""
		if selected[mc.ID] {
			mark = "➤ "
		}
		text := fmt.Sprintf("%s%s %d", mark, b.rep.Translate(lang, mc.Kind), mc.ID)
		rows = append(rows, m.Row(m.Data(text, cbMachine, strconv.Itoa(mc.ID))))
	}
	rows = append(rows,
		m.Row(m.Data(label(lang, cbSub), cbSub)),
		m.Row(m.Data(label(lang, cbUnsub), cbUnsub)),
		m.Row(m.Data(label(lang, cbDelete), cbDelete)),
	)
	m.Inline(rows...)
	return m
}

// UpdateMenus returns the per-language notification keyboard, shared with
// the delivery fan-out.
func UpdateMenus(langs []string) map[string]*tele.ReplyMarkup {
	out := make(map[string]*tele.ReplyMarkup, len(langs))
	for _, l := range langs {
		out[l] = updateMenu(l)
	}
	return out
}
