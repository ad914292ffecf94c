// Package report renders localized, human-readable machine status texts.
// One render produces the text for every supported language so a single
// notification cycle shares the result across recipients.
package report

import (
	"fmt"
	"strings"

	"washbot/internal/source"
	"washbot/pkg/logx"
)

type Renderer struct {
	defaultLang string
	langs       []string
	log         logx.Logger
}

func NewRenderer(defaultLang string, supported []string, log logx.Logger) *Renderer {
	if log.IsZero() {
		log = logx.Nop()
	}
	langs := append([]string(nil), supported...)
	if len(langs) == 0 {
		langs = []string{defaultLang}
	}
	return &Renderer{defaultLang: defaultLang, langs: langs, log: log}
}

func (r *Renderer) Languages() []string { return r.langs }
func (r *Renderer) DefaultLang() string { return r.defaultLang }

// Resolve maps a stored (possibly empty or stale) language code to a
// supported one, falling back to the default language.
func (r *Renderer) Resolve(lang string) string {
	lang = strings.TrimSpace(lang)
	for _, l := range r.langs {
		if l == lang {
			return lang
		}
	}
	return r.defaultLang
}

// Status renders the per-language status report. Machines absent from the
// snapshot are left out: the source may add or drop machines between polls
// and the report only shows what was actually observed.
func (r *Renderer) Status(machines []source.Machine, snap source.Snapshot, at source.LastUpdate) map[string]string {
	out := make(map[string]string, len(r.langs))
	for _, lang := range r.langs {
		var b strings.Builder
		if at.IsZero() {
			b.WriteString(localized(statusHeaderNoTime, lang, r.defaultLang))
		} else {
			b.WriteString(fmt.Sprintf(localized(statusHeader, lang, r.defaultLang), at.Date, at.Time))
		}
		for _, m := range machines {
			status, ok := snap[m.ID]
			if !ok {
				continue
			}
			marker := "🔴"
			if status == freeLabel {
				marker = "🟢"
			}
			fmt.Fprintf(&b, "%s %s %d - %s\n", marker, r.Translate(lang, m.Kind), m.ID, r.Translate(lang, status))
		}
		out[lang] = b.String()
	}
	return out
}

// Translate maps a source label into the given language. Unknown labels pass
// through unchanged with a warning, so a new upstream status never breaks
// rendering.
func (r *Renderer) Translate(lang, label string) string {
	if lang == "ru" {
		return label
	}
	table, ok := translations[lang]
	if !ok {
		return label
	}
	if t, ok := table[label]; ok {
		return t
	}
	r.log.Warn("no translation for label", logx.String("lang", lang), logx.String("label", label))
	return label
}

// Description is the /start greeting.
func (r *Renderer) Description(lang, siteURL, supportURL string) string {
	return fmt.Sprintf(localized(descriptionText, lang, r.defaultLang), siteURL, supportURL)
}

func (r *Renderer) Unavailable(lang string) string {
	return localized(unavailableText, lang, r.defaultLang)
}

func (r *Renderer) SubPrompt(lang string) string {
	return localized(subPromptText, lang, r.defaultLang)
}

func (r *Renderer) SubConfirmed(lang string) string {
	return localized(subConfirmedText, lang, r.defaultLang)
}

func (r *Renderer) UnsubDone(lang string) string {
	return localized(unsubDoneText, lang, r.defaultLang)
}

func localized(table map[string]string, lang, def string) string {
	if s, ok := table[lang]; ok {
		return s
	}
	return table[def]
}
