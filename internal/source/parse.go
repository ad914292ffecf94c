package source

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors anchor on the stable class tokens; the full class attribute
// carries decorated suffixes that change per machine ("childItem child17").
const (
	machineSel = "div.childItem"
	centerSel  = "div.text-center"
	priceSel   = "span.withTooltip"
	updateSel  = "div[data-toggle='tooltip']"
)

var (
	numberRe = regexp.MustCompile(`\d+`)
	dateRe   = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	timeRe   = regexp.MustCompile(`\d{2}:\d{2}`)
)

// ParseSnapshot extracts machine id -> status from the page. Skipped reports
// how many entries were dropped as malformed. A page without any machine
// container at all is the format-changed case.
func ParseSnapshot(doc *goquery.Document) (snap Snapshot, skipped int, err error) {
	entries := doc.Find(machineSel)
	if entries.Length() == 0 {
		return nil, 0, ErrFormatChanged
	}

	snap = make(Snapshot, entries.Length())
	entries.Each(func(_ int, s *goquery.Selection) {
		id, ok := entryID(s)
		if !ok {
			skipped++
			return
		}
		status := entryStatus(s)
		if status == "" {
			skipped++
			return
		}
		snap[id] = status
	})
	return snap, skipped, nil
}

// ParseCatalog extracts the machine catalog (id, kind, price).
func ParseCatalog(doc *goquery.Document) (machines []Machine, skipped int, err error) {
	entries := doc.Find(machineSel)
	if entries.Length() == 0 {
		return nil, 0, ErrFormatChanged
	}

	machines = make([]Machine, 0, entries.Length())
	entries.Each(func(_ int, s *goquery.Selection) {
		id, ok := entryID(s)
		if !ok {
			skipped++
			return
		}
		kind, hasKind := s.Find("div[title]").First().Attr("title")
		if !hasKind || strings.TrimSpace(kind) == "" {
			skipped++
			return
		}
		priceText := s.Find(priceSel).First().Text()
		priceDigits := numberRe.FindString(priceText)
		if priceDigits == "" {
			skipped++
			return
		}
		price, _ := strconv.Atoi(priceDigits)
		machines = append(machines, Machine{ID: id, Kind: strings.TrimSpace(kind), Price: price})
	})
	return machines, skipped, nil
}

// ParseLastUpdate extracts the page's last-update stamp from the tooltip
// element. The stamp is display-only, but a missing tooltip still counts as
// a format change so the staleness is surfaced.
func ParseLastUpdate(doc *goquery.Document) (LastUpdate, error) {
	el := doc.Find(updateSel).First()
	if el.Length() == 0 {
		return LastUpdate{}, ErrFormatChanged
	}
	text := el.Text()
	date := dateRe.FindString(text)
	clock := timeRe.FindString(text)
	if date == "" || clock == "" {
		return LastUpdate{}, ErrFormatChanged
	}
	return LastUpdate{Date: date, Time: clock}, nil
}

func entryID(s *goquery.Selection) (int, bool) {
	text := s.Find(centerSel).First().Text()
	digits := numberRe.FindString(text)
	if digits == "" {
		return 0, false
	}
	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return id, true
}

// entryStatus takes the second centered block, which holds the status label
// split over several lines in the markup.
func entryStatus(s *goquery.Selection) string {
	text := s.Find(centerSel).Eq(1).Text()
	text = strings.ReplaceAll(text, "\n", "")
	return strings.TrimSpace(text)
}
