package source

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const pageFixture = `<!DOCTYPE html>
<html><body>
<div class="container">
  <div class="col mb-3 childItem child1">
    <div title="СТИРКА" class="card">
      <div class="text-center">1</div>
      <div class="text-center">
        Свободно
      </div>
      <span class="pl-1 pr-1 withTooltip tt1">100 ₽</span>
    </div>
  </div>
  <div class="col mb-3 childItem child2">
    <div title="СТИРКА" class="card">
      <div class="text-center">2</div>
      <div class="text-center">
        Занято
      </div>
      <span class="pl-1 pr-1 withTooltip tt2">100 ₽</span>
    </div>
  </div>
  <div class="col mb-3 childItem child7">
    <div title="СУШКА" class="card">
      <div class="text-center">7</div>
      <div class="text-center">
        Свободно
      </div>
      <span class="pl-1 pr-1 withTooltip tt7">50 ₽</span>
    </div>
  </div>
  <div data-toggle="tooltip" title="">Обновлено 01.02.2024 в 12:34</div>
</div>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestParseSnapshot(t *testing.T) {
	t.Parallel()

	snap, skipped, err := ParseSnapshot(mustDoc(t, pageFixture))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	want := Snapshot{1: "Свободно", 2: "Занято", 7: "Свободно"}
	if !reflect.DeepEqual(snap, want) {
		t.Fatalf("snapshot = %v, want %v", snap, want)
	}
}

func TestParseSnapshotSkipsMalformedEntry(t *testing.T) {
	t.Parallel()

	html := `<div class="childItem childX">
	  <div class="text-center">no digits here</div>
	  <div class="text-center">Свободно</div>
	</div>
	<div class="childItem child3">
	  <div class="text-center">3</div>
	  <div class="text-center">Занято</div>
	</div>`

	snap, skipped, err := ParseSnapshot(mustDoc(t, html))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if !reflect.DeepEqual(snap, Snapshot{3: "Занято"}) {
		t.Fatalf("snapshot = %v, want map[3:Занято]", snap)
	}
}

func TestParseSnapshotFormatChanged(t *testing.T) {
	t.Parallel()

	_, _, err := ParseSnapshot(mustDoc(t, `<div class="container"><p>redesigned</p></div>`))
	if !errors.Is(err, ErrFormatChanged) {
		t.Fatalf("err = %v, want ErrFormatChanged", err)
	}
}

func TestParseCatalog(t *testing.T) {
	t.Parallel()

	machines, skipped, err := ParseCatalog(mustDoc(t, pageFixture))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	want := []Machine{
		{ID: 1, Kind: "СТИРКА", Price: 100},
		{ID: 2, Kind: "СТИРКА", Price: 100},
		{ID: 7, Kind: "СУШКА", Price: 50},
	}
	if !reflect.DeepEqual(machines, want) {
		t.Fatalf("catalog = %v, want %v", machines, want)
	}
}

func TestParseCatalogSkipsEntryWithoutPrice(t *testing.T) {
	t.Parallel()

	html := `<div class="childItem child1">
	  <div title="СТИРКА">
	    <div class="text-center">1</div>
	    <div class="text-center">Свободно</div>
	  </div>
	</div>`

	machines, skipped, err := ParseCatalog(mustDoc(t, html))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if skipped != 1 || len(machines) != 0 {
		t.Fatalf("skipped = %d, machines = %v; want 1 skipped, none kept", skipped, machines)
	}
}

func TestParseLastUpdate(t *testing.T) {
	t.Parallel()

	at, err := ParseLastUpdate(mustDoc(t, pageFixture))
	if err != nil {
		t.Fatalf("ParseLastUpdate: %v", err)
	}
	if at.Date != "01.02.2024" || at.Time != "12:34" {
		t.Fatalf("last update = %+v, want 01.02.2024 12:34", at)
	}
}

func TestParseLastUpdateMissingTooltip(t *testing.T) {
	t.Parallel()

	_, err := ParseLastUpdate(mustDoc(t, `<div class="childItem"><div class="text-center">1</div></div>`))
	if !errors.Is(err, ErrFormatChanged) {
		t.Fatalf("err = %v, want ErrFormatChanged", err)
	}
}
