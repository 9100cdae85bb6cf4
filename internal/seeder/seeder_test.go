package seeder

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"daily-scripture/internal/model"
	"daily-scripture/internal/scraper"
	"daily-scripture/internal/scripture"
	"daily-scripture/internal/store"
)

const readingsPage = `<html><body>
<div class="innerblock">
  <div class="content-header"><h3 class="name">Reading I</h3><div class="address"><a href="#">Rom 13:8-10</a></div></div>
  <div class="content-body">Brothers and sisters: Owe nothing to anyone.</div>
</div>
<div class="innerblock">
  <div class="content-header"><h3 class="name">Responsorial Psalm</h3><div class="address"><a href="#">Ps 112:1b-2, 4-5, 9</a></div></div>
  <div class="content-body">R. (5a) Blessed the man who is gracious and lends to those in need.<br>Blessed the man who fears the LORD</div>
</div>
<div class="innerblock">
  <div class="content-header"><h3 class="name">Gospel</h3><div class="address"><a href="#">Lk 14:25-33</a></div></div>
  <div class="content-body">Great crowds were traveling with Jesus.</div>
</div>
</body></html>`

const noPsalmPage = `<html><body>
<h3>Reading 1</h3><p>Rom 13:8-10</p>
<h3>Gospel</h3><p>Lk 14:25-33</p>
</body></html>`

const emptyPage = `<html><body><h1>Readings are not yet available</h1></body></html>`

var allTexts = map[string]string{
	"Romans 13:8-10": "Owe nothing to anyone, except to love one another.",
	"Psalms 112:1-9": "Blessed is the man who fears Yahweh.",
	"Luke 14:25-33":  "Now great multitudes were going with him.",
	"Luke 23:35-43":  "The people stood watching.",
}

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	page, ok := f.pages[url]
	if !ok {
		return nil, &scraper.StatusError{URL: url, Code: 404}
	}
	return []byte(page), nil
}

type fakeResolver struct {
	texts map[string]string
	keys  []string
}

func (r *fakeResolver) Resolve(ctx context.Context, key scripture.LookupKey) (string, bool) {
	r.keys = append(r.keys, key.String())
	text, ok := r.texts[key.String()]
	return text, ok
}

type memStore struct {
	records map[string]model.DailyReadingRecord
	deleted []string
	err     error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]model.DailyReadingRecord)}
}

func (m *memStore) UpsertReading(ctx context.Context, rec model.DailyReadingRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records[rec.Date] = rec
	return nil
}

func (m *memStore) GetReading(ctx context.Context, date string) (model.StoredReading, bool, error) {
	rec, ok := m.records[date]
	if !ok {
		return model.StoredReading{}, false, nil
	}
	r := model.StoredReading{
		ID:        rec.Date,
		USCCBLink: rec.SourceURL,
		Verses:    make(map[model.SectionKind]string),
	}
	for kind, sec := range rec.Sections {
		r.Verses[kind] = sec.Reference
	}
	if g, ok := rec.Section(model.Gospel); ok {
		r.Reference = g.Reference
		r.Body = "Gospel: " + g.Reference
	}
	return r, true, nil
}

func (m *memStore) DeleteReadings(ctx context.Context, dates []string) error {
	m.deleted = append(m.deleted, dates...)
	for _, d := range dates {
		delete(m.records, d)
	}
	return nil
}

func readingsURL(date string) string {
	d, _ := time.Parse(dateLayout, date)
	return scraper.ReadingsURL(scraper.DefaultBaseURL, d)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func newTestSeeder(fetcher scraper.PageFetcher, resolver TextResolver, stores ...ReadingStore) *Seeder {
	s := New(Config{
		Fetcher:  fetcher,
		Resolver: resolver,
		Stores:   stores,
		Logger:   zap.NewNop(),
	})
	s.now = func() time.Time { return time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSeedDateSuccess(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{readingsURL("2025-11-05"): readingsPage}}
	resolver := &fakeResolver{texts: allTexts}
	st := newMemStore()

	archive, err := store.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	s := newTestSeeder(fetcher, resolver, st)
	s.archive = archive

	out := s.SeedDate(context.Background(), mustDate(t, "2025-11-05"))
	if out.Err != nil {
		t.Fatalf("SeedDate: %v", out.Err)
	}
	if out.Status != StatusSuccess {
		t.Errorf("Status = %q, want success", out.Status)
	}
	if out.Strategy != scraper.StructuralMatch {
		t.Errorf("Strategy = %q", out.Strategy)
	}

	rec, ok := st.records["2025-11-05"]
	if !ok {
		t.Fatal("record not stored")
	}
	if rec.SourceURL != readingsURL("2025-11-05") {
		t.Errorf("SourceURL = %q", rec.SourceURL)
	}
	if rec.Strategy != string(scraper.StructuralMatch) {
		t.Errorf("record Strategy = %q", rec.Strategy)
	}
	if !rec.FetchedAt.Equal(time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("FetchedAt = %v", rec.FetchedAt)
	}

	psalm := rec.Sections[model.ResponsorialPsalm]
	if psalm.Reference != "Ps 112:1b-2, 4-5, 9" {
		t.Errorf("psalm reference = %q", psalm.Reference)
	}
	if psalm.Response == nil || *psalm.Response != "Blessed the man who is gracious and lends to those in need." {
		t.Errorf("psalm response = %v", psalm.Response)
	}
	if psalm.Text == nil || *psalm.Text != allTexts["Psalms 112:1-9"] {
		t.Errorf("psalm text = %v", psalm.Text)
	}

	gospel := rec.Sections[model.Gospel]
	if gospel.Text == nil || *gospel.Text != allTexts["Luke 14:25-33"] {
		t.Errorf("gospel text = %v", gospel.Text)
	}
	if gospel.Response != nil {
		t.Errorf("gospel has a response: %q", *gospel.Response)
	}

	wantKeys := []string{"Romans 13:8-10", "Psalms 112:1-9", "Luke 14:25-33"}
	if !reflect.DeepEqual(resolver.keys, wantKeys) {
		t.Errorf("resolved keys = %v, want %v", resolver.keys, wantKeys)
	}

	if page, ok := archive.GetWithExtension("usccb/2025-11-05", ".html"); !ok || string(page) != readingsPage {
		t.Error("page not archived")
	}
	var meta archivedExtraction
	if !archive.GetJSON("usccb/2025-11-05", &meta) || len(meta.Citations) != 3 {
		t.Errorf("archived extraction = %+v", meta)
	}
}

func TestSeedDateUnresolvedText(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{readingsURL("2025-11-05"): readingsPage}}
	resolver := &fakeResolver{texts: map[string]string{
		"Romans 13:8-10": "text",
		"Luke 14:25-33":  "text",
	}}
	st := newMemStore()

	out := newTestSeeder(fetcher, resolver, st).SeedDate(context.Background(), mustDate(t, "2025-11-05"))
	if out.Status != StatusPartial {
		t.Errorf("Status = %q, want partial", out.Status)
	}
	if !reflect.DeepEqual(out.Unresolved, []model.SectionKind{model.ResponsorialPsalm}) {
		t.Errorf("Unresolved = %v", out.Unresolved)
	}

	psalm := st.records["2025-11-05"].Sections[model.ResponsorialPsalm]
	if psalm.Reference == "" || psalm.Text != nil {
		t.Errorf("psalm section = %+v, want reference without text", psalm)
	}
}

func TestSeedDateMissingSection(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{readingsURL("2025-11-05"): noPsalmPage}}
	st := newMemStore()

	out := newTestSeeder(fetcher, &fakeResolver{texts: allTexts}, st).SeedDate(context.Background(), mustDate(t, "2025-11-05"))
	if out.Status != StatusPartial {
		t.Errorf("Status = %q, want partial", out.Status)
	}
	if !reflect.DeepEqual(out.Missing, []model.SectionKind{model.ResponsorialPsalm}) {
		t.Errorf("Missing = %v", out.Missing)
	}
	if _, ok := st.records["2025-11-05"]; !ok {
		t.Error("partial record not stored")
	}
}

func TestSeedDateExtractionFailed(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{readingsURL("2025-11-05"): emptyPage}}
	st := newMemStore()

	out := newTestSeeder(fetcher, &fakeResolver{texts: allTexts}, st).SeedDate(context.Background(), mustDate(t, "2025-11-05"))
	if out.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", out.Status)
	}

	var failed *scraper.ExtractionFailed
	if !errors.As(out.Err, &failed) {
		t.Fatalf("Err = %v, want ExtractionFailed", out.Err)
	}
	if failed.URL != readingsURL("2025-11-05") {
		t.Errorf("failed URL = %q", failed.URL)
	}
	if len(st.records) != 0 {
		t.Error("failed date was written")
	}
}

func TestSeedDateRenderedRetry(t *testing.T) {
	url := readingsURL("2025-11-05")
	static := &fakeFetcher{pages: map[string]string{url: emptyPage}}
	rendered := &fakeFetcher{pages: map[string]string{url: readingsPage}}

	s := newTestSeeder(static, &fakeResolver{texts: allTexts}, newMemStore())
	s.rendered = rendered

	out := s.SeedDate(context.Background(), mustDate(t, "2025-11-05"))
	if out.Status != StatusSuccess {
		t.Fatalf("Status = %q (%v), want success", out.Status, out.Err)
	}
	if !reflect.DeepEqual(rendered.calls, []string{url}) {
		t.Errorf("rendered fetches = %v", rendered.calls)
	}
}

func TestSeedDateFetchError(t *testing.T) {
	out := newTestSeeder(&fakeFetcher{}, nil, newMemStore()).SeedDate(context.Background(), mustDate(t, "2025-11-05"))
	if out.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", out.Status)
	}

	var statusErr *scraper.StatusError
	if !errors.As(out.Err, &statusErr) || statusErr.Code != 404 {
		t.Errorf("Err = %v, want wrapped 404", out.Err)
	}
}

func TestSeedDateThanksgiving(t *testing.T) {
	d := mustDate(t, "2025-11-27")
	urls := scraper.ReadingsURLs(scraper.DefaultBaseURL, d)

	t.Run("holiday page", func(t *testing.T) {
		fetcher := &fakeFetcher{pages: map[string]string{urls[0]: readingsPage, urls[1]: noPsalmPage}}
		out := newTestSeeder(fetcher, &fakeResolver{texts: allTexts}, newMemStore()).SeedDate(context.Background(), d)
		if out.URL != urls[0] {
			t.Errorf("URL = %q, want %q", out.URL, urls[0])
		}
		if len(fetcher.calls) != 1 {
			t.Errorf("fetches = %v, want only the holiday page", fetcher.calls)
		}
	})

	t.Run("holiday page without citations", func(t *testing.T) {
		fetcher := &fakeFetcher{pages: map[string]string{urls[0]: emptyPage, urls[1]: readingsPage}}
		out := newTestSeeder(fetcher, &fakeResolver{texts: allTexts}, newMemStore()).SeedDate(context.Background(), d)
		if out.Status != StatusSuccess {
			t.Fatalf("Status = %q (%v)", out.Status, out.Err)
		}
		if out.URL != urls[1] {
			t.Errorf("URL = %q, want %q", out.URL, urls[1])
		}
		if !reflect.DeepEqual(fetcher.calls, urls) {
			t.Errorf("fetches = %v, want %v", fetcher.calls, urls)
		}
	})

	t.Run("plain page fallback", func(t *testing.T) {
		fetcher := &fakeFetcher{pages: map[string]string{urls[1]: readingsPage}}
		out := newTestSeeder(fetcher, &fakeResolver{texts: allTexts}, newMemStore()).SeedDate(context.Background(), d)
		if out.Status != StatusSuccess {
			t.Fatalf("Status = %q (%v)", out.Status, out.Err)
		}
		if out.URL != urls[1] {
			t.Errorf("URL = %q, want %q", out.URL, urls[1])
		}
	})
}

func TestSeedDateDryRun(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{readingsURL("2025-11-05"): readingsPage}}
	st := newMemStore()

	archive, err := store.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	s := newTestSeeder(fetcher, &fakeResolver{texts: allTexts}, st)
	s.dryRun = true
	s.archive = archive

	out := s.SeedDate(context.Background(), mustDate(t, "2025-11-05"))
	if out.Status != StatusDryRun {
		t.Errorf("Status = %q, want dry_run", out.Status)
	}
	if out.Record == nil || len(out.Record.Sections) != 3 {
		t.Errorf("Record = %+v", out.Record)
	}
	if len(st.records) != 0 {
		t.Error("dry run wrote a record")
	}
	if _, ok := archive.GetWithExtension("usccb/2025-11-05", ".html"); ok {
		t.Error("dry run archived the page")
	}
}

func TestSeedDateUnparseableCitation(t *testing.T) {
	page := `<html><body>
<h3>Reading 1</h3><p>Sir 27:30—28:7</p>
<h3>Gospel</h3><p>Lk 23:35-43</p>
</body></html>`
	fetcher := &fakeFetcher{pages: map[string]string{readingsURL("2025-09-14"): page}}
	resolver := &fakeResolver{texts: allTexts}
	st := newMemStore()

	out := newTestSeeder(fetcher, resolver, st).SeedDate(context.Background(), mustDate(t, "2025-09-14"))
	if out.Status != StatusPartial {
		t.Errorf("Status = %q, want partial", out.Status)
	}
	if !reflect.DeepEqual(resolver.keys, []string{"Luke 23:35-43"}) {
		t.Errorf("resolved keys = %v, want only the gospel", resolver.keys)
	}

	first := st.records["2025-09-14"].Sections[model.FirstReading]
	if first.Reference != "Sir 27:30—28:7" || first.Text != nil {
		t.Errorf("first reading = %+v", first)
	}
}

func TestSeedDateStoreError(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{readingsURL("2025-11-05"): readingsPage}}
	ok := newMemStore()
	broken := newMemStore()
	broken.err = errors.New("permission denied")

	out := newTestSeeder(fetcher, &fakeResolver{texts: allTexts}, ok, broken).SeedDate(context.Background(), mustDate(t, "2025-11-05"))
	if out.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", out.Status)
	}
	if !errors.Is(out.Err, broken.err) {
		t.Errorf("Err = %v", out.Err)
	}
	if _, stored := ok.records["2025-11-05"]; !stored {
		t.Error("healthy store did not receive the record")
	}
}

func TestSeedDatesContinuesAfterFailure(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		readingsURL("2025-11-04"): readingsPage,
		readingsURL("2025-11-06"): readingsPage,
	}}
	dates, err := Range(mustDate(t, "2025-11-04"), mustDate(t, "2025-11-06"))
	if err != nil {
		t.Fatal(err)
	}

	outcomes := newTestSeeder(fetcher, &fakeResolver{texts: allTexts}, newMemStore()).SeedDates(context.Background(), dates)

	var got []Status
	for _, o := range outcomes {
		got = append(got, o.Status)
	}
	want := []Status{StatusSuccess, StatusFailed, StatusSuccess}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
}

func TestSeedDatesCancelled(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{readingsURL("2025-11-04"): readingsPage}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := newTestSeeder(fetcher, nil, newMemStore()).SeedDates(ctx, []time.Time{mustDate(t, "2025-11-04")})
	if len(outcomes) != 1 || !errors.Is(outcomes[0].Err, context.Canceled) {
		t.Errorf("outcomes = %+v", outcomes)
	}
	if len(fetcher.calls) != 0 {
		t.Error("cancelled batch still fetched")
	}
}

type cachingFetcher struct {
	fakeFetcher
	invalidated []string
}

func (f *cachingFetcher) Invalidate(url string) error {
	f.invalidated = append(f.invalidated, url)
	return nil
}

func TestSeedDateDropsCachedPageWithoutCitations(t *testing.T) {
	url := readingsURL("2025-11-05")
	fetcher := &cachingFetcher{fakeFetcher: fakeFetcher{pages: map[string]string{url: emptyPage}}}

	out := newTestSeeder(fetcher, nil, newMemStore()).SeedDate(context.Background(), mustDate(t, "2025-11-05"))
	if out.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", out.Status)
	}
	if !reflect.DeepEqual(fetcher.invalidated, []string{url}) {
		t.Errorf("invalidated = %v, want [%s]", fetcher.invalidated, url)
	}
}

func TestSeedDateDeuterocanonicalWithoutText(t *testing.T) {
	page := `<html><body>
<h3>Reading 1</h3><p>Sir 3:2-6, 12-14</p>
<h3>Gospel</h3><p>Lk 2:41-52</p>
</body></html>`
	url := readingsURL("2025-12-28")
	core, logs := observer.New(zapcore.InfoLevel)

	s := New(Config{
		Fetcher:  &fakeFetcher{pages: map[string]string{url: page}},
		Resolver: &fakeResolver{texts: map[string]string{"Luke 2:41-52": "His parents went to Jerusalem."}},
		Stores:   []ReadingStore{newMemStore()},
		Logger:   zap.New(core),
	})

	out := s.SeedDate(context.Background(), mustDate(t, "2025-12-28"))
	if !reflect.DeepEqual(out.Unresolved, []model.SectionKind{model.FirstReading}) {
		t.Errorf("Unresolved = %v", out.Unresolved)
	}

	entries := logs.FilterMessage("no text for deuterocanonical book").All()
	if len(entries) != 1 {
		t.Fatalf("got %d deuterocanonical log entries, want 1", len(entries))
	}
	if book := entries[0].ContextMap()["book"]; book != "Sirach" {
		t.Errorf("book = %v, want Sirach", book)
	}
}
