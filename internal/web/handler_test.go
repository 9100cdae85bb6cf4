package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"daily-scripture/internal/seeder"
	"daily-scripture/internal/video"
)

type recordingSeeder struct {
	dates   []string
	fail    bool
	started chan struct{}
	block   chan struct{}
}

func (s *recordingSeeder) SeedDates(ctx context.Context, dates []time.Time) []seeder.Outcome {
	if s.block != nil {
		close(s.started)
		<-s.block
	}
	var outcomes []seeder.Outcome
	for _, d := range dates {
		s.dates = append(s.dates, seeder.DateID(d))
		o := seeder.Outcome{Date: d, Status: seeder.StatusSuccess}
		if s.fail {
			o.Status = seeder.StatusFailed
			o.Err = errors.New("no citations")
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

type recordingVideos struct {
	dates  []string
	dryRun bool
}

func (v *recordingVideos) Run(ctx context.Context, dates []time.Time, stores []video.VideoStore, dryRun bool) video.Result {
	for _, d := range dates {
		v.dates = append(v.dates, seeder.DateID(d))
	}
	v.dryRun = dryRun
	return video.Result{Status: "success", ProcessedDates: v.dates}
}

func newTestHandler(s Seeding, v VideoRunner) (*Handler, *http.ServeMux) {
	h := New(s, v, nil, true, time.UTC, nil)
	h.now = func() time.Time { return time.Date(2025, 10, 15, 8, 0, 0, 0, time.UTC) }
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

func TestSeedRoutes(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantFirst string
		wantLast  string
		wantCount int
	}{
		{"default next month", "", "2025-11-01", "2025-11-30", 30},
		{"single date", "?date=2025-11-05", "2025-11-05", "2025-11-05", 1},
		{"range", "?from=2025-11-27&to=2025-12-01", "2025-11-27", "2025-12-01", 5},
		{"today", "?scope=today", "2025-10-15", "2025-10-16", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSeeder{}
			_, mux := newTestHandler(s, nil)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/seed"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			if len(s.dates) != tt.wantCount || s.dates[0] != tt.wantFirst || s.dates[len(s.dates)-1] != tt.wantLast {
				t.Errorf("seeded %v", s.dates)
			}

			var sum seeder.Summary
			if err := json.NewDecoder(rec.Body).Decode(&sum); err != nil {
				t.Fatalf("decoding summary: %v", err)
			}
			if sum.Status != "success" || sum.Successful != tt.wantCount {
				t.Errorf("summary = %+v", sum)
			}
			if rec.Header().Get("Cache-Control") == "" {
				t.Error("missing Cache-Control header")
			}
		})
	}
}

func TestSeedBadRequest(t *testing.T) {
	for _, q := range []string{"?date=11/05/2025", "?from=2025-11-05", "?from=2025-11-05&to=2025-11-01"} {
		s := &recordingSeeder{}
		_, mux := newTestHandler(s, nil)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/seed"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
		if len(s.dates) != 0 {
			t.Errorf("%s: seeded %v", q, s.dates)
		}
	}
}

func TestSeedAllFailed(t *testing.T) {
	_, mux := newTestHandler(&recordingSeeder{fail: true}, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/seed?date=2025-11-05", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestSeedRejectsGet(t *testing.T) {
	_, mux := newTestHandler(&recordingSeeder{}, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/seed", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestSeedConflict(t *testing.T) {
	s := &recordingSeeder{started: make(chan struct{}), block: make(chan struct{})}
	_, mux := newTestHandler(s, &recordingVideos{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/seed?date=2025-11-05", nil))
	}()
	<-s.started

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/videos", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}

	close(s.block)
	<-done
}

func TestVideos(t *testing.T) {
	v := &recordingVideos{}
	_, mux := newTestHandler(&recordingSeeder{}, v)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/videos", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !reflect.DeepEqual(v.dates, []string{"2025-10-15", "2025-10-16"}) {
		t.Errorf("dates = %v", v.dates)
	}
	if !v.dryRun {
		t.Error("dry run flag not passed through")
	}
}

func TestVideosNotConfigured(t *testing.T) {
	_, mux := newTestHandler(&recordingSeeder{}, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/videos", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	_, mux := newTestHandler(&recordingSeeder{}, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("health = %d %q", rec.Code, rec.Body)
	}
}
