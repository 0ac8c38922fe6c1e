package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"content":"x","bogus":1}`))
	w := httptest.NewRecorder()
	var dst struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &dst); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, 404, "not found")
	if w.Code != 404 {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), `"not found"`) {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestParseUUID(t *testing.T) {
	if _, err := parseUUID("nope"); err == nil {
		t.Fatal("expected error for bad uuid")
	}
	id, err := parseUUID("C7B9B12A-4E7A-4B8E-9B9B-0A1B2C3D4E5F")
	if err != nil {
		t.Fatal(err)
	}
	if id != strings.ToLower(id) {
		t.Fatalf("parseUUID should normalize, got %q", id)
	}
}

func TestRateLimiter(t *testing.T) {
	a := &API{rl: map[string]*rateBucket{}}
	for i := 0; i < 3; i++ {
		if !a.allow("1.2.3.4", "login", 3, time.Minute) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if a.allow("1.2.3.4", "login", 3, time.Minute) {
		t.Fatal("fourth request should be rejected")
	}
	// Another IP has its own bucket.
	if !a.allow("5.6.7.8", "login", 3, time.Minute) {
		t.Fatal("other ip should be allowed")
	}
	// So does another key from the same IP.
	if !a.allow("1.2.3.4", "register", 3, time.Minute) {
		t.Fatal("other key should be allowed")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	a := &API{rl: map[string]*rateBucket{}}
	if !a.allow("1.2.3.4", "login", 1, time.Minute) {
		t.Fatal("first request should be allowed")
	}
	if a.allow("1.2.3.4", "login", 1, time.Minute) {
		t.Fatal("second request should be rejected")
	}
	a.rl["1.2.3.4:login"].resetAt = time.Now().Add(-time.Second)
	if !a.allow("1.2.3.4", "login", 1, time.Minute) {
		t.Fatal("request after window should be allowed")
	}
}

func TestWithLoggingRecordsStatus(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(418)
	})
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder(), status: 200}
	h.ServeHTTP(sw, httptest.NewRequest("GET", "/", nil))
	if sw.status != 418 {
		t.Fatalf("status = %d, want 418", sw.status)
	}
}

func TestItemFilterFrom(t *testing.T) {
	f := itemFilterFrom(nil)
	if f.Kind != "" || f.State != "" || f.SortBy != "" || f.Desc {
		t.Fatalf("nil query should give zero filter, got %+v", f)
	}
	r := httptest.NewRequest("GET", "/?filter=tasks&state=active&sort=created&order=desc", nil)
	f = itemFilterFrom(r.URL.Query())
	if f.Kind != "tasks" || f.State != "active" || f.SortBy != "created" || !f.Desc {
		t.Fatalf("got %+v", f)
	}
}
