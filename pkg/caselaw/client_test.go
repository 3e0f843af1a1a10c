package caselaw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleSearchBody = `{
	"count": 2,
	"results": [
		{
			"caseName": "Roe v. Wade",
			"court": "Supreme Court of the United States",
			"dateFiled": "1973-01-22",
			"snippet": "constitutional right to privacy",
			"absolute_url": "/opinion/108713/roe-v-wade/",
			"citations": [{"cite": "410 U.S. 113"}]
		},
		{
			"caseName": "Doe v. Bolton",
			"court": "Supreme Court of the United States",
			"dateFiled": "1973-01-22",
			"citations": [{"cite": "410 U.S. 179"}]
		}
	]
}`

func TestSearchOpinions(t *testing.T) {
	var gotQuery, gotCourt, gotAfter string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCourt = r.URL.Query().Get("court")
		gotAfter = r.URL.Query().Get("filed_after")
		if r.Header.Get("Authorization") != "Token secret" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleSearchBody))
	}))
	defer ts.Close()

	client := NewClient("secret", WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	opinions, err := client.SearchOpinions(context.Background(), "abortion privacy", "scotus", from, time.Time{})
	if err != nil {
		t.Fatalf("SearchOpinions: %v", err)
	}

	if gotQuery != "abortion privacy" {
		t.Errorf("query param = %q", gotQuery)
	}
	if gotCourt != "scotus" {
		t.Errorf("court param = %q", gotCourt)
	}
	if gotAfter != "1970-01-01" {
		t.Errorf("filed_after param = %q", gotAfter)
	}

	if len(opinions) != 2 {
		t.Fatalf("len(opinions) = %d, want 2", len(opinions))
	}
	first := opinions[0]
	if first.Title != "Roe v. Wade" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Citation != "410 U.S. 113" {
		t.Errorf("Citation = %q", first.Citation)
	}
	if first.Date.Format("2006-01-02") != "1973-01-22" {
		t.Errorf("Date = %v", first.Date)
	}
	if first.URL != "https://www.courtlistener.com/opinion/108713/roe-v-wade/" {
		t.Errorf("URL = %q", first.URL)
	}
}

func TestSearchOpinionsCapsResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(sampleSearchBody))
	}))
	defer ts.Close()

	client := NewClient("", WithBaseURL(ts.URL), WithHTTPClient(ts.Client()), WithMaxResults(1))

	opinions, err := client.SearchOpinions(context.Background(), "q", "", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("SearchOpinions: %v", err)
	}
	if len(opinions) != 1 {
		t.Errorf("len(opinions) = %d, want 1", len(opinions))
	}
}

func TestSearchOpinionsServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewClient("", WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	if _, err := client.SearchOpinions(context.Background(), "q", "", time.Time{}, time.Time{}); err == nil {
		t.Fatal("expected error on HTTP 400")
	}
}
