package regulation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetRegulationText(t *testing.T) {
	var gotPath, gotPart, gotSection string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPart = r.URL.Query().Get("part")
		gotSection = r.URL.Query().Get("section")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": 29,
			"part": "1614",
			"section": "105",
			"heading": "Pre-complaint processing.",
			"text": "Aggrieved persons must initiate contact with a Counselor within 45 days."
		}`))
	}))
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	text, err := client.GetRegulationText(context.Background(), 29, "1614", "105")
	if err != nil {
		t.Fatalf("GetRegulationText: %v", err)
	}

	if gotPath != "/full/current/title-29.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPart != "1614" || gotSection != "105" {
		t.Errorf("part = %q section = %q", gotPart, gotSection)
	}
	if !strings.HasPrefix(text, "Pre-complaint processing.") {
		t.Errorf("heading not prepended: %q", text)
	}
	if !strings.Contains(text, "within 45 days") {
		t.Errorf("text missing body: %q", text)
	}
}

func TestGetRegulationTextNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	_, err := client.GetRegulationText(context.Background(), 99, "9999", "")
	if err == nil {
		t.Fatal("expected error for missing regulation")
	}
	if !strings.Contains(err.Error(), "no regulation found") {
		t.Errorf("err = %v", err)
	}
}

func TestGetRegulationTextInvalidReference(t *testing.T) {
	client := NewClient()

	if _, err := client.GetRegulationText(context.Background(), 0, "", ""); err == nil {
		t.Fatal("expected error for invalid reference")
	}
}

func TestGetRegulationTextEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"title": 29, "part": "1614", "text": "  "}`))
	}))
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	if _, err := client.GetRegulationText(context.Background(), 29, "1614", ""); err == nil {
		t.Fatal("expected error for empty regulation text")
	}
}
