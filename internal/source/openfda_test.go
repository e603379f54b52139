package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const labelJSON = `{
	"results": [{
		"openfda": {
			"brand_name": ["PAXLOVID"],
			"generic_name": ["NIRMATRELVIR AND RITONAVIR"]
		},
		"indications_and_usage": ["PAXLOVID is indicated for the treatment of mild-to-moderate COVID-19."],
		"clinical_studies": ["EPIC-HR: 89% relative risk reduction in hospitalization or death."],
		"dosage_and_administration": ["300 mg nirmatrelvir with 100 mg ritonavir twice daily for 5 days."],
		"warnings": ["Significant drug interactions."],
		"adverse_reactions": ["Dysgeusia, diarrhea."],
		"effective_time": "20230526"
	}]
}`

func TestLabelClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		search := r.URL.Query().Get("search")
		if !strings.Contains(search, "openfda.brand_name") {
			t.Errorf("expected brand name search, got %q", search)
		}
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("limit = %s", r.URL.Query().Get("limit"))
		}
		_, _ = w.Write([]byte(labelJSON))
	}))
	defer server.Close()

	client := &LabelClient{rest: newTestREST(t), baseURL: server.URL}

	candidates, err := client.Search(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want exactly 1", len(candidates))
	}

	doc := candidates[0].Label
	if doc == nil {
		t.Fatal("expected label payload")
	}
	if doc.BrandName != "PAXLOVID" {
		t.Errorf("brand = %s", doc.BrandName)
	}
	if len(doc.ClinicalStudies) != 1 {
		t.Errorf("clinical studies = %v", doc.ClinicalStudies)
	}
}

func TestLabelClient_GenericFallback(t *testing.T) {
	var searches []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		search := r.URL.Query().Get("search")
		searches = append(searches, search)
		if strings.Contains(search, "brand_name") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(labelJSON))
	}))
	defer server.Close()

	client := &LabelClient{rest: newTestREST(t), baseURL: server.URL}

	doc, err := client.Lookup(context.Background(), "Paxlovid", "nirmatrelvir")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if doc == nil {
		t.Fatal("expected label via generic fallback")
	}
	if len(searches) != 2 {
		t.Fatalf("searches = %v, want brand then generic", searches)
	}
	if !strings.Contains(searches[1], "generic_name") {
		t.Errorf("second search = %q", searches[1])
	}
}

func TestLabelClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := &LabelClient{rest: newTestREST(t), baseURL: server.URL}

	candidates, err := client.Search(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("missing label must not be an error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("candidates = %d, want 0", len(candidates))
	}
}

func TestLabelClient_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := &LabelClient{rest: newTestREST(t), baseURL: server.URL}

	doc, err := client.Lookup(context.Background(), "Nosuchdrug", "")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if doc != nil {
		t.Errorf("expected nil document, got %+v", doc)
	}
}
