package source

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

const srealityFixture = `{
	"_embedded": {
		"estates": [
			{
				"hash_id": 1234567890,
				"name": "Pronájem bytu 2+kk 55 m²",
				"price": 18500,
				"locality": {"value": "Veveří, Brno"},
				"seo": {"locality": "brno-veveri"},
				"_links": {"images": [{"href": "https://img.sreality.cz/1.jpg"}]}
			},
			{
				"hash_id": 987654321,
				"name": "Pronájem bytu 1+1 40 m²",
				"price": 0,
				"locality": {"value": "Líšeň, Brno"},
				"seo": {"locality": "brno-lisen"},
				"_links": {"images": []}
			},
			{
				"hash_id": 0,
				"name": "placeholder without identity",
				"price": 10000
			}
		]
	}
}`

func TestSrealityFetch(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, srealityBaseURL+srealityListPath,
		httpmock.NewStringResponder(http.StatusOK, srealityFixture))

	src := newSreality(&http.Client{Transport: transport})
	offers, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() returned error: %v", err)
	}

	if len(offers) != 2 {
		t.Fatalf("got %d offers, want 2 (estate without hash_id skipped)", len(offers))
	}

	first := offers[0]
	if first.Title != "Pronájem bytu 2+kk 55 m²" {
		t.Errorf("Title = %q", first.Title)
	}
	if want := "https://www.sreality.cz/detail/pronajem/byt/brno-veveri/1234567890"; first.Link != want {
		t.Errorf("Link = %q, want %q", first.Link, want)
	}
	if first.Location != "Veveří, Brno" {
		t.Errorf("Location = %q", first.Location)
	}
	if !first.Price.Numeric || first.Price.Amount != 18500 {
		t.Errorf("Price = %+v, want numeric 18500", first.Price)
	}
	if first.ImageURL != "https://img.sreality.cz/1.jpg" {
		t.Errorf("ImageURL = %q", first.ImageURL)
	}

	second := offers[1]
	if second.Price.Numeric {
		t.Errorf("zero price should be opaque, got %+v", second.Price)
	}
	if second.Price.Format() != "dohodou" {
		t.Errorf("hidden price formats as %q, want dohodou", second.Price.Format())
	}
}

func TestSrealityFetchServerError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, srealityBaseURL+srealityListPath,
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "down"))

	// Short deadline keeps the retry backoff from stalling the test.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	src := newSreality(&http.Client{Transport: transport})
	if _, err := src.Fetch(ctx); err == nil {
		t.Fatal("Fetch() should fail when the API keeps returning 503")
	}
}
