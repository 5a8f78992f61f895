package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestStaticClientSubstringMatch(t *testing.T) {
	client := &StaticClient{
		Results: map[string][]Result{
			"kafka": {{Title: "kafka result", Snippet: "consumer groups", Link: "https://k.example", Source: "web_search"}},
			"":      {{Title: "fallback result", Snippet: "generic", Link: "https://f.example", Source: "web_search"}},
		},
	}

	got, err := client.Search(context.Background(), "kafka partition rebalance", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "kafka result" {
		t.Errorf("got %v", got)
	}

	got, _ = client.Search(context.Background(), "unrelated", 5)
	if len(got) != 1 || got[0].Title != "fallback result" {
		t.Errorf("fallback got %v", got)
	}

	if got := client.Queries(); len(got) != 2 {
		t.Errorf("recorded %d queries, want 2", len(got))
	}
}

func TestStaticClientConcurrentSearches(t *testing.T) {
	client := &StaticClient{
		Results: map[string][]Result{
			"": {{Title: "fallback"}},
		},
	}

	const callers = 16
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := client.Search(context.Background(), fmt.Sprintf("query %d", i), 3); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	if got := client.Queries(); len(got) != callers {
		t.Errorf("recorded %d queries, want %d", len(got), callers)
	}
}

func TestStaticClientHonorsMaxResults(t *testing.T) {
	client := &StaticClient{
		Results: map[string][]Result{
			"": {{Title: "one"}, {Title: "two"}, {Title: "three"}},
		},
	}
	got, _ := client.Search(context.Background(), "anything", 2)
	if len(got) != 2 {
		t.Errorf("got %d results, want 2", len(got))
	}
}

func TestHTTPClientExtractsAnchors(t *testing.T) {
	markup := `<html><body>
		<a href="https://example.test/good">a sufficiently long link title</a>
		<a href="/relative">relative link with a long title</a>
		<a href="https://example.test/short">short</a>
		<a href="https://twitter.com/x">a blocked social media result</a>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("query parameter missing")
		}
		w.Write([]byte(markup))
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.BaseURL = srv.URL
	client := NewHTTPClient(cfg)

	got, err := client.Search(context.Background(), "test query", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 (relative, short and blocked dropped): %v", len(got), got)
	}
	if got[0].Link != "https://example.test/good" {
		t.Errorf("link = %q", got[0].Link)
	}
	if got[0].Source != "web_search" {
		t.Errorf("source = %q", got[0].Source)
	}
}

func TestHTTPClientRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.BaseURL = srv.URL
	client := NewHTTPClient(cfg)

	if _, err := client.Search(context.Background(), "q", 5); err == nil {
		t.Fatal("expected error on 429")
	}
}
