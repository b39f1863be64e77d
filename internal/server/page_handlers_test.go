package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/internal/treestore"
	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/scene"
)

func newPageServer(t *testing.T) *Server {
	t.Helper()
	store := treestore.NewStore()
	err := store.AddNamespace("enwiki", []scene.Node{
		{ID: 1, Depth: 0, DocCount: 10, ChildCount: 2, Label: "root"},
		{ID: 2, ParentID: nid(1), Depth: 1, DocCount: 6, ChildCount: 0, Label: "alpha"},
		{ID: 3, ParentID: nid(1), Depth: 1, DocCount: 4, ChildCount: 0, Label: "beta"},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = store.AddPages("enwiki", []treestore.Page{
		{PageID: 20, Title: "Alpha Centauri", Abstract: "Nearest star system", ClusterNodeID: 2},
		{PageID: 21, Title: "Alphabet", ClusterNodeID: 2},
		{PageID: 22, Title: "Beta decay", Abstract: "Radioactive decay emitting a beta particle", ClusterNodeID: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(store, DefaultConfig())
}

func TestPagesInClusterEndpoint(t *testing.T) {
	s := newPageServer(t)

	// 1. All pages of a node, ordered by page id.
	rec := doGet(t, s, "/api/v1/pages/namespace/enwiki/node_id/2")
	if rec.Code != http.StatusOK {
		t.Fatalf("pages status = %d, body %s", rec.Code, rec.Body)
	}
	var pages []treestore.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &pages); err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 || pages[0].PageID != 20 || pages[1].PageID != 21 {
		t.Errorf("pages of node 2 = %+v, want [20 21]", pages)
	}

	// 2. Limit and offset window the list.
	rec = doGet(t, s, "/api/v1/pages/namespace/enwiki/node_id/2?limit=1&offset=1")
	pages = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &pages); err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].PageID != 21 {
		t.Errorf("windowed pages = %+v, want [21]", pages)
	}

	// 3. Missing node 404s, bad window 400s.
	if rec = doGet(t, s, "/api/v1/pages/namespace/enwiki/node_id/99"); rec.Code != http.StatusNotFound {
		t.Errorf("missing node status = %d, want 404", rec.Code)
	}
	if rec = doGet(t, s, "/api/v1/pages/namespace/enwiki/node_id/2?offset=-1"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad offset status = %d, want 400", rec.Code)
	}
}

func TestPageEndpoint(t *testing.T) {
	s := newPageServer(t)

	rec := doGet(t, s, "/api/v1/pages/namespace/enwiki/page_id/22")
	if rec.Code != http.StatusOK {
		t.Fatalf("page status = %d", rec.Code)
	}
	var p treestore.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Title != "Beta decay" || p.ClusterNodeID != 3 {
		t.Errorf("page 22 = %+v", p)
	}

	if rec = doGet(t, s, "/api/v1/pages/namespace/enwiki/page_id/999"); rec.Code != http.StatusNotFound {
		t.Errorf("missing page status = %d, want 404", rec.Code)
	}
	if rec = doGet(t, s, "/api/v1/pages/namespace/enwiki/page_id/abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad page id status = %d, want 400", rec.Code)
	}
}

func TestPageSearchEndpoint(t *testing.T) {
	s := newPageServer(t)

	// 1. Title search with the envelope.
	rec := doGet(t, s, "/api/v1/search/pages?namespace=enwiki&query=alpha")
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d, body %s", rec.Code, rec.Body)
	}
	var result struct {
		Pages      []treestore.Page `json:"pages"`
		TotalCount int              `json:"total_count"`
		Query      string           `json:"query"`
		SearchType string           `json:"search_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.TotalCount != 2 || len(result.Pages) != 2 {
		t.Fatalf("search result = %+v, want pages 20 and 21", result)
	}
	if result.Query != "alpha" || result.SearchType != "title" {
		t.Errorf("envelope = query %q type %q, want alpha/title", result.Query, result.SearchType)
	}

	// 2. Abstract search.
	rec = doGet(t, s, "/api/v1/search/pages?namespace=enwiki&query=star&search_type=abstract")
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.TotalCount != 1 || result.Pages[0].PageID != 20 {
		t.Errorf("abstract search = %+v, want page 20", result)
	}

	// 3. Parameter validation.
	cases := []string{
		"/api/v1/search/pages?query=alpha",
		"/api/v1/search/pages?namespace=enwiki",
		"/api/v1/search/pages?namespace=enwiki&query=a&search_type=fuzzy",
		"/api/v1/search/pages?namespace=enwiki&query=a&limit=x",
	}
	for _, path := range cases {
		if rec = doGet(t, s, path); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", path, rec.Code)
		}
	}

	// 4. Unknown namespace 404s.
	if rec = doGet(t, s, "/api/v1/search/pages?namespace=nosuch&query=a"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown namespace status = %d, want 404", rec.Code)
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	s := newPageServer(t)

	rec := doGet(t, s, "/api/v1/search/suggestions?namespace=enwiki&partial_query=alph")
	if rec.Code != http.StatusOK {
		t.Fatalf("suggestions status = %d, body %s", rec.Code, rec.Body)
	}
	var result map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	got := result["suggestions"]
	if len(got) != 2 || got[0] != "Alpha Centauri" || got[1] != "Alphabet" {
		t.Errorf("suggestions = %v, want [Alpha Centauri Alphabet]", got)
	}

	// No-match prefix yields an empty list, not null.
	rec = doGet(t, s, "/api/v1/search/suggestions?namespace=enwiki&partial_query=zzz")
	if rec.Code != http.StatusOK || rec.Body.String() == "null\n" {
		t.Errorf("empty suggestions = %q (status %d), want an empty list", rec.Body.String(), rec.Code)
	}

	if rec = doGet(t, s, "/api/v1/search/suggestions?namespace=enwiki"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing partial_query status = %d, want 400", rec.Code)
	}
}
