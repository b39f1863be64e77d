package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/internal/treestore"
	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/scene"
)

func nid(v scene.NodeID) *scene.NodeID { return &v }

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	store := treestore.NewStore()
	err := store.AddNamespace("enwiki", []scene.Node{
		{ID: 1, Depth: 0, DocCount: 10, ChildCount: 2, Label: "root"},
		{ID: 2, ParentID: nid(1), Depth: 1, DocCount: 6, ChildCount: 0, Label: "alpha", Centroid: [3]float64{1, 0, 0}},
		{ID: 3, ParentID: nid(1), Depth: 1, DocCount: 4, ChildCount: 0, Label: "beta", Centroid: [3]float64{0, 1, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(store, cfg)
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNodeEndpoints(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	// 1. Root node.
	rec := doGet(t, s, "/api/v1/namespace/enwiki/root_node")
	if rec.Code != http.StatusOK {
		t.Fatalf("root_node status = %d, body %s", rec.Code, rec.Body)
	}
	var root scene.Node
	if err := json.Unmarshal(rec.Body.Bytes(), &root); err != nil {
		t.Fatal(err)
	}
	if root.ID != 1 {
		t.Errorf("root id = %d, want 1", root.ID)
	}

	// 2. Single node.
	rec = doGet(t, s, "/api/v1/namespace/enwiki/node_id/2")
	if rec.Code != http.StatusOK {
		t.Fatalf("node status = %d", rec.Code)
	}

	// 3. Children and siblings.
	rec = doGet(t, s, "/api/v1/namespace/enwiki/node_id/1/children")
	var children []scene.Node
	if err := json.Unmarshal(rec.Body.Bytes(), &children); err != nil {
		t.Fatal(err)
	}
	if len(children) != 2 {
		t.Errorf("children = %d, want 2", len(children))
	}
	rec = doGet(t, s, "/api/v1/namespace/enwiki/node_id/2/siblings")
	var sibs []scene.Node
	if err := json.Unmarshal(rec.Body.Bytes(), &sibs); err != nil {
		t.Fatal(err)
	}
	if len(sibs) != 1 || sibs[0].ID != 3 {
		t.Errorf("siblings = %+v, want [3]", sibs)
	}

	// 4. The root's parent is JSON null.
	rec = doGet(t, s, "/api/v1/namespace/enwiki/node_id/1/parent")
	if rec.Code != http.StatusOK || rec.Body.String() != "null\n" {
		t.Errorf("root parent = %q (status %d), want null", rec.Body.String(), rec.Code)
	}
}

func TestNodeViewEndpointAndCache(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := doGet(t, s, "/api/v1/namespace/enwiki/node_id/1/view")
	if rec.Code != http.StatusOK {
		t.Fatalf("view status = %d", rec.Code)
	}
	var view scene.NodeView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Node == nil || view.Node.ID != 1 || len(view.Children) != 2 || view.Parent != nil {
		t.Errorf("unexpected view: %+v", view)
	}

	// Second hit is served from the cache; both bodies must agree.
	if s.cache.Len() != 1 {
		t.Errorf("cache holds %d entries after one view, want 1", s.cache.Len())
	}
	rec2 := doGet(t, s, "/api/v1/namespace/enwiki/node_id/1/view")
	if rec2.Body.String() != rec.Body.String() {
		t.Error("cached view differs from the first response")
	}
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	cases := []struct {
		path string
		want int
	}{
		{"/api/v1/namespace/enwiki/node_id/99", http.StatusNotFound},
		{"/api/v1/namespace/nosuch/root_node", http.StatusNotFound},
		{"/api/v1/namespace/enwiki/node_id/zebra", http.StatusBadRequest},
		{"/api/v1/namespace/enwiki/search", http.StatusBadRequest},
		{"/api/v1/namespace/enwiki/search?q=a&limit=-3", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := doGet(t, s, tc.path)
		if rec.Code != tc.want {
			t.Errorf("GET %s = %d, want %d", tc.path, rec.Code, tc.want)
		}
		var envelope map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil || envelope["error"] == "" {
			t.Errorf("GET %s: missing error envelope: %s", tc.path, rec.Body)
		}
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := doGet(t, s, "/api/v1/namespace/enwiki/search?q=alp")
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	var result struct {
		Clusters   []scene.Node `json:"clusters"`
		TotalCount int          `json:"total_count"`
		Query      string       `json:"query"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.TotalCount != 1 || len(result.Clusters) != 1 || result.Clusters[0].ID != 2 {
		t.Errorf("search result = %+v, want node 2", result)
	}
	if result.Query != "alp" {
		t.Errorf("echoed query = %q, want alp", result.Query)
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuthToken = "sesame"
	s := newTestServer(t, cfg)

	// 1. Missing token is rejected.
	rec := doGet(t, s, "/api/v1/namespaces")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated request = %d, want 401", rec.Code)
	}

	// 2. Correct bearer token passes.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/namespaces", nil)
	req.Header.Set("Authorization", "Bearer sesame")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated request = %d, want 200", rec.Code)
	}

	// 3. Health stays open regardless.
	rec = doGet(t, s, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := newTTLCache(10*time.Millisecond, 2)
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v.(int) != 1 {
		t.Fatal("fresh entry missing")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry still served")
	}

	// Capacity bound holds.
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	if c.Len() > 2 {
		t.Errorf("cache grew to %d entries, max 2", c.Len())
	}
}
