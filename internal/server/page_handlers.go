package server

import (
	"net/http"
	"strconv"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/internal/treestore"
)

// intQuery parses an optional integer query parameter; ok is false when the
// value is present but malformed.
func intQuery(r *http.Request, name string) (value int, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// pageWindow pulls the shared limit/offset parameters.
func pageWindow(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit, ok = intQuery(r, "limit")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit %q", r.URL.Query().Get("limit"))
		return 0, 0, false
	}
	offset, ok = intQuery(r, "offset")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid offset %q", r.URL.Query().Get("offset"))
		return 0, 0, false
	}
	return limit, offset, true
}

func (s *Server) handlePagesInCluster(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	limit, offset, ok := pageWindow(w, r)
	if !ok {
		return
	}
	pages, err := s.store.PagesInCluster(r.PathValue("namespace"), id, limit, offset)
	respond(w, pages, err)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page id %q", raw)
		return
	}
	page, err := s.store.Page(r.PathValue("namespace"), id)
	respond(w, page, err)
}

func (s *Server) handlePageSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	namespace := q.Get("namespace")
	query := q.Get("query")
	if namespace == "" || query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter namespace or query")
		return
	}
	searchType := q.Get("search_type")
	switch searchType {
	case "", "title", "abstract", "both":
	default:
		writeError(w, http.StatusBadRequest, "invalid search_type %q", searchType)
		return
	}
	limit, offset, ok := pageWindow(w, r)
	if !ok {
		return
	}
	pages, err := s.store.SearchPages(namespace, query, searchType, limit, offset)
	if err != nil {
		respond(w, nil, err)
		return
	}
	if pages == nil {
		pages = []*treestore.Page{}
	}
	if searchType == "" {
		searchType = "title"
	}
	writeJSON(w, http.StatusOK, pageSearchResult{
		Pages:      pages,
		TotalCount: len(pages),
		Query:      query,
		SearchType: searchType,
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	namespace := q.Get("namespace")
	partial := q.Get("partial_query")
	if namespace == "" || partial == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter namespace or partial_query")
		return
	}
	limit, ok := intQuery(r, "limit")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit %q", q.Get("limit"))
		return
	}
	titles, err := s.store.SearchSuggestions(namespace, partial, limit)
	if err != nil {
		respond(w, nil, err)
		return
	}
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": titles})
}

// pageSearchResult is the page search response envelope.
type pageSearchResult struct {
	Pages      []*treestore.Page `json:"pages"`
	TotalCount int               `json:"total_count"`
	Query      string            `json:"query"`
	SearchType string            `json:"search_type"`
}
