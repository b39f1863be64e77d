package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/scene"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// respond maps store errors onto the API's 404/500 split.
func respond(w http.ResponseWriter, v any, err error) {
	switch {
	case errors.Is(err, scene.ErrNotFound):
		writeError(w, http.StatusNotFound, "%v", err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "%v", err)
	default:
		writeJSON(w, http.StatusOK, v)
	}
}

// nodeID parses the {id} path value.
func nodeID(r *http.Request) (scene.NodeID, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q", raw)
	}
	return scene.NodeID(id), nil
}

func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/namespaces", s.handleNamespaces)
	mux.HandleFunc("GET /api/v1/namespace/{namespace}/root_node", s.handleRootNode)
	mux.HandleFunc("GET /api/v1/namespace/{namespace}/node_id/{id}", s.handleNode)
	mux.HandleFunc("GET /api/v1/namespace/{namespace}/node_id/{id}/children", s.handleChildren)
	mux.HandleFunc("GET /api/v1/namespace/{namespace}/node_id/{id}/siblings", s.handleSiblings)
	mux.HandleFunc("GET /api/v1/namespace/{namespace}/node_id/{id}/parent", s.handleParent)
	mux.HandleFunc("GET /api/v1/namespace/{namespace}/node_id/{id}/view", s.handleNodeView)
	mux.HandleFunc("GET /api/v1/namespace/{namespace}/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/pages/namespace/{namespace}/node_id/{id}", s.handlePagesInCluster)
	mux.HandleFunc("GET /api/v1/pages/namespace/{namespace}/page_id/{id}", s.handlePage)
	mux.HandleFunc("GET /api/v1/search/pages", s.handlePageSearch)
	mux.HandleFunc("GET /api/v1/search/suggestions", s.handleSuggestions)
}

func (s *Server) handleNamespaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"namespaces": s.store.Namespaces()})
}

func (s *Server) handleRootNode(w http.ResponseWriter, r *http.Request) {
	node, err := s.store.RootNode(r.PathValue("namespace"))
	respond(w, node, err)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	node, err := s.store.Node(r.PathValue("namespace"), id)
	respond(w, node, err)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	children, err := s.store.Children(r.PathValue("namespace"), id)
	respond(w, children, err)
}

func (s *Server) handleSiblings(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	siblings, err := s.store.Siblings(r.PathValue("namespace"), id)
	respond(w, siblings, err)
}

func (s *Server) handleParent(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	// The root's parent is null, mirroring the nullable parent field.
	parent, err := s.store.Parent(r.PathValue("namespace"), id)
	respond(w, parent, err)
}

// handleNodeView serves the combined node/children/parent document the
// engine consumes per cluster. This is the hot path during navigation, so
// responses go through the TTL cache.
func (s *Server) handleNodeView(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	namespace := r.PathValue("namespace")

	key := fmt.Sprintf("view:%s:%d", namespace, id)
	if cached, ok := s.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	view, err := s.store.GetNodeView(r.Context(), namespace, id)
	if err == nil {
		s.cache.Set(key, view)
	}
	respond(w, view, err)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit %q", raw)
			return
		}
		limit = n
	}
	namespace := r.PathValue("namespace")
	hits, err := s.store.SearchLabels(namespace, query, limit)
	if err != nil {
		respond(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResult{
		Clusters:   hits,
		TotalCount: len(hits),
		Query:      query,
	})
}

// searchResult is the search response envelope.
type searchResult struct {
	Clusters   []*scene.Node `json:"clusters"`
	TotalCount int           `json:"total_count"`
	Query      string        `json:"query"`
}
