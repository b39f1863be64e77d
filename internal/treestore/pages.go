package treestore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/btree"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/scene"
)

// Page is one Wikipedia page assigned to a cluster node.
type Page struct {
	PageID        int64        `json:"page_id"`
	Title         string       `json:"title"`
	Abstract      string       `json:"abstract,omitempty"`
	URL           string       `json:"url,omitempty"`
	ClusterNodeID scene.NodeID `json:"cluster_node_id"`
}

// titleEntry indexes a page under its case-folded title.
type titleEntry struct {
	folded string
	id     int64
}

func titleEntryLess(a, b titleEntry) bool {
	if a.folded != b.folded {
		return a.folded < b.folded
	}
	return a.id < b.id
}

// pageIndex holds one namespace's page corpus. Namespaces loaded without a
// page file behave like an empty corpus.
type pageIndex struct {
	byID     map[int64]*Page
	byNode   map[scene.NodeID][]*Page // ordered by page id
	titles   *btree.BTreeG[titleEntry]
}

// AddPages attaches a page corpus to an already registered namespace. Every
// page must reference a cluster node that exists in the tree.
func (s *Store) AddPages(namespace string, pages []Page) error {
	t, err := s.tree(namespace)
	if err != nil {
		return err
	}

	idx := &pageIndex{
		byID:   make(map[int64]*Page, len(pages)),
		byNode: make(map[scene.NodeID][]*Page),
		titles: btree.NewBTreeG(titleEntryLess),
	}
	for i := range pages {
		p := &pages[i]
		if _, dup := idx.byID[p.PageID]; dup {
			return fmt.Errorf("namespace %q: duplicate page id %d", namespace, p.PageID)
		}
		if _, ok := t.records[p.ClusterNodeID]; !ok {
			return fmt.Errorf("namespace %q: page %d references unknown cluster node %d",
				namespace, p.PageID, p.ClusterNodeID)
		}
		idx.byID[p.PageID] = p
		idx.byNode[p.ClusterNodeID] = append(idx.byNode[p.ClusterNodeID], p)
		idx.titles.Set(titleEntry{folded: strings.ToLower(p.Title), id: p.PageID})
	}
	for id := range idx.byNode {
		sort.Slice(idx.byNode[id], func(i, j int) bool {
			return idx.byNode[id][i].PageID < idx.byNode[id][j].PageID
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t.pages = idx
	return nil
}

// Page returns one page by id.
func (s *Store) Page(namespace string, pageID int64) (*Page, error) {
	t, err := s.tree(namespace)
	if err != nil {
		return nil, err
	}
	var p *Page
	var ok bool
	if t.pages != nil {
		p, ok = t.pages.byID[pageID]
	}
	if !ok {
		return nil, fmt.Errorf("namespace %q page %d: %w", namespace, pageID, scene.ErrNotFound)
	}
	return p, nil
}

// PagesInCluster returns the pages assigned to one cluster node, ordered by
// page id, windowed by limit and offset. The node must exist; a node without
// pages yields an empty list.
func (s *Store) PagesInCluster(namespace string, nodeID scene.NodeID, limit, offset int) ([]*Page, error) {
	t, err := s.tree(namespace)
	if err != nil {
		return nil, err
	}
	if _, ok := t.records[nodeID]; !ok {
		return nil, fmt.Errorf("namespace %q node %d: %w", namespace, nodeID, scene.ErrNotFound)
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var all []*Page
	if t.pages != nil {
		all = t.pages.byNode[nodeID]
	}
	if offset >= len(all) {
		return []*Page{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]*Page, end-offset)
	copy(out, all[offset:end])
	return out, nil
}

// SearchPages returns pages matching the query case-insensitively, in title
// order. searchType selects the fields searched: "title", "abstract", or
// "both"; blank means "title".
func (s *Store) SearchPages(namespace, query, searchType string, limit, offset int) ([]*Page, error) {
	t, err := s.tree(namespace)
	if err != nil {
		return nil, err
	}
	switch searchType {
	case "", "title", "abstract", "both":
	default:
		return nil, fmt.Errorf("unknown search type %q", searchType)
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || t.pages == nil {
		return nil, nil
	}

	inTitle := searchType != "abstract"
	inAbstract := searchType == "abstract" || searchType == "both"

	var out []*Page
	skipped := 0
	t.pages.titles.Scan(func(e titleEntry) bool {
		p := t.pages.byID[e.id]
		hit := inTitle && strings.Contains(e.folded, q)
		if !hit && inAbstract {
			hit = strings.Contains(strings.ToLower(p.Abstract), q)
		}
		if !hit {
			return true
		}
		if skipped < offset {
			skipped++
			return true
		}
		out = append(out, p)
		return len(out) < limit
	})
	return out, nil
}

// SearchSuggestions returns up to limit distinct page titles with the given
// prefix, case-insensitively, in title order. It backs autocomplete, so only
// prefix matches count.
func (s *Store) SearchSuggestions(namespace, partial string, limit int) ([]string, error) {
	t, err := s.tree(namespace)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	q := strings.ToLower(strings.TrimSpace(partial))
	if q == "" || t.pages == nil {
		return nil, nil
	}

	out := []string{}
	last := ""
	t.pages.titles.Ascend(titleEntry{folded: q}, func(e titleEntry) bool {
		if !strings.HasPrefix(e.folded, q) {
			return false
		}
		title := t.pages.byID[e.id].Title
		if title == last {
			return true
		}
		last = title
		out = append(out, title)
		return len(out) < limit
	})
	return out, nil
}
