package treestore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/scene"
)

// ManifestName is the dataset manifest expected inside a data directory.
const ManifestName = "manifest.yaml"

// Manifest describes which namespaces a data directory contains and where
// each namespace's node file lives, relative to the directory.
type Manifest struct {
	Datasets []DatasetConfig `yaml:"datasets"`
}

// DatasetConfig is one namespace entry in the manifest. Pages is optional;
// a namespace without one serves an empty page corpus.
type DatasetConfig struct {
	Namespace string `yaml:"namespace"`
	File      string `yaml:"file"`
	Pages     string `yaml:"pages,omitempty"`
}

// LoadDir builds a store from a data directory: a manifest.yaml listing the
// namespaces plus one JSON node file per namespace.
func LoadDir(dir string) (*Store, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(manifest.Datasets) == 0 {
		return nil, fmt.Errorf("manifest %s lists no datasets", filepath.Join(dir, ManifestName))
	}

	store := NewStore()
	for _, ds := range manifest.Datasets {
		if ds.Namespace == "" || ds.File == "" {
			return nil, fmt.Errorf("manifest entry needs both namespace and file: %+v", ds)
		}
		nodes, err := readNodeFile(filepath.Join(dir, ds.File))
		if err != nil {
			return nil, fmt.Errorf("namespace %q: %w", ds.Namespace, err)
		}
		if err := store.AddNamespace(ds.Namespace, nodes); err != nil {
			return nil, err
		}
		pageCount := 0
		if ds.Pages != "" {
			pages, err := readPageFile(filepath.Join(dir, ds.Pages))
			if err != nil {
				return nil, fmt.Errorf("namespace %q: %w", ds.Namespace, err)
			}
			if err := store.AddPages(ds.Namespace, pages); err != nil {
				return nil, err
			}
			pageCount = len(pages)
		}
		slog.Info("loaded namespace", "namespace", ds.Namespace, "nodes", len(nodes), "pages", pageCount)
	}
	return store, nil
}

// readNodeFile parses one JSON array of nodes in the wire format.
func readNodeFile(path string) ([]scene.Node, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var nodes []scene.Node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return nodes, nil
}

// readPageFile parses one JSON array of pages in the wire format.
func readPageFile(path string) ([]Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pages []Page
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return pages, nil
}
