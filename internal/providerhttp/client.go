// Package providerhttp implements scene.DataProvider over the tree-browser
// data API, for running the engine against a remote backend.
package providerhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/scene"
)

// DefaultTimeout bounds a single node-view request. Retries are up to the
// caller; the engine treats each fetch failure as local to one cluster.
const DefaultTimeout = 10 * time.Second

// Client fetches node views from a tree-browser server.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// New returns a client for the given base URL (e.g. "http://localhost:8080").
// An empty authToken disables the Authorization header. A nil httpClient
// selects one with DefaultTimeout.
func New(baseURL, authToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		http:      httpClient,
	}
}

// GetNodeView implements scene.DataProvider. A 404 wraps scene.ErrNotFound;
// every other failure (transport error, non-200 status, bad payload) is
// reported as-is and treated by the engine as transient.
func (c *Client) GetNodeView(ctx context.Context, namespace string, id scene.NodeID) (*scene.NodeView, error) {
	u := fmt.Sprintf("%s/api/v1/namespace/%s/node_id/%d/view",
		c.baseURL, url.PathEscape(namespace), id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("node view request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("node %d in %q: %w", id, namespace, scene.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("node view request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var view scene.NodeView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, fmt.Errorf("decoding node view: %w", err)
	}
	if view.Node == nil {
		return nil, fmt.Errorf("node view response missing node")
	}
	return &view, nil
}
