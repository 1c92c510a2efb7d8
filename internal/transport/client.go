package transport

import (
	"chatpulse/internal/models"
	"chatpulse/internal/structures"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Client is the slice of the messaging transport the tracker needs.
type Client interface {
	GroupMetadata(ctx context.Context, groupID string) (*models.GroupMetadata, error)
}

// HTTPClient resolves group metadata against the bot platform's REST API.
type HTTPClient struct {
	httpClient *http.Client
	apiBase    string
	token      string
}

func NewHTTPClient(conf *structures.Config) Client {
	timeout := conf.Transport.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		apiBase:    strings.TrimRight(conf.Transport.APIBase, "/"),
		token:      conf.Transport.Token,
	}
}

func (c *HTTPClient) GroupMetadata(ctx context.Context, groupID string) (*models.GroupMetadata, error) {
	endpoint := fmt.Sprintf("%s/groups/%s/metadata", c.apiBase, url.PathEscape(groupID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata fetch for %s: unexpected status %d", groupID, resp.StatusCode)
	}

	var meta models.GroupMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("metadata fetch for %s: %w", groupID, err)
	}
	if meta.ID == "" {
		meta.ID = groupID
	}
	return &meta, nil
}
