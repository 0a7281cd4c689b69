// Package api implements the DataProvider port against the street imagery
// HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.trai.ch/streetgraph/internal/core/domain"
	"go.trai.ch/streetgraph/internal/core/ports"
	"go.trai.ch/zerr"
)

const defaultTimeout = 30 * time.Second

// Client implements ports.DataProvider over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client for the given endpoint. The token is attached as a
// bearer credential when set.
func New(endpoint, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(endpoint, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// newClientWithHTTP creates a Client with a custom http client (used for testing).
func newClientWithHTTP(endpoint string, client *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(endpoint, "/"),
		httpClient: client,
	}
}

// CoreImages fetches stub metadata for every image inside the tile cell.
func (c *Client) CoreImages(ctx context.Context, cellID string) ([]domain.NodeCore, error) {
	u := fmt.Sprintf("%s/images/core?cell=%s", c.baseURL, url.QueryEscape(cellID))

	var dtos []coreDTO
	if err := c.getJSON(ctx, u, &dtos); err != nil {
		return nil, domain.WithDetail(err, "cell", cellID)
	}

	cores := make([]domain.NodeCore, len(dtos))
	for i, dto := range dtos {
		cores[i] = dto.toDomain()
	}
	return cores, nil
}

// Images fetches full metadata for the given image keys. Unknown keys are
// absent from the result.
func (c *Client) Images(ctx context.Context, keys []string) (map[string]ports.NodeRecord, error) {
	u := fmt.Sprintf("%s/images?keys=%s", c.baseURL, url.QueryEscape(strings.Join(keys, ",")))

	var dtos []imageDTO
	if err := c.getJSON(ctx, u, &dtos); err != nil {
		return nil, err
	}

	records := make(map[string]ports.NodeRecord, len(dtos))
	for _, dto := range dtos {
		records[dto.Key] = ports.NodeRecord{
			Core: dto.toDomain(),
			Fill: dto.toFill(),
		}
	}
	return records, nil
}

// Sequence fetches the ordered key list of a sequence.
func (c *Client) Sequence(ctx context.Context, sequenceKey string) (*domain.Sequence, error) {
	u := fmt.Sprintf("%s/sequences/%s", c.baseURL, url.PathEscape(sequenceKey))

	var dto sequenceDTO
	if err := c.getJSON(ctx, u, &dto); err != nil {
		if zerrIsNotFound(err) {
			return nil, domain.WithDetail(domain.ErrSequenceNotFound, "sequence", sequenceKey)
		}
		return nil, domain.WithDetail(err, "sequence", sequenceKey)
	}

	return &domain.Sequence{Key: dto.Key, Keys: dto.Keys}, nil
}

// ImageBuffer fetches the raw image bytes for the key.
func (c *Client) ImageBuffer(ctx context.Context, key string) ([]byte, error) {
	u := fmt.Sprintf("%s/images/%s/buffer", c.baseURL, url.PathEscape(key))

	resp, err := c.do(ctx, u)
	if err != nil {
		return nil, domain.WithDetail(err, "key", key)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		if zerrIsNotFound(err) {
			return nil, domain.WithDetail(domain.ErrNodeNotFound, "key", key)
		}
		return nil, domain.WithDetail(err, "key", key)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WithDetail(zerr.Wrap(err, domain.ErrTransport.Error()), "key", key)
	}
	return data, nil
}

// Mesh fetches the reconstruction mesh for the key.
func (c *Client) Mesh(ctx context.Context, key string) (*domain.Mesh, error) {
	u := fmt.Sprintf("%s/images/%s/mesh", c.baseURL, url.PathEscape(key))

	var dto meshDTO
	if err := c.getJSON(ctx, u, &dto); err != nil {
		if zerrIsNotFound(err) {
			return nil, domain.WithDetail(domain.ErrNodeNotFound, "key", key)
		}
		return nil, domain.WithDetail(err, "key", key)
	}

	return &domain.Mesh{Vertices: dto.Vertices, Faces: dto.Faces}, nil
}

func (c *Client) do(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrTransport.Error())
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrTransport.Error())
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	resp, err := c.do(ctx, u)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zerr.Wrap(err, domain.ErrTransport.Error())
	}
	if err := json.Unmarshal(body, out); err != nil {
		return zerr.Wrap(err, domain.ErrTransport.Error())
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	default:
		return domain.WithDetail(domain.ErrTransport, "status_code", resp.StatusCode)
	}
}

var errNotFound = zerr.New("resource not found")

func zerrIsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}
