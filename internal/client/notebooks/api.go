package notebooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Remote is the transport-facing half of the repository. The production
// implementation talks to the REST API; tests substitute a fake.
type Remote interface {
	List(ctx context.Context, ownerID string) ([]NotebookRecord, error)
	Create(ctx context.Context, record NotebookRecord) (*NotebookRecord, error)
	Get(ctx context.Context, ownerID, id string) (*NotebookRecord, error)
	Update(ctx context.Context, record NotebookRecord) (*NotebookRecord, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// TokenSource supplies the bearer token for a request. An empty token means
// the request goes out unauthenticated (the API rejects it with 401).
type TokenSource func(ctx context.Context) (string, error)

// APIClient implements Remote over the notebook REST API.
type APIClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func NewAPIClient(baseURL string, timeout time.Duration, tokens TokenSource) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// createPayload is what the API expects on POST. The timestamp fields are
// PascalCase on the wire; the rest is camelCase. Not a typo.
type createPayload struct {
	UserID    string   `json:"userId"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
	Order     int      `json:"order"`
	CreatedAt string   `json:"CreatedAt"`
	UpdatedAt string   `json:"UpdatedAt"`
}

type updatePayload struct {
	NotebookID    string           `json:"NotebookId"`
	UserID        string           `json:"userId"`
	Title         string           `json:"title"`
	Content       string           `json:"content"`
	Tags          []string         `json:"tags"`
	AttachedFiles []FileAttachment `json:"attachedFiles"`
	AttachedLinks []LinkAttachment `json:"attachedLinks"`
	Order         int              `json:"order"`
	UpdatedAt     string           `json:"UpdatedAt"`
}

func (c *APIClient) List(ctx context.Context, ownerID string) ([]NotebookRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/notebooks", ownerID, nil)
	if err != nil {
		return nil, err
	}
	records, err := NormalizeList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize list response: %w", err)
	}
	return records, nil
}

func (c *APIClient) Create(ctx context.Context, record NotebookRecord) (*NotebookRecord, error) {
	payload := createPayload{
		UserID:    record.OwnerID,
		Title:     record.Title,
		Content:   record.Content,
		Tags:      record.Tags,
		Order:     record.Order,
		CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: record.UpdatedAt.UTC().Format(time.RFC3339),
	}
	body, err := c.do(ctx, http.MethodPost, "/notebooks", record.OwnerID, payload)
	if err != nil {
		return nil, err
	}
	created, err := NormalizeOne(body)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize create response: %w", err)
	}
	return created, nil
}

func (c *APIClient) Get(ctx context.Context, ownerID, id string) (*NotebookRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/notebooks/"+url.PathEscape(id), ownerID, nil)
	if err != nil {
		return nil, err
	}
	record, err := NormalizeOne(body)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize get response: %w", err)
	}
	return record, nil
}

func (c *APIClient) Update(ctx context.Context, record NotebookRecord) (*NotebookRecord, error) {
	payload := updatePayload{
		NotebookID:    record.ID,
		UserID:        record.OwnerID,
		Title:         record.Title,
		Content:       record.Content,
		Tags:          record.Tags,
		AttachedFiles: record.AttachedFiles,
		AttachedLinks: record.AttachedLinks,
		Order:         record.Order,
		UpdatedAt:     record.UpdatedAt.UTC().Format(time.RFC3339),
	}
	body, err := c.do(ctx, http.MethodPut, "/notebooks/"+url.PathEscape(record.ID), record.OwnerID, payload)
	if err != nil {
		return nil, err
	}
	updated, err := NormalizeOne(body)
	if err != nil || updated.ID == "" {
		// Some deployments answer PUT with a bare status object; the
		// caller's optimistic record stands in that case.
		return &record, nil
	}
	return updated, nil
}

func (c *APIClient) Delete(ctx context.Context, ownerID, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/notebooks/"+url.PathEscape(id), ownerID, nil)
	return err
}

func (c *APIClient) do(ctx context.Context, method, path, ownerID string, payload any) ([]byte, error) {
	u := c.baseURL + path + "?userId=" + url.QueryEscape(ownerID)

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve auth token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, data)
	}
	return data, nil
}
