package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kalambet/crawldash/internal/model"
)

// Collection paths, relative to the base URL.
const (
	SitesPath    = "/sites/"
	KeywordsPath = "/keywords/"
	TasksPath    = "/tasks/"
	ResultsPath  = "/results/"
)

type record interface {
	Validate() error
}

// list fetches a whole collection. Every record is validated; one bad record
// fails the whole fetch so malformed data never reaches a caller.
func list[T record](ctx context.Context, c *Client, token, path string) ([]T, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	resp, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		return nil, &APIError{Method: http.MethodGet, Path: path, Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	var items []T
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, &DecodeError{Path: path, Index: -1, Err: err}
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, &DecodeError{Path: path, Index: i, Err: err}
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Client) create(ctx context.Context, token, path string, body any) error {
	if token == "" {
		return ErrNoToken
	}
	resp, err := c.do(ctx, http.MethodPost, path, token, body)
	if err != nil {
		return err
	}
	if !ok(resp) {
		defer resp.Body.Close()
		return &APIError{Method: http.MethodPost, Path: path, Status: resp.StatusCode, Message: errorMessage(resp)}
	}
	drain(resp)
	return nil
}

// ListSites returns every monitored site visible to the token's user.
func (c *Client) ListSites(ctx context.Context, token string) ([]model.Site, error) {
	return list[model.Site](ctx, c, token, SitesPath)
}

// ListKeywords returns every monitored keyword.
func (c *Client) ListKeywords(ctx context.Context, token string) ([]model.Keyword, error) {
	return list[model.Keyword](ctx, c, token, KeywordsPath)
}

// ListTasks returns every crawl task.
func (c *Client) ListTasks(ctx context.Context, token string) ([]model.Task, error) {
	return list[model.Task](ctx, c, token, TasksPath)
}

// ListResults returns every crawl result.
func (c *Client) ListResults(ctx context.Context, token string) ([]model.Result, error) {
	return list[model.Result](ctx, c, token, ResultsPath)
}

// CreateSite submits a new site. The response body is not used.
func (c *Client) CreateSite(ctx context.Context, token string, s model.NewSite) error {
	return c.create(ctx, token, SitesPath, s)
}

func (c *Client) CreateKeyword(ctx context.Context, token string, k model.NewKeyword) error {
	return c.create(ctx, token, KeywordsPath, k)
}

func (c *Client) CreateTask(ctx context.Context, token string, t model.NewTask) error {
	return c.create(ctx, token, TasksPath, t)
}
