package cms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dfryer1193/esatsite/api"
	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/goccy/go-json"
)

const (
	DefaultBaseURL = "http://localhost:8000/api/v1"
	DefaultTimeout = 10 * time.Second
)

// ErrNotFound is returned (wrapped) when the CMS answers 404.
var ErrNotFound = domain.ErrNotFound

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

var _ domain.ContentSource = (*Client)(nil)

// Client is an implementation of domain.ContentSource that reads the CMS REST API.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient creates a new Client. The base URL has its loopback host pinned
// to 127.0.0.1 since the server may not resolve localhost the way a browser does.
func NewClient(cfg *Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: CoerceLoopback(base),
		token:   cfg.Token,
	}
}

// CoerceLoopback rewrites a localhost host to 127.0.0.1 and drops the
// trailing slash. Unparseable input is returned unchanged.
func CoerceLoopback(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if !strings.EqualFold(u.Hostname(), "localhost") {
		return strings.TrimSuffix(raw, "/")
	}

	if port := u.Port(); port != "" {
		u.Host = "127.0.0.1:" + port
	} else {
		u.Host = "127.0.0.1"
	}
	return strings.TrimSuffix(u.String(), "/")
}

// BaseURL returns the effective API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ListPosts(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Post], error) {
	return listPage[domain.Post](ctx, c, "listing posts", "/posts", params)
}

func (c *Client) GetPost(ctx context.Context, slug string) (*domain.Post, error) {
	return getOne[domain.Post](ctx, c, fmt.Sprintf("getting post %s", slug), "/posts/"+url.PathEscape(slug))
}

func (c *Client) LatestPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	return getList[domain.Post](ctx, c, "listing latest posts", "/posts/latest", limitQuery(limit))
}

func (c *Client) ListCategories(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Category], error) {
	return listPage[domain.Category](ctx, c, "listing categories", "/categories", params)
}

func (c *Client) GetCategory(ctx context.Context, slug string) (*domain.Category, error) {
	return getOne[domain.Category](ctx, c, fmt.Sprintf("getting category %s", slug), "/categories/"+url.PathEscape(slug))
}

func (c *Client) ListProducts(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Product], error) {
	return listPage[domain.Product](ctx, c, "listing products", "/products", params)
}

func (c *Client) GetProduct(ctx context.Context, slug string) (*domain.Product, error) {
	return getOne[domain.Product](ctx, c, fmt.Sprintf("getting product %s", slug), "/products/"+url.PathEscape(slug))
}

func (c *Client) FeaturedProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	return getList[domain.Product](ctx, c, "listing featured products", "/products/featured", limitQuery(limit))
}

func (c *Client) ListProductCategories(ctx context.Context, params domain.ListParams) (*domain.Page[domain.ProductCategory], error) {
	return listPage[domain.ProductCategory](ctx, c, "listing product categories", "/product-categories", params)
}

func (c *Client) GetProductCategory(ctx context.Context, slug string) (*domain.ProductCategory, error) {
	op := fmt.Sprintf("getting product category %s", slug)
	return getOne[domain.ProductCategory](ctx, c, op, "/product-categories/"+url.PathEscape(slug))
}

func (c *Client) Settings(ctx context.Context) (*domain.SettingsConfig, error) {
	return getOne[domain.SettingsConfig](ctx, c, "getting settings", "/settings")
}

func (c *Client) Menus(ctx context.Context) ([]domain.MenuItem, error) {
	return getList[domain.MenuItem](ctx, c, "listing menus", "/menus", nil)
}

func (c *Client) HomeComponents(ctx context.Context) ([]domain.HomeComponent, error) {
	return getList[domain.HomeComponent](ctx, c, "listing home components", "/home-components", nil)
}

func (c *Client) HomeComponent(ctx context.Context, t domain.ComponentType) (*domain.HomeComponent, error) {
	op := fmt.Sprintf("getting home component %s", t)
	return getOne[domain.HomeComponent](ctx, c, op, "/home-components/"+url.PathEscape(string(t)))
}

func listPage[T any](ctx context.Context, c *Client, op, path string, params domain.ListParams) (*domain.Page[T], error) {
	env, err := fetch[[]T](ctx, c, op, path, listQuery(params))
	if err != nil {
		return nil, err
	}

	items := env.Data
	if items == nil {
		items = []T{}
	}
	return &domain.Page[T]{Items: items, Meta: env.Meta}, nil
}

func getList[T any](ctx context.Context, c *Client, op, path string, query url.Values) ([]T, error) {
	env, err := fetch[[]T](ctx, c, op, path, query)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []T{}, nil
	}
	return env.Data, nil
}

func getOne[T any](ctx context.Context, c *Client, op, path string) (*T, error) {
	env, err := fetch[*T](ctx, c, op, path, nil)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, fmt.Errorf("cms: %s returned no data: %w", op, ErrNotFound)
	}
	return env.Data, nil
}

func fetch[T any](ctx context.Context, c *Client, op, path string, query url.Values) (*api.Envelope[T], error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, handleCMSError(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, handleCMSError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, handleCMSError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, handleCMSError(op, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)})
	}

	var env api.Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("cms: %s failed to decode response: %w", op, err)
	}
	return &env, nil
}

// StatusError is a non-2xx answer from the CMS.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// handleCMSError wraps an error from a CMS call with the operation that failed.
func handleCMSError(op string, err error) error {
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("cms: %s failed with %w", op, statusErr)
	}

	return fmt.Errorf("cms: %s failed: %w", op, err)
}

func errorMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}

func listQuery(params domain.ListParams) url.Values {
	q := url.Values{}
	if params.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(params.PerPage))
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.CategoryID > 0 {
		q.Set("category_id", strconv.Itoa(params.CategoryID))
	}
	return q
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}
