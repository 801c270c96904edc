// Package rest talks to the finance backend over HTTP/JSON.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/unkn0wn-root/fincache"
	"github.com/unkn0wn-root/fincache/credential"
	"github.com/unkn0wn-root/fincache/model"
)

const DefaultBaseURL = "http://localhost:8080/api/v1.0/"

// publicPaths never carry the bearer token.
var publicPaths = []string{
	"/login",
	"/register",
	"/activate",
	"/resend-verification",
	"/status",
	"/health",
}

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

type Client struct {
	http    *http.Client
	baseURL *url.URL
	creds   credential.Store
	log     fincache.Logger
}

var _ fincache.Backend = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l fincache.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New returns a client for baseURL ("" => DefaultBaseURL). creds supplies the
// bearer token and is cleared when the server answers 401 or 403.
func New(baseURL string, creds credential.Store, opts ...Option) (*Client, error) {
	if creds == nil {
		return nil, errors.New("rest: credential store required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("rest: base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("rest: base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: u,
		creds:   creds,
		log:     fincache.NopLogger{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func isPublic(p string) bool {
	for _, pp := range publicPaths {
		if strings.HasPrefix(p, pp) {
			return true
		}
	}
	return false
}

func (c *Client) newReq(ctx context.Context, method, p string, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("rest: encode %s %s: %w", method, p, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !isPublic(p) {
		if tok, ok := c.creds.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// doJSON sends body (nil for none) and decodes a 2xx response into out (nil
// to discard). Empty and "null" bodies leave out untouched.
func (c *Client) doJSON(ctx context.Context, method, p string, body, out any) error {
	req, err := c.newReq(ctx, method, p, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := &StatusError{Status: resp.StatusCode, Method: method, Path: p, Message: serverMessage(b)}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			c.log.Warn("session rejected by server; clearing token", fincache.Fields{"path": p, "status": resp.StatusCode})
			if err := c.creds.Clear(); err != nil {
				c.log.Error("token clear failed", fincache.Fields{"err": err})
			}
		}
		return se
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("rest: read %s %s: %w", method, p, err)
	}
	if out == nil {
		return nil
	}
	if t := bytes.TrimSpace(b); len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("rest: decode %s %s: %w", method, p, err)
	}
	return nil
}

func serverMessage(b []byte) string {
	var m struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &m) == nil {
		return strings.TrimSpace(m.Message)
	}
	return ""
}

func collection(kind model.Kind) (string, error) {
	switch kind {
	case model.KindIncome:
		return "/incomes", nil
	case model.KindExpense:
		return "/expenses", nil
	}
	return "", fmt.Errorf("rest: unknown transaction type %q", kind)
}

func itemPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}

// Dashboard returns the aggregate; a null body is the empty dashboard.
func (c *Client) Dashboard(ctx context.Context) (model.Dashboard, error) {
	var d model.Dashboard
	if err := c.doJSON(ctx, http.MethodGet, "/dashboard", nil, &d); err != nil {
		return model.Dashboard{}, err
	}
	return d.Normalize(), nil
}

func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	out := []model.Category{}
	err := c.doJSON(ctx, http.MethodGet, "/categories", nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, in model.CategoryInput) (model.Category, error) {
	var out model.Category
	err := c.doJSON(ctx, http.MethodPost, "/categories", in, &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, in model.CategoryInput) (model.Category, error) {
	var out model.Category
	err := c.doJSON(ctx, http.MethodPut, itemPath("/categories", id), in, &out)
	return out, err
}

func (c *Client) ListTransactions(ctx context.Context, kind model.Kind) ([]model.Transaction, error) {
	p, err := collection(kind)
	if err != nil {
		return nil, err
	}
	out := []model.Transaction{}
	if err := c.doJSON(ctx, http.MethodGet, p, nil, &out); err != nil {
		return nil, err
	}
	return withKind(out, kind), nil
}

func (c *Client) CreateTransaction(ctx context.Context, kind model.Kind, in model.TransactionPayload) (model.Transaction, error) {
	p, err := collection(kind)
	if err != nil {
		return model.Transaction{}, err
	}
	var out model.Transaction
	if err := c.doJSON(ctx, http.MethodPost, p, in, &out); err != nil {
		return model.Transaction{}, err
	}
	out.Type = kind
	return out, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, kind model.Kind, id int64, in model.TransactionPayload) (model.Transaction, error) {
	p, err := collection(kind)
	if err != nil {
		return model.Transaction{}, err
	}
	var out model.Transaction
	if err := c.doJSON(ctx, http.MethodPut, itemPath(p, id), in, &out); err != nil {
		return model.Transaction{}, err
	}
	out.Type = kind
	return out, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, kind model.Kind, id int64) error {
	p, err := collection(kind)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, itemPath(p, id), nil, nil)
}

func (c *Client) Filter(ctx context.Context, req model.FilterRequest) ([]model.Transaction, error) {
	out := []model.Transaction{}
	if err := c.doJSON(ctx, http.MethodPost, "/filter", req, &out); err != nil {
		return nil, err
	}
	return withKind(out, req.Type), nil
}

func (c *Client) Login(ctx context.Context, in model.Credentials) (model.LoginResult, error) {
	var out model.LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/login", in, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.doJSON(ctx, http.MethodGet, "/profile", nil, &out)
	return out, err
}

// withKind fills Type on records the server sent without one.
func withKind(txs []model.Transaction, kind model.Kind) []model.Transaction {
	for i := range txs {
		if txs[i].Type == "" {
			txs[i].Type = kind
		}
	}
	return txs
}
