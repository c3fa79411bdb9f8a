package proxy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Error is a failure reported by the proxy. Message carries the database
// error text and Code its SQLSTATE, when known.
type Error struct {
	Status  int
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

// Client is a resty-backed Executor that sends queries to a proxy Handler.
type Client struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a proxy client. An empty token sends no Authorization
// header.
func NewClient(url, token string) *Client {
	restyClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	if token != "" {
		restyClient.SetAuthToken(token)
	}

	return &Client{httpClient: restyClient, url: url}
}

// Query implements Executor.
func (c *Client) Query(ctx context.Context, query string, params []any) ([]Row, error) {
	if params == nil {
		params = []any{}
	}

	var rows []Row
	apiErr := new(ErrorResponse)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(Request{Query: query, Params: params}).
		SetResult(&rows).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("proxy request: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = fmt.Sprintf("proxy returned %d", resp.StatusCode())
		}
		return nil, &Error{Status: resp.StatusCode(), Message: msg, Code: apiErr.Code}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &Error{Status: resp.StatusCode(), Message: fmt.Sprintf("unexpected proxy status %d", resp.StatusCode())}
	}

	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// Ping runs the proxy health check.
func (c *Client) Ping(ctx context.Context) error {
	var health HealthResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&health).
		Get(c.url)
	if err != nil {
		return fmt.Errorf("proxy health check: %w", err)
	}
	if resp.IsError() || !health.Success {
		return fmt.Errorf("proxy health check: status %d", resp.StatusCode())
	}
	return nil
}
