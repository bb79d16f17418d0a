package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HTTPError is returned when the server answers outside 200-299.
type HTTPError struct {
	StatusCode int
	Path       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Client issues GET requests relative to the API base URL. It never retries.
type Client struct {
	rc  *resty.Client
	log *logrus.Entry
}

// NewClient creates a client for baseURL. A zero timeout means none.
func NewClient(baseURL string, timeout time.Duration) *Client {
	log := logrus.WithField("component", "fetch")
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetLogger(log)
	return &Client{rc: rc, log: log}
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string {
	return c.rc.BaseURL
}

// get performs a single GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.rc.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", path)
	}

	c.log.WithFields(logrus.Fields{
		"path":     path,
		"status":   resp.StatusCode(),
		"duration": resp.Time(),
	}).Debug("Fetched resource")

	if !resp.IsSuccess() {
		return nil, &HTTPError{StatusCode: resp.StatusCode(), Path: path}
	}
	return resp.Body(), nil
}

// Get runs one blocking fetch cycle and decodes the JSON body into T.
func Get[T any](ctx context.Context, c *Client, path string) (*T, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return &out, nil
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}
