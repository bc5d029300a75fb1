package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// NameHTTP identifies datasets fetched from a timeline backend.
const NameHTTP = "http"

// ErrBackend is returned when the backend reports failure in its payload.
var ErrBackend = errors.New("timeline backend reported failure")

// Client talks to a timeline backend serving /api/projects, /api/timeline and
// /api/real-timeline-data.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Projects lists the projects known to the backend.
func (c *Client) Projects(ctx context.Context) ([]core.Project, error) {
	var projects []core.Project
	if err := c.get(ctx, "/api/projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Timeline fetches the executions of a project on one day (YYYY-MM-DD).
func (c *Client) Timeline(ctx context.Context, projectID int64, date string) (*core.TimelineData, error) {
	var td core.TimelineData
	path := "/api/timeline/" + strconv.FormatInt(projectID, 10) + "/" + url.PathEscape(date)
	if err := c.get(ctx, path, &td); err != nil {
		return nil, err
	}
	return &td, nil
}

// History fetches per-model execution history. A payload with success=false is
// returned as ErrBackend.
func (c *Client) History(ctx context.Context) ([]ModelHistory, error) {
	var resp HistoryResponse
	if err := c.get(ctx, "/api/real-timeline-data", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrBackend, msg)
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The history endpoint reports failures as a JSON body with a 500 status.
	if resp.StatusCode != http.StatusOK && !isJSON(resp) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func isJSON(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json")
}

// HTTPLoader loads a dataset from a timeline backend. With a project and date
// it loads that day's timeline; otherwise it schedules the model history.
type HTTPLoader struct {
	Client    *Client
	ProjectID int64
	Date      string
	// Now anchors history datasets (optional, uses time.Now)
	Now func() time.Time
}

// Name implements Loader.
func (l *HTTPLoader) Name() string { return NameHTTP }

// Load implements Loader.
func (l *HTTPLoader) Load(ctx context.Context) (*core.Dataset, error) {
	if l.ProjectID != 0 && l.Date != "" {
		td, err := l.Client.Timeline(ctx, l.ProjectID, l.Date)
		if err != nil {
			return nil, err
		}
		ds, err := td.Dataset()
		if err != nil {
			return nil, err
		}
		ds.Source = NameHTTP
		return ds, nil
	}

	histories, err := l.Client.History(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	ds := HistoryDataset(histories, now())
	ds.Source = NameHTTP
	return ds, nil
}
