package todolinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Todoline HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "v1",
		Timeout:  10 * time.Second,
	}
}

// Todo mirrors the API todo model.
type Todo struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Description          *string  `json:"description,omitempty"`
	Status               string   `json:"status"`
	Priority             string   `json:"priority"`
	Severity             string   `json:"severity"`
	Tags                 []string `json:"tags"`
	Assignee             *string  `json:"assignee,omitempty"`
	ComplianceFrameworks []string `json:"complianceFrameworks"`
	DueDate              *string  `json:"dueDate,omitempty"`
	CreatedAt            string   `json:"createdAt"`
	UpdatedAt            string   `json:"updatedAt"`
	CompletedAt          *string  `json:"completedAt,omitempty"`
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Page            int  `json:"page"`
	PageSize        int  `json:"pageSize"`
	TotalItems      int  `json:"totalItems"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// TodoPage is a paginated todo listing.
type TodoPage struct {
	Items []Todo   `json:"items"`
	Meta  PageMeta `json:"meta"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type AssigneeCount struct {
	Assignee string `json:"assignee"`
	Count    int    `json:"count"`
}

type TimeBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Stats mirrors the statistics report.
type Stats struct {
	Total             int             `json:"total"`
	ByStatus          map[string]int  `json:"byStatus"`
	TopTags           []TagCount      `json:"topTags"`
	CompletedOverTime []TimeBucket    `json:"completedOverTime"`
	TopAssignees      []AssigneeCount `json:"topAssignees"`
	UnassignedCount   int             `json:"unassignedCount"`
}

type FrameworkCoverage struct {
	Framework      string         `json:"framework"`
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"byStatus"`
	CompletionRate int            `json:"completionRate"`
}

type OverdueSummary struct {
	Total      int            `json:"total"`
	ByPriority map[string]int `json:"byPriority"`
	BySeverity map[string]int `json:"bySeverity"`
}

type DistributionEntry struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type MatrixCell struct {
	Priority   string  `json:"priority"`
	Severity   string  `json:"severity"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Analytics mirrors the compliance/risk report.
type Analytics struct {
	ComputedAt             string              `json:"computedAt"`
	TotalTasks             int                 `json:"totalTasks"`
	ComplianceCoverage     []FrameworkCoverage `json:"complianceCoverage"`
	OverdueTasks           OverdueSummary      `json:"overdueTasks"`
	PriorityDistribution   []DistributionEntry `json:"priorityDistribution"`
	SeverityDistribution   []DistributionEntry `json:"severityDistribution"`
	PrioritySeverityMatrix []MatrixCell        `json:"prioritySeverityMatrix"`
}

// Suggestions holds the tags and frameworks currently in use.
type Suggestions struct {
	Tags                 []string `json:"tags"`
	ComplianceFrameworks []string `json:"complianceFrameworks"`
}

// APIError wraps non-2xx responses. Code and Message carry the structured
// error envelope when the server sent one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateTodoRequest carries the fields for CreateTodo. Nil pointers are
// omitted and take server defaults.
type CreateTodoRequest struct {
	Title                string   `json:"title"`
	Description          *string  `json:"description,omitempty"`
	Status               *string  `json:"status,omitempty"`
	Priority             *string  `json:"priority,omitempty"`
	Severity             *string  `json:"severity,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
	Assignee             *string  `json:"assignee,omitempty"`
	ComplianceFrameworks []string `json:"complianceFrameworks,omitempty"`
	DueDate              *string  `json:"dueDate,omitempty"`
}

// ListTodosParams are the search filters. Zero values are omitted from the
// query string; Overdue is tri-state.
type ListTodosParams struct {
	Page                 int
	PageSize             int
	Status               []string
	Priority             []string
	Severity             []string
	Tags                 []string
	ComplianceFrameworks []string
	SearchText           string
	Assignee             string
	DueDateAfter         string
	DueDateBefore        string
	CreatedAfter         string
	CreatedBefore        string
	UpdatedAfter         string
	UpdatedBefore        string
	CompletedAfter       string
	CompletedBefore      string
	Overdue              *bool
	SortField            string
	SortDirection        string
}

func (p ListTodosParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	setCSV := func(key string, items []string) {
		if len(items) > 0 {
			v.Set(key, strings.Join(items, ","))
		}
	}
	setCSV("status", p.Status)
	setCSV("priority", p.Priority)
	setCSV("severity", p.Severity)
	setCSV("tags", p.Tags)
	setCSV("complianceFrameworks", p.ComplianceFrameworks)
	setStr := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setStr("searchText", p.SearchText)
	setStr("assignee", p.Assignee)
	setStr("dueDateAfter", p.DueDateAfter)
	setStr("dueDateBefore", p.DueDateBefore)
	setStr("createdAfter", p.CreatedAfter)
	setStr("createdBefore", p.CreatedBefore)
	setStr("updatedAfter", p.UpdatedAfter)
	setStr("updatedBefore", p.UpdatedBefore)
	setStr("completedAfter", p.CompletedAfter)
	setStr("completedBefore", p.CompletedBefore)
	if p.Overdue != nil {
		v.Set("isOverdue", strconv.FormatBool(*p.Overdue))
	}
	setStr("sortField", p.SortField)
	setStr("sortDirection", p.SortDirection)
	return v
}

// StatsParams scope the statistics report.
type StatsParams struct {
	CreatedAfter  string
	CreatedBefore string
	TimeInterval  string
	TopTagsLimit  int
}

// AnalyticsParams scope the analytics report.
type AnalyticsParams struct {
	ComplianceFramework string
	OverdueOnly         bool
}

// CreateTodo creates a todo.
func (c *Client) CreateTodo(ctx context.Context, req CreateTodoRequest) (Todo, error) {
	var resp Todo
	err := c.do(ctx, http.MethodPost, c.apiPath("todos"), req, &resp)
	return resp, err
}

// GetTodo fetches a todo by id.
func (c *Client) GetTodo(ctx context.Context, id string) (Todo, error) {
	var resp Todo
	err := c.do(ctx, http.MethodGet, c.apiPath("todos/"+url.PathEscape(id)), nil, &resp)
	return resp, err
}

// ListTodos searches todos.
func (c *Client) ListTodos(ctx context.Context, params ListTodosParams) (TodoPage, error) {
	endpoint := c.apiPath("todos")
	if q := params.values().Encode(); q != "" {
		endpoint += "?" + q
	}
	var resp TodoPage
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// UpdateTodo applies a partial update. The patch maps wire field names to new
// values; an explicit nil value clears a clearable field (assignee, dueDate).
func (c *Client) UpdateTodo(ctx context.Context, id string, patch map[string]any) (Todo, error) {
	var resp Todo
	err := c.do(ctx, http.MethodPatch, c.apiPath("todos/"+url.PathEscape(id)), patch, &resp)
	return resp, err
}

// DeleteTodo deletes a todo.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.apiPath("todos/"+url.PathEscape(id)), nil, nil)
}

// Stats returns the statistics report.
func (c *Client) Stats(ctx context.Context, params StatsParams) (Stats, error) {
	v := url.Values{}
	if params.CreatedAfter != "" {
		v.Set("createdAfter", params.CreatedAfter)
	}
	if params.CreatedBefore != "" {
		v.Set("createdBefore", params.CreatedBefore)
	}
	if params.TimeInterval != "" {
		v.Set("timeInterval", params.TimeInterval)
	}
	if params.TopTagsLimit > 0 {
		v.Set("topTagsLimit", strconv.Itoa(params.TopTagsLimit))
	}
	endpoint := c.apiPath("todos/stats")
	if q := v.Encode(); q != "" {
		endpoint += "?" + q
	}
	var resp Stats
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Analytics returns the compliance/risk report.
func (c *Client) Analytics(ctx context.Context, params AnalyticsParams) (Analytics, error) {
	v := url.Values{}
	if params.ComplianceFramework != "" {
		v.Set("complianceFramework", params.ComplianceFramework)
	}
	if params.OverdueOnly {
		v.Set("overdueOnly", "true")
	}
	endpoint := c.apiPath("todos/analytics")
	if q := v.Encode(); q != "" {
		endpoint += "?" + q
	}
	var resp Analytics
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Suggestions returns the distinct tags and frameworks in use.
func (c *Client) Suggestions(ctx context.Context) (Suggestions, error) {
	var resp Suggestions
	err := c.do(ctx, http.MethodGet, c.apiPath("todos/suggestions"), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) apiPath(p string) string {
	base := strings.Trim(c.BasePath, "/")
	if base == "" {
		base = "v1"
	}
	return base + "/" + strings.TrimLeft(p, "/")
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
