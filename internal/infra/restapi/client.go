// Package restapi implements domain.BoardAPI over the board's REST API.
package restapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/runoshun/boardsync/internal/domain"
)

const (
	logCategory     = "rest"
	maxErrorBody    = 64 * 1024
	headerRequestID = "X-Request-ID"
	headerIdemKey   = "Idempotency-Key"
)

// Messages shown when the server does not provide one.
const (
	msgFetchTasks    = "Failed to fetch tasks"
	msgCreateTask    = "Failed to create task"
	msgEditTask      = "Failed to edit tasks"
	msgDeleteTask    = "Failed to delete tasks"
	msgFetchComments = "Failed to fetch comments"
	msgAddComment    = "Failed to add comment"
	msgFetchActivity = "Failed to fetch activity logs"
	msgLogin         = "Login failed"
	msgLoginAgain    = "Please log in again"
)

// Client talks to the REST API with the bearer token of the current session.
// Fields are ordered to minimize memory padding.
type Client struct {
	http    *http.Client
	session domain.SessionProvider
	clock   domain.Clock
	log     domain.Logger
	baseURL string
}

// New creates a Client for the API rooted at cfg.BaseURL.
func New(cfg domain.APIConfig, session domain.SessionProvider, clock domain.Clock, log domain.Logger) *Client {
	if log == nil {
		log = domain.NopLogger{}
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		session: session,
		clock:   clock,
		log:     log,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Login exchanges credentials for a session. It does not require a token.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var s domain.Session
	if err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     body,
		out:      &s,
		fallback: msgLogin,
		public:   true,
	}); err != nil {
		return domain.Session{}, err
	}
	if s.Token == "" {
		return domain.Session{}, &domain.APIError{Message: msgLogin, Err: errors.New("login response without token")}
	}
	return s, nil
}

// ListTasks returns the tasks of a project matching the filter.
func (c *Client) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	q := url.Values{}
	q.Set("project", filter.ProjectID)
	if filter.Title != "" {
		q.Set("title", filter.Title)
	}
	if filter.Tag != "" {
		q.Set("tag", filter.Tag)
	}
	if filter.Assignee != "" {
		q.Set("assignee", filter.Assignee)
	}
	if filter.Priority != "" {
		q.Set("priority", string(filter.Priority))
	}

	var tasks []domain.Task
	if err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/task",
		query:    q,
		out:      &tasks,
		fallback: msgFetchTasks,
	}); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	var t domain.Task
	if err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/task",
		body:     draft,
		out:      &t,
		fallback: msgCreateTask,
	}); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies a partial update. The returned patch carries only the
// fields present in the response body.
func (c *Client) UpdateTask(ctx context.Context, id string, update domain.TaskUpdate) (*domain.TaskPatch, error) {
	var body patchBody
	if err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/task/" + url.PathEscape(id),
		body:     update,
		out:      &body,
		fallback: msgEditTask,
	}); err != nil {
		return nil, err
	}
	if body.patch.Task.ID == "" {
		body.patch.Task.ID = id
	}
	return &body.patch, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/task/" + url.PathEscape(id),
		fallback: msgDeleteTask,
	})
}

// ListComments returns the comments of a task.
func (c *Client) ListComments(ctx context.Context, taskID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/comments/" + url.PathEscape(taskID),
		out:      &comments,
		fallback: msgFetchComments,
	}); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, nil
}

// AddComment creates a comment on a task.
func (c *Client) AddComment(ctx context.Context, taskID, text string) (*domain.Comment, error) {
	var cm domain.Comment
	if err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/comments/" + url.PathEscape(taskID),
		body:     map[string]string{"text": text},
		out:      &cm,
		fallback: msgAddComment,
	}); err != nil {
		return nil, err
	}
	if cm.TaskID == "" {
		cm.TaskID = taskID
	}
	return &cm, nil
}

// ListActivity returns the activity log of a project.
func (c *Client) ListActivity(ctx context.Context, projectID string) ([]domain.ActivityEntry, error) {
	var entries []domain.ActivityEntry
	if err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/activity/" + url.PathEscape(projectID),
		out:      &entries,
		fallback: msgFetchActivity,
	}); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.ActivityEntry{}
	}
	return entries, nil
}

// request describes one API call.
// Fields are ordered to minimize memory padding.
type request struct {
	body     any
	out      any
	query    url.Values
	method   string
	path     string
	fallback string // Message used when the server does not send one
	public   bool   // No bearer token required
}

// patchBody decodes a task response and records which keys it contained.
type patchBody struct {
	patch domain.TaskPatch
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *patchBody) UnmarshalJSON(data []byte) error {
	var keys map[string]any
	if err := sonic.Unmarshal(data, &keys); err != nil {
		return err
	}
	var t domain.Task
	if err := sonic.Unmarshal(data, &t); err != nil {
		return err
	}
	fields := make([]domain.TaskField, 0, len(keys))
	for k := range keys {
		fields = append(fields, domain.TaskField(k))
	}
	b.patch = domain.NewTaskPatch(t, fields...)
	return nil
}

// errorBody is the error shape returned by the API.
type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, r request) error {
	reqID := uuid.NewString()

	var token string
	if !r.public {
		s := c.session.Current()
		if !s.Authenticated() || s.Expired(c.clock.Now()) {
			c.log.Warn(logCategory, fmt.Sprintf("%s %s rejected locally: no valid session", r.method, r.path))
			return &domain.APIError{Err: domain.ErrUnauthenticated, Message: msgLoginAgain, Status: http.StatusUnauthorized}
		}
		token = s.Token
	}

	var body io.Reader
	if r.body != nil {
		raw, err := sonic.Marshal(r.body)
		if err != nil {
			return &domain.APIError{Err: fmt.Errorf("encode request: %w", err), Message: r.fallback}
		}
		body = bytes.NewReader(raw)
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return &domain.APIError{Err: fmt.Errorf("build request: %w", err), Message: r.fallback}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.method == http.MethodPost {
		req.Header.Set(headerIdemKey, reqID)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error(logCategory, fmt.Sprintf("%s %s [%s]: %v", r.method, r.path, reqID, err))
		return &domain.APIError{Err: err, Message: r.fallback}
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug(logCategory, fmt.Sprintf("%s %s [%s] -> %d in %s", r.method, r.path, reqID, resp.StatusCode, time.Since(start).Round(time.Millisecond)))

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(r, resp)
	}

	if r.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(r.out); err != nil {
		c.log.Error(logCategory, fmt.Sprintf("%s %s [%s]: decode response: %v", r.method, r.path, reqID, err))
		return &domain.APIError{Err: fmt.Errorf("decode response: %w", err), Message: r.fallback, Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) statusError(r request, resp *http.Response) error {
	msg := r.fallback
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	if len(raw) > 0 && sonic.Unmarshal(raw, &eb) == nil && strings.TrimSpace(eb.Message) != "" {
		msg = eb.Message
	}

	cause := fmt.Errorf("%s %s: status %d", r.method, r.path, resp.StatusCode)
	if resp.StatusCode == http.StatusUnauthorized {
		cause = fmt.Errorf("%w: %w", domain.ErrUnauthenticated, cause)
	}
	c.log.Warn(logCategory, fmt.Sprintf("%s (%s)", cause, msg))
	return &domain.APIError{Err: cause, Message: msg, Status: resp.StatusCode}
}

// Ensure Client implements domain.BoardAPI.
var _ domain.BoardAPI = (*Client)(nil)
