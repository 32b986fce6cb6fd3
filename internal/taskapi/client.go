package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskmind/taskmind-gateway/internal/logging"
	"github.com/taskmind/taskmind-gateway/internal/metrics"
)

// Task mirrors the Task API resource.
type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Completed   bool    `json:"completed"`
	Priority    int     `json:"priority"`
	UserID      string  `json:"user_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// CreateTaskRequest is the payload for creating a task.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
}

// UpdateTaskRequest carries only the fields to change; nil fields are
// omitted from the payload.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// TokenProvider supplies the bearer token and a way to renew it.
type TokenProvider interface {
	AccessToken() string
	Refresh(ctx context.Context) error
}

// Client is an authenticated Task API client. A 401 response triggers one
// token refresh and a single retry.
type Client struct {
	baseURL string
	tokens  TokenProvider
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, tokens TokenProvider, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.WithComponent("taskapi"),
	}
}

// GetUserTasks fetches every task owned by the user.
func (c *Client) GetUserTasks(ctx context.Context, userID string) ([]Task, error) {
	var tasks []Task
	err := c.do(ctx, "list_tasks", http.MethodGet, fmt.Sprintf("/api/v1/%s/tasks", userID), nil, &tasks)
	return tasks, err
}

// CreateTask creates a new task for the user.
func (c *Client) CreateTask(ctx context.Context, userID string, req CreateTaskRequest) (*Task, error) {
	task := &Task{}
	err := c.do(ctx, "create_task", http.MethodPost, fmt.Sprintf("/api/v1/%s/tasks", userID), req, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask fetches one task by id.
func (c *Client) GetTask(ctx context.Context, userID, taskID string) (*Task, error) {
	task := &Task{}
	err := c.do(ctx, "get_task", http.MethodGet, fmt.Sprintf("/api/v1/%s/tasks/%s", userID, taskID), nil, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, userID, taskID string, req UpdateTaskRequest) (*Task, error) {
	task := &Task{}
	err := c.do(ctx, "update_task", http.MethodPut, fmt.Sprintf("/api/v1/%s/tasks/%s", userID, taskID), req, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleTaskCompletion sets the completed flag on a task.
func (c *Client) ToggleTaskCompletion(ctx context.Context, userID, taskID string, completed bool) (*Task, error) {
	task := &Task{}
	body := map[string]bool{"completed": completed}
	err := c.do(ctx, "complete_task", http.MethodPatch, fmt.Sprintf("/api/v1/%s/tasks/%s/complete", userID, taskID), body, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, userID, taskID string) error {
	return c.do(ctx, "delete_task", http.MethodDelete, fmt.Sprintf("/api/v1/%s/tasks/%s", userID, taskID), nil, nil)
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		metrics.TaskAPIRequests.WithLabelValues(operation, "error").Inc()
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.logger.Info("Got 401, refreshing token and retrying", "operation", operation)
		if err := c.tokens.Refresh(ctx); err != nil {
			metrics.TaskAPIRequests.WithLabelValues(operation, "unauthorized").Inc()
			return fmt.Errorf("token refresh failed: %w", err)
		}
		resp, err = c.send(ctx, method, path, body)
		if err != nil {
			metrics.TaskAPIRequests.WithLabelValues(operation, "error").Inc()
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.TaskAPIRequests.WithLabelValues(operation, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("task api returned status %d: %s", resp.StatusCode, string(data))
	}

	metrics.TaskAPIRequests.WithLabelValues(operation, "ok").Inc()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.tokens.AccessToken())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("task api request failed: %w", err)
	}
	return resp, nil
}
