package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskmind/taskmind-gateway/internal/intent"
	"github.com/taskmind/taskmind-gateway/internal/logging"
	"github.com/taskmind/taskmind-gateway/internal/taskapi"
)

// ToolRequest asks for one action against the Task API.
type ToolRequest struct {
	Action string
	UserID string
	Params intent.Entities
}

// ToolExecutionResult is the normalized outcome of a tool request.
// Message is always safe to surface; Error carries the machine-readable
// cause for failed requests.
type ToolExecutionResult struct {
	Success bool
	Message string
	Task    *taskapi.Task
	TaskID  string
	Tasks   []taskapi.Task
	Error   string
}

// TokenSource gates execution on authentication state.
type TokenSource interface {
	AccessToken() string
	IsExpired() bool
}

// TaskService is the Task API surface the executor needs.
type TaskService interface {
	GetUserTasks(ctx context.Context, userID string) ([]taskapi.Task, error)
	CreateTask(ctx context.Context, userID string, req taskapi.CreateTaskRequest) (*taskapi.Task, error)
	UpdateTask(ctx context.Context, userID, taskID string, req taskapi.UpdateTaskRequest) (*taskapi.Task, error)
	ToggleTaskCompletion(ctx context.Context, userID, taskID string, completed bool) (*taskapi.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
}

// Executor routes tool requests to Task API operations. It validates
// authentication and parameters before any network call.
type Executor struct {
	tokens TokenSource
	tasks  TaskService
	logger *slog.Logger
}

func New(tokens TokenSource, tasks TaskService) *Executor {
	return &Executor{
		tokens: tokens,
		tasks:  tasks,
		logger: logging.WithComponent("executor"),
	}
}

// Execute runs one tool request. Every outcome, including validation
// failures, comes back as a ToolExecutionResult.
func (e *Executor) Execute(ctx context.Context, req ToolRequest) ToolExecutionResult {
	if e.tokens.AccessToken() == "" || e.tokens.IsExpired() {
		return ToolExecutionResult{
			Success: false,
			Message: "Authentication required",
			Error:   "No access token available",
		}
	}

	switch req.Action {
	case "create_task":
		return e.handleCreateTask(ctx, req.UserID, req.Params)
	case "update_task":
		return e.handleUpdateTask(ctx, req.UserID, req.Params)
	case "delete_task":
		return e.handleDeleteTask(ctx, req.UserID, req.Params)
	case "complete_task":
		return e.handleCompleteTask(ctx, req.UserID, req.Params)
	case "list_tasks":
		return e.handleListTasks(ctx, req.UserID)
	case "search_tasks":
		return e.handleSearchTasks(ctx, req.UserID, req.Params)
	default:
		return ToolExecutionResult{
			Success: false,
			Message: "Unknown action requested",
			Error:   fmt.Sprintf("Action '%s' is not supported", req.Action),
		}
	}
}

func (e *Executor) handleCreateTask(ctx context.Context, userID string, params intent.Entities) ToolExecutionResult {
	if params.Title == nil || *params.Title == "" {
		return ToolExecutionResult{
			Success: false,
			Message: "Title is required to create a task",
			Error:   "Missing title parameter",
		}
	}

	priority := 3
	if params.Priority != nil {
		priority = *params.Priority
	}
	description := ""
	if params.Description != nil {
		description = *params.Description
	}

	task, err := e.tasks.CreateTask(ctx, userID, taskapi.CreateTaskRequest{
		Title:       *params.Title,
		Description: &description,
		Priority:    &priority,
	})
	if err != nil {
		e.logger.Warn("Create task failed", "error", err)
		return ToolExecutionResult{Success: false, Message: "Failed to create task", Error: err.Error()}
	}

	return ToolExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Task %q has been created successfully", *params.Title),
		Task:    task,
	}
}

func (e *Executor) handleUpdateTask(ctx context.Context, userID string, params intent.Entities) ToolExecutionResult {
	if params.TaskID == nil || *params.TaskID == "" {
		return ToolExecutionResult{
			Success: false,
			Message: "Task ID is required to update a task",
			Error:   "Missing taskId parameter",
		}
	}

	task, err := e.tasks.UpdateTask(ctx, userID, *params.TaskID, taskapi.UpdateTaskRequest{
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		Completed:   params.Completed,
	})
	if err != nil {
		e.logger.Warn("Update task failed", "task_id", *params.TaskID, "error", err)
		return ToolExecutionResult{Success: false, Message: "Failed to update task", Error: err.Error()}
	}

	return ToolExecutionResult{
		Success: true,
		Message: "Task has been updated successfully",
		Task:    task,
	}
}

func (e *Executor) handleDeleteTask(ctx context.Context, userID string, params intent.Entities) ToolExecutionResult {
	if params.TaskID == nil || *params.TaskID == "" {
		return ToolExecutionResult{
			Success: false,
			Message: "Task ID is required to delete a task",
			Error:   "Missing taskId parameter",
		}
	}

	if err := e.tasks.DeleteTask(ctx, userID, *params.TaskID); err != nil {
		e.logger.Warn("Delete task failed", "task_id", *params.TaskID, "error", err)
		return ToolExecutionResult{Success: false, Message: "Failed to delete task", Error: err.Error()}
	}

	return ToolExecutionResult{
		Success: true,
		Message: "Task has been deleted successfully",
		TaskID:  *params.TaskID,
	}
}

func (e *Executor) handleCompleteTask(ctx context.Context, userID string, params intent.Entities) ToolExecutionResult {
	if params.TaskID == nil || *params.TaskID == "" {
		return ToolExecutionResult{
			Success: false,
			Message: "Task ID is required to update completion status",
			Error:   "Missing taskId parameter",
		}
	}

	completed := true
	if params.Completed != nil {
		completed = *params.Completed
	}

	task, err := e.tasks.ToggleTaskCompletion(ctx, userID, *params.TaskID, completed)
	if err != nil {
		e.logger.Warn("Completion update failed", "task_id", *params.TaskID, "error", err)
		return ToolExecutionResult{Success: false, Message: "Failed to update task completion status", Error: err.Error()}
	}

	status := "complete"
	if !completed {
		status = "incomplete"
	}
	return ToolExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Task has been marked as %s", status),
		Task:    task,
	}
}

func (e *Executor) handleListTasks(ctx context.Context, userID string) ToolExecutionResult {
	tasks, err := e.tasks.GetUserTasks(ctx, userID)
	if err != nil {
		e.logger.Warn("List tasks failed", "error", err)
		return ToolExecutionResult{Success: false, Message: "Failed to retrieve tasks", Error: err.Error()}
	}

	completedCount := 0
	for _, task := range tasks {
		if task.Completed {
			completedCount++
		}
	}
	pendingCount := len(tasks) - completedCount

	result := ToolExecutionResult{
		Success: true,
		Message: fmt.Sprintf("You have %d tasks: %d pending and %d completed", len(tasks), pendingCount, completedCount),
		Tasks:   tasks,
	}
	// First task kept for potential follow-up turns.
	if len(tasks) > 0 {
		result.Task = &tasks[0]
	}
	return result
}

func (e *Executor) handleSearchTasks(ctx context.Context, userID string, params intent.Entities) ToolExecutionResult {
	if params.SearchQuery == nil || *params.SearchQuery == "" {
		return ToolExecutionResult{
			Success: false,
			Message: "Search query is required",
			Error:   "Missing query parameter",
		}
	}
	query := *params.SearchQuery

	tasks, err := e.tasks.GetUserTasks(ctx, userID)
	if err != nil {
		e.logger.Warn("Search tasks failed", "error", err)
		return ToolExecutionResult{Success: false, Message: "Failed to search tasks", Error: err.Error()}
	}

	needle := strings.ToLower(query)
	var matched []taskapi.Task
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), needle) {
			matched = append(matched, task)
			continue
		}
		if task.Description != nil && strings.Contains(strings.ToLower(*task.Description), needle) {
			matched = append(matched, task)
		}
	}

	if len(matched) == 0 {
		return ToolExecutionResult{
			Success: true,
			Message: fmt.Sprintf("No tasks found matching %q", query),
		}
	}

	return ToolExecutionResult{
		Success: true,
		Message: fmt.Sprintf("Found %d task(s) matching %q", len(matched), query),
		Tasks:   matched,
	}
}
