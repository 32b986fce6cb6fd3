package reply

import (
	"fmt"
	"strings"

	"github.com/taskmind/taskmind-gateway/internal/executor"
	"github.com/taskmind/taskmind-gateway/internal/intent"
)

// Format turns a tool execution result into a user-facing reply for the
// given intent. It is pure string work; no I/O.
func Format(result executor.ToolExecutionResult, intentType intent.Type) string {
	if !result.Success {
		return formatError(result)
	}

	switch intentType {
	case intent.TypeCreateTask:
		return formatCreate(result)
	case intent.TypeUpdateTask:
		return formatUpdate(result)
	case intent.TypeDeleteTask:
		return formatDelete(result)
	case intent.TypeCompleteTask:
		return formatComplete(result)
	case intent.TypeListTasks:
		return formatList(result)
	case intent.TypeSearchTasks:
		return formatSearch(result)
	default:
		return formatGeneric(result)
	}
}

// FormatWithLanguage is Format plus a language note for Urdu input.
// Urdu translations are not available yet; the English reply is annotated.
func FormatWithLanguage(result executor.ToolExecutionResult, intentType intent.Type, isUrdu bool) string {
	reply := Format(result, intentType)
	if isUrdu {
		return reply + " (Note: Urdu language support coming soon!)"
	}
	return reply
}

func formatCreate(result executor.ToolExecutionResult) string {
	if result.Task != nil {
		return fmt.Sprintf("✅ Great! I've created the task %q. You can find it in your task list.", result.Task.Title)
	}
	return "✅ Task created successfully!"
}

func formatUpdate(result executor.ToolExecutionResult) string {
	if result.Task != nil {
		return fmt.Sprintf("✏️ Task %q has been updated successfully.", result.Task.Title)
	}
	return "✏️ Task updated successfully!"
}

func formatDelete(result executor.ToolExecutionResult) string {
	if result.TaskID != "" {
		return "🗑️ Task has been deleted successfully."
	}
	return "🗑️ Task deleted successfully!"
}

func formatComplete(result executor.ToolExecutionResult) string {
	if result.Task != nil {
		status := "marked as incomplete"
		if result.Task.Completed {
			status = "completed"
		}
		return fmt.Sprintf("✔️ Task %q has been %s.", result.Task.Title, status)
	}
	return "✔️ Task status updated!"
}

func formatList(result executor.ToolExecutionResult) string {
	if len(result.Tasks) == 0 {
		return "📋 You don't have any tasks yet. Would you like to add one?"
	}
	if len(result.Tasks) == 1 {
		task := result.Tasks[0]
		status := "⏳"
		if task.Completed {
			status = "✅"
		}
		return fmt.Sprintf("📋 You have 1 task: %s %s", status, task.Title)
	}

	completed := 0
	for _, task := range result.Tasks {
		if task.Completed {
			completed++
		}
	}
	pending := len(result.Tasks) - completed
	return fmt.Sprintf("📋 You have %d tasks in total: %d pending and %d completed.", len(result.Tasks), pending, completed)
}

func formatSearch(result executor.ToolExecutionResult) string {
	switch len(result.Tasks) {
	case 0:
		if result.Message != "" {
			return result.Message
		}
		return "🔍 No tasks found matching your search."
	case 1:
		return "🔍 Found 1 task matching your search."
	default:
		return fmt.Sprintf("🔍 Found %d tasks matching your search.", len(result.Tasks))
	}
}

func formatGeneric(result executor.ToolExecutionResult) string {
	if result.Message != "" {
		return result.Message
	}
	return "Action completed successfully."
}

func formatError(result executor.ToolExecutionResult) string {
	errorMessage := result.Error
	if errorMessage == "" {
		errorMessage = result.Message
	}
	if errorMessage == "" {
		errorMessage = "An error occurred while processing your request."
	}

	// Known failures get a tailored phrasing; the check covers both the
	// error and the message since validation puts the cue in either.
	combined := errorMessage + " " + result.Message

	if strings.Contains(combined, "Authentication required") {
		return "🔒 It looks like you need to log in first. Please log in to continue using the service."
	}
	if strings.Contains(combined, "Task ID is required") {
		return "🤔 I need to know which task you're referring to. Could you please specify the task?"
	}
	if strings.Contains(combined, "Title is required") {
		return "📝 Please provide a title for the task you'd like to create."
	}

	return fmt.Sprintf("❌ %s Could you please try rephrasing your request?", errorMessage)
}
