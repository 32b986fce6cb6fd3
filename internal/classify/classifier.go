package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskmind/taskmind-gateway/internal/logging"
)

// intentExamples is the fixed training bank: four examples per intent.
var intentExamples = []Example{
	{Text: "Add a task to buy groceries", Label: "CREATE_TASK"},
	{Text: "Create a reminder to call mom", Label: "CREATE_TASK"},
	{Text: "Make a new task to finish report", Label: "CREATE_TASK"},
	{Text: "Add task: walk the dog", Label: "CREATE_TASK"},

	{Text: "Change the title of my first task", Label: "UPDATE_TASK"},
	{Text: "Update my meeting task to tomorrow", Label: "UPDATE_TASK"},
	{Text: "Modify the grocery task", Label: "UPDATE_TASK"},
	{Text: "Edit the description of task 3", Label: "UPDATE_TASK"},

	{Text: "Remove the old task", Label: "DELETE_TASK"},
	{Text: "Delete the first task", Label: "DELETE_TASK"},
	{Text: "Get rid of that task", Label: "DELETE_TASK"},
	{Text: "Trash the meeting reminder", Label: "DELETE_TASK"},

	{Text: "Mark the grocery task as done", Label: "COMPLETE_TASK"},
	{Text: "Finish the report task", Label: "COMPLETE_TASK"},
	{Text: "Check off the exercise task", Label: "COMPLETE_TASK"},
	{Text: "Complete the laundry task", Label: "COMPLETE_TASK"},

	{Text: "Show me my tasks", Label: "LIST_TASKS"},
	{Text: "What do I have to do today?", Label: "LIST_TASKS"},
	{Text: "Display my to-do list", Label: "LIST_TASKS"},
	{Text: "What are my tasks?", Label: "LIST_TASKS"},

	{Text: "Find tasks about meeting", Label: "SEARCH_TASKS"},
	{Text: "Look for grocery tasks", Label: "SEARCH_TASKS"},
	{Text: "Search for urgent tasks", Label: "SEARCH_TASKS"},
	{Text: "Find the report task", Label: "SEARCH_TASKS"},
}

// CohereAPI is the subset of the Cohere client the classifier needs.
type CohereAPI interface {
	Configured() bool
	Classify(ctx context.Context, input string, examples []Example) (string, float64, error)
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// EnhancedClassifier wraps the Cohere classify endpoint behind a
// fail-soft interface: any error collapses to the UNKNOWN label so the
// regex parser's result stands.
type EnhancedClassifier struct {
	api    CohereAPI
	logger *slog.Logger
}

func NewEnhancedClassifier(api CohereAPI) *EnhancedClassifier {
	return &EnhancedClassifier{
		api:    api,
		logger: logging.WithComponent("classifier"),
	}
}

// ClassifyIntent returns the predicted intent label for the input.
// It never returns an error to callers in the turn path; failures and an
// unconfigured client both yield "UNKNOWN".
func (c *EnhancedClassifier) ClassifyIntent(ctx context.Context, input string) string {
	if !c.api.Configured() {
		return "UNKNOWN"
	}

	label, confidence, err := c.api.Classify(ctx, input, intentExamples)
	if err != nil {
		c.logger.Warn("Classification failed, falling back", "error", err)
		return "UNKNOWN"
	}

	c.logger.Debug("Classified input", "label", label, "confidence", confidence)
	return label
}

// GenerateNaturalResponse rephrases a canned reply. Any failure returns
// the original message untouched.
func (c *EnhancedClassifier) GenerateNaturalResponse(ctx context.Context, userInput, baseMessage string) string {
	if !c.api.Configured() {
		return baseMessage
	}

	prompt := fmt.Sprintf(
		"The user said: %q. The assistant wants to reply: %q. Rewrite the reply to sound natural and friendly, keeping the same meaning. Reply only with the rewritten text.",
		userInput, baseMessage,
	)
	text, err := c.api.Generate(ctx, prompt, 100)
	if err != nil {
		c.logger.Warn("Generation failed, using canned reply", "error", err)
		return baseMessage
	}
	return text
}
