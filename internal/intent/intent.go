package intent

// Type classifies the purpose of a user utterance.
type Type string

const (
	TypeCreateTask   Type = "CREATE_TASK"
	TypeUpdateTask   Type = "UPDATE_TASK"
	TypeDeleteTask   Type = "DELETE_TASK"
	TypeCompleteTask Type = "COMPLETE_TASK"
	TypeListTasks    Type = "LIST_TASKS"
	TypeSearchTasks  Type = "SEARCH_TASKS"
	TypeUnknown      Type = "UNKNOWN"
)

// Action returns the tool action string for the intent.
func (t Type) Action() string {
	switch t {
	case TypeCreateTask:
		return "create_task"
	case TypeUpdateTask:
		return "update_task"
	case TypeDeleteTask:
		return "delete_task"
	case TypeCompleteTask:
		return "complete_task"
	case TypeListTasks:
		return "list_tasks"
	case TypeSearchTasks:
		return "search_tasks"
	default:
		return "unknown"
	}
}

// FromLabel maps an external classifier label to a known intent.
// The second return is false when the label is not recognized.
func FromLabel(label string) (Type, bool) {
	switch Type(label) {
	case TypeCreateTask, TypeUpdateTask, TypeDeleteTask, TypeCompleteTask, TypeListTasks, TypeSearchTasks:
		return Type(label), true
	default:
		return TypeUnknown, false
	}
}

// Entities holds the structured values extracted from free text.
// A nil field means the value was not recoverable from the input,
// which is distinct from an empty string.
type Entities struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	TaskID      *string `json:"taskId,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	SearchQuery *string `json:"searchQuery,omitempty"`
}

// Result is the outcome of parsing one user utterance.
type Result struct {
	Intent     Type
	Entities   Entities
	Confidence float64
}
