package structs

// TaskRequest is the envelope for every task command (createTask, clearTask ...).
type TaskRequest struct {
	// Command is the wire command name
	Command string `json:"command"`

	// Task is the task name
	Task string `json:"task"`

	// Token is required by everything except createTask
	Token string `json:"token,omitempty"`

	// DependsOn is set for declareTaskDependency only
	DependsOn string `json:"dependsOn,omitempty"`
}

// NewTaskRequest builds a request against an existing task.
func NewTaskRequest(command string, task Task) *TaskRequest {
	return &TaskRequest{Command: command, Task: task.Name, Token: task.Token}
}
