package structs

// Task is a handle on a task (a namespace of jobs) held by the orchestrator.
//
// Tasks are handed out by a successful CreateTask call and are never modified
// afterwards. Every command other than createTask needs both the name & the token.
type Task struct {
	// Name of the task, chosen by the caller on creation.
	Name string `json:"name"`

	// Token authorises commands against the task. It is issued by the server
	// and is opaque to us.
	Token string `json:"token"`
}

// NewTask pairs a task name with its token, ie. to reuse a task created elsewhere.
func NewTask(name, token string) Task {
	return Task{Name: name, Token: token}
}

// String returns the task name; tokens are never printed.
func (t Task) String() string {
	return t.Name
}
