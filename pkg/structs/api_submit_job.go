package structs

// SubmitJobRequest carries a job snapshot into a task.
type SubmitJobRequest struct {
	Command string   `json:"command"`
	Job     *JobSpec `json:"job"`
	Task    string   `json:"task"`
	Token   string   `json:"token"`
}
