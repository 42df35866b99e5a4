package structs

// SummaryRequest asks for an overview of a user's jobs.
type SummaryRequest struct {
	Command string `json:"command"`
	User    string `json:"user"`
}

// QueryJobsRequest asks for the jobs matching some exact field values.
type QueryJobsRequest struct {
	Command string `json:"command"`

	// Match maps field -> literal value
	Match map[string]interface{} `json:"match"`

	// Filter maps each selected field -> 1
	Filter map[string]int `json:"filter"`
}
