package structs

import (
	"strings"
)

// Status is the state of a job as reported in the "status" field of queryJobs results.
type Status string

const (
	// transient states
	WAITING  Status = "waiting"
	ASSIGNED Status = "assigned"
	RUNNING  Status = "running"

	// end states
	DONE   Status = "done"
	FAILED Status = "failed"
)

// IsFinalStatus reports whether a job in this status will not change again
// without a resetFailedJobs.
func IsFinalStatus(status Status) bool {
	switch status {
	case DONE, FAILED:
		return true
	default:
		return false
	}
}

// ToStatus returns the status named by s (any case) or "" if there isn't one.
func ToStatus(s string) Status {
	switch strings.ToLower(s) {
	case "waiting":
		return WAITING
	case "assigned":
		return ASSIGNED
	case "running":
		return RUNNING
	case "done":
		return DONE
	case "failed":
		return FAILED
	default:
		return ""
	}
}
