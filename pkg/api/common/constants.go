package common

const (
	// ENDPOINT is the path the orchestrator serves its command socket on
	ENDPOINT = "/server"

	// SCHEME is the default scheme for the command socket
	SCHEME = "ws"

	// SCHEME_TLS is used when a TLS config is supplied
	SCHEME_TLS = "wss"
)

// Wire command names
const (
	CMD_CREATE_TASK             = "createTask"
	CMD_CLEAR_TASK              = "clearTask"
	CMD_CLEAN_TASK              = "cleanTask"
	CMD_RESET_FAILED_JOBS       = "resetFailedJobs"
	CMD_DECLARE_TASK_DEPENDENCY = "declareTaskDependency"
	CMD_VALIDATE_TASK_TOKEN     = "validateTaskToken"
	CMD_SUBMIT_JOB              = "submitJob"
	CMD_SUMMARY                 = "summary"
	CMD_QUERY_JOBS              = "queryJobs"
)

// Reply markers. These are matched byte for byte against the server's free text replies.
const (
	// REPLY_TASK prefixes a successful task command
	REPLY_TASK = "Task"

	// REPLY_TOKEN_VALID prefixes the reply to a valid task/token pair
	REPLY_TOKEN_VALID = "Task/token"

	// REPLY_TOKEN_INVALID prefixes the reply to an invalid task/token pair
	REPLY_TOKEN_INVALID = "Invalid"

	// REPLY_JOB_RECEIVED prefixes an accepted job submission
	REPLY_JOB_RECEIVED = "Job received"

	// REPLY_FAILED appears anywhere in a resetFailedJobs reply that didn't work
	REPLY_FAILED = "failed"
)
