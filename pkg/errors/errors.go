package errors

import (
	"fmt"
)

var (
	// usage errors, raised by the job builder before anything touches the network
	ErrTaggedOutput    = fmt.Errorf("tagged output transfers already set up for this job")
	ErrUntaggedOutput  = fmt.Errorf("non-tagged output transfers already set up for this job")
	ErrReservedKey     = fmt.Errorf("key is a structural job field")
	ErrInvalidProtocol = fmt.Errorf("invalid transfer protocol")
	ErrNoExecutable    = fmt.Errorf("no executable specified")
	ErrInvalidArg      = fmt.Errorf("invalid arg")

	// operation errors, raised when the orchestrator rejects a command
	ErrTaskOperation = fmt.Errorf("task operation failed")
	ErrJobOperation  = fmt.Errorf("job operation failed")

	// transport level errors
	ErrConnClosed     = fmt.Errorf("connection closed")
	ErrMalformedReply = fmt.Errorf("malformed reply")
)

// TaskOperationError is returned when the orchestrator replies to a task command
// with something other than the expected success message.
type TaskOperationError struct {
	// Command is the wire command that was sent.
	Command string

	// Reply is the raw reply from the server, verbatim.
	Reply string
}

func (e *TaskOperationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrTaskOperation, e.Command, e.Reply)
}

// Is allows errors.Is(err, ErrTaskOperation)
func (e *TaskOperationError) Is(target error) bool {
	return target == ErrTaskOperation
}

// JobOperationError is returned when the orchestrator refuses a job.
type JobOperationError struct {
	Command string
	Reply   string
}

func (e *JobOperationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrJobOperation, e.Command, e.Reply)
}

// Is allows errors.Is(err, ErrJobOperation)
func (e *JobOperationError) Is(target error) bool {
	return target == ErrJobOperation
}
