package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voidshard/pms/pkg/api/common"
	"github.com/voidshard/pms/pkg/errors"
	"github.com/voidshard/pms/pkg/structs"
)

// The orchestrator answers mutating commands with free text. Everything that reads
// meaning into that text lives here, one function per command, so callers never
// look at reply strings themselves.

func classifyCreateTask(name, reply string) (structs.Task, error) {
	if !strings.HasPrefix(reply, common.REPLY_TASK) {
		return structs.Task{}, taskError(common.CMD_CREATE_TASK, reply)
	}
	return structs.NewTask(name, lastField(reply)), nil
}

func classifyClearTask(reply string) (string, error) {
	return taskPrefix(common.CMD_CLEAR_TASK, reply)
}

func classifyCleanTask(reply string) (string, error) {
	return taskPrefix(common.CMD_CLEAN_TASK, reply)
}

func classifyDeclareTaskDependency(reply string) (string, error) {
	return taskPrefix(common.CMD_DECLARE_TASK_DEPENDENCY, reply)
}

func classifyResetFailedJobs(reply string) (string, error) {
	if strings.Contains(reply, common.REPLY_FAILED) {
		return "", taskError(common.CMD_RESET_FAILED_JOBS, reply)
	}
	return reply, nil
}

func classifyValidateTaskToken(reply string) (bool, error) {
	// nb. order matters, "Task/token" is also a "Task" prefix
	switch {
	case strings.HasPrefix(reply, common.REPLY_TOKEN_VALID):
		return true, nil
	case strings.HasPrefix(reply, common.REPLY_TOKEN_INVALID):
		return false, nil
	default:
		return false, taskError(common.CMD_VALIDATE_TASK_TOKEN, reply)
	}
}

func classifySubmitJob(reply string) (string, error) {
	if !strings.HasPrefix(reply, common.REPLY_JOB_RECEIVED) {
		return "", &errors.JobOperationError{Command: common.CMD_SUBMIT_JOB, Reply: reply}
	}
	return lastField(reply), nil
}

// classifyDocument parses the JSON document returned by read only commands.
func classifyDocument(command, reply string) (interface{}, error) {
	var out interface{}
	err := json.Unmarshal([]byte(reply), &out)
	if err != nil {
		return nil, fmt.Errorf("%w to %s: %w", errors.ErrMalformedReply, command, err)
	}
	return out, nil
}

func taskPrefix(command, reply string) (string, error) {
	if !strings.HasPrefix(reply, common.REPLY_TASK) {
		return "", taskError(command, reply)
	}
	return reply, nil
}

func taskError(command, reply string) error {
	return &errors.TaskOperationError{Command: command, Reply: reply}
}

// lastField returns the last whitespace separated token of s.
func lastField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
