package api

import (
	"github.com/voidshard/pms/pkg/structs"
)

// API represents the operations the orchestrator exposes to clients.
type API interface {
	// Implemented in pms/pkg/api.Client

	CreateTask(name string) (structs.Task, error)
	ClearTask(task structs.Task) (string, error)
	CleanTask(task structs.Task) (string, error)
	ResetFailedJobs(task structs.Task) (string, error)
	DeclareTaskDependency(task structs.Task, dependsOn string) (string, error)
	ValidateTaskToken(task structs.Task) (bool, error)

	SubmitJob(job *structs.Job, task structs.Task) (string, error)

	Summary(user string) (interface{}, error)
	QueryJobs(q *structs.JobQuery) (interface{}, error)

	Close() error
}

// Conn carries one command to the orchestrator & returns its one reply.
//
// Implemented in pms/pkg/api/ws.Conn
type Conn interface {
	// SendAndReceive encodes msg, sends it & blocks until the reply arrives.
	SendAndReceive(msg interface{}) (string, error)

	// Close the connection.
	Close() error
}
