package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/voidshard/pms/pkg/api/common"
	"github.com/voidshard/pms/pkg/api/ws"
	"github.com/voidshard/pms/pkg/structs"
)

var _ API = (*Client)(nil)

// Client issues commands to the orchestrator, one at a time, over a single connection.
//
// Every call blocks until the server replies; there is no timeout & no retry. Replies
// that say the command didn't work come back as *errors.TaskOperationError or
// *errors.JobOperationError. Transport errors are returned untouched, after which the
// Client is unusable & a new one must be made.
type Client struct {
	conn Conn
	opts *Options
	log  *zap.Logger
}

// New connects to the orchestrator. The caller must Close() the client.
func New(ctx context.Context, opts *Options) (*Client, error) {
	if opts == nil {
		opts = OptionsDefault()
	}
	opts.SetDefaults()

	conn, err := ws.Dial(ctx, opts.wsOptions())
	if err != nil {
		return nil, err
	}
	return NewClient(conn, opts), nil
}

// NewClient wraps an existing connection.
func NewClient(conn Conn, opts *Options) *Client {
	if opts == nil {
		opts = OptionsDefault()
	}
	opts.SetDefaults()
	return &Client{conn: conn, opts: opts, log: opts.Logger.With(zap.String("component", "client"))}
}

// Close the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// CreateTask creates a new task & returns a handle carrying its token.
func (c *Client) CreateTask(name string) (structs.Task, error) {
	reply, err := c.send(&structs.TaskRequest{Command: common.CMD_CREATE_TASK, Task: name}, true)
	if err != nil {
		return structs.Task{}, err
	}
	return classifyCreateTask(name, reply)
}

// ClearTask deletes a task.
func (c *Client) ClearTask(task structs.Task) (string, error) {
	reply, err := c.send(structs.NewTaskRequest(common.CMD_CLEAR_TASK, task), true)
	if err != nil {
		return "", err
	}
	return classifyClearTask(reply)
}

// CleanTask removes all jobs from a task.
func (c *Client) CleanTask(task structs.Task) (string, error) {
	reply, err := c.send(structs.NewTaskRequest(common.CMD_CLEAN_TASK, task), true)
	if err != nil {
		return "", err
	}
	return classifyCleanTask(reply)
}

// ResetFailedJobs asks the orchestrator to rerun a task's failed jobs.
func (c *Client) ResetFailedJobs(task structs.Task) (string, error) {
	reply, err := c.send(structs.NewTaskRequest(common.CMD_RESET_FAILED_JOBS, task), true)
	if err != nil {
		return "", err
	}
	return classifyResetFailedJobs(reply)
}

// DeclareTaskDependency makes task wait on the task named dependsOn.
func (c *Client) DeclareTaskDependency(task structs.Task, dependsOn string) (string, error) {
	req := structs.NewTaskRequest(common.CMD_DECLARE_TASK_DEPENDENCY, task)
	req.DependsOn = dependsOn

	reply, err := c.send(req, true)
	if err != nil {
		return "", err
	}
	return classifyDeclareTaskDependency(reply)
}

// ValidateTaskToken reports whether the task's token is accepted by the server.
func (c *Client) ValidateTaskToken(task structs.Task) (bool, error) {
	reply, err := c.send(structs.NewTaskRequest(common.CMD_VALIDATE_TASK_TOKEN, task), true)
	if err != nil {
		return false, err
	}
	return classifyValidateTaskToken(reply)
}

// SubmitJob sends a snapshot of the job into the task & returns the job's hash.
func (c *Client) SubmitJob(job *structs.Job, task structs.Task) (string, error) {
	req := &structs.SubmitJobRequest{
		Command: common.CMD_SUBMIT_JOB,
		Job:     job.Serialize(),
		Task:    task.Name,
		Token:   task.Token,
	}

	reply, err := c.send(req, false)
	if err != nil {
		return "", err
	}
	return classifySubmitJob(reply)
}

// Summary returns the orchestrator's overview of the user's jobs.
func (c *Client) Summary(user string) (interface{}, error) {
	reply, err := c.send(&structs.SummaryRequest{Command: common.CMD_SUMMARY, User: user}, true)
	if err != nil {
		return nil, err
	}
	return classifyDocument(common.CMD_SUMMARY, reply)
}

// QueryJobs returns the jobs matching q.Match, reduced to the fields in q.Filter.
func (c *Client) QueryJobs(q *structs.JobQuery) (interface{}, error) {
	if q == nil {
		q = &structs.JobQuery{}
	}
	q.Sanitize()

	req := &structs.QueryJobsRequest{
		Command: common.CMD_QUERY_JOBS,
		Match:   q.Match,
		Filter:  q.Fields(),
	}

	reply, err := c.send(req, true)
	if err != nil {
		return nil, err
	}
	return classifyDocument(common.CMD_QUERY_JOBS, reply)
}

func (c *Client) send(req interface{}, verbose bool) (string, error) {
	reply, err := c.conn.SendAndReceive(req)
	if err != nil {
		c.log.Error("failed to reach orchestrator", zap.Error(err))
		return "", err
	}
	if verbose && c.opts.Verbose {
		c.log.Info("PMS Server replied", zap.String("reply", reply))
	}
	return reply, nil
}
