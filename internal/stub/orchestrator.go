package stub

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/voidshard/pms/pkg/api/common"
	"github.com/voidshard/pms/pkg/structs"
)

// envelope is the union of every command's fields
type envelope struct {
	Command   string                 `json:"command"`
	Task      string                 `json:"task"`
	Token     string                 `json:"token"`
	DependsOn string                 `json:"dependsOn"`
	User      string                 `json:"user"`
	Job       *structs.JobSpec       `json:"job"`
	Match     map[string]interface{} `json:"match"`
	Filter    map[string]int         `json:"filter"`
}

type task struct {
	token     string
	dependsOn []string
	jobs      []*storedJob
}

type storedJob struct {
	hash   string
	task   string
	status structs.Status
	doc    map[string]interface{}
}

// Orchestrator is a small in-memory imitation of the real orchestrator, replying
// with the same free text & JSON documents.
type Orchestrator struct {
	lock  sync.Mutex
	tasks map[string]*task
}

// NewOrchestrator returns an orchestrator with no tasks.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{tasks: map[string]*task{}}
}

// Handle implements Handler.
func (o *Orchestrator) Handle(msg []byte) string {
	var env envelope
	err := json.Unmarshal(msg, &env)
	if err != nil {
		return fmt.Sprintf("Could not parse command: %v", err)
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	switch env.Command {
	case common.CMD_CREATE_TASK:
		return o.createTask(&env)
	case common.CMD_VALIDATE_TASK_TOKEN:
		if o.authorised(&env) == nil {
			return "Invalid task/token pair"
		}
		return "Task/token pair is valid"
	case common.CMD_CLEAR_TASK, common.CMD_CLEAN_TASK, common.CMD_RESET_FAILED_JOBS,
		common.CMD_DECLARE_TASK_DEPENDENCY, common.CMD_SUBMIT_JOB:
		t := o.authorised(&env)
		if t == nil {
			return fmt.Sprintf("Invalid task/token pair, %s failed", env.Command)
		}
		return o.taskCommand(&env, t)
	case common.CMD_SUMMARY:
		return o.summary(&env)
	case common.CMD_QUERY_JOBS:
		return o.queryJobs(&env)
	default:
		return fmt.Sprintf("Unknown command %q", env.Command)
	}
}

// SetStatus moves the job with the given hash to status, as a pilot reporting back would.
// Returns false if no such job exists.
func (o *Orchestrator) SetStatus(hash string, status structs.Status) bool {
	o.lock.Lock()
	defer o.lock.Unlock()

	for _, t := range o.tasks {
		for _, j := range t.jobs {
			if j.hash == hash {
				j.status = status
				return true
			}
		}
	}
	return false
}

func (o *Orchestrator) authorised(env *envelope) *task {
	t, ok := o.tasks[env.Task]
	if !ok || t.token != env.Token {
		return nil
	}
	return t
}

func (o *Orchestrator) createTask(env *envelope) string {
	if env.Task == "" {
		return "No task name given"
	}
	if _, ok := o.tasks[env.Task]; ok {
		return fmt.Sprintf("Name %s already in use", env.Task)
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	o.tasks[env.Task] = &task{token: token}
	return fmt.Sprintf("Task %s created, token %s", env.Task, token)
}

func (o *Orchestrator) taskCommand(env *envelope, t *task) string {
	switch env.Command {
	case common.CMD_CLEAR_TASK:
		delete(o.tasks, env.Task)
		return fmt.Sprintf("Task %s cleared", env.Task)
	case common.CMD_CLEAN_TASK:
		count := len(t.jobs)
		t.jobs = nil
		return fmt.Sprintf("Task %s cleaned, %d jobs removed", env.Task, count)
	case common.CMD_RESET_FAILED_JOBS:
		count := 0
		for _, j := range t.jobs {
			if j.status == structs.FAILED {
				j.status = structs.WAITING
				count++
			}
		}
		if count == 0 {
			return "No jobs to reset"
		}
		return fmt.Sprintf("Task %s reset, %d jobs waiting", env.Task, count)
	case common.CMD_DECLARE_TASK_DEPENDENCY:
		if _, ok := o.tasks[env.DependsOn]; !ok {
			return fmt.Sprintf("No task named %s", env.DependsOn)
		}
		t.dependsOn = append(t.dependsOn, env.DependsOn)
		return fmt.Sprintf("Task %s now depends on %s", env.Task, env.DependsOn)
	default: // submitJob
		return o.submitJob(env, t)
	}
}

func (o *Orchestrator) submitJob(env *envelope, t *task) string {
	if env.Job == nil {
		return "Job rejected: no job document"
	}
	if err := env.Job.Validate(); err != nil {
		return fmt.Sprintf("Job rejected: %v", err)
	}

	data, err := json.Marshal(env.Job)
	if err != nil {
		return fmt.Sprintf("Job rejected: %v", err)
	}
	doc := map[string]interface{}{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Sprintf("Job rejected: %v", err)
	}

	sum := blake3.Sum256(append([]byte(env.Task+"/"), data...))
	hash := hex.EncodeToString(sum[:8])
	t.jobs = append(t.jobs, &storedJob{hash: hash, task: env.Task, status: structs.WAITING, doc: doc})
	return fmt.Sprintf("Job received, hash %s", hash)
}

func (o *Orchestrator) summary(env *envelope) string {
	tasks := map[string]int{}
	total := 0
	for name, t := range o.tasks {
		for _, j := range t.jobs {
			if j.doc["user"] != env.User {
				continue
			}
			tasks[name]++
			total++
		}
	}
	return mustJSON(map[string]interface{}{"user": env.User, "jobs": total, "tasks": tasks})
}

func (o *Orchestrator) queryJobs(env *envelope) string {
	names := []string{}
	for name := range o.tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	found := []map[string]interface{}{}
	for _, name := range names {
		for _, j := range o.tasks[name].jobs {
			if !matches(j, env.Match) {
				continue
			}
			found = append(found, project(j, env.Filter))
		}
	}
	return mustJSON(found)
}

func jobField(j *storedJob, field string) interface{} {
	switch field {
	case "hash":
		return j.hash
	case "task":
		return j.task
	case "status":
		return string(j.status)
	default:
		return j.doc[field]
	}
}

func matches(j *storedJob, match map[string]interface{}) bool {
	for k, want := range match {
		if !reflect.DeepEqual(jobField(j, k), want) {
			return false
		}
	}
	return true
}

func project(j *storedJob, filter map[string]int) map[string]interface{} {
	out := map[string]interface{}{}
	if len(filter) == 0 {
		for k, v := range j.doc {
			out[k] = v
		}
		out["hash"] = j.hash
		out["task"] = j.task
		out["status"] = string(j.status)
		return out
	}
	for k := range filter {
		if v := jobField(j, k); v != nil {
			out[k] = v
		}
	}
	return out
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
