package main

import (
	"fmt"
	"strings"

	"github.com/voidshard/pms/pkg/api"
	"github.com/voidshard/pms/pkg/structs"
)

const (
	docSubmit = `Submit the job described by a YAML job file into a task & print the job hash.
With --dry-run the job document is printed instead of sent.`
	docSummary = `Print the orchestrator's summary of a user's jobs.`
	docQuery   = `Print the jobs whose fields match every --match key=value, reduced to the
comma separated --filter fields. --status limits the result to jobs in that status.`
	docStatus = `Print the status of a job, by hash. Exits non zero if the job is unknown
or, with --final, if the job hasn't finished yet.`
)

type optsSubmit struct {
	optsGeneral
	optsTask

	Job    string `long:"job" short:"j" description:"YAML job file" required:"yes"`
	DryRun bool   `long:"dry-run" description:"Print the job document & exit"`
}

func (c *optsSubmit) Execute(args []string) error {
	job, err := loadJobFile(c.Job)
	if err != nil {
		return err
	}

	spec := job.Serialize()
	if c.DryRun {
		return printDocument(spec)
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	return c.withClient(func(client *api.Client) error {
		hash, err := client.SubmitJob(job, c.task())
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	})
}

type optsSummary struct {
	optsGeneral

	User string `long:"user" short:"u" env:"USER" description:"User to summarise"`
}

func (c *optsSummary) Execute(args []string) error {
	return c.withClient(func(client *api.Client) error {
		doc, err := client.Summary(c.User)
		if err != nil {
			return err
		}
		return printDocument(doc)
	})
}

type optsQuery struct {
	optsGeneral

	Match  []string `long:"match" short:"m" description:"field=value a job must have (repeatable)"`
	Filter string   `long:"filter" short:"f" description:"Comma separated fields to return"`
	Status string   `long:"status" short:"s" description:"Only jobs in this status (waiting, assigned, running, done, failed)"`
}

func (c *optsQuery) Execute(args []string) error {
	match, err := parseMatch(c.Match)
	if err != nil {
		return err
	}
	if c.Status != "" {
		status := structs.ToStatus(c.Status)
		if status == "" {
			return fmt.Errorf("unknown status %q", c.Status)
		}
		match["status"] = string(status)
	}

	return c.withClient(func(client *api.Client) error {
		doc, err := client.QueryJobs(&structs.JobQuery{Match: match, Filter: c.Filter})
		if err != nil {
			return err
		}
		return printDocument(doc)
	})
}

type optsStatus struct {
	optsGeneral

	Final bool `long:"final" description:"Fail unless the job is done or failed"`

	Args struct {
		Hash string `positional-arg-name:"hash" description:"Job hash, as printed by submit"`
	} `positional-args:"yes" required:"yes"`
}

func (c *optsStatus) Execute(args []string) error {
	return c.withClient(func(client *api.Client) error {
		doc, err := client.QueryJobs(&structs.JobQuery{
			Match:  map[string]interface{}{"hash": c.Args.Hash},
			Filter: "status",
		})
		if err != nil {
			return err
		}

		status, err := jobStatus(doc)
		if err != nil {
			return fmt.Errorf("job %s: %w", c.Args.Hash, err)
		}
		fmt.Println(status)

		if c.Final && !structs.IsFinalStatus(status) {
			return fmt.Errorf("job %s is still %s", c.Args.Hash, status)
		}
		return nil
	})
}

// jobStatus reads the status out of a queryJobs result holding a single job.
func jobStatus(doc interface{}) (structs.Status, error) {
	jobs, ok := doc.([]interface{})
	if !ok || len(jobs) == 0 {
		return "", fmt.Errorf("not found")
	}
	if len(jobs) > 1 {
		return "", fmt.Errorf("%d jobs match", len(jobs))
	}

	fields, _ := jobs[0].(map[string]interface{})
	raw, _ := fields["status"].(string)
	status := structs.ToStatus(raw)
	if status == "" {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return status, nil
}

// parseMatch turns ["user=alice", "jobName=sim-1"] into a match map. Values are literal strings.
func parseMatch(in []string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, kv := range in {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected field=value, got %q", kv)
		}
		out[k] = v
	}
	return out, nil
}
