package main

import (
	"fmt"

	"github.com/voidshard/pms/pkg/api"
)

const (
	docCreateTask = `Create a new task & print its token. Keep the token: every other
task command needs it.`
	docClearTask   = `Delete a task from the orchestrator.`
	docCleanTask   = `Remove every job from a task, keeping the task itself.`
	docResetFailed = `Ask the orchestrator to rerun the failed jobs of a task.`
	docDepend      = `Make a task wait for another task to finish.`
	docValidate    = `Check whether a task/token pair is accepted. Exits non zero if not.`
)

type optsCreateTask struct {
	optsGeneral

	Args struct {
		Name string `positional-arg-name:"name" description:"Name of the new task"`
	} `positional-args:"yes" required:"yes"`
}

func (c *optsCreateTask) Execute(args []string) error {
	return c.withClient(func(client *api.Client) error {
		task, err := client.CreateTask(c.Args.Name)
		if err != nil {
			return err
		}
		fmt.Printf("task: %s\ntoken: %s\n", task.Name, task.Token)
		return nil
	})
}

type optsClearTask struct {
	optsGeneral
	optsTask
}

func (c *optsClearTask) Execute(args []string) error {
	return c.withClient(func(client *api.Client) error {
		reply, err := client.ClearTask(c.task())
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	})
}

type optsCleanTask struct {
	optsGeneral
	optsTask
}

func (c *optsCleanTask) Execute(args []string) error {
	return c.withClient(func(client *api.Client) error {
		reply, err := client.CleanTask(c.task())
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	})
}

type optsResetFailed struct {
	optsGeneral
	optsTask
}

func (c *optsResetFailed) Execute(args []string) error {
	return c.withClient(func(client *api.Client) error {
		reply, err := client.ResetFailedJobs(c.task())
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	})
}

type optsDepend struct {
	optsGeneral
	optsTask

	On string `long:"on" description:"Name of the task to wait for" required:"yes"`
}

func (c *optsDepend) Execute(args []string) error {
	return c.withClient(func(client *api.Client) error {
		reply, err := client.DeclareTaskDependency(c.task(), c.On)
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	})
}

type optsValidate struct {
	optsGeneral
	optsTask
}

func (c *optsValidate) Execute(args []string) error {
	return c.withClient(func(client *api.Client) error {
		valid, err := client.ValidateTaskToken(c.task())
		if err != nil {
			return err
		}
		if !valid {
			return fmt.Errorf("token is not valid for task %s", c.Task)
		}
		fmt.Println("valid")
		return nil
	})
}
