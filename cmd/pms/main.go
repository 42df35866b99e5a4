package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/voidshard/pms/internal/utils"
	"github.com/voidshard/pms/pkg/api"
	"github.com/voidshard/pms/pkg/structs"
)

type optsGeneral struct {
	Address string `long:"address" env:"PMS_ADDRESS" description:"Orchestrator host:port" default:"localhost:8080"`

	CACert string `long:"ca-cert" env:"PMS_CA_CERT" description:"CA certificate to verify a wss:// orchestrator"`
	Cert   string `long:"cert" env:"PMS_CERT" description:"Client TLS certificate"`
	Key    string `long:"key" env:"PMS_KEY" description:"Client TLS key"`

	Verbose bool `short:"v" long:"verbose" env:"PMS_VERBOSE" description:"Log every reply from the orchestrator"`

	LogLevel  string `long:"log-level" env:"LOG_LEVEL" description:"Log level" default:"info"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" description:"Log format (console, json)" default:"console"`
	LogFile   string `long:"log-file" env:"LOG_FILE" description:"Log to a (rotated) file instead of stderr"`
}

type optsTask struct {
	Task  string `long:"task" env:"PMS_TASK" description:"Task name" required:"yes"`
	Token string `long:"token" env:"PMS_TOKEN" description:"Task token, as issued by create-task" required:"yes"`
}

func (o *optsTask) task() structs.Task {
	return structs.NewTask(o.Task, o.Token)
}

func (o *optsGeneral) logger() *zap.Logger {
	return utils.NewLogger(&utils.LogOptions{Level: o.LogLevel, Format: o.LogFormat, Output: o.LogFile})
}

// withClient connects, runs fn & always closes the connection again.
func (o *optsGeneral) withClient(fn func(c *api.Client) error) error {
	log := o.logger()
	defer log.Sync()

	tlsCfg, err := utils.TLSConfig(o.CACert, o.Cert, o.Key)
	if err != nil {
		return err
	}

	client, err := api.New(context.Background(), &api.Options{
		Address:   o.Address,
		TLSConfig: tlsCfg,
		Verbose:   o.Verbose,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(client)
}

func printDocument(doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func main() {
	parser := flags.NewParser(nil, flags.Default)

	parser.AddCommand("create-task", "Create a task", docCreateTask, &optsCreateTask{})
	parser.AddCommand("clear-task", "Delete a task", docClearTask, &optsClearTask{})
	parser.AddCommand("clean-task", "Remove all jobs from a task", docCleanTask, &optsCleanTask{})
	parser.AddCommand("reset-failed", "Reset a task's failed jobs", docResetFailed, &optsResetFailed{})
	parser.AddCommand("depend", "Declare a dependency between tasks", docDepend, &optsDepend{})
	parser.AddCommand("validate", "Check a task/token pair", docValidate, &optsValidate{})
	parser.AddCommand("submit", "Submit a job", docSubmit, &optsSubmit{})
	parser.AddCommand("summary", "Summarise a user's jobs", docSummary, &optsSummary{})
	parser.AddCommand("query", "Query jobs", docQuery, &optsQuery{})
	parser.AddCommand("status", "Print a job's status", docStatus, &optsStatus{})
	parser.AddCommand("pilot-config", "Read or edit a pilot config file", docPilot, &optsPilot{})

	if _, err := parser.Parse(); err != nil {
		switch flagsErr := err.(type) {
		case *flags.Error:
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		default:
			// already printed by the parser (flags.PrintErrors)
			os.Exit(1)
		}
	}
}
