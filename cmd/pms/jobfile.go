package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voidshard/pms/pkg/errors"
	"github.com/voidshard/pms/pkg/structs"
)

// jobFile is the YAML form of a job description, ie.
//
//	user: alice
//	executable: /bin/simulate
//	args: ["--events", "1000"]
//	setenv: /opt/sim/setenv.sh
//	name: sim-1
//	tags: [mc, nightly]
//	input:
//	  - {protocol: xrootd, file: beam.root, source: "root://eos//beam"}
//	output:
//	  - {file: hits.root, destination: /data/out, tag: hits}
//	io: {name: sim-1, destination: "root://eos//logs"}
//	extra:
//	  priority: 3
//
// A protocol left out is picked from the source / destination.
type jobFile struct {
	User       string                 `yaml:"user"`
	Executable string                 `yaml:"executable"`
	Args       []string               `yaml:"args"`
	Setenv     string                 `yaml:"setenv"`
	Name       string                 `yaml:"name"`
	Tags       []string               `yaml:"tags"`
	Input      []jobFileTransfer      `yaml:"input"`
	Output     []jobFileTransfer      `yaml:"output"`
	IO         *jobFileIO             `yaml:"io"`
	Extra      map[string]interface{} `yaml:"extra"`
}

type jobFileTransfer struct {
	Protocol    string `yaml:"protocol"`
	File        string `yaml:"file"`
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Tag         string `yaml:"tag"`
}

type jobFileIO struct {
	Name        string `yaml:"name"`
	Destination string `yaml:"destination"`
}

func loadJobFile(path string) (*structs.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f jobFile
	err = yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}

	return f.build()
}

func (f *jobFile) build() (*structs.Job, error) {
	job := structs.NewJob()
	job.SetUser(f.User)
	job.SetExecutable(f.Executable)
	job.SetJobName(f.Name)
	for _, a := range f.Args {
		job.AddFlag(a)
	}
	if len(f.Tags) > 0 {
		job.AddTags(f.Tags...)
	}
	if f.Setenv != "" {
		job.AddSetenvScript(f.Setenv)
	}

	for _, in := range f.Input {
		p, err := protocol(in.Protocol, in.Source)
		if err != nil {
			return nil, err
		}
		job.AddInputTransfer(p, in.File, in.Source)
	}

	for _, out := range f.Output {
		p, err := protocol(out.Protocol, out.Destination)
		if err != nil {
			return nil, err
		}
		if out.Tag == "" {
			err = job.AddOutputTransfer(p, out.File, out.Destination)
		} else {
			err = job.AddOutputTransferWithTag(p, out.File, out.Destination, out.Tag)
		}
		if err != nil {
			return nil, err
		}
	}

	if f.IO != nil {
		if err := job.SetJobIO(f.IO.Name, f.IO.Destination); err != nil {
			return nil, err
		}
	}

	for k, v := range f.Extra {
		if err := job.AddGenericKey(k, v); err != nil {
			return nil, err
		}
	}

	return job, nil
}

func protocol(name, location string) (structs.Protocol, error) {
	if name == "" {
		return structs.ProtocolFor(location), nil
	}
	p := structs.ToProtocol(name)
	if p == "" {
		return "", fmt.Errorf("%w %q", errors.ErrInvalidProtocol, name)
	}
	return p, nil
}
