package structs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/voidshard/pms/pkg/errors"
)

const (
	// envTypeScript is the only environment kind the orchestrator understands
	envTypeScript = "script"

	// logPattern matches the stdout / stderr files written by SetJobIO
	logPattern = "*.log"
)

// wire keys of the job document
const (
	keyUser       = "user"
	keyExecutable = "executable"
	keyArgs       = "exe_args"
	keyEnv        = "env"
	keyInput      = "input"
	keyOutput     = "output"
	keyStdin      = "stdin"
	keyStdout     = "stdout"
	keyStderr     = "stderr"
	keyJobName    = "jobName"
	keyTags       = "tags"
)

var reservedKeys = map[string]bool{
	keyUser:       true,
	keyExecutable: true,
	keyArgs:       true,
	keyEnv:        true,
	keyInput:      true,
	keyOutput:     true,
	keyStdin:      true,
	keyStdout:     true,
	keyStderr:     true,
	keyJobName:    true,
	keyTags:       true,
}

// Environment describes how the job's environment is prepared before the executable runs.
type Environment struct {
	// Type is always "script" at the moment.
	Type string `json:"type"`

	// File is the path of the setenv script to source.
	File string `json:"file"`
}

// JobSpec is a complete job description as sent to the orchestrator.
//
// JobSpecs are produced by Job.Serialize() and share no memory with the Job they came from.
type JobSpec struct {
	// User the job runs on behalf of (optional)
	User string

	// Executable to run. Required by the orchestrator, though the builder doesn't enforce it.
	Executable string

	// Args passed to the executable, in order
	Args []string

	// Env is an optional environment setup script
	Env *Environment

	// Input transfers, in order
	Input InputFiles

	// Output is nil until the first output transfer is added
	Output Output

	// Stream redirection; nil means "not set" (stdin is legitimately set to "")
	Stdin  *string
	Stdout *string
	Stderr *string

	// JobName is an optional label
	JobName string

	// Tags are free form labels used for searching. Not related to output group tags.
	Tags []string

	// Extensions holds additional keys the orchestrator understands but that we don't model.
	// They're written at the top level of the document, never over a structural key.
	Extensions map[string]interface{}
}

// Validate checks the spec has what the orchestrator needs to run it.
func (s *JobSpec) Validate() error {
	if s.Executable == "" {
		return errors.ErrNoExecutable
	}
	return nil
}

// Copy returns a deep copy of the spec.
func (s *JobSpec) Copy() *JobSpec {
	out := &JobSpec{
		User:       s.User,
		Executable: s.Executable,
		Args:       append([]string{}, s.Args...),
		Input:      InputFiles{Files: copyInputTransfers(s.Input.Files)},
		Stdin:      copyString(s.Stdin),
		Stdout:     copyString(s.Stdout),
		Stderr:     copyString(s.Stderr),
		JobName:    s.JobName,
		Tags:       append([]string{}, s.Tags...),
		Extensions: map[string]interface{}{},
	}
	if s.Env != nil {
		env := *s.Env
		out.Env = &env
	}
	if s.Output != nil {
		out.Output = s.Output.copyOutput()
	}
	for k, v := range s.Extensions {
		out.Extensions[k] = copyValue(v)
	}
	return out
}

// MarshalJSON writes the wire document.
func (s JobSpec) MarshalJSON() ([]byte, error) {
	doc := map[string]interface{}{}
	for k, v := range s.Extensions {
		doc[k] = v
	}

	if s.User != "" {
		doc[keyUser] = s.User
	}
	if s.Executable != "" {
		doc[keyExecutable] = s.Executable
	}
	doc[keyArgs] = nonNil(s.Args)
	if s.Env != nil {
		doc[keyEnv] = s.Env
	}
	input := s.Input
	if input.Files == nil {
		input.Files = []*InputTransfer{}
	}
	doc[keyInput] = input
	doc[keyOutput] = s.Output
	if s.Stdin != nil {
		doc[keyStdin] = *s.Stdin
	}
	if s.Stdout != nil {
		doc[keyStdout] = *s.Stdout
	}
	if s.Stderr != nil {
		doc[keyStderr] = *s.Stderr
	}
	if s.JobName != "" {
		doc[keyJobName] = s.JobName
	}
	doc[keyTags] = nonNil(s.Tags)

	return json.Marshal(doc)
}

// UnmarshalJSON reads a wire document. Unknown keys land in Extensions.
func (s *JobSpec) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	out := JobSpec{
		Args:       []string{},
		Input:      InputFiles{Files: []*InputTransfer{}},
		Tags:       []string{},
		Extensions: map[string]interface{}{},
	}

	fields := map[string]interface{}{
		keyUser:       &out.User,
		keyExecutable: &out.Executable,
		keyArgs:       &out.Args,
		keyEnv:        &out.Env,
		keyInput:      &out.Input,
		keyStdin:      &out.Stdin,
		keyStdout:     &out.Stdout,
		keyStderr:     &out.Stderr,
		keyJobName:    &out.JobName,
		keyTags:       &out.Tags,
	}

	for k, v := range raw {
		if k == keyOutput {
			out.Output, err = unmarshalOutput(v)
			if err != nil {
				return err
			}
			continue
		}
		ptr, ok := fields[k]
		if !ok {
			var ext interface{}
			if err := json.Unmarshal(v, &ext); err != nil {
				return err
			}
			out.Extensions[k] = ext
			continue
		}
		if err := json.Unmarshal(v, ptr); err != nil {
			return fmt.Errorf("%w %s: %v", errors.ErrInvalidArg, k, err)
		}
	}

	if err := checkTransfers(&out); err != nil {
		return err
	}

	*s = out
	return nil
}

// checkTransfers refuses documents with null entries in a transfer list.
func checkTransfers(s *JobSpec) error {
	for _, t := range s.Input.Files {
		if t == nil {
			return fmt.Errorf("%w input: null transfer", errors.ErrInvalidArg)
		}
	}

	var groups []*OutputGroup
	switch out := s.Output.(type) {
	case *UntaggedOutput:
		groups = []*OutputGroup{{Files: out.Files}}
	case TaggedOutput:
		groups = out
	}
	for _, g := range groups {
		if g == nil {
			return fmt.Errorf("%w output: null group", errors.ErrInvalidArg)
		}
		for _, t := range g.Files {
			if t == nil {
				return fmt.Errorf("%w output: null transfer", errors.ErrInvalidArg)
			}
		}
	}
	return nil
}

func unmarshalOutput(data json.RawMessage) (Output, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		out := TaggedOutput{}
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	case '{':
		out := &UntaggedOutput{}
		if err := json.Unmarshal(trimmed, out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w output %s", errors.ErrInvalidArg, string(trimmed))
	}
}

// Job builds a JobSpec one call at a time.
//
// A Job isn't safe for concurrent use; each job is expected to be built and
// submitted by a single goroutine.
type Job struct {
	spec JobSpec
}

// NewJob returns an empty job.
func NewJob() *Job {
	return &Job{spec: JobSpec{
		Args:       []string{},
		Input:      InputFiles{Files: []*InputTransfer{}},
		Tags:       []string{},
		Extensions: map[string]interface{}{},
	}}
}

// SetUser sets the user the job runs as.
func (j *Job) SetUser(user string) {
	j.spec.User = user
}

// SetExecutable sets the program to run.
func (j *Job) SetExecutable(exe string) {
	j.spec.Executable = exe
}

// SetJobName sets the job label.
func (j *Job) SetJobName(name string) {
	j.spec.JobName = name
}

// AddFlag appends an argument to the executable's command line.
func (j *Job) AddFlag(flag string) {
	j.spec.Args = append(j.spec.Args, flag)
}

// AddTags appends free form labels. Duplicates are kept.
func (j *Job) AddTags(tags ...string) {
	j.spec.Tags = append(j.spec.Tags, tags...)
}

// AddSetenvScript sets the script sourced before the executable runs, replacing any
// previous one.
func (j *Job) AddSetenvScript(path string) {
	j.spec.Env = &Environment{Type: envTypeScript, File: path}
}

// AddInputTransfer appends a file to fetch before the job starts.
func (j *Job) AddInputTransfer(protocol Protocol, file, source string) {
	j.spec.Input.Files = append(j.spec.Input.Files, &InputTransfer{
		Protocol: protocol,
		File:     file,
		Source:   source,
	})
}

// AddOutputTransfer appends a file to the job's untagged output.
//
// Returns ErrTaggedOutput if tagged output transfers have already been added.
func (j *Job) AddOutputTransfer(protocol Protocol, file, destination string) error {
	t := &OutputTransfer{Protocol: protocol, File: file, Destination: destination}

	switch out := j.spec.Output.(type) {
	case nil:
		j.spec.Output = &UntaggedOutput{Files: []*OutputTransfer{t}}
	case *UntaggedOutput:
		out.Files = append(out.Files, t)
	case TaggedOutput:
		return fmt.Errorf("%w: cannot add %s", errors.ErrTaggedOutput, file)
	}
	return nil
}

// AddOutputTransferWithTag adds a file to the output group with the given tag,
// creating the group (at the end) if it doesn't exist yet.
//
// Returns ErrUntaggedOutput if untagged output transfers have already been added.
func (j *Job) AddOutputTransferWithTag(protocol Protocol, file, destination, tag string) error {
	t := &OutputTransfer{Protocol: protocol, File: file, Destination: destination}

	switch out := j.spec.Output.(type) {
	case nil:
		j.spec.Output = TaggedOutput{{Tag: tag, Files: []*OutputTransfer{t}}}
	case *UntaggedOutput:
		return fmt.Errorf("%w: cannot add %s with tag %s", errors.ErrUntaggedOutput, file, tag)
	case TaggedOutput:
		matched := out.groups(tag)
		switch len(matched) {
		case 0:
			j.spec.Output = append(out, &OutputGroup{Tag: tag, Files: []*OutputTransfer{t}})
		case 1:
			matched[0].Files = append(matched[0].Files, t)
		default:
			// groups are only ever created when no match exists
			panic(fmt.Sprintf("job has %d output groups with tag %q", len(matched), tag))
		}
	}
	return nil
}

// SetJobIO redirects stdout / stderr to <name>.out.log / <name>.err.log, empties stdin,
// and ships all *.log files to destination.
//
// The log transfer is an untagged output, so this returns ErrTaggedOutput on a job
// with tagged outputs.
func (j *Job) SetJobIO(name, destination string) error {
	err := j.AddOutputTransfer(ProtocolFor(destination), logPattern, destination)
	if err != nil {
		return err
	}

	stdin := ""
	stdout := fmt.Sprintf("%s.out.log", name)
	stderr := fmt.Sprintf("%s.err.log", name)
	j.spec.Stdin = &stdin
	j.spec.Stdout = &stdout
	j.spec.Stderr = &stderr
	return nil
}

// AddGenericKey sets a top level key the builder doesn't otherwise model.
//
// Keys belonging to the structural fields above are refused with ErrReservedKey.
func (j *Job) AddGenericKey(key string, value interface{}) error {
	if reservedKeys[key] {
		return fmt.Errorf("%w %s", errors.ErrReservedKey, key)
	}
	j.spec.Extensions[key] = copyValue(value)
	return nil
}

// Serialize returns a snapshot of the job. Later changes to the Job don't affect it.
func (j *Job) Serialize() *JobSpec {
	return j.spec.Copy()
}

// MarshalJSON marshals a snapshot of the job.
func (j *Job) MarshalJSON() ([]byte, error) {
	return j.Serialize().MarshalJSON()
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// copyValue returns a deep copy of v, keeping its types: maps, slices, arrays,
// pointers & exported struct fields are copied all the way down. Unexported
// struct fields are copied by value. v must not contain reference cycles.
func copyValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v)).Interface()
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(deepCopy(v.Field(i)))
			}
		}
		return out
	default:
		return v
	}
}
