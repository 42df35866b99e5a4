package structs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidshard/pms/pkg/errors"
)

func strPtr(s string) *string {
	return &s
}

func TestNewJobDocument(t *testing.T) {
	data, err := json.Marshal(NewJob())

	assert.Nil(t, err)
	assert.JSONEq(t, `{
		"exe_args": [],
		"input": {"files": []},
		"output": null,
		"tags": []
	}`, string(data))
}

func TestSimpleFields(t *testing.T) {
	job := NewJob()
	job.SetUser("alice")
	job.SetExecutable("/bin/simulate")
	job.SetJobName("run-42")
	job.AddFlag("--seed")
	job.AddFlag("42")
	job.AddTags("mc", "nightly")
	job.AddTags("mc")

	spec := job.Serialize()

	assert.Equal(t, "alice", spec.User)
	assert.Equal(t, "/bin/simulate", spec.Executable)
	assert.Equal(t, "run-42", spec.JobName)
	assert.Equal(t, []string{"--seed", "42"}, spec.Args)
	assert.Equal(t, []string{"mc", "nightly", "mc"}, spec.Tags)
}

func TestAddSetenvScriptOverwrites(t *testing.T) {
	job := NewJob()
	job.AddSetenvScript("/opt/a/setenv.sh")
	job.AddSetenvScript("/opt/b/setenv.sh")

	assert.Equal(t, &Environment{Type: "script", File: "/opt/b/setenv.sh"}, job.Serialize().Env)
}

func TestAddInputTransfer(t *testing.T) {
	job := NewJob()
	job.AddInputTransfer(LOCAL, "geometry.gdml", "/data/geo")
	job.AddInputTransfer(XROOTD, "beam.root", "root://eos//beam")

	assert.Equal(t, []*InputTransfer{
		{Protocol: LOCAL, File: "geometry.gdml", Source: "/data/geo"},
		{Protocol: XROOTD, File: "beam.root", Source: "root://eos//beam"},
	}, job.Serialize().Input.Files)
}

func TestAddOutputTransferUntagged(t *testing.T) {
	job := NewJob()
	files := []string{"a.root", "b.root", "c.root"}
	for _, f := range files {
		require.Nil(t, job.AddOutputTransfer(LOCAL, f, "/out"))
	}

	out, ok := job.Serialize().Output.(*UntaggedOutput)
	require.True(t, ok)
	require.Len(t, out.Files, len(files))
	for i, f := range files {
		assert.Equal(t, f, out.Files[i].File)
	}

	err := job.AddOutputTransferWithTag(LOCAL, "d.root", "/out", "a")
	assert.ErrorIs(t, err, errors.ErrUntaggedOutput)

	// the rejected call left the output alone
	out = job.Serialize().Output.(*UntaggedOutput)
	assert.Len(t, out.Files, len(files))
}

func TestAddOutputTransferWithTagGroups(t *testing.T) {
	job := NewJob()
	require.Nil(t, job.AddOutputTransferWithTag(LOCAL, "f1", "/d1", "a"))
	require.Nil(t, job.AddOutputTransferWithTag(LOCAL, "f2", "/d2", "a"))
	require.Nil(t, job.AddOutputTransferWithTag(XROOTD, "f3", "root://s//d3", "b"))

	out, ok := job.Serialize().Output.(TaggedOutput)
	require.True(t, ok)

	assert.Equal(t, TaggedOutput{
		{Tag: "a", Files: []*OutputTransfer{
			{Protocol: LOCAL, File: "f1", Destination: "/d1"},
			{Protocol: LOCAL, File: "f2", Destination: "/d2"},
		}},
		{Tag: "b", Files: []*OutputTransfer{
			{Protocol: XROOTD, File: "f3", Destination: "root://s//d3"},
		}},
	}, out)
	assert.Nil(t, out.Group("c"))
	assert.Equal(t, "b", out.Group("b").Tag)
}

func TestAddOutputTransferWithTagOrder(t *testing.T) {
	job := NewJob()
	for _, tag := range []string{"z", "y", "z", "x", "y"} {
		require.Nil(t, job.AddOutputTransferWithTag(LOCAL, "f-"+tag, "/out", tag))
	}

	out := job.Serialize().Output.(TaggedOutput)
	tags := []string{}
	for _, g := range out {
		tags = append(tags, g.Tag)
	}
	assert.Equal(t, []string{"z", "y", "x"}, tags)
	assert.Len(t, out.Group("z").Files, 2)
	assert.Len(t, out.Group("x").Files, 1)
}

func TestAddOutputTransferAfterTagged(t *testing.T) {
	job := NewJob()
	require.Nil(t, job.AddOutputTransferWithTag(LOCAL, "f1", "/out", "a"))

	err := job.AddOutputTransfer(LOCAL, "f2", "/out")
	assert.ErrorIs(t, err, errors.ErrTaggedOutput)

	err = job.SetJobIO("run1", "/logs")
	assert.ErrorIs(t, err, errors.ErrTaggedOutput)
	assert.Nil(t, job.Serialize().Stdout)
}

func TestDuplicateTagGroupPanics(t *testing.T) {
	job := NewJob()
	job.spec.Output = TaggedOutput{
		{Tag: "a", Files: []*OutputTransfer{}},
		{Tag: "a", Files: []*OutputTransfer{}},
	}

	assert.Panics(t, func() {
		job.AddOutputTransferWithTag(LOCAL, "f", "/out", "a")
	})
}

func TestSetJobIO(t *testing.T) {
	cases := []struct {
		Name        string
		Destination string
		Expect      Protocol
	}{
		{Name: "ObjectStore", Destination: "root://server//path", Expect: XROOTD},
		{Name: "Local", Destination: "/scratch/logs", Expect: LOCAL},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			job := NewJob()
			require.Nil(t, job.AddOutputTransfer(LOCAL, "result.root", "/out"))

			err := job.SetJobIO("run1", c.Destination)
			require.Nil(t, err)

			spec := job.Serialize()
			assert.Equal(t, strPtr(""), spec.Stdin)
			assert.Equal(t, strPtr("run1.out.log"), spec.Stdout)
			assert.Equal(t, strPtr("run1.err.log"), spec.Stderr)

			out := spec.Output.(*UntaggedOutput)
			require.Len(t, out.Files, 2)
			assert.Equal(t, &OutputTransfer{Protocol: c.Expect, File: "*.log", Destination: c.Destination}, out.Files[1])
		})
	}
}

func TestSetJobIOOnEmptyJob(t *testing.T) {
	job := NewJob()

	assert.Nil(t, job.SetJobIO("run1", "/logs"))

	out := job.Serialize().Output.(*UntaggedOutput)
	assert.Equal(t, []*OutputTransfer{{Protocol: LOCAL, File: "*.log", Destination: "/logs"}}, out.Files)
}

func TestAddGenericKey(t *testing.T) {
	cases := []struct {
		Name      string
		Key       string
		ExpectErr error
	}{
		{Name: "Extension", Key: "priority", ExpectErr: nil},
		{Name: "User", Key: "user", ExpectErr: errors.ErrReservedKey},
		{Name: "Output", Key: "output", ExpectErr: errors.ErrReservedKey},
		{Name: "Args", Key: "exe_args", ExpectErr: errors.ErrReservedKey},
		{Name: "JobName", Key: "jobName", ExpectErr: errors.ErrReservedKey},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			job := NewJob()
			err := job.AddGenericKey(c.Key, 5)

			if c.ExpectErr == nil {
				assert.Nil(t, err)
				assert.Equal(t, 5, job.Serialize().Extensions[c.Key])
			} else {
				assert.ErrorIs(t, err, c.ExpectErr)
				assert.NotContains(t, job.Serialize().Extensions, c.Key)
			}
		})
	}
}

func TestSerializeIsSnapshot(t *testing.T) {
	job := NewJob()
	job.SetExecutable("/bin/a")
	job.AddFlag("-v")
	job.AddTags("t1")
	job.AddSetenvScript("/env.sh")
	job.AddInputTransfer(LOCAL, "in", "/src")
	require.Nil(t, job.AddOutputTransferWithTag(LOCAL, "f1", "/out", "a"))
	require.Nil(t, job.AddGenericKey("resources", map[string]interface{}{"cpus": 1}))

	spec := job.Serialize()
	before, err := json.Marshal(spec)
	require.Nil(t, err)

	job.SetExecutable("/bin/b")
	job.AddFlag("-q")
	job.AddTags("t2")
	job.AddSetenvScript("/other.sh")
	job.AddInputTransfer(XROOTD, "in2", "root://x//y")
	require.Nil(t, job.AddOutputTransferWithTag(LOCAL, "f2", "/out", "a"))
	require.Nil(t, job.AddOutputTransferWithTag(LOCAL, "f3", "/out", "b"))
	require.Nil(t, job.AddGenericKey("resources", map[string]interface{}{"cpus": 8}))

	after, err := json.Marshal(spec)
	require.Nil(t, err)

	assert.JSONEq(t, string(before), string(after))
	assert.Equal(t, "/bin/a", spec.Executable)
	assert.Len(t, spec.Output.(TaggedOutput), 1)
}

func TestSnapshotMutationDoesNotLeakBack(t *testing.T) {
	job := NewJob()
	require.Nil(t, job.AddOutputTransfer(LOCAL, "f1", "/out"))
	nested := map[string]interface{}{"cpus": 1}
	require.Nil(t, job.AddGenericKey("resources", nested))

	spec := job.Serialize()
	spec.Output.(*UntaggedOutput).Files[0].File = "changed"
	spec.Extensions["resources"].(map[string]interface{})["cpus"] = 99
	nested["cpus"] = 42

	again := job.Serialize()
	assert.Equal(t, "f1", again.Output.(*UntaggedOutput).Files[0].File)
	assert.Equal(t, 1, again.Extensions["resources"].(map[string]interface{})["cpus"])
}

func TestSnapshotTypedExtensionsDoNotLeakBack(t *testing.T) {
	type limits struct {
		Memory *int
		Hosts  []string
	}
	mem := 512

	job := NewJob()
	require.Nil(t, job.AddGenericKey("cores", []int{1, 2}))
	require.Nil(t, job.AddGenericKey("quota", map[string]int{"cpu": 1}))
	require.Nil(t, job.AddGenericKey("jobs", []map[string]interface{}{{"n": 1}}))
	require.Nil(t, job.AddGenericKey("limits", limits{Memory: &mem, Hosts: []string{"a"}}))

	spec := job.Serialize()
	spec.Extensions["cores"].([]int)[0] = 99
	spec.Extensions["quota"].(map[string]int)["cpu"] = 99
	spec.Extensions["jobs"].([]map[string]interface{})[0]["n"] = 99
	*spec.Extensions["limits"].(limits).Memory = 99
	spec.Extensions["limits"].(limits).Hosts[0] = "z"

	again := job.Serialize()
	assert.Equal(t, []int{1, 2}, again.Extensions["cores"])
	assert.Equal(t, map[string]int{"cpu": 1}, again.Extensions["quota"])
	assert.Equal(t, []map[string]interface{}{{"n": 1}}, again.Extensions["jobs"])
	assert.Equal(t, 512, *again.Extensions["limits"].(limits).Memory)
	assert.Equal(t, []string{"a"}, again.Extensions["limits"].(limits).Hosts)
}

func TestCopyValue(t *testing.T) {
	n := 3
	cases := []struct {
		Name  string
		Given interface{}
	}{
		{"Nil", nil},
		{"Int", 7},
		{"String", "x"},
		{"IntSlice", []int{1, 2}},
		{"NilSlice", []string(nil)},
		{"Array", [2]int{1, 2}},
		{"Pointer", &n},
		{"NestedMap", map[string]interface{}{"a": []interface{}{1, "b", nil}}},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Given, copyValue(c.Given))
		})
	}
}

func TestJobDocumentWireFormat(t *testing.T) {
	job := NewJob()
	job.SetUser("alice")
	job.SetExecutable("/bin/simulate")
	job.AddFlag("-n")
	job.AddSetenvScript("/opt/setenv.sh")
	job.AddInputTransfer(XROOTD, "beam.root", "root://eos//beam")
	require.Nil(t, job.AddOutputTransfer(LOCAL, "hits.root", "/out"))
	require.Nil(t, job.SetJobIO("sim", "root://eos//logs"))
	job.SetJobName("sim-1")
	job.AddTags("mc")
	require.Nil(t, job.AddGenericKey("priority", 3))

	data, err := json.Marshal(job)

	require.Nil(t, err)
	assert.JSONEq(t, `{
		"user": "alice",
		"executable": "/bin/simulate",
		"exe_args": ["-n"],
		"env": {"type": "script", "file": "/opt/setenv.sh"},
		"input": {"files": [
			{"protocol": "xrootd", "file": "beam.root", "source": "root://eos//beam"}
		]},
		"output": {"files": [
			{"protocol": "local", "file": "hits.root", "destination": "/out"},
			{"protocol": "xrootd", "file": "*.log", "destination": "root://eos//logs"}
		]},
		"stdin": "",
		"stdout": "sim.out.log",
		"stderr": "sim.err.log",
		"jobName": "sim-1",
		"tags": ["mc"],
		"priority": 3
	}`, string(data))
}

func TestTaggedWireFormat(t *testing.T) {
	job := NewJob()
	require.Nil(t, job.AddOutputTransferWithTag(LOCAL, "f1", "/d", "a"))
	require.Nil(t, job.AddOutputTransferWithTag(LOCAL, "f2", "/d", "b"))

	data, err := json.Marshal(job)

	require.Nil(t, err)
	assert.JSONEq(t, `{
		"exe_args": [],
		"input": {"files": []},
		"output": [
			{"tag": "a", "files": [{"protocol": "local", "file": "f1", "destination": "/d"}]},
			{"tag": "b", "files": [{"protocol": "local", "file": "f2", "destination": "/d"}]}
		],
		"tags": []
	}`, string(data))
}

func TestJobSpecUnmarshal(t *testing.T) {
	cases := []struct {
		Name  string
		Build func(j *Job)
	}{
		{
			Name:  "Empty",
			Build: func(j *Job) {},
		},
		{
			Name: "Untagged",
			Build: func(j *Job) {
				j.SetExecutable("/bin/x")
				j.AddInputTransfer(LOCAL, "in", "/src")
				j.AddOutputTransfer(LOCAL, "out", "/dst")
				j.SetJobIO("x", "/logs")
			},
		},
		{
			Name: "Tagged",
			Build: func(j *Job) {
				j.SetUser("bob")
				j.AddSetenvScript("/env.sh")
				j.AddOutputTransferWithTag(XROOTD, "out", "root://a//b", "t")
				j.AddTags("a", "b")
				j.AddGenericKey("site", "cern")
			},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			job := NewJob()
			c.Build(job)
			data, err := json.Marshal(job)
			require.Nil(t, err)

			var decoded JobSpec
			err = json.Unmarshal(data, &decoded)

			require.Nil(t, err)
			assert.Equal(t, job.Serialize(), &decoded)
		})
	}
}

func TestJobSpecUnmarshalBadOutput(t *testing.T) {
	var decoded JobSpec
	err := json.Unmarshal([]byte(`{"output": "nope"}`), &decoded)

	assert.ErrorIs(t, err, errors.ErrInvalidArg)
}

func TestJobSpecUnmarshalNullTransfers(t *testing.T) {
	cases := []struct {
		Name string
		Doc  string
	}{
		{"Input", `{"input": {"files": [null]}}`},
		{"Untagged", `{"output": {"files": [null]}}`},
		{"TaggedGroup", `{"output": [null]}`},
		{"TaggedFile", `{"output": [{"tag": "t", "files": [null]}]}`},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			var decoded JobSpec
			err := json.Unmarshal([]byte(c.Doc), &decoded)

			assert.ErrorIs(t, err, errors.ErrInvalidArg)
		})
	}
}

func TestCopyToleratesNilTransfers(t *testing.T) {
	spec := &JobSpec{
		Input:  InputFiles{Files: []*InputTransfer{nil, {Protocol: LOCAL, File: "a", Source: "/b"}}},
		Output: TaggedOutput{nil, {Tag: "t", Files: []*OutputTransfer{nil}}},
	}

	var c *JobSpec
	assert.NotPanics(t, func() { c = spec.Copy() })
	assert.Equal(t, spec.Input, c.Input)
	assert.Equal(t, spec.Output, c.Output)
}

func TestMarshalRejectsUnknownProtocol(t *testing.T) {
	job := NewJob()
	job.AddInputTransfer(Protocol("ftp"), "in", "/src")

	_, err := json.Marshal(job)

	assert.ErrorIs(t, err, errors.ErrInvalidProtocol)
}

func TestValidate(t *testing.T) {
	job := NewJob()
	assert.ErrorIs(t, job.Serialize().Validate(), errors.ErrNoExecutable)

	job.SetExecutable("/bin/true")
	assert.Nil(t, job.Serialize().Validate())
}
