package structs

// InputTransfer is a file staged into the job before it runs.
type InputTransfer struct {
	Protocol Protocol `json:"protocol" yaml:"protocol"`
	File     string   `json:"file" yaml:"file"`
	Source   string   `json:"source" yaml:"source"`
}

// OutputTransfer is a file shipped out of the job once it finishes.
type OutputTransfer struct {
	Protocol    Protocol `json:"protocol" yaml:"protocol"`
	File        string   `json:"file" yaml:"file"`
	Destination string   `json:"destination" yaml:"destination"`
}

// InputFiles wraps the job's input transfers, as the orchestrator expects them
// under a "files" key.
type InputFiles struct {
	Files []*InputTransfer `json:"files"`
}

// Output is the set of output transfers of a job.
//
// A job carries exactly one shape of output: either *UntaggedOutput (a flat list)
// or TaggedOutput (files grouped by routing tag). Nothing else implements this.
type Output interface {
	isOutput()
	copyOutput() Output
}

// UntaggedOutput is a flat, ordered list of output transfers.
type UntaggedOutput struct {
	Files []*OutputTransfer `json:"files"`
}

// OutputGroup is the set of output transfers routed under one tag.
type OutputGroup struct {
	Tag   string            `json:"tag"`
	Files []*OutputTransfer `json:"files"`
}

// TaggedOutput is an ordered list of output groups, at most one per tag.
// Groups are kept in the order their tag was first seen.
type TaggedOutput []*OutputGroup

func (*UntaggedOutput) isOutput() {}
func (TaggedOutput) isOutput()    {}

func (o *UntaggedOutput) copyOutput() Output {
	return &UntaggedOutput{Files: copyOutputTransfers(o.Files)}
}

func (o TaggedOutput) copyOutput() Output {
	out := make(TaggedOutput, len(o))
	for i, g := range o {
		if g == nil {
			continue
		}
		out[i] = &OutputGroup{Tag: g.Tag, Files: copyOutputTransfers(g.Files)}
	}
	return out
}

// Group returns the group for the given tag, if any.
func (o TaggedOutput) Group(tag string) *OutputGroup {
	for _, g := range o {
		if g != nil && g.Tag == tag {
			return g
		}
	}
	return nil
}

func (o TaggedOutput) groups(tag string) []*OutputGroup {
	found := []*OutputGroup{}
	for _, g := range o {
		if g != nil && g.Tag == tag {
			found = append(found, g)
		}
	}
	return found
}

func copyOutputTransfers(in []*OutputTransfer) []*OutputTransfer {
	out := make([]*OutputTransfer, len(in))
	for i, t := range in {
		if t == nil {
			continue
		}
		c := *t
		out[i] = &c
	}
	return out
}

func copyInputTransfers(in []*InputTransfer) []*InputTransfer {
	out := make([]*InputTransfer, len(in))
	for i, t := range in {
		if t == nil {
			continue
		}
		c := *t
		out[i] = &c
	}
	return out
}
