package plan

import (
	"slices"
	"strconv"
	"strings"
)

const (
	// JoinTool is the reserved tool name of the terminal task.
	JoinTool = "join"
	// EndOfPlan marks the end of plan text. Anything after it is ignored.
	EndOfPlan = "<END_OF_PLAN>"
)

// TaskID identifies a task within a plan. Ids are positive and strictly
// increasing in declaration order.
type TaskID int

func (id TaskID) String() string {
	return strconv.Itoa(int(id))
}

// Ref renders the id in reference syntax, e.g. `${3}`.
func (id TaskID) Ref() string {
	return "${" + id.String() + "}"
}

// SegmentKind distinguishes literal text from references inside a value.
type SegmentKind int

const (
	TextSegment SegmentKind = iota
	RefSegment
)

// Segment is one piece of a textual value.
type Segment struct {
	Kind SegmentKind
	Text string // literal text, set for TextSegment
	Ref  TaskID // referenced task, set for RefSegment
}

// ValueKind is the literal shape of an argument value as written in the plan.
type ValueKind int

const (
	StringValue ValueKind = iota // quoted text
	NumberValue                  // numeric literal
	BoolValue                    // true or false
	ListValue                    // [a, b, ...]
	BareValue                    // unquoted text, including a bare ${id}
)

func (k ValueKind) String() string {
	switch k {
	case StringValue:
		return "string"
	case NumberValue:
		return "number"
	case BoolValue:
		return "bool"
	case ListValue:
		return "list"
	case BareValue:
		return "bare"
	default:
		return "unknown"
	}
}

// Value is a parsed argument value.
type Value struct {
	Kind ValueKind
	// Raw is the value exactly as it appeared in the plan text.
	Raw string
	// Segments holds the text of String and Bare values split around
	// references. Number and Bool values keep their text in Raw.
	Segments []Segment
	// Elems holds the elements of a List value.
	Elems []Value
}

// Refs returns every task referenced by the value, in order of appearance.
func (v Value) Refs() []TaskID {
	var refs []TaskID
	for _, seg := range v.Segments {
		if seg.Kind == RefSegment {
			refs = append(refs, seg.Ref)
		}
	}
	for _, e := range v.Elems {
		refs = append(refs, e.Refs()...)
	}
	return refs
}

// SingleRef reports whether the value consists of exactly one reference and
// nothing else.
func (v Value) SingleRef() (TaskID, bool) {
	if v.Kind != StringValue && v.Kind != BareValue {
		return 0, false
	}
	if len(v.Segments) != 1 || v.Segments[0].Kind != RefSegment {
		return 0, false
	}
	return v.Segments[0].Ref, true
}

// Text returns the unquoted text of a String or Bare value with references
// left in `${id}` form. For other kinds it returns Raw.
func (v Value) Text() string {
	if v.Kind != StringValue && v.Kind != BareValue {
		return v.Raw
	}
	var b strings.Builder
	for _, seg := range v.Segments {
		if seg.Kind == RefSegment {
			b.WriteString(seg.Ref.Ref())
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Arg is a named argument of a tool call. Positional arguments are named
// arg0, arg1, ... by position.
type Arg struct {
	Name  string
	Value Value
}

// Task is a single tool invocation parsed from one plan line.
type Task struct {
	ID   TaskID
	Tool string
	Args []Arg
	// Deps is the sorted, de-duplicated set of tasks this task depends on.
	Deps []TaskID
	// Thought is the `Thought:` line that preceded the task, if any.
	Thought string
	// Line is the 1-based line number in the plan text.
	Line int
	// Source is the task line as written.
	Source string
}

// IsJoin reports whether t is the terminal join task.
func (t *Task) IsJoin() bool {
	return t.Tool == JoinTool
}

// Arg returns the argument with the given name.
func (t *Task) Arg(name string) (Arg, bool) {
	for _, a := range t.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

// LiteralArgs returns the arguments as written, keyed by name.
func (t *Task) LiteralArgs() map[string]string {
	out := make(map[string]string, len(t.Args))
	for _, a := range t.Args {
		out[a.Name] = a.Value.Raw
	}
	return out
}

// DependsOn reports whether id is a direct dependency of t.
func (t *Task) DependsOn(id TaskID) bool {
	_, found := slices.BinarySearch(t.Deps, id)
	return found
}

// Plan is an ordered list of tasks whose last element is the join task.
type Plan struct {
	Tasks []*Task
	// Thought is the first `Thought:` line of the plan.
	Thought string
}

// Join returns the terminal join task.
func (p *Plan) Join() *Task {
	return p.Tasks[len(p.Tasks)-1]
}

// Task looks up a task by id.
func (p *Plan) Task(id TaskID) (*Task, bool) {
	i, found := slices.BinarySearchFunc(p.Tasks, id, func(t *Task, id TaskID) int {
		return int(t.ID) - int(id)
	})
	if !found {
		return nil, false
	}
	return p.Tasks[i], true
}

// IDs returns every task id in declaration order, join included.
func (p *Plan) IDs() []TaskID {
	ids := make([]TaskID, len(p.Tasks))
	for i, t := range p.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// Len returns the number of tasks, join included.
func (p *Plan) Len() int {
	return len(p.Tasks)
}

// NextID is the first id a follow-up plan should use.
func (p *Plan) NextID() TaskID {
	return p.Join().ID + 1
}

// String renders the plan back into plan text.
func (p *Plan) String() string {
	var b strings.Builder
	if p.Thought != "" {
		b.WriteString("Thought: " + p.Thought + "\n")
	}
	for _, t := range p.Tasks {
		if t.Thought != "" && t.Thought != p.Thought {
			b.WriteString("Thought: " + t.Thought + "\n")
		}
		b.WriteString(t.ID.String() + ". " + t.Tool + "(")
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Name + "=" + a.Value.Raw)
		}
		b.WriteString(")\n")
	}
	b.WriteString(EndOfPlan)
	return b.String()
}
