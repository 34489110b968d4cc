package plan

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	thoughtRegex = regexp.MustCompile(`^Thought:\s*(.*)$`)
	// taskRegex only recognizes the numbered prefix. Whatever follows must
	// be a well formed call or the line is rejected.
	taskRegex = regexp.MustCompile(`^(\d+)\.\s*(.*)$`)
	callRegex = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)\s*(#\w+)?\s*$`)
)

// Parse converts plan text into a Plan. Lines that are neither thoughts nor
// numbered tasks are ignored; text after the join line or after EndOfPlan is
// discarded.
func Parse(text string) (*Plan, error) {
	p := &Plan{}
	declared := make(map[TaskID]struct{})
	var (
		thought  string
		lastLine int
		joined   bool
	)

	for i, rawLine := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		lastLine = lineNo
		if strings.HasPrefix(line, EndOfPlan) {
			break
		}

		if m := thoughtRegex.FindStringSubmatch(line); m != nil {
			thought = strings.TrimSpace(m[1])
			if p.Thought == "" && len(p.Tasks) == 0 {
				p.Thought = thought
			}
			continue
		}

		m := taskRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		task, err := parseTask(lineNo, line, m[1], m[2], p, declared)
		if err != nil {
			return nil, err
		}
		task.Thought = thought
		thought = ""
		p.Tasks = append(p.Tasks, task)
		declared[task.ID] = struct{}{}

		if task.IsJoin() {
			joined = true
			break
		}
	}

	if len(p.Tasks) == 0 {
		return nil, malformed(0, "", "plan contains no tasks")
	}
	if !joined {
		last := p.Tasks[len(p.Tasks)-1]
		return nil, malformed(lastLine, last.Source, "plan does not end with a join() task")
	}
	return p, nil
}

func parseTask(lineNo int, line, rawID, body string, p *Plan, declared map[TaskID]struct{}) (*Task, error) {
	n, err := strconv.Atoi(rawID)
	if err != nil || n <= 0 {
		return nil, malformed(lineNo, line, "task id %q is not a positive integer", rawID)
	}
	id := TaskID(n)
	if _, dup := declared[id]; dup {
		return nil, malformed(lineNo, line, "task id %d is declared more than once", id)
	}
	if len(p.Tasks) > 0 {
		if prev := p.Tasks[len(p.Tasks)-1].ID; id < prev {
			return nil, malformed(lineNo, line, "task id %d follows %d; ids must be strictly increasing", id, prev)
		}
	}

	call := callRegex.FindStringSubmatch(body)
	if call == nil {
		return nil, malformed(lineNo, line, "expected <tool>(<arguments>)")
	}
	task := &Task{ID: id, Tool: call[1], Line: lineNo, Source: line}

	if task.IsJoin() {
		if strings.TrimSpace(call[2]) != "" {
			return nil, malformed(lineNo, line, "join() takes no arguments")
		}
		task.Deps = make([]TaskID, 0, len(p.Tasks))
		for _, t := range p.Tasks {
			task.Deps = append(task.Deps, t.ID)
		}
		return task, nil
	}

	task.Args, err = parseArgs(call[2])
	if err != nil {
		return nil, malformed(lineNo, line, "%s", err.Error())
	}

	var deps []TaskID
	for _, a := range task.Args {
		for _, ref := range a.Value.Refs() {
			if _, ok := declared[ref]; !ok {
				return nil, malformed(lineNo, line, "argument %q references %s, which is not declared before task %d", a.Name, ref.Ref(), id)
			}
			deps = append(deps, ref)
		}
	}
	slices.Sort(deps)
	task.Deps = slices.Compact(deps)
	return task, nil
}
