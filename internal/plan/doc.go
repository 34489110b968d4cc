// internal/plan/doc.go

/*
Package plan turns the semi-structured plan text written by a planner into a
typed, immutable Plan.

A plan is a numbered list of tool calls terminated by a join:

	Thought: look both values up, then subtract.
	1. search(query="oldest parrot alive")
	2. search(query="average parrot lifespan")
	3. math(problem="${1} minus ${2}", context=[${1}, ${2}])
	4. join()
	<END_OF_PLAN>

Parsing is strict. Any structural violation (bad call syntax, duplicate or
non-increasing ids, references to tasks that are not declared earlier, a
missing join) yields a *MalformedPlanError that names the offending line and
can be handed back to the planner as guidance for a corrected plan.

The parser knows nothing about tools. It only records, per argument, the
literal shape of the value and every `${id}` reference it contains.
*/
package plan
