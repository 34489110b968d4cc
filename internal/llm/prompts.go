package llm

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/specialistvlad/burstplan/internal/registry"
)

const plannerSystemTemplate = `Given a user query, create a plan to solve it with the utmost parallelizability. Each plan should comprise an action from the following %d types:
%s
%d. join(): Collects and combines results from prior actions.

 - An LLM agent is called upon invoking join() to either finalize the user query or wait until the plans are executed.
 - join should always be the last action in the plan, and will be called in two scenarios:
   (a) if the answer can be determined by gathering the outputs from tasks to generate the final response.
   (b) if the answer cannot be determined in the planning phase before you execute the plans.

Guidelines:
 - Each action described above contains input/output types and description.
 - You must strictly adhere to the input and output types for each action.
 - The action descriptions contain the guidelines. You MUST strictly follow those guidelines when you use the actions.
 - Each action in the plan should strictly be one of the above types. Follow the Python conventions for each action.
 - Each action MUST have a unique ID, which is strictly increasing.
 - Inputs for actions can either be constants or outputs from preceding actions. In the latter case, use the format ${ID} to denote the ID of the previous action whose output will be the input.
 - Always call join as the last action in the plan. Say '<END_OF_PLAN>' after you call join.
 - Ensure the plan maximizes parallelizability.
 - Only use the provided action types. If a query cannot be addressed using these, invoke the join action for the next steps.
 - Never introduce new actions other than the ones provided.
%s`

const replanInstructions = ` - You are given "Previous Plan" which is the plan that the previous agent created along with the execution results (given as Observation) of each plan and a general thought (given as Thought) about the executed results. You MUST use these information to create the next plan under "Current Plan".
 - When starting the Current Plan, you should start with "Thought" that outlines the strategy for the next plan.
 - In the Current Plan, you should NEVER repeat the actions that are already executed in the Previous Plan.
 - You must continue the task index from the end of the previous one. Do not repeat task indices.
`

// PlannerSystemPrompt renders the planner instructions for the given tools.
func PlannerSystemPrompt(tools []registry.Descriptor, replan bool) string {
	var sb strings.Builder
	for i, t := range tools {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, t.Name, t.Description)
	}
	extra := ""
	if replan {
		extra = replanInstructions
	}
	return fmt.Sprintf(plannerSystemTemplate, len(tools)+1, strings.TrimRight(sb.String(), "\n"), len(tools)+1, extra)
}

// PlannerUserPrompt renders the transcript the planner continues from.
func PlannerUserPrompt(query, transcript string, replan bool, startAt plan.TaskID) string {
	if !replan {
		return "Question: " + query
	}
	return fmt.Sprintf("Question: %s\n\nPrevious Plan:\n%s\n\nCurrent Plan: - Begin counting at: %d", query, transcript, startAt)
}

const joinerSystemPrompt = `Solve a question answering task. Here are some guidelines:
 - In the Assistant Scratchpad, you will be given results of a plan you have executed to answer the user's question.
 - Thought needs to reason about the question based on the Observations in 1-2 sentences.
 - Ignore irrelevant action results.
 - If the required information is present, give a concise but complete and helpful answer to the user's question.
 - If you are unable to give a satisfactory finishing answer, replan to get the required information. Respond in the following format:

Reply with a single JSON object and nothing else:
{"thought": "<your reasoning>", "action": "finalize" or "replan", "answer": "<final response when finalizing>", "feedback": "<analysis of what went wrong and what to change when replanning>"}

Available actions:
 (1) finalize: returns the answer and finishes the task.
 (2) replan: asks for another plan, with feedback explaining what is missing.`

const joinerFinalNote = "\n\nThis is the last permitted round. You MUST finalize with the best answer the observations support."

// JoinerUserPrompt renders the decider input for one round.
func JoinerUserPrompt(query, transcript, summary string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", query)
	if transcript != "" {
		fmt.Fprintf(&sb, "Transcript:\n%s\n\n", transcript)
	}
	fmt.Fprintf(&sb, "Assistant Scratchpad:\n%s", summary)
	return sb.String()
}
