package math

const description = `math(problem: str, context: Optional[list[str]]) -> float
 - Solves the provided math problem.
 - problem can be either a simple math problem (e.g. "1 + 3") or a word problem (e.g. "how many apples are there if there are 3 apples and 2 apples").
 - You cannot calculate multiple expressions in one call. For instance, math("1 + 3, 2 + 4") does not work. If you need to calculate multiple expressions, you need to call them separately like math("1 + 3") and then math("2 + 4").
 - Minimize the number of math actions as much as possible. For instance, instead of calling 2. math("what is 10% of ${1}") and 3. math("${1} + ${2}"), you MUST instead call 2. math("what is 110% of ${1}").
 - You can optionally provide a list of strings as context to help the agent solve the problem. If there are multiple contexts you need to answer the question, you can provide them as a list of strings.
 - math will not see the output of the previous actions unless you provide it as context. You MUST provide the output of the previous actions as context if you need to do math on it.
 - You MUST NEVER provide search outputs as a variable in the problem argument, because search returns a text blob, not a number. Do 2. math("age of Barack Obama divided by two", context=[${1}]) instead.
 - When you ask a question about context, specify the units. For instance, "What is x in height?" or "What is x in millions?" instead of "What is x?"`

const systemPrompt = `Translate a math problem into a single line arithmetic expression.
The expression may use + - * / % and parentheses, the constants pi and e, and the functions abs, ceil, floor, log(x, base), max, min, pow(x, y), round, signum and sqrt.
Reply with the expression only, inside a text code fence.

Question: What is 37593 * 67?
` + "```text\n37593 * 67\n```" + `

Question: 37593^(1/5)
` + "```text\npow(37593, 1/5)\n```"

const contextPrompt = `The following additional context is provided from other functions. Use it to substitute into any variables or other words in the problem.

Context:
%s

Note that context variables are not defined in the expression. You must extract the relevant numbers and directly put them in the expression.`
