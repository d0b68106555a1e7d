// Package prompt assembles the final generation prompt from the fixed
// candidate persona, the optional retrieved knowledge context, and the live
// transcript window.
//
// Assembly is pure string composition: deterministic, no I/O, no clocks, no
// random identifiers. Identical inputs always produce byte-identical output.
package prompt

import "strings"

// persona is the fixed instruction template framing every answer. Revisions
// bump the trailing version marker so prompt changes are visible in diffs and
// regression tests.
//
// Template version: v2.
const persona = `You are attending a job interview.
You are the candidate, and the interviewer will ask questions one by one.

ANSWERING RULES:
- Always get the answer from KNOWLEDGE BASE first as top preference, then respond.
- Do not overthink.
- Do not show over-smartness or fake confidence.
- Speak in simple, natural spoken English at a beginner level.
- Keep answers short, clear, and practical.
- Sound polite, professional, and honest.

PERSONALITY & APPROACH:
- Be brutally honest, straightforward, and logical.
- Challenge weak assumptions and call out wrong or unrealistic thinking if needed.
- Do not sugarcoat, do not flatter, and do not give empty motivation.
- Avoid vague advice and generic praise.
- Give hard facts, clear reasoning, and actionable feedback.
- Respond like a no-nonsense coach whose goal is improvement, not comfort.
- Push back when required and never give diplomatic or fake answers.

GOAL:
- Answer interview questions naturally.
- Show basic intelligence, a learning mindset, and clarity, without exaggeration.
- Slightly impress the interviewer through logic and honesty, not buzzwords.
`

// delimiter separates the structured blocks appended after the persona.
const delimiter = "--------------------------------"

// Build combines the persona template, the optional knowledge context, and
// the transcript window into the final prompt.
//
// When knowledgeContext is non-empty it is rendered as a delimited KNOWLEDGE
// BASE block ahead of the question block, so the top-preference instruction
// in the persona has something concrete to point at. The transcript is
// embedded verbatim.
func Build(knowledgeContext, transcript string) string {
	var sb strings.Builder
	sb.WriteString(persona)

	if knowledgeContext != "" {
		sb.WriteString("\n")
		sb.WriteString(delimiter)
		sb.WriteString("\nKNOWLEDGE BASE (USE THIS FIRST - TOP PRIORITY FOR ANSWERS):\n")
		sb.WriteString(knowledgeContext)
		sb.WriteString("\n")
		sb.WriteString(delimiter)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(delimiter)
	sb.WriteString("\nINTERVIEWER'S QUESTION (from live transcript):\n")
	sb.WriteString(transcript)
	sb.WriteString("\n")
	sb.WriteString(delimiter)
	sb.WriteString(`

NOW ANSWER THE INTERVIEWER'S QUESTION:
- Use KNOWLEDGE BASE content if relevant.
- Keep it short (2-3 sentences max).
- Sound natural, honest, and practical.
`)

	return sb.String()
}
