package prompt

import "fmt"

// Fixed prompt templates per task. These are data, not protocol: they can be
// reworded without touching the pipeline, as long as the risk template keeps
// demanding the JSON schema the extractor feeds into domain.RiskReport.

const riskTemplate = `You are a contract risk reviewer for an SMB.
%s

Use ONLY the provided clauses as evidence. If evidence is not present, do NOT invent it.

Return ONLY a valid JSON object (no markdown fences, no commentary).
Schema:
{
  "risk_score": number,
  "red_flags": [
    {
      "category": string,
      "severity": "LOW"|"MED"|"HIGH"|"CRITICAL",
      "evidence_quote": string,
      "why_risky": string,
      "suggested_fallback": string
    }
  ]
}

CLAUSES:
%s
`

const summaryTemplate = `Summarize key contract terms in plain English for an SMB buyer. Use only provided clauses.
Include: term/renewal, termination, liability cap, indemnity, data/privacy, payment, SLA.
CLAUSES:
%s
Return bullet points.
`

const negotiationTemplate = `Write a professional negotiation email to the vendor requesting changes based on the risks found.
Use the risks below. Include:
- Short intro
- Requested changes (bullets)
- Proposed fallback language suggestions (bullets)
RISKS JSON:
%s
`

const chatTemplate = `You are ClauseCopilot, a helpful legal AI assistant.
Answer the user's question based ONLY on the provided contract context.
If the answer is not in the context, say "I cannot find that information in the contract."
Do not provide general legal advice.

Context from Contract:
%s

Chat History:
%s

User Question: %s
`

// RiskReview builds the structured risk-review prompt from playbook rules
// and the evidence bundle.
func RiskReview(playbookRules, clauses string) string {
	if playbookRules == "" {
		playbookRules = "Identify risks related to: Termination, Liability, Indemnity, Auto-renewal."
	}
	return fmt.Sprintf(riskTemplate, playbookRules, clauses)
}

// Summary builds the plain-English summary prompt.
func Summary(clauses string) string {
	return fmt.Sprintf(summaryTemplate, clauses)
}

// Negotiation builds the vendor negotiation email prompt from the risk
// report JSON.
func Negotiation(risksJSON string) string {
	return fmt.Sprintf(negotiationTemplate, risksJSON)
}

// Chat builds the grounded question-answering prompt.
func Chat(context, history, question string) string {
	return fmt.Sprintf(chatTemplate, context, history, question)
}
