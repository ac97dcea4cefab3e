package prompt

import (
	"fmt"
	"strings"
)

// MaxQuestionLen caps what is forwarded to a language model.
const MaxQuestionLen = 2000

// GetSystemPrompt frames the assistant for general imaging questions.
func GetSystemPrompt() string {
	return `You are a medical imaging assistant embedded in a scan analysis tool. Answer general questions about MRI, CT and X-ray imaging, common findings and the analysis process.

Rules:
- Answer in plain text, at most three short paragraphs. No markdown, no code fences.
- You have no access to any patient's scan; never invent findings, measurements or diagnoses.
- When a question needs a clinician, say so and recommend clinical correlation.
- If the question is not about medical imaging, say briefly what you can help with instead.`
}

// GetUserPrompt wraps the caller's question, truncated to MaxQuestionLen.
func GetUserPrompt(question string) string {
	q := strings.TrimSpace(question)
	if len(q) > MaxQuestionLen {
		q = q[:MaxQuestionLen]
	}
	return fmt.Sprintf("Question from a clinician using the scan analysis tool:\n%s", q)
}
