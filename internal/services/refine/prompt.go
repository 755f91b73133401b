package refine

import (
	"fmt"
	"strings"
)

// truncationMarker is appended whenever input is cut at the character
// ceiling, so readers can tell tail content was dropped deliberately.
const truncationMarker = "\n\n[... text truncated for processing ...]"

// promptTemplate constrains the remote model to repair work only: spelling,
// grammar and structure. It must never add, remove or summarize content; the
// safety gate backstops the cases where it does anyway.
const promptTemplate = `You are an academic text editor.

Your task is to clean and restructure OCR-extracted academic text.

You MUST:
- Fix spelling mistakes
- Fix grammar
- Reconstruct broken sentences
- Organize content into headings and bullet points

You MUST NOT:
- Add new information
- Remove original meaning
- Introduce explanations or examples not present in the text

Do NOT summarize.
Do NOT invent content.

OCR TEXT:
"""
%s
"""`

// buildPrompt embeds the cleaned OCR text verbatim inside the delimited block
// of the instruction template.
func buildPrompt(cleanedText string) string {
	return strings.TrimSpace(fmt.Sprintf(promptTemplate, cleanedText))
}

// truncateInput enforces the input character ceiling, protecting against
// unbounded cost and latency at the deliberate price of tail content.
func truncateInput(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + truncationMarker
}
