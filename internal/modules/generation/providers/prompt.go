package providers

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert assessment generator. Generate educational assessment questions based on the provided lesson content."

const responseShape = `{
  "multiple_choice": [
    {
      "question": "Question text here",
      "choices": ["Choice A", "Choice B", "Choice C", "Choice D"],
      "correct_answer": "Choice A"
    }
  ],
  "identification": [
    {
      "question": "Question text here",
      "correct_answer": "Answer text"
    }
  ],
  "true_or_false": [
    {
      "question": "Statement text here",
      "correct_answer": "True" or "False"
    }
  ]
}
`

// Prompt is the vendor-neutral instruction pair sent for one unit.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the generation instructions. A non-empty
// previousContext lists sections already covered so the provider avoids
// repeating them.
func BuildPrompt(content, previousContext string, opts Options) Prompt {
	var b strings.Builder
	b.WriteString("Generate assessment questions based on this lesson content:\n\n")
	if previousContext != "" {
		b.WriteString("IMPORTANT: The following sections have already been covered. Avoid duplicating questions from these topics:\n\n")
		b.WriteString(previousContext)
		b.WriteString("\n\n")
		b.WriteString("Current section to generate questions from:\n\n")
	}
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString("Question Requirements:\n")
	fmt.Fprintf(&b, "- Multiple Choice: %d questions\n", opts.MultipleChoice)
	fmt.Fprintf(&b, "- Identification: %d questions\n", opts.Identification)
	fmt.Fprintf(&b, "- True/False: %d questions\n", opts.TrueOrFalse)
	fmt.Fprintf(&b, "- Difficulty Level: %s\n\n", opts.difficulty())
	b.WriteString("Return ONLY a valid JSON response with this exact structure:\n")
	b.WriteString(responseShape)
	return Prompt{System: systemPrompt, User: b.String()}
}
