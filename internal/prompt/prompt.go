// Package prompt renders the instruction text sent to the model for each
// task mode. Every function is pure.
package prompt

import (
	"fmt"
	"strings"

	"github.com/RichardoC/aipro/internal/models"
)

// DefaultChatWindow is how many recent turns are replayed into a chat prompt.
const DefaultChatWindow = 5

func Content(topic string, contentType models.ContentType, length models.Length, tone models.Tone) string {
	return fmt.Sprintf(`Create a %s about "%s" with the following specifications:
- Length: %s
- Tone: %s
- Make it engaging, well-structured, and informative
- Include relevant examples where appropriate`,
		strings.ToLower(string(contentType)), topic, length.Label(), tone)
}

// Translation does not special-case source == target.
func Translation(source, target models.Language, text string) string {
	return fmt.Sprintf(`Translate the following text from %s to %s.
Provide an accurate and natural translation:

Text: %s`, source, target, text)
}

func CodeGen(language models.ProgrammingLanguage, description string, complexity models.Complexity, includeComments, includeExamples, includeErrorHandling bool) string {
	return fmt.Sprintf(`Generate %s code for the following requirement:
%s

Requirements:
- Complexity level: %s
- Include comments: %t
- Include usage examples: %t
- Include error handling: %t

Provide clean, well-structured, and efficient code.`,
		language, description, complexity, includeComments, includeExamples, includeErrorHandling)
}

func CodeExplain(code string, level models.ExplanationLevel) string {
	return fmt.Sprintf(`Explain the following code in a %s manner:

%s

Please provide:
1. Overall purpose of the code
2. How it works
3. Key concepts used
4. Any potential improvements`, strings.ToLower(string(level)), code)
}

// Chat replays the last window turns of history, oldest first. The latest
// user message must already be the final turn. A window <= 0 means
// DefaultChatWindow.
func Chat(history []models.Turn, window int) string {
	if window <= 0 {
		window = DefaultChatWindow
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	var transcript strings.Builder
	for i, t := range history {
		if i > 0 {
			transcript.WriteString("\n")
		}
		fmt.Fprintf(&transcript, "%s: %s", t.Role, t.Text)
	}

	return fmt.Sprintf(`You are a helpful AI assistant. Respond to the user's message in a friendly and informative way.

Recent conversation:
%s

Please provide a helpful response to the latest user message.`, transcript.String())
}
