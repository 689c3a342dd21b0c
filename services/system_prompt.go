package services

import (
	"fmt"
	"strings"
)

// FallbackAnswer is the reply expected when the context does not contain the answer.
const FallbackAnswer = "I don't have enough information."

const answerPromptTemplate = `Based on the following context, answer the question.
If the answer is not in the context, say "%s"

Context:
%s

Question: %s

Answer:`

// BuildAnswerPrompt embeds the retrieved context and the question in a single prompt.
func BuildAnswerPrompt(question, contextText string) string {
	return fmt.Sprintf(answerPromptTemplate, FallbackAnswer, strings.TrimSpace(contextText), strings.TrimSpace(question))
}
