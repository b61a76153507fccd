package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"medilearn/pkg"
)

func TestGenerationPrompt(t *testing.T) {
	for _, difficulty := range Difficulties {
		for _, specialization := range []string{"Cardiology", "Neurology", "Obstetrics and Gynecology"} {
			prompt := GenerationPrompt(specialization, difficulty)
			assert.Contains(t, prompt, specialization)
			assert.Contains(t, prompt, string(difficulty))
			assert.Contains(t, prompt, "3 case studies")
			assert.Contains(t, prompt, "without providing diagnosis")
		}
	}
}

func TestChatPromptRendersHistoryInOrder(t *testing.T) {
	caseStudy := pkg.CaseStudy{RawText: "A 54-year-old man presents with chest pain."}
	conversation := []pkg.Message{
		{Role: pkg.RoleUser, Content: "Is the pain radiating?"},
		{Role: pkg.RoleAssistant, Content: "Good question. Ask about onset too."},
		{Role: pkg.RoleUser, Content: "When did it start?"},
	}

	prompt := ChatPrompt(caseStudy, conversation, "Should I order an ECG?")

	assert.True(t, strings.HasPrefix(prompt, "Case Study: A 54-year-old man presents with chest pain."))
	assert.Contains(t, prompt, "Our Chat History:")
	assert.Contains(t, prompt, "Junior Doctor: Is the pain radiating?\n")
	assert.Contains(t, prompt, "Senior Doctor: Good question. Ask about onset too.\n")
	assert.True(t, strings.HasSuffix(prompt, "Now Junior Doctor said something: Should I order an ECG?"))

	// History must appear in chronological order.
	first := strings.Index(prompt, "Is the pain radiating?")
	second := strings.Index(prompt, "Good question.")
	third := strings.Index(prompt, "When did it start?")
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestChatPromptEmptyHistory(t *testing.T) {
	prompt := ChatPrompt(pkg.CaseStudy{RawText: "case"}, nil, "hello")
	assert.Contains(t, prompt, "Our Chat History:\nNow Junior Doctor said something: hello")
}

func TestEvaluationPromptContainsSchemaAndTranscript(t *testing.T) {
	caseStudy := pkg.CaseStudy{RawText: "A newborn with jaundice."}
	conversation := []pkg.Message{
		{Role: pkg.RoleUser, Content: "I suspect physiological jaundice."},
		{Role: pkg.RoleAssistant, Content: "What would confirm that?"},
	}

	prompt := EvaluationPrompt(caseStudy, conversation)

	// Every schema key the parser requires must be spelled out.
	for _, key := range []string{
		"Diagnostic Accuracy",
		"Reasoning and Correctness",
		"Patient Management",
		"Communication Skills",
		"Time Management",
		"Overall Impression",
		"Feedback",
	} {
		assert.Contains(t, prompt, `"`+key+`"`)
	}
	assert.Contains(t, prompt, "A newborn with jaundice.")
	assert.Contains(t, prompt, "Junior Doctor: I suspect physiological jaundice.")
	assert.Contains(t, prompt, "Senior Doctor: What would confirm that?")
	assert.True(t, strings.HasSuffix(prompt, "Please provide the evaluation in JSON format only."))
}
