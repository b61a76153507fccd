package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCaseStudies(t *testing.T) {
	raw := "Here are your cases.\n" +
		"**Case Study 1:** A 60-year-old woman with **sudden** dyspnea.\n" +
		"**Case Study 2:** A child with a persistent cough.\n" +
		"**Case Study 3:** An athlete with syncope on exertion.\n"

	cases, err := SplitCaseStudies(raw)
	require.NoError(t, err)
	require.Len(t, cases, 3)

	assert.Equal(t, "A 60-year-old woman with **sudden** dyspnea.", cases[0].RawText)
	assert.Equal(t, "A 60-year-old woman with sudden dyspnea.", cases[0].DisplayText)
	assert.Equal(t, "A child with a persistent cough.", cases[1].DisplayText)
	assert.Equal(t, "An athlete with syncope on exertion.", cases[2].DisplayText)
}

func TestSplitCaseStudiesMinimal(t *testing.T) {
	cases, err := SplitCaseStudies("**Case Study 1:** A\n**Case Study 2:** B")
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "A", cases[0].DisplayText)
	assert.Equal(t, "B", cases[1].DisplayText)
}

func TestSplitCaseStudiesEmptyInput(t *testing.T) {
	_, err := SplitCaseStudies("")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSplitCaseStudiesNoDelimiter(t *testing.T) {
	_, err := SplitCaseStudies("The model refused to generate case studies today.")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSplitCaseStudiesDropsEmptySegments(t *testing.T) {
	raw := "**Case Study 1:**   \n**Case Study 2:** Something real."
	cases, err := SplitCaseStudies(raw)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "Something real.", cases[0].DisplayText)
}

func TestStripEmphasisIdempotent(t *testing.T) {
	raw := "**Case Study 1:** A patient with **severe** *fatigue*.\n**Case Study 2:** B"
	cases, err := SplitCaseStudies(raw)
	require.NoError(t, err)

	for _, c := range cases {
		assert.NotContains(t, c.DisplayText, "*")
		// Re-stripping changes nothing.
		assert.Equal(t, c.DisplayText, StripEmphasis(c.DisplayText))
		// Display text is the raw text with only the markers removed.
		assert.Equal(t, c.DisplayText, StripEmphasis(c.RawText))
	}
}

const validEvaluationJSON = `{
	"Diagnostic Accuracy": {"Score": 7, "Comments": "Reached the right differential."},
	"Reasoning and Correctness": {"Score": 8, "Comments": "Sound step-by-step logic."},
	"Patient Management": {"Score": 6, "Comments": "Missed a follow-up plan."},
	"Communication Skills": {"Score": 9, "Comments": "Clear and empathetic."},
	"Time Management": {"Score": 5, "Comments": "Ordered redundant tests."},
	"Overall Impression": {"Score": 7, "Comments": "Solid performance overall."},
	"Feedback": "Work on narrowing the test battery earlier."
}`

func TestParseEvaluation(t *testing.T) {
	ev, err := ParseEvaluation(validEvaluationJSON)
	require.NoError(t, err)

	assert.Equal(t, 7, ev.DiagnosticAccuracy.Score)
	assert.Equal(t, 8, ev.ReasoningAndCorrectness.Score)
	assert.Equal(t, 6, ev.PatientManagement.Score)
	assert.Equal(t, 9, ev.CommunicationSkills.Score)
	assert.Equal(t, 5, ev.TimeManagement.Score)
	assert.Equal(t, 7, ev.OverallImpression.Score)
	assert.Equal(t, "Work on narrowing the test battery earlier.", ev.Feedback)
	assert.Equal(t, "Clear and empathetic.", ev.CommunicationSkills.Comments)
}

func TestParseEvaluationWrappedInProseAndFences(t *testing.T) {
	raw := "Sure! Here is the evaluation you asked for:\n\n```json\n" +
		validEvaluationJSON +
		"\n```\n\nLet me know if you need anything else."

	ev, err := ParseEvaluation(raw)
	require.NoError(t, err)
	assert.Equal(t, 7, ev.OverallImpression.Score)
	assert.NotEmpty(t, ev.Feedback)
}

func TestParseEvaluationBracesInsideStrings(t *testing.T) {
	raw := strings.Replace(validEvaluationJSON,
		"Clear and empathetic.",
		"Clear, used {SBAR} structure well.", 1)
	ev, err := ParseEvaluation("Result: " + raw)
	require.NoError(t, err)
	assert.Equal(t, "Clear, used {SBAR} structure well.", ev.CommunicationSkills.Comments)
}

func TestParseEvaluationMissingCategory(t *testing.T) {
	raw := strings.Replace(validEvaluationJSON, `"Time Management"`, `"Pacing"`, 1)
	_, err := ParseEvaluation(raw)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "Time Management")
}

func TestParseEvaluationMissingFeedback(t *testing.T) {
	raw := strings.Replace(validEvaluationJSON, `"Feedback"`, `"Summary"`, 1)
	_, err := ParseEvaluation(raw)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseEvaluationNoJSON(t *testing.T) {
	_, err := ParseEvaluation("The junior doctor did fine, eight out of ten.")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseEvaluationUnbalancedJSON(t *testing.T) {
	_, err := ParseEvaluation(`{"Diagnostic Accuracy": {"Score": 7`)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseEvaluationInvalidJSON(t *testing.T) {
	_, err := ParseEvaluation(`{not json at all}`)
	assert.ErrorIs(t, err, ErrFormat)
}
