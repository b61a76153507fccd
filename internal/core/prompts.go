package core

import (
	"fmt"
	"strings"

	"medilearn/pkg"
)

// prompts.go defines the prompt templates sent to the completion
// provider.  Keeping them in one file makes them easy to tweak without
// touching the orchestration code.  The provider is stateless, so every
// prompt must carry the full context it needs.

const (
	// ChatSystemPrompt frames the assistant as a mentor.  It must never
	// reveal the diagnosis outright; the whole exercise depends on the
	// junior doctor working it out from hints.
	ChatSystemPrompt = "You are a senior doctor mentoring a junior doctor. " +
		"Provide guidance and feedback based on the following case study and junior doctor's input. " +
		"Help him to diagnose the patient and not tell him the diagnose just give him hints."

	// evaluationSchema is the exact JSON shape the evaluation reply must
	// follow.  ParseEvaluation requires every key named here, so the text
	// has to stay in lockstep with pkg.Evaluation.
	evaluationSchema = `{
    "Diagnostic Accuracy": {
        "Score": [Score from 0-10],
        "Comments": "[Specific comments on the accuracy of the diagnosis, including correct and incorrect decisions]"
    },
    "Reasoning and Correctness": {
        "Score": [Score from 0-10],
        "Comments": "[Specific comments on the logical reasoning and correctness of the junior doctor's thought process]"
    },
    "Patient Management": {
        "Score": [Score from 0-10],
        "Comments": "[Specific comments on how well the junior doctor managed the patient, including any recommendations for improvement]"
    },
    "Communication Skills": {
        "Score": [Score from 0-10],
        "Comments": "[Evaluation of how well the junior doctor communicated with the patient, including empathy, clarity, and listening skills]"
    },
    "Time Management": {
        "Score": [Score from 0-10],
        "Comments": "[Assessment of how efficiently the junior doctor managed the consultation time]"
    },
    "Overall Impression": {
        "Score": [Score from 0-10],
        "Comments": "[General comments on the junior doctor's overall performance, including strengths and areas for improvement]"
    },
    "Feedback": "[Detailed feedback highlighting strengths, mistakes, and suggestions for improvement]"
}`
)

// Specializations lists the medical fields offered on the case-selection
// screen.  The generation prompt accepts any string; this list exists so
// a front end can render a picker without hardcoding it.
var Specializations = []string{
	"Cardiology",
	"Neurology",
	"Pediatrics",
	"Oncology",
	"Dermatology",
	"Endocrinology",
	"Gastroenterology",
	"Hematology",
	"Infectious Disease",
	"Nephrology",
	"Orthopedics",
	"Pulmonology",
	"Rheumatology",
	"Urology",
	"Emergency Medicine",
	"Geriatrics",
	"Ophthalmology",
	"Psychiatry",
	"Radiology",
	"Obstetrics and Gynecology",
	"Anesthesiology",
	"Otolaryngology (ENT)",
	"Allergy and Immunology",
}

// Difficulties lists the supported case difficulty levels.
var Difficulties = []pkg.Difficulty{
	pkg.DifficultyBeginner,
	pkg.DifficultyIntermediate,
	pkg.DifficultyExpert,
}

// GenerationPrompt renders the case-generation instruction.  Both
// parameters are embedded verbatim; the model is told to omit the
// diagnosis so the cases stay usable as exercises.
func GenerationPrompt(specialization string, difficulty pkg.Difficulty) string {
	return fmt.Sprintf(
		"Generate 3 case studies for a %s level doctor specializing in %s without providing diagnosis. "+
			"Each case should include detailed patient history, symptoms, and test results.",
		difficulty, specialization,
	)
}

// ChatPrompt renders one chat turn: the case study, the transcript so
// far with roles remapped to the doctor personas, then the new input.
// History must be reproduced verbatim and in order: this prompt is the
// model's only memory.
func ChatPrompt(caseStudy pkg.CaseStudy, conversation []pkg.Message, userInput string) string {
	var b strings.Builder
	b.WriteString("Case Study: ")
	b.WriteString(caseStudy.RawText)
	b.WriteString("\n\nOur Chat History:\n")
	writeTranscript(&b, conversation)
	b.WriteString("Now Junior Doctor said something: ")
	b.WriteString(userInput)
	return b.String()
}

// EvaluationPrompt renders the scoring instruction.  The schema block is
// reproduced byte-for-byte; ParseEvaluation relies on its key names.
func EvaluationPrompt(caseStudy pkg.CaseStudy, conversation []pkg.Message) string {
	var b strings.Builder
	b.WriteString("You are a senior doctor tasked with evaluating a junior doctor's performance ")
	b.WriteString("based on their conversation with a patient.\n")
	b.WriteString("Please provide the evaluation strictly in the following JSON format, without any additional text:\n\n")
	b.WriteString(evaluationSchema)
	b.WriteString("\n\nThe junior doctor was working on the following case study:\n\"")
	b.WriteString(caseStudy.RawText)
	b.WriteString("\"\n\nHere is the full conversation for reference:\n")
	writeTranscript(&b, conversation)
	b.WriteString("\nPlease provide the evaluation in JSON format only.")
	return b.String()
}

// writeTranscript renders the conversation with the domain role labels.
func writeTranscript(b *strings.Builder, conversation []pkg.Message) {
	for _, m := range conversation {
		b.WriteString(speakerLabel(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
}

func speakerLabel(role pkg.MessageRole) string {
	if role == pkg.RoleAssistant {
		return "Senior Doctor"
	}
	return "Junior Doctor"
}
