package pkg

import "time"

// SessionState identifies where a training session is in its lifecycle.
// Generating and Evaluating are transient: they are only held for the
// duration of a single gateway call and the session always settles back
// into CaseSelection or Chat.
type SessionState string

const (
	StateCaseSelection SessionState = "case_selection"
	StateGenerating    SessionState = "generating"
	StateChat          SessionState = "chat"
	StateEvaluating    SessionState = "evaluating"
)

// Difficulty is the requested level of the generated case studies.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyExpert       Difficulty = "Expert"
)

// MessageRole describes who authored a conversation turn.  The user is
// the junior doctor; the assistant plays the senior doctor.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn of the diagnostic conversation.  The transcript is
// append-only and chronological; it is replayed verbatim into every chat
// prompt because the completion provider keeps no state between calls.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// CaseStudy is one generated clinical vignette.  RawText keeps the
// model's markdown emphasis markers for rendering; DisplayText is the
// same text with the markers stripped, used for list display.  The two
// are derived together and never change afterwards.
type CaseStudy struct {
	RawText     string `json:"raw_text"`
	DisplayText string `json:"display_text"`
}

// Category is one scored dimension of a performance evaluation.
type Category struct {
	Score    int    `json:"Score"`
	Comments string `json:"Comments"`
}

// Evaluation is the structured scoring produced at the end of a
// conversation.  It is only ever constructed complete: all six
// categories and the feedback text must be present in the model reply,
// otherwise parsing fails and nothing is stored.
type Evaluation struct {
	DiagnosticAccuracy      Category `json:"Diagnostic Accuracy"`
	ReasoningAndCorrectness Category `json:"Reasoning and Correctness"`
	PatientManagement       Category `json:"Patient Management"`
	CommunicationSkills     Category `json:"Communication Skills"`
	TimeManagement          Category `json:"Time Management"`
	OverallImpression       Category `json:"Overall Impression"`
	Feedback                string   `json:"Feedback"`
}

// Session is the mutable context for one user's run.  It is owned by
// the session machine and must never be shared between users.
type Session struct {
	ID             string       `json:"id"`
	State          SessionState `json:"state"`
	Specialization string       `json:"specialization,omitempty"`
	Difficulty     Difficulty   `json:"difficulty,omitempty"`
	Cases          []CaseStudy  `json:"cases"`
	Selected       *CaseStudy   `json:"selected_case,omitempty"`
	Conversation   []Message    `json:"conversation"`
	Evaluation     *Evaluation  `json:"evaluation,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ArticleResult is one PubMed hit.  It lives only for the duration of a
// single literature search and is not part of the session.
type ArticleResult struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Abstract string `json:"abstract"`
}

// GenerateRequest asks for a fresh batch of case studies.
type GenerateRequest struct {
	Specialization string     `json:"specialization" validate:"required"`
	Difficulty     Difficulty `json:"difficulty" validate:"required,oneof=Beginner Intermediate Expert"`
}

// GenerateResponse lists the generated case studies by display text.
type GenerateResponse struct {
	Cases []string `json:"cases"`
}

// SelectCaseRequest picks a case study from the generated list by index.
type SelectCaseRequest struct {
	Index *int `json:"index" validate:"required"`
}

// ChatMessageRequest carries one junior-doctor message.
type ChatMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
