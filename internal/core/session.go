package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"medilearn/internal/llm"
	"medilearn/pkg"
)

// Machine owns one training session and sequences every transition:
// case selection, generation, the chat loop, evaluation and reset.  It
// is the only writer of the underlying pkg.Session.  A mutex serializes
// transitions so a concurrent HTTP host can never have two gateway
// calls in flight for the same session.
type Machine struct {
	mu   sync.Mutex
	sess *pkg.Session

	llm llm.Client
	log *zap.Logger

	chatMaxTokens int
	evalMaxTokens int
}

// NewMachine creates a session in the CaseSelection state.
func NewMachine(id string, client llm.Client, chatMaxTokens, evalMaxTokens int, log *zap.Logger) *Machine {
	return &Machine{
		sess: &pkg.Session{
			ID:        id,
			State:     pkg.StateCaseSelection,
			CreatedAt: time.Now(),
		},
		llm:           client,
		log:           log.With(zap.String("session_id", id)),
		chatMaxTokens: chatMaxTokens,
		evalMaxTokens: evalMaxTokens,
	}
}

// Snapshot returns a copy of the session for read-only use.  Slices are
// copied so callers cannot mutate the live transcript or case list.
func (m *Machine) Snapshot() pkg.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *m.sess
	s.Cases = append([]pkg.CaseStudy{}, m.sess.Cases...)
	s.Conversation = append([]pkg.Message{}, m.sess.Conversation...)
	return s
}

// GenerateCases runs the case-selection → generating → case-selection
// round trip: one completion, split into case studies.  On any failure
// the session keeps its previous cases and state.
func (m *Machine) GenerateCases(ctx context.Context, specialization string, difficulty pkg.Difficulty) ([]pkg.CaseStudy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess.State != pkg.StateCaseSelection {
		return nil, fmt.Errorf("%w: generation requires case selection", ErrWrongState)
	}
	m.sess.State = pkg.StateGenerating
	defer func() { m.sess.State = pkg.StateCaseSelection }()

	prompt := GenerationPrompt(specialization, difficulty)
	raw, err := m.llm.Complete(ctx, prompt, "", 0)
	if err != nil {
		m.log.Warn("case generation failed", zap.Error(err))
		return nil, err
	}
	cases, err := SplitCaseStudies(raw)
	if err != nil {
		m.log.Warn("case generation unparseable", zap.Error(err))
		return nil, err
	}

	m.sess.Specialization = specialization
	m.sess.Difficulty = difficulty
	m.sess.Cases = cases
	m.sess.Selected = nil
	m.log.Info("case studies generated",
		zap.String("specialization", specialization),
		zap.String("difficulty", string(difficulty)),
		zap.Int("count", len(cases)))
	return cases, nil
}

// SelectCase marks one generated case study as the session's scenario.
func (m *Machine) SelectCase(index int) (pkg.CaseStudy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess.State != pkg.StateCaseSelection {
		return pkg.CaseStudy{}, fmt.Errorf("%w: selection requires case selection", ErrWrongState)
	}
	if len(m.sess.Cases) == 0 {
		return pkg.CaseStudy{}, ErrNoCases
	}
	if index < 0 || index >= len(m.sess.Cases) {
		return pkg.CaseStudy{}, fmt.Errorf("%w: index %d of %d cases", ErrBadCaseIndex, index, len(m.sess.Cases))
	}
	selected := m.sess.Cases[index]
	m.sess.Selected = &selected
	return selected, nil
}

// ProceedToChat enters the chat state.  Requires a selected case.
func (m *Machine) ProceedToChat() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess.State != pkg.StateCaseSelection {
		return fmt.Errorf("%w: already past case selection", ErrWrongState)
	}
	if m.sess.Selected == nil {
		return ErrNoSelection
	}
	m.sess.State = pkg.StateChat
	return nil
}

// Chat runs one conversation turn.  The reply is streamed; each
// fragment is passed to onFragment (when non-nil) as it arrives, and
// the stream is drained to completion before anything is committed.  A
// failed turn appends neither message, so the transcript never records
// an exchange the model did not finish.
func (m *Machine) Chat(ctx context.Context, input string, onFragment func(fragment string)) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess.State != pkg.StateChat {
		return "", fmt.Errorf("%w: chat requires an active case", ErrWrongState)
	}

	prompt := ChatPrompt(*m.sess.Selected, m.sess.Conversation, input)
	stream, err := m.llm.Stream(ctx, ChatSystemPrompt, prompt, m.chatMaxTokens)
	if err != nil {
		m.log.Warn("chat stream failed to open", zap.Error(err))
		return "", err
	}
	defer stream.Close()

	var b strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			m.log.Warn("chat stream aborted", zap.Error(err))
			return "", err
		}
		b.WriteString(fragment)
		if onFragment != nil {
			onFragment(fragment)
		}
	}

	reply := b.String()
	m.sess.Conversation = append(m.sess.Conversation,
		pkg.Message{Role: pkg.RoleUser, Content: input},
		pkg.Message{Role: pkg.RoleAssistant, Content: reply},
	)
	m.log.Debug("chat turn completed", zap.Int("transcript_len", len(m.sess.Conversation)))
	return reply, nil
}

// Evaluate runs the chat → evaluating → chat round trip: one
// completion, parsed into a complete Evaluation.  Requires at least one
// senior-doctor reply to score; with none the call is a guarded no-op.
// A parse failure leaves the evaluation unset and the session back in
// chat, so the user can simply retry.
func (m *Machine) Evaluate(ctx context.Context) (*pkg.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess.State != pkg.StateChat {
		return nil, fmt.Errorf("%w: evaluation requires an active chat", ErrWrongState)
	}
	if !hasAssistantTurn(m.sess.Conversation) {
		return nil, ErrNoAssistantTurn
	}
	m.sess.State = pkg.StateEvaluating
	defer func() { m.sess.State = pkg.StateChat }()

	prompt := EvaluationPrompt(*m.sess.Selected, m.sess.Conversation)
	raw, err := m.llm.Complete(ctx, prompt, "", m.evalMaxTokens)
	if err != nil {
		m.log.Warn("evaluation failed", zap.Error(err))
		return nil, err
	}
	ev, err := ParseEvaluation(raw)
	if err != nil {
		m.log.Warn("evaluation unparseable", zap.Error(err))
		return nil, err
	}

	m.sess.Evaluation = ev
	m.log.Info("evaluation stored", zap.Int("overall_score", ev.OverallImpression.Score))
	return ev, nil
}

// Reset returns the session to case selection and clears everything a
// run accumulates.  Valid from any state and never fails.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sess.State = pkg.StateCaseSelection
	m.sess.Specialization = ""
	m.sess.Difficulty = ""
	m.sess.Cases = nil
	m.sess.Selected = nil
	m.sess.Conversation = nil
	m.sess.Evaluation = nil
	m.log.Info("session reset")
}

func hasAssistantTurn(conversation []pkg.Message) bool {
	for _, m := range conversation {
		if m.Role == pkg.RoleAssistant {
			return true
		}
	}
	return false
}
