package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"medilearn/internal/core"
	"medilearn/internal/llm"
	"medilearn/internal/pubmed"
	"medilearn/internal/store"
	"medilearn/pkg"
)

// Server bundles the dependencies required by the HTTP handlers.  It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Sessions *store.Registry
	LLM      llm.Client
	PubMed   *pubmed.Client
	Log      *zap.Logger

	ChatMaxTokens       int
	EvaluationMaxTokens int

	validate *validator.Validate
}

// NewServer constructs a Server.
func NewServer(sessions *store.Registry, client llm.Client, pubmedClient *pubmed.Client, chatMaxTokens, evaluationMaxTokens int, log *zap.Logger) *Server {
	return &Server{
		Sessions:            sessions,
		LLM:                 client,
		PubMed:              pubmedClient,
		Log:                 log,
		ChatMaxTokens:       chatMaxTokens,
		EvaluationMaxTokens: evaluationMaxTokens,
		validate:            validator.New(),
	}
}

// ServeHTTP dispatches incoming requests based on the URL path.
// Minimal routing logic is implemented here to keep dependencies light.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	// Create a new session: POST /api/sessions
	case path == "/api/sessions" && r.Method == http.MethodPost:
		s.handleCreateSession(w, r)

	// Static pick lists for the case-selection screen
	case path == "/api/specializations" && r.Method == http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string]any{
			"specializations": core.Specializations,
			"difficulties":    core.Difficulties,
		})

	// Literature search: GET /api/pubmed/search?q=...
	case path == "/api/pubmed/search" && r.Method == http.MethodGet:
		s.handlePubMedSearch(w, r)

	// Session-scoped operations: /api/sessions/{id}[/...]
	case strings.HasPrefix(path, "/api/sessions/"):
		s.dispatchSession(w, r, strings.TrimPrefix(path, "/api/sessions/"))

	default:
		http.NotFound(w, r)
	}
}

// dispatchSession routes the per-session subtree.  rest is the path
// after /api/sessions/, i.e. "{id}" or "{id}/{action...}".
func (s *Server) dispatchSession(w http.ResponseWriter, r *http.Request, rest string) {
	id, action, _ := strings.Cut(rest, "/")
	machine, err := s.Sessions.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.writeJSON(w, http.StatusOK, machine.Snapshot())
	case action == "cases" && r.Method == http.MethodPost:
		s.handleGenerate(w, r, machine)
	case action == "cases/select" && r.Method == http.MethodPost:
		s.handleSelect(w, r, machine)
	case action == "chat/start" && r.Method == http.MethodPost:
		s.handleProceedToChat(w, machine)
	case action == "messages" && r.Method == http.MethodPost:
		s.handleChatMessage(w, r, machine)
	case action == "evaluation" && r.Method == http.MethodPost:
		s.handleEvaluate(w, r, machine)
	case action == "reset" && r.Method == http.MethodPost:
		machine.Reset()
		s.writeJSON(w, http.StatusOK, machine.Snapshot())
	default:
		http.NotFound(w, r)
	}
}

// handleCreateSession creates a fresh session machine and returns its
// ID.  Each caller owns its own session; nothing is shared.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	machine := core.NewMachine(id, s.LLM, s.ChatMaxTokens, s.EvaluationMaxTokens, s.Log)
	s.Sessions.Put(id, machine)
	s.Log.Info("session created", zap.String("session_id", id), zap.Int("live_sessions", s.Sessions.Len()))
	s.writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// handleGenerate asks the machine for a new batch of case studies and
// returns their display texts.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, machine *core.Machine) {
	var req pkg.GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}
	cases, err := machine.GenerateCases(r.Context(), req.Specialization, req.Difficulty)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := pkg.GenerateResponse{Cases: make([]string, 0, len(cases))}
	for _, c := range cases {
		resp.Cases = append(resp.Cases, c.DisplayText)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleSelect picks a case study by index and echoes it back with its
// original formatting intact.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, machine *core.Machine) {
	var req pkg.SelectCaseRequest
	if !s.decode(w, r, &req) {
		return
	}
	selected, err := machine.SelectCase(*req.Index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, selected)
}

// handleProceedToChat moves the session into the chat state.
func (s *Server) handleProceedToChat(w http.ResponseWriter, machine *core.Machine) {
	if err := machine.ProceedToChat(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, machine.Snapshot())
}

// handleChatMessage runs one conversation turn, relaying the streamed
// reply as server-sent events.  Each fragment goes out as a delta
// event; a final done event carries the assembled reply.  A turn that
// fails mid-stream emits an error event instead, and the transcript
// stays as it was.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request, machine *core.Machine) {
	var req pkg.ChatMessageRequest
	if !s.decode(w, r, &req) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	reply, err := machine.Chat(r.Context(), req.Content, func(fragment string) {
		s.sendEvent(w, "delta", map[string]string{"content": fragment})
		flusher.Flush()
	})
	if err != nil {
		s.Log.Warn("chat turn failed", zap.Error(err))
		s.sendEvent(w, "error", pkg.ErrorResponse{Error: err.Error()})
		flusher.Flush()
		return
	}
	s.sendEvent(w, "done", map[string]string{"content": reply})
	flusher.Flush()
}

// handleEvaluate runs the performance evaluation and returns it.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request, machine *core.Machine) {
	ev, err := machine.Evaluate(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ev)
}

// handlePubMedSearch runs the literature lookup.  An empty result list
// is a normal response, not an error.
func (s *Server) handlePubMedSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeJSON(w, http.StatusBadRequest, pkg.ErrorResponse{Error: "query parameter q is required"})
		return
	}
	articles, err := s.PubMed.Search(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]pkg.ArticleResult{"articles": articles})
}

// decode reads and validates a JSON request body.  On failure it writes
// a 400 and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, pkg.ErrorResponse{Error: "invalid JSON body"})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, pkg.ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}

// writeError maps the error kinds onto HTTP statuses.  Guard failures
// are conflicts the client can resolve; gateway and format failures are
// upstream problems; everything else is a plain 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrWrongState),
		errors.Is(err, core.ErrNoCases),
		errors.Is(err, core.ErrBadCaseIndex),
		errors.Is(err, core.ErrNoSelection),
		errors.Is(err, core.ErrNoAssistantTurn):
		status = http.StatusConflict
	case errors.Is(err, core.ErrFormat),
		errors.Is(err, llm.ErrCompletion),
		errors.Is(err, pubmed.ErrLookup):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.Log.Error("unexpected handler error", zap.Error(err))
	}
	s.writeJSON(w, status, pkg.ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Log.Warn("failed to write response", zap.Error(err))
	}
}

// sendEvent writes one named SSE event with a JSON payload.
func (s *Server) sendEvent(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.Log.Warn("failed to encode event", zap.Error(err))
		return
	}
	io.WriteString(w, "event: "+event+"\ndata: "+string(data)+"\n\n")
}
