package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/RichardoC/aipro/internal/models"
	"github.com/RichardoC/aipro/internal/render"
	"github.com/RichardoC/aipro/internal/session"
	"github.com/RichardoC/aipro/internal/task"
	"go.uber.org/zap"
)

const (
	sessionCookie = "aipro_session"
	maxBodyBytes  = 1 << 20
)

type Handler struct {
	tasks    *task.Service
	sessions *session.Manager
	render   *render.Renderer
	logger   *zap.Logger
}

func NewHandler(tasks *task.Service, sessions *session.Manager, renderer *render.Renderer, logger *zap.Logger) *Handler {
	if renderer == nil {
		renderer = render.New()
	}
	return &Handler{
		tasks:    tasks,
		sessions: sessions,
		render:   renderer,
		logger:   logger,
	}
}

// ResultResponse is a TaskResult plus what the page needs to draw it.
type ResultResponse struct {
	models.TaskResult
	HTML   string         `json:"html,omitempty"`
	Counts *models.Counts `json:"counts,omitempty"`
}

type HistoryResponse struct {
	Turns  []models.Turn `json:"turns"`
	Counts models.Counts `json:"counts"`
}

type OptionsResponse struct {
	ContentTypes         []models.ContentType         `json:"content_types"`
	Lengths              []LengthOption               `json:"lengths"`
	Tones                []models.Tone                `json:"tones"`
	Languages            []models.Language            `json:"languages"`
	DefaultSource        models.Language              `json:"default_source_language"`
	DefaultTarget        models.Language              `json:"default_target_language"`
	ProgrammingLanguages []models.ProgrammingLanguage `json:"programming_languages"`
	Complexities         []models.Complexity          `json:"complexities"`
	ExplanationLevels    []models.ExplanationLevel    `json:"explanation_levels"`
	ChatWindow           int                          `json:"chat_window"`
}

type LengthOption struct {
	Name  models.Length `json:"name"`
	Label string        `json:"label"`
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/content", h.HandleContent)
	mux.HandleFunc("/api/translate", h.HandleTranslate)
	mux.HandleFunc("/api/code/generate", h.HandleGenerateCode)
	mux.HandleFunc("/api/code/explain", h.HandleExplainCode)
	mux.HandleFunc("/api/chat", h.HandleChat)
	mux.HandleFunc("/api/chat/clear", h.ClearChat)
	mux.HandleFunc("/api/chat/history", h.GetHistory)
	mux.HandleFunc("/api/session/end", h.EndSession)
	mux.HandleFunc("/api/options", h.GetOptions)
	mux.HandleFunc("/api/download", h.Download)
	mux.HandleFunc("/healthz", h.Health)
}

func (h *Handler) HandleContent(w http.ResponseWriter, r *http.Request) {
	var req models.ContentRequest
	sess, ok := h.begin(w, r, &req)
	if !ok {
		return
	}
	h.writeResult(w, sess, h.tasks.Content(r.Context(), req))
}

func (h *Handler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslationRequest
	sess, ok := h.begin(w, r, &req)
	if !ok {
		return
	}
	h.writeResult(w, sess, h.tasks.Translate(r.Context(), req))
}

func (h *Handler) HandleGenerateCode(w http.ResponseWriter, r *http.Request) {
	var req models.CodeGenRequest
	sess, ok := h.begin(w, r, &req)
	if !ok {
		return
	}
	h.writeResult(w, sess, h.tasks.GenerateCode(r.Context(), req))
}

func (h *Handler) HandleExplainCode(w http.ResponseWriter, r *http.Request) {
	var req models.CodeExplainRequest
	sess, ok := h.begin(w, r, &req)
	if !ok {
		return
	}
	h.writeResult(w, sess, h.tasks.ExplainCode(r.Context(), req))
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	sess, ok := h.begin(w, r, &req)
	if !ok {
		return
	}
	h.writeResult(w, sess, h.tasks.Chat(r.Context(), sess, req))
}

func (h *Handler) ClearChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess := h.session(w, r)
	if err := h.tasks.ClearChat(sess); err != nil {
		h.logger.Error("Failed to clear chat", zap.String("session", sess.ID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, HistoryResponse{Turns: []models.Turn{}, Counts: models.Counts{}})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess := h.session(w, r)
	turns, err := sess.History.Turns()
	if err != nil {
		h.logger.Error("Failed to get history", zap.String("session", sess.ID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, HistoryResponse{Turns: turns, Counts: models.CountTurns(turns)})
}

// EndSession discards the caller's session, including its chat history.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := h.sessions.End(c.Value); err != nil && !errors.Is(err, session.ErrNotFound) {
			h.logger.Error("Failed to end session", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lengths := make([]LengthOption, 0, len(models.Lengths))
	for _, l := range models.Lengths {
		lengths = append(lengths, LengthOption{Name: l, Label: l.Label()})
	}

	h.writeJSON(w, OptionsResponse{
		ContentTypes:         models.ContentTypes,
		Lengths:              lengths,
		Tones:                models.Tones,
		Languages:            models.Languages,
		DefaultSource:        models.DefaultSourceLanguage,
		DefaultTarget:        models.DefaultTargetLanguage,
		ProgrammingLanguages: models.ProgrammingLanguages,
		Complexities:         models.Complexities,
		ExplanationLevels:    models.ExplanationLevels,
		ChatWindow:           h.tasks.ChatWindow(),
	})
}

// Download serves the last generated content or code of the session as a
// file.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var mode models.TaskMode
	switch r.URL.Query().Get("kind") {
	case "content":
		mode = models.ModeContent
	case "code":
		mode = models.ModeCodeGen
	default:
		http.Error(w, "Query parameter 'kind' must be content or code", http.StatusBadRequest)
		return
	}

	sess := h.session(w, r)
	d, ok := sess.Download(mode)
	if !ok {
		http.Error(w, "Nothing has been generated yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", d.MIMEType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	if _, err := w.Write([]byte(d.Text)); err != nil {
		h.logger.Error("Failed to write download", zap.Error(err))
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{"status": "ok", "sessions": h.sessions.Len()})
}

// begin checks the method, decodes the body into req and resolves the
// session. It writes the error response itself when it returns false.
func (h *Handler) begin(w http.ResponseWriter, r *http.Request, req any) (*session.Session, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return nil, false
	}

	return h.session(w, r), true
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}

	sess, created := h.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (h *Handler) writeResult(w http.ResponseWriter, sess *session.Session, res models.TaskResult) {
	resp := ResultResponse{TaskResult: res}
	if res.OK() {
		resp.HTML = h.render.HTML(res.Text)
		if res.Artifact != nil {
			sess.SetDownload(res.Mode, session.Download{Artifact: *res.Artifact, Text: res.Text})
		}
	}
	if res.Mode == models.ModeChat {
		counts, err := sess.History.Counts()
		if err != nil {
			h.logger.Warn("Failed to count turns", zap.String("session", sess.ID), zap.Error(err))
		} else {
			resp.Counts = &counts
		}
	}

	h.logger.Info("Task completed",
		zap.String("mode", string(res.Mode)),
		zap.String("status", string(res.Status)),
		zap.String("errorKind", string(res.ErrorKind)),
		zap.String("session", sess.ID))

	h.writeJSON(w, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
