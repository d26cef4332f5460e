// Package task turns one user action into at most one model call and a
// TaskResult. Controllers keep no state between actions; the only state
// they touch is the chat history of the session they are handed.
package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RichardoC/aipro/internal/llm"
	"github.com/RichardoC/aipro/internal/metrics"
	"github.com/RichardoC/aipro/internal/models"
	"github.com/RichardoC/aipro/internal/prompt"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Generator is the model boundary. Errors are expected to be *llm.Error;
// anything else is reported as unknown.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type TokenCounter interface {
	Count(text string) int
}

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateCalling    State = "calling"
	StateDone       State = "done"
	StateRejected   State = "rejected"
)

type Options struct {
	// ChatWindow is the number of recent turns replayed to the model.
	ChatWindow int
	Tokens     TokenCounter
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	// OnState, when set, observes every state transition.
	OnState func(mode models.TaskMode, state State)
}

type Service struct {
	model      Generator
	chatWindow int
	tokens     TokenCounter
	metrics    *metrics.Metrics
	logger     *zap.Logger
	onState    func(models.TaskMode, State)
}

func NewService(model Generator, opts Options) *Service {
	s := &Service{
		model:      model,
		chatWindow: opts.ChatWindow,
		tokens:     opts.Tokens,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		onState:    opts.OnState,
	}
	if s.chatWindow <= 0 {
		s.chatWindow = prompt.DefaultChatWindow
	}
	if s.tokens == nil {
		s.tokens = (*llm.TokenCounter)(nil)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *Service) ChatWindow() int { return s.chatWindow }

func (s *Service) enter(mode models.TaskMode, state State) {
	s.logger.Debug("task state", zap.String("mode", string(mode)), zap.String("state", string(state)))
	if s.onState != nil {
		s.onState(mode, state)
	}
}

func (s *Service) reject(mode models.TaskMode, errs error) models.TaskResult {
	msgs := make([]string, 0)
	for _, err := range multierr.Errors(errs) {
		msgs = append(msgs, err.Error())
	}
	s.enter(mode, StateRejected)
	res := models.TaskResult{
		Mode:         mode,
		Status:       models.StatusFailure,
		ErrorKind:    models.ErrorValidation,
		ErrorMessage: strings.Join(msgs, " "),
	}
	return s.finish(res)
}

// call performs the single model call for an action.
func (s *Service) call(ctx context.Context, mode models.TaskMode, p string) models.TaskResult {
	s.enter(mode, StateCalling)
	res := models.TaskResult{Mode: mode, PromptTokens: s.tokens.Count(p)}

	start := time.Now()
	text, err := s.model.Generate(ctx, p)
	s.metrics.ObserveModelCall(mode, time.Since(start))

	if err == nil && strings.TrimSpace(text) == "" {
		err = &llm.Error{Kind: models.ErrorEmptyResponse, Err: llm.ErrEmptyResponse}
	}
	if err != nil {
		kind := llm.KindOf(err)
		if kind == models.ErrorUnknown && errors.Is(err, context.Canceled) {
			kind = models.ErrorCanceled
		}
		res.Status = models.StatusFailure
		res.ErrorKind = kind
		res.ErrorMessage = failureMessage(kind, err)
		s.logger.Warn("task failed",
			zap.String("mode", string(mode)),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return res
	}

	res.Status = models.StatusSuccess
	res.Text = text
	return res
}

func (s *Service) finish(res models.TaskResult) models.TaskResult {
	if res.ErrorKind != models.ErrorValidation {
		s.enter(res.Mode, StateDone)
	}
	s.metrics.ObserveResult(res)
	s.enter(res.Mode, StateIdle)
	return res
}

func failureMessage(kind models.ErrorKind, err error) string {
	switch kind {
	case models.ErrorNetwork:
		return "Could not reach the model service. Check your connection and try again."
	case models.ErrorEmptyResponse:
		return "The model returned an empty response. Try rephrasing your request."
	case models.ErrorCredentialInvalid:
		return "The model service rejected the configured credential."
	case models.ErrorCredentialMissing:
		return "No model credential is configured."
	case models.ErrorCanceled:
		return "The request was canceled."
	}
	return err.Error()
}

// required reports a validation problem when v is empty or whitespace.
func required(v, msg string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New(msg)
	}
	return nil
}
