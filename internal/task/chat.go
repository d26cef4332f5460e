package task

import (
	"context"
	"fmt"

	"github.com/RichardoC/aipro/internal/models"
	"github.com/RichardoC/aipro/internal/prompt"
	"github.com/RichardoC/aipro/internal/session"
	"go.uber.org/zap"
)

// Chat records the user turn, replays the recent window to the model and
// records the reply. On failure the user turn stays without a reply.
func (s *Service) Chat(ctx context.Context, sess *session.Session, req models.ChatRequest) models.TaskResult {
	const mode = models.ModeChat
	s.enter(mode, StateValidating)

	if err := required(req.Message, "Please type a message."); err != nil {
		return s.reject(mode, err)
	}

	unlock := sess.LockChat()
	defer unlock()

	if sess.Ended() {
		return s.finish(models.TaskResult{
			Mode:         mode,
			Status:       models.StatusFailure,
			ErrorKind:    models.ErrorUnknown,
			ErrorMessage: "This session has ended. Reload the page to start a new one.",
		})
	}

	if _, err := sess.History.Append(models.RoleUser, req.Message); err != nil {
		s.logger.Error("failed to record user turn", zap.String("session", sess.ID), zap.Error(err))
		return s.finish(models.TaskResult{
			Mode:         mode,
			Status:       models.StatusFailure,
			ErrorKind:    models.ErrorUnknown,
			ErrorMessage: err.Error(),
		})
	}

	window, err := sess.History.RecentWindow(s.chatWindow)
	if err != nil {
		s.logger.Error("failed to load chat window", zap.String("session", sess.ID), zap.Error(err))
		return s.finish(models.TaskResult{
			Mode:           mode,
			Status:         models.StatusFailure,
			ErrorKind:      models.ErrorUnknown,
			ErrorMessage:   err.Error(),
			HistoryChanged: true,
		})
	}

	res := s.call(ctx, mode, prompt.Chat(window, s.chatWindow))
	res.HistoryChanged = true
	if res.OK() {
		if _, err := sess.History.Append(models.RoleAssistant, res.Text); err != nil {
			s.logger.Error("failed to record assistant turn", zap.String("session", sess.ID), zap.Error(err))
			res = models.TaskResult{
				Mode:           mode,
				Status:         models.StatusFailure,
				ErrorKind:      models.ErrorUnknown,
				ErrorMessage:   fmt.Sprintf("reply received but could not be saved: %v", err),
				HistoryChanged: true,
			}
		}
	}
	return s.finish(res)
}

// ClearChat empties the session's history. It waits for a running
// exchange to finish first.
func (s *Service) ClearChat(sess *session.Session) error {
	unlock := sess.LockChat()
	defer unlock()
	if err := sess.History.Clear(); err != nil {
		return err
	}
	s.logger.Debug("chat cleared", zap.String("session", sess.ID))
	return nil
}
