package task

import (
	"context"

	"github.com/RichardoC/aipro/internal/models"
	"github.com/RichardoC/aipro/internal/prompt"
	"go.uber.org/multierr"
)

// Translate accepts identical source and target languages and leaves the
// outcome to the model.
func (s *Service) Translate(ctx context.Context, req models.TranslationRequest) models.TaskResult {
	const mode = models.ModeTranslation
	s.enter(mode, StateValidating)

	errs := required(req.Text, "Please enter text to translate.")
	source, err := models.ParseLanguage(req.SourceLang, models.DefaultSourceLanguage)
	errs = multierr.Append(errs, err)
	target, err := models.ParseLanguage(req.TargetLang, models.DefaultTargetLanguage)
	errs = multierr.Append(errs, err)
	if errs != nil {
		return s.reject(mode, errs)
	}

	return s.finish(s.call(ctx, mode, prompt.Translation(source, target, req.Text)))
}
