package task

import (
	"context"

	"github.com/RichardoC/aipro/internal/models"
	"github.com/RichardoC/aipro/internal/prompt"
	"go.uber.org/multierr"
)

func (s *Service) GenerateCode(ctx context.Context, req models.CodeGenRequest) models.TaskResult {
	const mode = models.ModeCodeGen
	s.enter(mode, StateValidating)

	errs := required(req.Description, "Please describe what you want the code to do.")
	language, err := models.ParseProgrammingLanguage(req.Language)
	errs = multierr.Append(errs, err)
	complexity, err := models.ParseComplexity(req.Complexity)
	errs = multierr.Append(errs, err)
	if errs != nil {
		return s.reject(mode, errs)
	}

	p := prompt.CodeGen(language, req.Description, complexity,
		boolOr(req.IncludeComments, models.DefaultIncludeComments),
		boolOr(req.IncludeExamples, models.DefaultIncludeExamples),
		boolOr(req.IncludeErrorHandling, models.DefaultIncludeErrorHandling))

	res := s.call(ctx, mode, p)
	if res.OK() {
		res.Artifact = &models.Artifact{Filename: CodeFilename(language), MIMEType: textMIME}
	}
	return s.finish(res)
}

func (s *Service) ExplainCode(ctx context.Context, req models.CodeExplainRequest) models.TaskResult {
	const mode = models.ModeCodeExplain
	s.enter(mode, StateValidating)

	errs := required(req.Code, "Please paste code to explain.")
	level, err := models.ParseExplanationLevel(req.ExplanationLevel)
	errs = multierr.Append(errs, err)
	if errs != nil {
		return s.reject(mode, errs)
	}

	return s.finish(s.call(ctx, mode, prompt.CodeExplain(req.Code, level)))
}

func CodeFilename(language models.ProgrammingLanguage) string {
	return "generated_code." + language.Extension()
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
