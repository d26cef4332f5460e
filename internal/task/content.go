package task

import (
	"context"
	"strings"
	"unicode"

	"github.com/RichardoC/aipro/internal/models"
	"github.com/RichardoC/aipro/internal/prompt"
	"go.uber.org/multierr"
)

const textMIME = "text/plain"

func (s *Service) Content(ctx context.Context, req models.ContentRequest) models.TaskResult {
	const mode = models.ModeContent
	s.enter(mode, StateValidating)

	errs := required(req.Topic, "Please enter a topic to generate content.")
	contentType, err := models.ParseContentType(req.ContentType)
	errs = multierr.Append(errs, err)
	length, err := models.ParseLength(req.Length)
	errs = multierr.Append(errs, err)
	tone, err := models.ParseTone(req.Tone)
	errs = multierr.Append(errs, err)
	if errs != nil {
		return s.reject(mode, errs)
	}

	res := s.call(ctx, mode, prompt.Content(req.Topic, contentType, length, tone))
	if res.OK() {
		res.Artifact = &models.Artifact{Filename: ContentFilename(req.Topic), MIMEType: textMIME}
	}
	return s.finish(res)
}

// ContentFilename derives a download name from the topic: spaces become
// underscores and characters unsafe in file names are dropped.
func ContentFilename(topic string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case unicode.IsControl(r), strings.ContainsRune(`/\:*?"<>|`, r):
			return -1
		}
		return r
	}, strings.TrimSpace(topic))
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "generated"
	}
	return name + "_content.txt"
}
