package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/RichardoC/aipro/internal/models"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	ErrMissingCredential = errors.New("model credential is not set")
	ErrEmptyResponse     = errors.New("model returned no text")
)

// Error is the only error type Client returns.
type Error struct {
	Kind models.ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the classification of err. Errors that did not come from
// Client are Unknown.
func KindOf(err error) models.ErrorKind {
	if err == nil {
		return models.ErrorNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return models.ErrorUnknown
}

var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

func statusCode(err error) int {
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

func classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	kind := models.ErrorUnknown
	switch {
	case errors.Is(err, context.Canceled):
		kind = models.ErrorCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = models.ErrorNetwork
	case errors.Is(err, openai.ErrMissingToken):
		kind = models.ErrorCredentialMissing
	// The openai client reports "choices: []" with an unexported
	// "empty response" error; GenerateFromSinglePrompt uses
	// "empty response from model".
	case errors.Is(err, openai.ErrEmptyResponse),
		strings.Contains(err.Error(), "empty response"):
		kind = models.ErrorEmptyResponse
	default:
		kind = classifyStatus(statusCode(err), err.Error())
		if kind == models.ErrorUnknown && isTransport(err) {
			kind = models.ErrorNetwork
		}
	}
	return &Error{Kind: kind, Err: err}
}

func classifyStatus(code int, body string) models.ErrorKind {
	switch {
	case code == 0:
		return models.ErrorUnknown
	case code == 401, code == 403:
		return models.ErrorCredentialInvalid
	// Gemini answers a bad key with 400 rather than 401.
	case code == 400 && strings.Contains(strings.ToLower(body), "api key"):
		return models.ErrorCredentialInvalid
	case code == 408, code == 429, code >= 500:
		return models.ErrorNetwork
	}
	return models.ErrorUnknown
}

func isTransport(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
