package models

type TaskMode string

const (
	ModeContent     TaskMode = "content"
	ModeTranslation TaskMode = "translation"
	ModeCodeGen     TaskMode = "code_generation"
	ModeCodeExplain TaskMode = "code_explanation"
	ModeChat        TaskMode = "chat"
)

var TaskModes = []TaskMode{ModeContent, ModeTranslation, ModeCodeGen, ModeCodeExplain, ModeChat}

// Requests carry the raw form values. Option fields are parsed by the
// controllers so an unknown value surfaces as a validation warning.

type ContentRequest struct {
	Topic       string `json:"topic"`
	ContentType string `json:"content_type"`
	Length      string `json:"length"`
	Tone        string `json:"tone"`
}

type TranslationRequest struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Text       string `json:"text"`
}

type CodeGenRequest struct {
	Language             string `json:"language"`
	Description          string `json:"description"`
	Complexity           string `json:"complexity"`
	IncludeComments      *bool  `json:"include_comments,omitempty"`
	IncludeExamples      *bool  `json:"include_examples,omitempty"`
	IncludeErrorHandling *bool  `json:"include_error_handling,omitempty"`
}

// Checkbox defaults as the form first renders them.
const (
	DefaultIncludeComments      = true
	DefaultIncludeExamples      = true
	DefaultIncludeErrorHandling = false
)

type CodeExplainRequest struct {
	Code             string `json:"code"`
	ExplanationLevel string `json:"explanation_level"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

type ErrorKind string

const (
	ErrorNone              ErrorKind = ""
	ErrorValidation        ErrorKind = "validation"
	ErrorCredentialMissing ErrorKind = "credential_missing"
	ErrorCredentialInvalid ErrorKind = "credential_invalid"
	ErrorNetwork           ErrorKind = "network"
	ErrorEmptyResponse     ErrorKind = "empty_response"
	ErrorCanceled          ErrorKind = "canceled"
	ErrorUnknown           ErrorKind = "unknown"
)

// Artifact describes a downloadable copy of a result's text.
type Artifact struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
}

type TaskResult struct {
	Mode         TaskMode  `json:"mode"`
	Status       Status    `json:"status"`
	Text         string    `json:"text,omitempty"`
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Artifact     *Artifact `json:"artifact,omitempty"`
	PromptTokens int       `json:"prompt_tokens,omitempty"`
	// HistoryChanged tells the UI the chat transcript must be redrawn.
	HistoryChanged bool `json:"history_changed,omitempty"`
}

func (r TaskResult) OK() bool { return r.Status == StatusSuccess }
