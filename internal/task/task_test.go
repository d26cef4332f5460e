package task

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RichardoC/aipro/internal/history"
	"github.com/RichardoC/aipro/internal/llm"
	"github.com/RichardoC/aipro/internal/models"
	"github.com/RichardoC/aipro/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	mu      sync.Mutex
	text    string
	err     error
	calls   int
	prompts []string
}

func (m *stubModel) Generate(_ context.Context, p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, p)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func (m *stubModel) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func newSession() *session.Session {
	return session.NewManager(nil, 0, nil).Create()
}

func counts(t *testing.T, s *session.Session) models.Counts {
	t.Helper()
	c, err := s.History.Counts()
	require.NoError(t, err)
	return c
}

func TestContentScenario(t *testing.T) {
	model := &stubModel{text: "Renewable energy is great."}
	svc := NewService(model, Options{})

	res := svc.Content(context.Background(), models.ContentRequest{
		Topic:       "renewable energy",
		ContentType: "Blog Post",
		Length:      "Short",
		Tone:        "Friendly",
	})

	require.True(t, res.OK(), res.ErrorMessage)
	assert.Equal(t, "Renewable energy is great.", res.Text)
	require.NotNil(t, res.Artifact)
	assert.Contains(t, res.Artifact.Filename, "renewable_energy")
	assert.Equal(t, "text/plain", res.Artifact.MIMEType)
	assert.Contains(t, model.lastPrompt(), `blog post about "renewable energy"`)
}

func TestContentKeepsTopicAsTyped(t *testing.T) {
	model := &stubModel{text: "ok"}
	svc := NewService(model, Options{})

	res := svc.Content(context.Background(), models.ContentRequest{Topic: "  solar panels "})

	require.True(t, res.OK(), res.ErrorMessage)
	assert.Contains(t, model.lastPrompt(), `about "  solar panels "`)
	assert.Equal(t, "solar_panels_content.txt", res.Artifact.Filename)
}

func TestTranslationSameLanguageProceeds(t *testing.T) {
	model := &stubModel{text: "(unchanged)"}
	svc := NewService(model, Options{})

	res := svc.Translate(context.Background(), models.TranslationRequest{
		SourceLang: "English",
		TargetLang: "English",
		Text:       "good morning",
	})

	require.True(t, res.OK())
	assert.Equal(t, "(unchanged)", res.Text)
	assert.Equal(t, 1, model.calls)
	assert.Contains(t, model.lastPrompt(), "from English to English")
}

func TestTranslationDefaults(t *testing.T) {
	model := &stubModel{text: "hola"}
	svc := NewService(model, Options{})

	res := svc.Translate(context.Background(), models.TranslationRequest{Text: "hello"})

	require.True(t, res.OK())
	assert.Contains(t, model.lastPrompt(), "from English to Spanish")
}

func TestValidationRejectsWithoutCallingModel(t *testing.T) {
	blanks := []string{"", "   ", "\n\t"}

	for _, blank := range blanks {
		model := &stubModel{text: "unused"}
		svc := NewService(model, Options{})
		sess := newSession()

		results := []models.TaskResult{
			svc.Content(context.Background(), models.ContentRequest{Topic: blank}),
			svc.Translate(context.Background(), models.TranslationRequest{Text: blank}),
			svc.GenerateCode(context.Background(), models.CodeGenRequest{Description: blank}),
			svc.ExplainCode(context.Background(), models.CodeExplainRequest{Code: blank}),
			svc.Chat(context.Background(), sess, models.ChatRequest{Message: blank}),
		}

		for i, res := range results {
			assert.Equal(t, models.StatusFailure, res.Status, "result %d", i)
			assert.Equal(t, models.ErrorValidation, res.ErrorKind, "result %d", i)
			assert.NotEmpty(t, res.ErrorMessage, "result %d", i)
			assert.False(t, res.HistoryChanged, "result %d", i)
		}
		assert.Zero(t, model.calls)
		assert.Equal(t, models.Counts{}, counts(t, sess))
	}
}

func TestUnknownOptionRejected(t *testing.T) {
	model := &stubModel{text: "unused"}
	svc := NewService(model, Options{})

	res := svc.Content(context.Background(), models.ContentRequest{Topic: "x", Tone: "Grumpy"})
	assert.Equal(t, models.ErrorValidation, res.ErrorKind)
	assert.Contains(t, res.ErrorMessage, "Grumpy")

	res = svc.GenerateCode(context.Background(), models.CodeGenRequest{Language: "COBOL", Complexity: "Wizard"})
	assert.Equal(t, models.ErrorValidation, res.ErrorKind)
	assert.Contains(t, res.ErrorMessage, "describe")
	assert.Contains(t, res.ErrorMessage, "COBOL")
	assert.Contains(t, res.ErrorMessage, "Wizard")

	assert.Zero(t, model.calls)
}

func TestGenerateCode(t *testing.T) {
	model := &stubModel{text: "fn main() {}"}
	svc := NewService(model, Options{})
	no := false

	res := svc.GenerateCode(context.Background(), models.CodeGenRequest{
		Language:        "Rust",
		Description:     "hello world",
		Complexity:      "Advanced",
		IncludeExamples: &no,
	})

	require.True(t, res.OK())
	require.NotNil(t, res.Artifact)
	assert.Equal(t, "generated_code.rs", res.Artifact.Filename)
	p := model.lastPrompt()
	assert.Contains(t, p, "Generate Rust code")
	assert.Contains(t, p, "Include comments: true")
	assert.Contains(t, p, "Include usage examples: false")
	assert.Contains(t, p, "Include error handling: false")
}

func TestExplainCodeHasNoArtifact(t *testing.T) {
	svc := NewService(&stubModel{text: "It prints."}, Options{})

	res := svc.ExplainCode(context.Background(), models.CodeExplainRequest{Code: "print(1)", ExplanationLevel: "Technical"})

	require.True(t, res.OK())
	assert.Nil(t, res.Artifact)
}

func TestChatSuccessAddsTwoTurns(t *testing.T) {
	model := &stubModel{text: "Hi there!"}
	svc := NewService(model, Options{})
	sess := newSession()

	before := counts(t, sess)
	res := svc.Chat(context.Background(), sess, models.ChatRequest{Message: "hello"})

	require.True(t, res.OK())
	assert.True(t, res.HistoryChanged)
	after := counts(t, sess)
	assert.Equal(t, before.Total+2, after.Total)
	assert.Equal(t, before.Assistant+1, after.Assistant)

	turns, err := sess.History.Turns()
	require.NoError(t, err)
	assert.Equal(t, "hello", turns[0].Text)
	assert.Equal(t, models.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Hi there!", turns[1].Text)
	assert.Contains(t, model.lastPrompt(), "user: hello")
}

func TestChatFailureLeavesUserTurn(t *testing.T) {
	model := &stubModel{text: "first reply"}
	svc := NewService(model, Options{})
	sess := newSession()
	require.True(t, svc.Chat(context.Background(), sess, models.ChatRequest{Message: "one"}).OK())

	model.err = &llm.Error{Kind: models.ErrorNetwork, Err: errors.New("dial tcp: connection refused")}
	before := counts(t, sess)
	res := svc.Chat(context.Background(), sess, models.ChatRequest{Message: "two"})

	assert.Equal(t, models.StatusFailure, res.Status)
	assert.Equal(t, models.ErrorNetwork, res.ErrorKind)
	assert.Contains(t, res.ErrorMessage, "connection")
	assert.True(t, res.HistoryChanged)

	after := counts(t, sess)
	assert.Equal(t, before.Total+1, after.Total)
	assert.Equal(t, before.Assistant, after.Assistant)

	turns, err := sess.History.Turns()
	require.NoError(t, err)
	last := turns[len(turns)-1]
	assert.Equal(t, models.RoleUser, last.Role)
	assert.Equal(t, "two", last.Text)
}

type gateModel struct {
	started chan struct{}
	release chan struct{}
}

func (m *gateModel) Generate(context.Context, string) (string, error) {
	close(m.started)
	<-m.release
	return "late reply", nil
}

func TestSessionEndedDuringChatLeavesNoTurns(t *testing.T) {
	store := history.NewMemoryStore()
	mgr := session.NewManager(store, 0, nil)
	sess := mgr.Create()
	model := &gateModel{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(model, Options{})

	done := make(chan models.TaskResult, 1)
	go func() {
		done <- svc.Chat(context.Background(), sess, models.ChatRequest{Message: "hi"})
	}()
	<-model.started

	ended := make(chan error, 1)
	go func() { ended <- mgr.End(sess.ID) }()
	require.Eventually(t, func() bool { return mgr.Len() == 0 }, time.Second, time.Millisecond)

	close(model.release)
	require.True(t, (<-done).OK())
	require.NoError(t, <-ended)

	turns, err := store.Turns(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)
	assert.True(t, sess.Ended())

	res := svc.Chat(context.Background(), sess, models.ChatRequest{Message: "again"})
	assert.Equal(t, models.StatusFailure, res.Status)
	turns, err = store.Turns(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestNetworkErrorForEveryMode(t *testing.T) {
	model := &stubModel{err: &llm.Error{Kind: models.ErrorNetwork, Err: errors.New("timeout")}}
	svc := NewService(model, Options{})

	results := []models.TaskResult{
		svc.Content(context.Background(), models.ContentRequest{Topic: "t"}),
		svc.Translate(context.Background(), models.TranslationRequest{Text: "t"}),
		svc.GenerateCode(context.Background(), models.CodeGenRequest{Description: "t"}),
		svc.ExplainCode(context.Background(), models.CodeExplainRequest{Code: "t"}),
		svc.Chat(context.Background(), newSession(), models.ChatRequest{Message: "t"}),
	}
	for _, res := range results {
		assert.Equal(t, models.StatusFailure, res.Status, res.Mode)
		assert.Equal(t, models.ErrorNetwork, res.ErrorKind, res.Mode)
		assert.Nil(t, res.Artifact, res.Mode)
	}
	assert.Equal(t, 5, model.calls)
}

func TestFailureKinds(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
		want models.ErrorKind
		msg  string
	}{
		{"empty text", "", nil, models.ErrorEmptyResponse, "empty response"},
		{"whitespace text", "  \n", nil, models.ErrorEmptyResponse, "empty response"},
		{"foreign error", "", errors.New("boom"), models.ErrorUnknown, "boom"},
		{"canceled", "", context.Canceled, models.ErrorCanceled, "canceled"},
		{"bad key", "", &llm.Error{Kind: models.ErrorCredentialInvalid, Err: errors.New("401")}, models.ErrorCredentialInvalid, "credential"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubModel{text: tt.text, err: tt.err}, Options{})
			sess := newSession()

			res := svc.Chat(context.Background(), sess, models.ChatRequest{Message: "hi"})

			assert.Equal(t, tt.want, res.ErrorKind)
			assert.Contains(t, strings.ToLower(res.ErrorMessage), tt.msg)
			assert.Equal(t, models.Counts{Total: 1, User: 1}, counts(t, sess))
		})
	}
}

func TestChatPromptUsesRecentWindow(t *testing.T) {
	model := &stubModel{text: "ok"}
	svc := NewService(model, Options{ChatWindow: 2})
	sess := newSession()

	for _, msg := range []string{"alpha", "bravo", "charlie"} {
		require.True(t, svc.Chat(context.Background(), sess, models.ChatRequest{Message: msg}).OK())
	}

	p := model.lastPrompt()
	assert.NotContains(t, p, "alpha")
	assert.NotContains(t, p, "bravo")
	assert.Contains(t, p, "assistant: ok\nuser: charlie")
}

func TestClearChat(t *testing.T) {
	svc := NewService(&stubModel{text: "ok"}, Options{})
	sess := newSession()
	svc.Chat(context.Background(), sess, models.ChatRequest{Message: "hi"})

	require.NoError(t, svc.ClearChat(sess))
	assert.Equal(t, models.Counts{}, counts(t, sess))
}

func TestConcurrentChatsDoNotInterleave(t *testing.T) {
	svc := NewService(&stubModel{text: "reply"}, Options{})
	sess := newSession()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Chat(context.Background(), sess, models.ChatRequest{Message: "ping"})
		}()
	}
	wg.Wait()

	turns, err := sess.History.Turns()
	require.NoError(t, err)
	require.Len(t, turns, 40)
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, models.RoleUser, turns[i].Role)
		assert.Equal(t, models.RoleAssistant, turns[i+1].Role)
	}
}

func TestStateTransitions(t *testing.T) {
	var states []State
	record := func(_ models.TaskMode, s State) { states = append(states, s) }

	svc := NewService(&stubModel{text: "ok"}, Options{OnState: record})
	svc.ExplainCode(context.Background(), models.CodeExplainRequest{Code: "x"})
	assert.Equal(t, []State{StateValidating, StateCalling, StateDone, StateIdle}, states)

	states = nil
	svc.ExplainCode(context.Background(), models.CodeExplainRequest{})
	assert.Equal(t, []State{StateValidating, StateRejected, StateIdle}, states)
}

func TestContentFilename(t *testing.T) {
	assert.Equal(t, "renewable_energy_content.txt", ContentFilename("renewable energy"))
	assert.Equal(t, "etcpasswd_content.txt", ContentFilename("../etc/passwd"))
	assert.Equal(t, "generated_content.txt", ContentFilename("  "))
}
