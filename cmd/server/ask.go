package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/RichardoC/aipro/internal/models"
	"github.com/RichardoC/aipro/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var askOpts struct {
	topic, contentType, length, tone  string
	source, target, text              string
	language, description, complexity string
	comments, examples, errorHandling bool
	code, level                       string
	outDir                            string
}

var askCmd = &cobra.Command{
	Use:   "ask <content|translation|code_generation|code_explanation|chat> [text]",
	Short: "Run a single task against the model and print the result",
	Long: `ask runs one task without starting the server. The positional text,
when given, fills the main input of the mode (topic, text, description, code or
message). A "-" reads it from stdin.`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"content", "translation", "code_generation", "code_explanation", "chat"},
	RunE:      runAsk,
}

func init() {
	f := askCmd.Flags()
	f.StringVar(&askOpts.topic, "topic", "", "content topic")
	f.StringVar(&askOpts.contentType, "type", "", "content type, e.g. \"Blog Post\"")
	f.StringVar(&askOpts.length, "length", "", "content length (Short, Medium, Long)")
	f.StringVar(&askOpts.tone, "tone", "", "content tone")
	f.StringVar(&askOpts.source, "from", "", "source language")
	f.StringVar(&askOpts.target, "to", "", "target language")
	f.StringVar(&askOpts.text, "text", "", "text to translate")
	f.StringVar(&askOpts.language, "lang", "", "programming language")
	f.StringVar(&askOpts.description, "description", "", "what the generated code should do")
	f.StringVar(&askOpts.complexity, "complexity", "", "code complexity")
	f.BoolVar(&askOpts.comments, "comments", models.DefaultIncludeComments, "include comments in generated code")
	f.BoolVar(&askOpts.examples, "examples", models.DefaultIncludeExamples, "include usage examples in generated code")
	f.BoolVar(&askOpts.errorHandling, "error-handling", models.DefaultIncludeErrorHandling, "include error handling in generated code")
	f.StringVar(&askOpts.code, "code", "", "code to explain")
	f.StringVar(&askOpts.level, "level", "", "explanation level")
	f.StringVarP(&askOpts.outDir, "out", "o", "", "also write downloadable results into this directory")
}

func runAsk(cmd *cobra.Command, args []string) error {
	mode := models.TaskMode(strings.ToLower(args[0]))

	var input string
	if len(args) == 2 {
		input = args[1]
		if input == "-" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			input = string(b)
		}
	}

	a, err := setup(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	res, err := ask(cmd.Context(), a, mode, input, cmd)
	if err != nil {
		return err
	}

	if !res.OK() {
		a.logger.Debug("Task failed", zap.String("mode", string(mode)), zap.String("errorKind", string(res.ErrorKind)))
		return fmt.Errorf("%s", res.ErrorMessage)
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Text)

	if askOpts.outDir != "" && res.Artifact != nil {
		path := filepath.Join(askOpts.outDir, res.Artifact.Filename)
		if err := os.WriteFile(path, []byte(res.Text), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "wrote", path)
	}
	return nil
}

func ask(ctx context.Context, a *app, mode models.TaskMode, input string, cmd *cobra.Command) (models.TaskResult, error) {
	o := askOpts
	switch mode {
	case models.ModeContent:
		return a.tasks.Content(ctx, models.ContentRequest{
			Topic:       or(input, o.topic),
			ContentType: o.contentType,
			Length:      o.length,
			Tone:        o.tone,
		}), nil
	case models.ModeTranslation:
		return a.tasks.Translate(ctx, models.TranslationRequest{
			SourceLang: o.source,
			TargetLang: o.target,
			Text:       or(input, o.text),
		}), nil
	case models.ModeCodeGen:
		return a.tasks.GenerateCode(ctx, models.CodeGenRequest{
			Language:             o.language,
			Description:          or(input, o.description),
			Complexity:           o.complexity,
			IncludeComments:      changed(cmd, "comments", o.comments),
			IncludeExamples:      changed(cmd, "examples", o.examples),
			IncludeErrorHandling: changed(cmd, "error-handling", o.errorHandling),
		}), nil
	case models.ModeCodeExplain:
		return a.tasks.ExplainCode(ctx, models.CodeExplainRequest{
			Code:             or(input, o.code),
			ExplanationLevel: o.level,
		}), nil
	case models.ModeChat:
		// A one-shot chat has no history beyond this exchange.
		sess := session.NewManager(nil, 0, a.logger).Create()
		return a.tasks.Chat(ctx, sess, models.ChatRequest{Message: input}), nil
	default:
		return models.TaskResult{}, fmt.Errorf("unknown mode %q", mode)
	}
}

func or(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// changed returns nil for flags left at their default so the request
// default applies.
func changed(cmd *cobra.Command, name string, v bool) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}
