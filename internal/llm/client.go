// Package llm is the single point of contact with the hosted model.
package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/RichardoC/aipro/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	// Timeout bounds one Generate call; zero waits for the service.
	Timeout time.Duration
	// RequestsPerMinute throttles outbound calls; zero disables throttling.
	RequestsPerMinute int
	Temperature       float64
}

type Client struct {
	llm     llms.Model
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New builds the shared client for an OpenAI-compatible endpoint. It does
// not contact the service; call Verify for that.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &Error{Kind: models.ErrorCredentialMissing, Err: ErrMissingCredential}
	}

	httpClient := &http.Client{}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, classify(err)
	}

	c := NewWithModel(model, cfg, logger)
	c.http = httpClient
	return c, nil
}

// NewWithModel wraps an existing langchaingo model.
func NewWithModel(model llms.Model, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		llm:    model,
		cfg:    cfg,
		http:   http.DefaultClient,
		logger: logger,
	}
	if cfg.RequestsPerMinute > 0 {
		every := time.Minute / time.Duration(cfg.RequestsPerMinute)
		c.limiter = rate.NewLimiter(rate.Every(every), 1)
	}
	return c
}

// Generate sends prompt and returns the model's text unaltered. Any error
// is an *Error. There is exactly one outbound call and no retry.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", classify(waitError(ctx, err))
		}
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	var opts []llms.CallOption
	if c.cfg.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(c.cfg.Temperature))
	}

	start := time.Now()
	text, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, opts...)
	if err != nil {
		e := classify(err)
		c.logger.Warn("model call failed",
			zap.String("kind", string(e.Kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", e
	}
	if strings.TrimSpace(text) == "" {
		return "", &Error{Kind: models.ErrorEmptyResponse, Err: ErrEmptyResponse}
	}

	c.logger.Debug("model call completed",
		zap.Int("promptChars", len(prompt)),
		zap.Int("responseChars", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return text, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// waitError prefers the context's own error so cancellation is reported
// as such rather than as a limiter failure.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
