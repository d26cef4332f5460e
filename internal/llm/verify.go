package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/RichardoC/aipro/internal/models"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Verify checks that the service accepts the credential by listing models.
// It is meant to run once at startup; a failure should stop the process.
func (c *Client) Verify(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return &Error{Kind: models.ErrorCredentialMissing, Err: ErrMissingCredential}
	}

	base := c.cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	endpoint := strings.TrimSuffix(base, "/") + "/models"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Error{Kind: models.ErrorUnknown, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(fmt.Errorf("fetching model list: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	kind := classifyStatus(resp.StatusCode, string(body))
	return &Error{
		Kind: kind,
		Err:  fmt.Errorf("model list returned %s", resp.Status),
	}
}
