package materialize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Generator turns a free-form prompt into a template payload.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

const maxGeneratorResponse = 1 << 20

// HTTPGenerator posts {"prompt": ...} to an external service and expects the
// template JSON back, optionally wrapped in a markdown fence.
type HTTPGenerator struct {
	url    string
	client *http.Client
}

func NewHTTPGenerator(url string, timeout time.Duration) *HTTPGenerator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGenerator{url: url, client: &http.Client{Timeout: timeout}}
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generator request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGeneratorResponse))
	if err != nil {
		return nil, fmt.Errorf("generator response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("generator returned %d", resp.StatusCode)
	}
	return []byte(StripFences(string(raw))), nil
}

var fence = regexp.MustCompile("(?is)^```(?:json)?\\s*\\n(.*?)```")

// StripFences unwraps a ```json ... ``` block. Anything else is returned
// trimmed.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}
