// Package client issues the widget's outbound requests to the portfolio chat API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/MegaGrindStone/portfolio-chat/internal/endpoint"
	"github.com/MegaGrindStone/portfolio-chat/internal/models"
)

// StatusError is returned when the chat API answers with a non-2xx status.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("chat api returned status %d", e.Code)
	}
	return fmt.Sprintf("chat api returned status %d: %s", e.Code, e.Detail)
}

// Client sends single-message chat requests to the URL its resolver produces for endpoint.Chat.
type Client struct {
	resolver *endpoint.Resolver
	client   *http.Client

	logger *slog.Logger
}

// New creates a Client. A nil httpClient means http.DefaultClient, which has no timeout of its own.
func New(resolver *endpoint.Resolver, httpClient *http.Client, logger *slog.Logger) Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return Client{
		resolver: resolver,
		client:   httpClient,
		logger:   logger.With(slog.String("module", "client")),
	}
}

// Send posts text as the only user message and returns the reply text. Transport failures and non-2xx
// statuses are both errors; nothing is retried.
func (c Client) Send(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(models.ChatRequest{
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	u := c.resolver.URL(endpoint.Chat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Sending chat request", slog.String("url", u))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var res models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	return res.Response, nil
}

// Health fetches the health endpoint.
func (c Client) Health(ctx context.Context) (models.Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolver.URL(endpoint.Health), nil)
	if err != nil {
		return models.Health{}, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Health{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return models.Health{}, err
	}

	var h models.Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return models.Health{}, fmt.Errorf("error decoding response: %w", err)
	}
	return h, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// The detail is only for developer logs, so a short read is enough.
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr models.APIError
	detail := string(bytes.TrimSpace(raw))
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Detail != "" {
		detail = apiErr.Detail
	}
	return &StatusError{Code: resp.StatusCode, Detail: detail}
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
