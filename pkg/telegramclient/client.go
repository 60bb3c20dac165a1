/**
 * @description
 * This package provides a client for the Telegram Bot API. It encapsulates
 * the logic for making sendMessage calls with per-user bot credentials,
 * handling request body construction, and surfacing API-level failures as
 * errors so the queue worker can trigger a retry.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package telegramclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the public Telegram Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Client is a client for the Telegram Bot API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Telegram client. An empty baseURL selects the
// public API; tests point it at a local server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sendMessageRequest is the payload for the sendMessage method.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

// SendMessage delivers a Markdown-formatted message to a chat. A non-2xx
// response or an ok=false envelope is returned as an error.
func (c *Client) SendMessage(ctx context.Context, botToken, chatID, text string) error {
	if botToken == "" || chatID == "" {
		return errors.New("telegram bot token and chat id are required")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.BaseURL, botToken)
	payload := sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode telegram request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telegram api returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode telegram response: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram api error %d: %s", envelope.ErrorCode, envelope.Description)
	}

	return nil
}
