// Package api is the REST client for the chat backend: message history,
// sends and health. Failures never propagate as errors; callers get an
// empty history or a nil message and decide what to show the user.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ethoschat/ethoschat/internal/chat"
)

// DefaultHistoryLimit bounds a history fetch when the caller passes 0.
const DefaultHistoryLimit = 100

// Client talks to the chat backend's REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New constructs a client for the given base URL (e.g. http://localhost:8080).
func New(baseURL string, logger *zerolog.Logger) *Client {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     l,
	}
}

// sendRequest is the POST body for SendMessage.
type sendRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// FetchMessages returns a room's recent history, oldest first. Any
// failure is logged and reported as an empty slice.
func (c *Client) FetchMessages(ctx context.Context, roomID string, limit int) []chat.Message {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	endpoint := fmt.Sprintf("%s/api/rooms/%s/messages?limit=%d",
		c.baseURL, url.PathEscape(roomID), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.Error().Err(err).Str("room", roomID).Msg("build history request")
		return nil
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("room", roomID).Msg("fetch history")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("room", roomID).Msg("fetch history")
		return nil
	}

	var msgs []chat.Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		c.log.Warn().Err(err).Str("room", roomID).Msg("decode history")
		return nil
	}
	return msgs
}

// SendMessage posts a message and returns the server's echo, or nil on
// any failure. The message is not inserted locally; it arrives over the
// live channel like everyone else's.
func (c *Client) SendMessage(ctx context.Context, roomID, userID, username, text string) *chat.Message {
	body, err := json.Marshal(sendRequest{UserID: userID, Username: username, Text: text})
	if err != nil {
		c.log.Error().Err(err).Msg("marshal send request")
		return nil
	}

	endpoint := fmt.Sprintf("%s/api/rooms/%s/messages", c.baseURL, url.PathEscape(roomID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		c.log.Error().Err(err).Str("room", roomID).Msg("build send request")
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("room", roomID).Msg("send message")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Warn().Int("status", resp.StatusCode).Str("room", roomID).Msg("send message")
		return nil
	}

	var msg chat.Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		c.log.Warn().Err(err).Str("room", roomID).Msg("decode sent message")
		return nil
	}
	return &msg
}

// Health reports whether the backend answers its health probe.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
