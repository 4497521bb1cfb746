// Package score resolves a user's credibility score from the reputation
// network. Lookups degrade to a demo score so the app stays usable when
// the network is unreachable.
package score

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultURL is the public score lookup endpoint.
const DefaultURL = "https://api.ethos.network/api/v2/users/by/x"

// Demo scores land in the neutral-established band.
const (
	demoScoreMin  = 800
	demoScoreSpan = 600
)

// Client looks up reputation scores by username.
type Client struct {
	url  string
	http *http.Client
	log  zerolog.Logger
}

// New constructs a score client. An empty url selects DefaultURL.
func New(url string, logger *zerolog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  l,
	}
}

type lookupRequest struct {
	AccountIdsOrUsernames []string `json:"accountIdsOrUsernames"`
}

type lookupResponse struct {
	Score    *int   `json:"score,omitempty"`
	Username string `json:"username,omitempty"`
}

// Lookup returns the score for a username. Any failure, including an
// account with no score, falls back to a demo score.
func (c *Client) Lookup(ctx context.Context, username string) int {
	body, err := json.Marshal(lookupRequest{AccountIdsOrUsernames: []string{username}})
	if err != nil {
		return c.demoScore()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return c.demoScore()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("username", username).Msg("score lookup failed")
		return c.demoScore()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("username", username).Msg("score lookup failed")
		return c.demoScore()
	}

	var users []lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		c.log.Warn().Err(err).Str("username", username).Msg("decode score response")
		return c.demoScore()
	}
	if len(users) == 0 || users[0].Score == nil {
		c.log.Debug().Str("username", username).Msg("no score on record")
		return c.demoScore()
	}
	return *users[0].Score
}

func (c *Client) demoScore() int {
	return demoScoreMin + rand.Intn(demoScoreSpan)
}
