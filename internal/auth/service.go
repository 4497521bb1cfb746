// Package auth implements the login flow: a username is resolved to a
// reputation score, which decides room eligibility. Identity itself is
// provided externally; there is no password or token exchange here.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ethoschat/ethoschat/internal/chat"
)

// ErrInvalidUsername is returned when the username doesn't meet constraints.
var ErrInvalidUsername = errors.New("invalid username")

// ScoreResolver resolves a username to a reputation score.
type ScoreResolver interface {
	Lookup(ctx context.Context, username string) int
}

// Service provides the login operation.
type Service struct {
	scores ScoreResolver
	log    zerolog.Logger
}

// NewService creates an authentication service backed by a score resolver.
func NewService(scores ScoreResolver, logger *zerolog.Logger) *Service {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Service{scores: scores, log: l}
}

// Login validates the username, resolves its score and returns the user.
func (s *Service) Login(ctx context.Context, username string) (*chat.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if len(username) < 1 || len(username) > 32 {
		return nil, ErrInvalidUsername
	}

	userScore := s.scores.Lookup(ctx, username)
	user := &chat.User{
		ID:       uuid.NewString(),
		Username: username,
		Score:    userScore,
	}

	s.log.Info().Str("username", username).Int("score", userScore).Msg("user logged in")
	return user, nil
}
