package chino

import (
	"context"
	"fmt"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/chino/internal/transport/chinoapi"
)

// AuthService issues user access tokens on behalf of an application.
type AuthService struct{ c *Client }

// AppCredentials identify the application a user logs in through.
type AppCredentials struct {
	ClientID     string
	ClientSecret string
}

// Validate checks that the application id is set.
func (a AppCredentials) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ClientID, validation.Required),
	)
}

// LoginUser exchanges a username and password for a token pair.
// Use Client.WithBearer with the access token to act as the user.
func (s *AuthService) LoginUser(ctx context.Context, app AppCredentials, username, password string) (Token, error) {
	return s.token(ctx, "auth.login", app, chinoapi.PasswordGrant(username, password))
}

// RefreshToken exchanges a refresh token for a new token pair.
func (s *AuthService) RefreshToken(ctx context.Context, app AppCredentials, refreshToken string) (Token, error) {
	return s.token(ctx, "auth.refresh", app, chinoapi.RefreshGrant(refreshToken))
}

func (s *AuthService) token(
	ctx context.Context, op string, app AppCredentials, form url.Values,
) (Token, error) {
	if err := app.Validate(); err != nil {
		return Token{}, fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err)
	}
	start := time.Now()
	tok, err := s.c.tokens.Token(ctx, form, app.ClientID, app.ClientSecret)
	s.c.obs.observe(op, start, err)
	if err != nil {
		return Token{}, fmt.Errorf("%s: %w", op, err)
	}
	return tok, nil
}
