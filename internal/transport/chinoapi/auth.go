package chinoapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// TokenEndpoint issues and refreshes user access tokens.
const TokenEndpoint = "/auth/token/"

// Token is an OAuth2 token pair issued for a user.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// PasswordGrant builds the form of a password grant.
func PasswordGrant(username, password string) url.Values {
	return url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
}

// RefreshGrant builds the form of a refresh grant.
func RefreshGrant(refreshToken string) url.Values {
	return url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
}

// Token exchanges a grant form for a token, authenticating as the application.
func (c *Client) Token(ctx context.Context, form url.Values, clientID, clientSecret string) (Token, error) {
	var tok Token
	err := c.Do(ctx, Call{
		Method:   http.MethodPost,
		Endpoint: TokenEndpoint,
		Form:     form,
		Auth:     BasicAuth{Username: clientID, Password: clientSecret},
	}, &tok)
	if err != nil {
		return Token{}, fmt.Errorf("token (%s): %w", form.Get("grant_type"), err)
	}
	return tok, nil
}
