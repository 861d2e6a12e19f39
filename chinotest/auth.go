package chinotest

import (
	"context"
	"net/http"
	"strings"
)

type userKey struct{}

func userFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok
}

// authMiddleware accepts the customer Basic credentials or a bearer token
// issued by the token endpoint. Without configured customer credentials every
// request passes, but bearer tokens are still resolved to their user.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		open := s.customerID == ""

		const bearerPrefix = "Bearer "
		switch {
		case auth == "":
			if !open {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
		case strings.HasPrefix(auth, bearerPrefix):
			s.mu.Lock()
			userID, ok := s.tokens[auth[len(bearerPrefix):]]
			s.mu.Unlock()
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid access token")
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), userKey{}, userID))
		default:
			id, key, ok := r.BasicAuth()
			if !ok {
				writeError(w, http.StatusUnauthorized, "authorization header must use Basic or Bearer scheme")
				return
			}
			if !open && (id != s.customerID || key != s.customerKey) {
				writeError(w, http.StatusUnauthorized, "invalid customer credentials")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

type token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// issueToken handles the password and refresh_token grants. The application
// authenticates with Basic credentials.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	clientID, secret, ok := r.BasicAuth()
	s.mu.Lock()
	defer s.mu.Unlock()
	if want, known := s.apps[clientID]; !ok || !known || want != secret {
		writeError(w, http.StatusUnauthorized, "invalid application credentials")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	var userID string
	switch r.PostForm.Get("grant_type") {
	case "password":
		username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
		for _, u := range s.store.users.list(nil) {
			if u.IsActive && u.Username == username && u.Password == password {
				userID = u.ID
				break
			}
		}
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
	case "refresh_token":
		refresh := r.PostForm.Get("refresh_token")
		id, found := s.refresh[refresh]
		if !found {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		delete(s.refresh, refresh)
		userID = id
	default:
		writeError(w, http.StatusBadRequest, "unsupported grant type")
		return
	}

	tok := token{
		AccessToken:  newID(),
		TokenType:    "Bearer",
		ExpiresIn:    36000,
		RefreshToken: newID(),
		Scope:        "read write",
	}
	s.tokens[tok.AccessToken] = userID
	s.refresh[tok.RefreshToken] = userID
	writeJSON(w, http.StatusOK, tok)
}
