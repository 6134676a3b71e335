package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	"github.com/mbolis/survey-forms/httpx"
)

// Authenticated rejects requests without a valid bearer token.
func Authenticated(secret string) func(http.Handler) http.Handler {
	return oauth.Authorize(secret, nil)
}

// OptionalAuth validates a bearer token when one is sent, and lets anonymous
// requests through untouched.
func OptionalAuth(secret string) func(http.Handler) http.Handler {
	authorize := oauth.Authorize(secret, nil)
	return func(next http.Handler) http.Handler {
		authorized := authorize(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			authorized.ServeHTTP(w, r)
		})
	}
}

// Admin middleware to check for the 'admin' role in an OAuth token.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claims(r *http.Request) map[string]string {
	c, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	return c
}

// UserID returns the id of the authenticated user, if any.
func UserID(r *http.Request) (int64, bool) {
	raw, ok := claims(r)[httpx.ClaimUserID]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// IsAdmin reports whether the token carries the admin role.
func IsAdmin(r *http.Request) bool {
	rolesClaim, ok := claims(r)[httpx.ClaimRoles]
	if !ok {
		return false
	}
	for _, role := range strings.Split(rolesClaim, ",") {
		if role == httpx.RoleAdmin {
			return true
		}
	}
	return false
}

// CookieAuth lets browsers reach GET endpoints, such as CSV downloads, with
// the tokens set as cookies at login. An expired access token is refreshed
// transparently with the refresh_token cookie.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.Header.Get("authorization") != "" {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie("access_token")
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
			}

			refreshToken, err := r.Cookie("refresh_token")
			if err != nil {
				// no cookies at all: let the token check answer
				r.Header.Del("authorization")
				h.ServeHTTP(w, r)
				return
			}

			resp := RefreshToken(bearerServer, refreshToken.Value)
			if resp.Status() != http.StatusOK {
				ClearTokenCookies(w)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			accessToken, err := SetTokenCookies(w, resp.Body())
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			r.Header.Set("authorization", "Bearer "+accessToken)
			h.ServeHTTP(w, r)
		})
	}
}

// RefreshToken asks the bearer server for a new token pair.
func RefreshToken(bearerServer *oauth.BearerServer, refreshToken string) httpx.ResponseBuffer {
	body := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}.Encode()

	resp := httpx.NewResponseBuffer()
	req, err := http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		resp.WriteHeader(http.StatusInternalServerError)
		return resp
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))

	bearerServer.UserCredentials(resp, req)
	return resp
}

type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    float64 `json:"expires_in"`
}

// SetTokenCookies stores the tokens of a bearer server response as cookies
// and returns the access token.
func SetTokenCookies(w http.ResponseWriter, body []byte) (string, error) {
	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "access_token",
		Value:    tokens.AccessToken,
		MaxAge:   int(tokens.ExpiresIn),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     "refresh_token",
		Value:    tokens.RefreshToken,
		MaxAge:   60 * 60 * 24 * 365,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return tokens.AccessToken, nil
}

func ClearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{"access_token", "refresh_token"} {
		http.SetCookie(w, &http.Cookie{
			Path:   "/",
			Name:   name,
			Value:  "",
			MaxAge: -1,
		})
	}
}
