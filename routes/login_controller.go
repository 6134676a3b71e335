package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mbolis/survey-forms/app"
	"github.com/mbolis/survey-forms/httpx"
	"github.com/mbolis/survey-forms/log"
	"github.com/mbolis/survey-forms/routes/middlewares"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login exchanges basic auth credentials for a token pair, returned in the
// body and also set as cookies.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}.Encode()
		r.Body = io.NopCloser(strings.NewReader(body))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body)))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, r)
		if resp.Status() == http.StatusOK {
			if _, err := middlewares.SetTokenCookies(w, resp.Body()); err != nil {
				httpx.LogInternalError(w, "login.cookies", err)
				return
			}
			log.Debugf("login: %s", user)
		} else {
			log.Debugf("login.rejected: %s (%d)", user, resp.Status())
		}
		resp.Flush(w)
	}
}

// Refresh exchanges a refresh token, sent as "Authorization: Refresh <token>",
// for a new token pair.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		resp := middlewares.RefreshToken(app.BearerServer, match[1])
		if resp.Status() == http.StatusOK {
			if _, err := middlewares.SetTokenCookies(w, resp.Body()); err != nil {
				httpx.LogInternalError(w, "refresh.cookies", err)
				return
			}
		}
		resp.Flush(w)
	}
}
