package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/oauth"
	"github.com/mbolis/survey-forms/httpx"
	"github.com/stretchr/testify/assert"
)

func withClaims(claims map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	return r.WithContext(context.WithValue(r.Context(), oauth.ClaimsContext, claims))
}

func TestUserID(t *testing.T) {
	id, ok := UserID(withClaims(map[string]string{httpx.ClaimUserID: "42"}))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = UserID(withClaims(map[string]string{httpx.ClaimUserID: "x"}))
	assert.False(t, ok)

	_, ok = UserID(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin(withClaims(map[string]string{httpx.ClaimRoles: "user,admin"})))
	assert.False(t, IsAdmin(withClaims(map[string]string{httpx.ClaimRoles: httpx.RoleUser})))
	assert.False(t, IsAdmin(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	called := false
	h := OptionalAuth("0123456789abcdef0123456789abcdef")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)

	called = false
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSetAndClearTokenCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	token, err := SetTokenCookies(rec, []byte(`{"access_token":"a","refresh_token":"r","expires_in":120}`))
	assert.NoError(t, err)
	assert.Equal(t, "a", token)

	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 2) {
		assert.Equal(t, "access_token", cookies[0].Name)
		assert.Equal(t, 120, cookies[0].MaxAge)
		assert.Equal(t, "r", cookies[1].Value)
	}

	rec = httptest.NewRecorder()
	ClearTokenCookies(rec)
	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge)
	}
}
