package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/oauth"
	"github.com/mbolis/survey-forms/config"
	"github.com/mbolis/survey-forms/log"
	"github.com/mbolis/survey-forms/store"
)

// Refresh tokens live for a year, access tokens for config.TokenTTL.
const refreshTokenTTL = 8760 * time.Hour

// Claims carried by access tokens.
const (
	ClaimUserID = "uid"
	ClaimRoles  = "roles"

	RoleAdmin = "admin"
	RoleUser  = "user"
)

var errRefresh = errors.New("could not refresh")

type credentialsVerifier struct {
	store *store.Store
}

func NewBearerServer(st *store.Store, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(st), nil)
}

func CredentialsVerifier(st *store.Store) oauth.CredentialsVerifier {
	return &credentialsVerifier{st}
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	_, err := cs.store.VerifyPassword(r.Context(), username, password)
	if err != nil {
		log.Debugf("credentials.validate_user: %s", err)
	}
	return err
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.store.StoreToken(context.Background(), credential, tokenID, refreshTokenID, time.Now().Add(refreshTokenTTL))
}

func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	expiration, err := cs.store.ConsumeToken(context.Background(), credential, tokenID, refreshTokenID)
	if err != nil {
		log.Debugf("credentials.validate_token: %s", err)
		return errRefresh
	}
	if expiration.Before(time.Now()) {
		return errRefresh
	}
	return nil
}

func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	user, err := cs.store.GetUserByUsername(r.Context(), credential)
	if err != nil {
		return nil, err
	}

	role := RoleUser
	if user.IsAdmin {
		role = RoleAdmin
	}
	return map[string]string{
		ClaimUserID: strconv.FormatInt(user.ID, 10),
		ClaimRoles:  role,
	}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
