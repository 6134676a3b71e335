package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/mbolis/survey-forms/model"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, username, email, avatar_url, is_admin, created_at`

func scanUser(row scanner, u *model.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.AvatarURL, &u.IsAdmin, &u.CreatedAt)
}

// CreateUser stores u with a bcrypt hash of password.
func (s *Store) CreateUser(ctx context.Context, u *model.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "store.insert_user.hash")
	}

	ts := now()
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO user (username, email, avatar_url, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		u.Username, u.Email, u.AvatarURL, hash, u.IsAdmin, ts,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return errors.Wrapf(ErrConflict, "store.insert_user: %q", u.Username)
	}
	if err != nil {
		return errors.Wrap(err, "store.insert_user")
	}

	u.CreatedAt = ts
	return nil
}

// EnsureUser creates u unless a user with the same name exists, in which case
// u is overwritten with the stored one.
func (s *Store) EnsureUser(ctx context.Context, u *model.User, password string) (created bool, err error) {
	existing, err := s.GetUserByUsername(ctx, u.Username)
	switch {
	case err == nil:
		*u = existing
		return false, nil
	case !errors.Is(err, ErrNotFound):
		return false, err
	}

	if err = s.CreateUser(ctx, u, password); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM user WHERE id = ?`, id)
	return getUser(row, "store.get_user")
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM user WHERE username = ?`, username)
	return getUser(row, "store.get_user_by_username")
}

func getUser(row *sql.Row, code string) (u model.User, err error) {
	err = scanUser(row, &u)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return u, errors.Wrap(err, code)
}

// VerifyPassword returns the user if password matches, ErrBadCredentials
// otherwise, unknown users included.
func (s *Store) VerifyPassword(ctx context.Context, username, password string) (model.User, error) {
	var hash []byte
	u := model.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`, password_hash
		FROM user
		WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.AvatarURL, &u.IsAdmin, &u.CreatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return u, errors.Wrapf(ErrBadCredentials, "store.verify_password: %q", username)
	}
	if err != nil {
		return u, errors.Wrap(err, "store.verify_password")
	}

	if err = bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return model.User{}, errors.Wrapf(ErrBadCredentials, "store.verify_password: %q", username)
	}
	return u, nil
}

// StoreToken records a refresh token pair until expiration.
func (s *Store) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token (username, token_id, refresh_token_id, expiration)
		VALUES (?, ?, ?, ?)`,
		username,
		tokenID,
		refreshTokenID,
		expiration.UTC(),
	)
	return errors.Wrap(err, "store.insert_token")
}

// ConsumeToken deletes a token pair, so that it can be refreshed once, and
// returns its expiration.
func (s *Store) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error) {
	var expiration time.Time

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return expiration, errors.Wrap(err, "store.begin_tx")
	}
	defer tx.Rollback()

	var rowID int64
	err = tx.QueryRowContext(ctx, `
		SELECT rowid, expiration
		FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`,
		username,
		tokenID,
		refreshTokenID,
	).Scan(&rowID, &expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return expiration, errors.Wrap(ErrNotFound, "store.consume_token")
	}
	if err != nil {
		return expiration, errors.Wrap(err, "store.consume_token")
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM token WHERE rowid = ?`, rowID); err != nil {
		return expiration, errors.Wrap(err, "store.consume_token.delete")
	}
	return expiration, errors.Wrap(tx.Commit(), "store.consume_token.commit")
}
