// Package store persists surveys, questions, responses and users in SQLite.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lestrrat-go/backoff/v2"
	"github.com/mattn/go-sqlite3"
	"github.com/mbolis/survey-forms/log"
	"github.com/mbolis/survey-forms/slug"
	"github.com/pkg/errors"
)

var (
	ErrNotFound       = errors.New("store: not found")
	ErrConflict       = errors.New("store: conflict")
	ErrBadCredentials = errors.New("store: bad credentials")
)

// Unique identifier columns, generated with slug.Generator.
var (
	SurveySlug  = slug.Target{Table: "survey"}
	QuestionKey = slug.Target{Table: "question", Field: "key"}
)

var findQueries = map[string]string{
	SurveySlug.String():  `SELECT id FROM survey WHERE slug = ?`,
	QuestionKey.String(): `SELECT id FROM question WHERE "key" = ?`,
}

type Store struct {
	db    *sql.DB
	slugs *slug.Generator
	retry backoff.Policy
}

type Option func(*Store)

// WithRetryPolicy sets the backoff used when a generated slug or key loses a
// race against a concurrent writer.
func WithRetryPolicy(policy backoff.Policy) Option {
	return func(s *Store) {
		s.retry = policy
	}
}

func WithSlugGenerator(g *slug.Generator) Option {
	return func(s *Store) {
		s.slugs = g
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		slugs: slug.NewGenerator(),
		retry: backoff.Exponential(
			backoff.WithMinInterval(5*time.Millisecond),
			backoff.WithMaxInterval(250*time.Millisecond),
			backoff.WithJitterFactor(0.2),
			backoff.WithMaxRetries(5),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

// FindID implements slug.Finder outside of any transaction.
func (s *Store) FindID(ctx context.Context, target slug.Target, value string) (int64, bool, error) {
	return finder{s.db}.FindID(ctx, target, value)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type finder struct {
	q queryer
}

func (f finder) FindID(ctx context.Context, target slug.Target, value string) (int64, bool, error) {
	query, ok := findQueries[target.String()]
	if !ok {
		return 0, false, errors.Errorf("store: no unique lookup for %s", target)
	}

	var id int64
	err := f.q.QueryRowContext(ctx, query, value).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, errors.Wrapf(err, "store.find %s", target)
	}
	return id, true, nil
}

// withUniqueRetry runs fn again while it fails on a unique constraint, up to
// the limits of the retry policy.
func (s *Store) withUniqueRetry(ctx context.Context, code string, fn func() error) error {
	var err error
	b := s.retry.Start(ctx)
	for backoff.Continue(b) {
		err = fn()
		if !isUniqueViolation(err) {
			return err
		}
		log.Debugf("%s: unique conflict, retrying: %s", code, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return errors.Wrapf(ErrConflict, "%s: %v", code, err)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// checkAffected turns an update or delete touching no rows into ErrNotFound.
func checkAffected(res sql.Result, code string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, code+".verify")
	}
	if n < 1 {
		return errors.Wrap(ErrNotFound, code)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

// slugSource picks the explicit value when given, the fallback otherwise.
func slugSource(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	return fallback
}
