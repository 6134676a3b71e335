package store

import (
	"context"
	"database/sql"

	"github.com/mbolis/survey-forms/model"
	"github.com/pkg/errors"
)

const surveyColumns = `
	id, name, description, slug,
	editable, deletable, duplicate_entry, private_response, can_anonymous_user,
	created_at, updated_at`

func scanSurvey(row scanner, s *model.Survey) error {
	return row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Slug,
		&s.Editable, &s.Deletable, &s.DuplicateEntry, &s.PrivateResponse, &s.CanAnonymousUser,
		&s.CreatedAt, &s.UpdatedAt,
	)
}

// CreateSurvey inserts survey with a unique slug derived from survey.Slug, or
// from survey.Name when no slug is given. ID, Slug and timestamps are set on
// success; questions are not inserted.
func (s *Store) CreateSurvey(ctx context.Context, survey *model.Survey) error {
	return s.withUniqueRetry(ctx, "store.insert_survey", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "store.begin_tx")
		}
		defer tx.Rollback()

		slugValue, err := s.slugs.Unique(ctx, finder{tx}, SurveySlug, slugSource(survey.Slug, survey.Name), 0)
		if err != nil {
			return errors.Wrap(err, "store.insert_survey.slug")
		}

		ts := now()
		var id int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO survey (
				name, description, slug,
				editable, deletable, duplicate_entry, private_response, can_anonymous_user,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			survey.Name, survey.Description, slugValue,
			survey.Editable, survey.Deletable, survey.DuplicateEntry, survey.PrivateResponse, survey.CanAnonymousUser,
			ts, ts,
		).Scan(&id)
		if err != nil {
			return errors.Wrap(err, "store.insert_survey")
		}

		if err = tx.Commit(); err != nil {
			return errors.Wrap(err, "store.insert_survey.commit")
		}

		survey.ID = id
		survey.Slug = slugValue
		survey.CreatedAt = ts
		survey.UpdatedAt = ts
		return nil
	})
}

// UpdateSurvey saves survey, recomputing its slug the same way CreateSurvey
// does. Keeping the current slug is a no-op; clearing it derives a new one
// from the name.
func (s *Store) UpdateSurvey(ctx context.Context, survey *model.Survey) error {
	return s.withUniqueRetry(ctx, "store.update_survey", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "store.begin_tx")
		}
		defer tx.Rollback()

		slugValue, err := s.slugs.Unique(ctx, finder{tx}, SurveySlug, slugSource(survey.Slug, survey.Name), survey.ID)
		if err != nil {
			return errors.Wrap(err, "store.update_survey.slug")
		}

		ts := now()
		res, err := tx.ExecContext(ctx, `
			UPDATE survey
			SET
				name = ?,
				description = ?,
				slug = ?,
				editable = ?,
				deletable = ?,
				duplicate_entry = ?,
				private_response = ?,
				can_anonymous_user = ?,
				updated_at = ?
			WHERE id = ?`,
			survey.Name, survey.Description, slugValue,
			survey.Editable, survey.Deletable, survey.DuplicateEntry, survey.PrivateResponse, survey.CanAnonymousUser,
			ts,
			survey.ID,
		)
		if err != nil {
			return errors.Wrap(err, "store.update_survey")
		}
		if err = checkAffected(res, "store.update_survey"); err != nil {
			return err
		}

		if err = tx.Commit(); err != nil {
			return errors.Wrap(err, "store.update_survey.commit")
		}

		survey.Slug = slugValue
		survey.UpdatedAt = ts
		return nil
	})
}

// GetSurvey loads a survey with its questions in display order.
func (s *Store) GetSurvey(ctx context.Context, id int64) (model.Survey, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+surveyColumns+` FROM survey WHERE id = ?`, id)
	return s.loadSurvey(ctx, row, "store.get_survey")
}

func (s *Store) GetSurveyBySlug(ctx context.Context, slugValue string) (model.Survey, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+surveyColumns+` FROM survey WHERE slug = ?`, slugValue)
	return s.loadSurvey(ctx, row, "store.get_survey_by_slug")
}

func (s *Store) loadSurvey(ctx context.Context, row *sql.Row, code string) (survey model.Survey, err error) {
	err = scanSurvey(row, &survey)
	if errors.Is(err, sql.ErrNoRows) {
		err = errors.Wrap(ErrNotFound, code)
		return
	}
	if err != nil {
		err = errors.Wrap(err, code)
		return
	}

	survey.Questions, err = s.ListQuestions(ctx, survey.ID)
	return
}

// ListSurveys returns all surveys, without questions.
func (s *Store) ListSurveys(ctx context.Context) ([]model.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+surveyColumns+` FROM survey ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_surveys")
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		survey := model.Survey{}
		if err = scanSurvey(rows, &survey); err != nil {
			return nil, errors.Wrap(err, "store.list_surveys.scan")
		}
		surveys = append(surveys, survey)
	}
	return surveys, errors.Wrap(rows.Err(), "store.list_surveys")
}

// DeleteSurvey removes a survey; questions, responses and answers cascade.
func (s *Store) DeleteSurvey(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "store.delete_survey")
	}
	return checkAffected(res, "store.delete_survey")
}
