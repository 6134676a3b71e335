package store

import (
	"context"
	"database/sql"

	"github.com/mbolis/survey-forms/model"
	"github.com/pkg/errors"
)

const questionColumns = `
	id, survey_id, "key", label, type_field, choices, help_text, required, ordering,
	created_at, updated_at`

func scanQuestion(row scanner, q *model.Question) error {
	return row.Scan(
		&q.ID, &q.SurveyID, &q.Key, &q.Label, &q.Type, &q.Choices, &q.HelpText, &q.Required, &q.Ordering,
		&q.CreatedAt, &q.UpdatedAt,
	)
}

// CreateQuestion adds q to survey q.SurveyID. Its key is derived from q.Key,
// or from q.Label when empty, and is unique among all questions.
func (s *Store) CreateQuestion(ctx context.Context, q *model.Question) error {
	if !q.Type.Valid() {
		return errors.Errorf("store.insert_question: invalid type %d", q.Type)
	}

	return s.withUniqueRetry(ctx, "store.insert_question", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "store.begin_tx")
		}
		defer tx.Rollback()

		key, err := s.slugs.Unique(ctx, finder{tx}, QuestionKey, slugSource(q.Key, q.Label), 0)
		if err != nil {
			return errors.Wrap(err, "store.insert_question.key")
		}

		ts := now()
		var id int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO question (
				survey_id, "key", label, type_field, choices, help_text, required, ordering,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			q.SurveyID, key, q.Label, int(q.Type), q.Choices, q.HelpText, q.Required, q.Ordering,
			ts, ts,
		).Scan(&id)
		if isForeignKeyViolation(err) {
			return errors.Wrapf(ErrNotFound, "store.insert_question: survey %d", q.SurveyID)
		}
		if err != nil {
			return errors.Wrap(err, "store.insert_question")
		}

		if err = tx.Commit(); err != nil {
			return errors.Wrap(err, "store.insert_question.commit")
		}

		q.ID = id
		q.Key = key
		q.CreatedAt = ts
		q.UpdatedAt = ts
		return nil
	})
}

// UpdateQuestion saves q, recomputing its key. The owning survey is kept.
func (s *Store) UpdateQuestion(ctx context.Context, q *model.Question) error {
	if !q.Type.Valid() {
		return errors.Errorf("store.update_question: invalid type %d", q.Type)
	}

	return s.withUniqueRetry(ctx, "store.update_question", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "store.begin_tx")
		}
		defer tx.Rollback()

		key, err := s.slugs.Unique(ctx, finder{tx}, QuestionKey, slugSource(q.Key, q.Label), q.ID)
		if err != nil {
			return errors.Wrap(err, "store.update_question.key")
		}

		ts := now()
		var surveyID int64
		err = tx.QueryRowContext(ctx, `
			UPDATE question
			SET
				"key" = ?,
				label = ?,
				type_field = ?,
				choices = ?,
				help_text = ?,
				required = ?,
				ordering = ?,
				updated_at = ?
			WHERE id = ?
			RETURNING survey_id`,
			key, q.Label, int(q.Type), q.Choices, q.HelpText, q.Required, q.Ordering,
			ts,
			q.ID,
		).Scan(&surveyID)
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(ErrNotFound, "store.update_question: %d", q.ID)
		}
		if err != nil {
			return errors.Wrap(err, "store.update_question")
		}

		if err = tx.Commit(); err != nil {
			return errors.Wrap(err, "store.update_question.commit")
		}

		q.SurveyID = surveyID
		q.Key = key
		q.UpdatedAt = ts
		return nil
	})
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (q model.Question, err error) {
	err = scanQuestion(s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM question WHERE id = ?`, id), &q)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return q, errors.Wrap(err, "store.get_question")
}

// ListQuestions returns the questions of a survey ordered by their ordering.
func (s *Store) ListQuestions(ctx context.Context, surveyID int64) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM question
		WHERE survey_id = ?
		ORDER BY ordering, id`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_questions")
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q := model.Question{}
		if err = scanQuestion(rows, &q); err != nil {
			return nil, errors.Wrap(err, "store.list_questions.scan")
		}
		questions = append(questions, q)
	}
	return questions, errors.Wrap(rows.Err(), "store.list_questions")
}

// DeleteQuestion removes a question along with every answer given to it.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM question WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "store.delete_question")
	}
	return checkAffected(res, "store.delete_question")
}
