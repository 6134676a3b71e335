package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/mbolis/survey-forms/model"
	"github.com/pkg/errors"
)

const userAnswerColumns = `id, survey_id, user_id, created_at, updated_at`

func scanUserAnswer(row scanner, ua *model.UserAnswer) error {
	var userID sql.NullInt64
	err := row.Scan(&ua.ID, &ua.SurveyID, &userID, &ua.CreatedAt, &ua.UpdatedAt)
	if err != nil {
		return err
	}
	ua.UserID = nil
	if userID.Valid {
		ua.UserID = &userID.Int64
	}
	return nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

const answerSelect = `
	SELECT
		a.id, a.question_id, a.user_answer_id, a.value, a.created_at, a.updated_at,
		q.id, q.survey_id, q."key", q.label, q.type_field, q.choices, q.help_text, q.required, q.ordering,
		q.created_at, q.updated_at
	FROM answer a
	INNER JOIN question q ON (q.id = a.question_id)
	INNER JOIN user_answer ua ON (ua.id = a.user_answer_id)`

// answers follow the ordering of their question
const answerOrder = ` ORDER BY q.ordering, q.id, a.id`

func scanAnswer(row scanner, a *model.Answer) error {
	q := &model.Question{}
	err := row.Scan(
		&a.ID, &a.QuestionID, &a.UserAnswerID, &a.Value, &a.CreatedAt, &a.UpdatedAt,
		&q.ID, &q.SurveyID, &q.Key, &q.Label, &q.Type, &q.Choices, &q.HelpText, &q.Required, &q.Ordering,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return err
	}
	a.Question = q
	return nil
}

// CreateUserAnswer records one submission of ua.SurveyID with all its answers.
func (s *Store) CreateUserAnswer(ctx context.Context, ua *model.UserAnswer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "store.begin_tx")
	}
	defer tx.Rollback()

	ts := now()
	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_answer (survey_id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`,
		ua.SurveyID, nullInt64(ua.UserID), ts, ts,
	).Scan(&id)
	if isForeignKeyViolation(err) {
		return errors.Wrapf(ErrNotFound, "store.insert_user_answer: survey %d", ua.SurveyID)
	}
	if err != nil {
		return errors.Wrap(err, "store.insert_user_answer")
	}

	if err = insertAnswers(ctx, tx, id, ua.Answers, ts); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "store.insert_user_answer.commit")
	}

	ua.ID = id
	ua.CreatedAt = ts
	ua.UpdatedAt = ts
	return nil
}

// UpdateUserAnswer replaces the answers of an existing submission.
func (s *Store) UpdateUserAnswer(ctx context.Context, ua *model.UserAnswer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "store.begin_tx")
	}
	defer tx.Rollback()

	ts := now()
	res, err := tx.ExecContext(ctx, `UPDATE user_answer SET updated_at = ? WHERE id = ?`, ts, ua.ID)
	if err != nil {
		return errors.Wrap(err, "store.update_user_answer")
	}
	if err = checkAffected(res, "store.update_user_answer"); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM answer WHERE user_answer_id = ?`, ua.ID)
	if err != nil {
		return errors.Wrap(err, "store.update_user_answer.delete_answers")
	}

	if err = insertAnswers(ctx, tx, ua.ID, ua.Answers, ts); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "store.update_user_answer.commit")
	}

	ua.UpdatedAt = ts
	return nil
}

func insertAnswers(ctx context.Context, tx *sql.Tx, userAnswerID int64, answers []model.Answer, ts time.Time) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO answer (question_id, user_answer_id, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)
	if err != nil {
		return errors.Wrap(err, "store.insert_answers.prepare")
	}
	defer stmt.Close()

	for i := range answers {
		a := &answers[i]
		err = stmt.QueryRowContext(ctx, a.QuestionID, userAnswerID, a.Value, ts, ts).Scan(&a.ID)
		if isForeignKeyViolation(err) {
			return errors.Wrapf(ErrNotFound, "store.insert_answers: question %d", a.QuestionID)
		}
		if err != nil {
			return errors.Wrap(err, "store.insert_answers")
		}
		a.UserAnswerID = userAnswerID
		a.CreatedAt = ts
		a.UpdatedAt = ts
	}
	return nil
}

// GetUserAnswer loads a submission with its answers and their questions.
func (s *Store) GetUserAnswer(ctx context.Context, id int64) (model.UserAnswer, error) {
	ua := model.UserAnswer{}
	err := scanUserAnswer(s.db.QueryRowContext(ctx, `SELECT `+userAnswerColumns+` FROM user_answer WHERE id = ?`, id), &ua)
	if errors.Is(err, sql.ErrNoRows) {
		return ua, errors.Wrap(ErrNotFound, "store.get_user_answer")
	}
	if err != nil {
		return ua, errors.Wrap(err, "store.get_user_answer")
	}

	rows, err := s.db.QueryContext(ctx, answerSelect+` WHERE a.user_answer_id = ?`+answerOrder, id)
	if err != nil {
		return ua, errors.Wrap(err, "store.get_user_answer.answers")
	}
	defer rows.Close()

	ua.Answers = []model.Answer{}
	for rows.Next() {
		a := model.Answer{}
		if err = scanAnswer(rows, &a); err != nil {
			return ua, errors.Wrap(err, "store.get_user_answer.answers.scan")
		}
		ua.Answers = append(ua.Answers, a)
	}
	return ua, errors.Wrap(rows.Err(), "store.get_user_answer.answers")
}

// ListUserAnswersBySurvey returns the submissions of a survey, most recently
// updated first.
func (s *Store) ListUserAnswersBySurvey(ctx context.Context, surveyID int64) ([]model.UserAnswer, error) {
	return s.listUserAnswers(ctx, "survey_id", surveyID)
}

// ListUserAnswersByUser returns the submissions of a user across surveys,
// most recently updated first.
func (s *Store) ListUserAnswersByUser(ctx context.Context, userID int64) ([]model.UserAnswer, error) {
	return s.listUserAnswers(ctx, "user_id", userID)
}

// column is one of the constant user_answer foreign keys, never user input.
func (s *Store) listUserAnswers(ctx context.Context, column string, id int64) ([]model.UserAnswer, error) {
	code := "store.list_user_answers." + column

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userAnswerColumns+`
		FROM user_answer
		WHERE `+column+` = ?
		ORDER BY updated_at DESC, id DESC`,
		id,
	)
	if err != nil {
		return nil, errors.Wrap(err, code)
	}
	defer rows.Close()

	userAnswers := []model.UserAnswer{}
	index := map[int64]int{}
	for rows.Next() {
		ua := model.UserAnswer{Answers: []model.Answer{}}
		if err = scanUserAnswer(rows, &ua); err != nil {
			return nil, errors.Wrap(err, code+".scan")
		}
		index[ua.ID] = len(userAnswers)
		userAnswers = append(userAnswers, ua)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, code)
	}
	rows.Close()

	answerRows, err := s.db.QueryContext(ctx, answerSelect+` WHERE ua.`+column+` = ?`+answerOrder, id)
	if err != nil {
		return nil, errors.Wrap(err, code+".answers")
	}
	defer answerRows.Close()

	for answerRows.Next() {
		a := model.Answer{}
		if err = scanAnswer(answerRows, &a); err != nil {
			return nil, errors.Wrap(err, code+".answers.scan")
		}
		i, ok := index[a.UserAnswerID]
		if !ok {
			// submitted after the first query
			continue
		}
		userAnswers[i].Answers = append(userAnswers[i].Answers, a)
	}
	return userAnswers, errors.Wrap(answerRows.Err(), code+".answers")
}

// HasUserAnswered reports whether userID already submitted surveyID.
func (s *Store) HasUserAnswered(ctx context.Context, surveyID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_answer
			WHERE survey_id = ?
				AND user_id = ?
		)`,
		surveyID,
		userID,
	).Scan(&exists)
	return exists, errors.Wrap(err, "store.has_user_answered")
}

// DeleteUserAnswer removes a submission and its answers.
func (s *Store) DeleteUserAnswer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_answer WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "store.delete_user_answer")
	}
	return checkAffected(res, "store.delete_user_answer")
}
