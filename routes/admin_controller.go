package routes

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/survey-forms/app"
	"github.com/mbolis/survey-forms/export"
	"github.com/mbolis/survey-forms/httpx"
	"github.com/mbolis/survey-forms/log"
	"github.com/mbolis/survey-forms/model"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := surveyPayload{}
		if err := httpx.DecodeValid(r.Body, &payload); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}
		for _, qp := range payload.Questions {
			if err := checkChoices(qp); err != nil {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_survey.questions", "%s", err)
				return
			}
		}

		survey := payload.survey(model.NewSurvey(payload.Name))
		if err := app.CreateSurvey(r.Context(), &survey); err != nil {
			httpx.LogStoreError(w, "create_survey", err)
			return
		}

		survey.Questions = make([]model.Question, 0, len(payload.Questions))
		for _, qp := range payload.Questions {
			q := qp.question(model.Question{SurveyID: survey.ID})
			if err := app.CreateQuestion(r.Context(), &q); err != nil {
				// no half-built surveys
				if delErr := app.DeleteSurvey(r.Context(), survey.ID); delErr != nil {
					log.Errorf("create_survey.rollback: %s", delErr)
				}
				httpx.LogStoreError(w, "create_survey.question", err)
				return
			}
			survey.Questions = append(survey.Questions, q)
		}
		log.WithFields(log.Fields{"survey": survey.Slug, "id": survey.ID}).Info("survey created")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, newSurveyView(survey))
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.ListSurveys(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "list_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := app.GetSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogStoreError(w, "get_survey", err)
			return
		}

		render.JSON(w, r, newSurveyView(survey))
	}
}

// UpdateSurvey saves the survey fields. Questions are managed through their
// own endpoints, since replacing them would drop the answers they hold.
func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		payload := surveyPayload{}
		if err = httpx.DecodeValid(r.Body, &payload); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}

		survey, err := app.GetSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogStoreError(w, "update_survey.get", err)
			return
		}

		survey = payload.survey(survey)
		if err = app.UpdateSurvey(r.Context(), &survey); err != nil {
			httpx.LogStoreError(w, "update_survey", err)
			return
		}

		render.JSON(w, r, newSurveyView(survey))
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if err = app.DeleteSurvey(r.Context(), surveyId); err != nil {
			httpx.LogStoreError(w, "delete_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		payload := questionPayload{}
		if err = httpx.DecodeValid(r.Body, &payload); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}
		if err = checkChoices(payload); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_question.choices", "%s", err)
			return
		}

		q := payload.question(model.Question{SurveyID: surveyId})
		if err = app.CreateQuestion(r.Context(), &q); err != nil {
			httpx.LogStoreError(w, "create_question", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, newQuestionView(q))
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		payload := questionPayload{}
		if err = httpx.DecodeValid(r.Body, &payload); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}
		if err = checkChoices(payload); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "update_question.choices", "%s", err)
			return
		}

		q, err := app.GetQuestion(r.Context(), questionId)
		if err != nil {
			httpx.LogStoreError(w, "update_question.get", err)
			return
		}

		q = payload.question(q)
		if err = app.UpdateQuestion(r.Context(), &q); err != nil {
			httpx.LogStoreError(w, "update_question", err)
			return
		}

		render.JSON(w, r, newQuestionView(q))
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if err = app.DeleteQuestion(r.Context(), questionId); err != nil {
			httpx.LogStoreError(w, "delete_question", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type questionTypeView struct {
	Name    model.QuestionType `json:"name"`
	Label   string             `json:"label"`
	Ordinal int                `json:"ordinal"`
	Choices bool               `json:"choices"`
}

func ListQuestionTypes() http.HandlerFunc {
	types := []questionTypeView{}
	for _, t := range model.AllQuestionTypes() {
		types = append(types, questionTypeView{t, t.Label(), int(t), t.HasChoices()})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"types": types,
		})
	}
}

func GetSurveyAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		// 404 on unknown surveys rather than an empty list
		if _, err = app.GetSurvey(r.Context(), surveyId); err != nil {
			httpx.LogStoreError(w, "get_survey_answers.survey", err)
			return
		}

		userAnswers, err := app.ListUserAnswersBySurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, "get_survey_answers", err)
			return
		}
		renderUserAnswers(w, r, app, "get_survey_answers", userAnswers)
	}
}

func ExportSurveyAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := app.GetSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogStoreError(w, "export_answers.survey", err)
			return
		}

		userAnswers, err := app.ListUserAnswersBySurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, "export_answers", err)
			return
		}

		var buf bytes.Buffer
		if err = export.WriteCSV(&buf, survey.Questions, userAnswers); err != nil {
			httpx.LogInternalError(w, "export_answers.csv", err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, survey.Slug))
		w.Write(buf.Bytes())
	}
}

func GetUserAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if _, err = app.GetUser(r.Context(), userId); err != nil {
			httpx.LogStoreError(w, "get_user_answers.user", err)
			return
		}

		userAnswers, err := app.ListUserAnswersByUser(r.Context(), userId)
		if err != nil {
			httpx.LogInternalError(w, "get_user_answers", err)
			return
		}
		renderUserAnswers(w, r, app, "get_user_answers", userAnswers)
	}
}

func CreateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := userPayload{}
		if err := httpx.DecodeValid(r.Body, &payload); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}

		user := model.User{
			Username:  payload.Username,
			Email:     payload.Email,
			AvatarURL: payload.AvatarURL,
			IsAdmin:   payload.IsAdmin,
		}
		if err := app.CreateUser(r.Context(), &user, payload.Password); err != nil {
			httpx.LogStoreError(w, "create_user", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, user)
	}
}

func checkChoices(p questionPayload) error {
	if !p.Type.Valid() {
		return fmt.Errorf("unknown question type %d", p.Type)
	}
	q := p.question(model.Question{})
	if q.Type.HasChoices() && len(q.ChoiceList()) == 0 {
		return fmt.Errorf("%s: question type %s needs choices", p.Label, p.Type)
	}
	return nil
}
