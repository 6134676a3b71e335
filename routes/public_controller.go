package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/survey-forms/app"
	"github.com/mbolis/survey-forms/httpx"
	"github.com/mbolis/survey-forms/log"
	"github.com/mbolis/survey-forms/model"
	"github.com/mbolis/survey-forms/routes/middlewares"
)

func PublicListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.ListSurveys(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "list_surveys", err)
			return
		}

		baseURL := app.BaseURL()
		summaries := make([]surveySummary, len(surveys))
		for i, s := range surveys {
			summaries[i] = newSurveySummary(s, baseURL)
		}

		render.JSON(w, r, map[string]any{
			"surveys": summaries,
		})
	}
}

// ShareSurvey returns the absolute link to hand out for a survey.
func ShareSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := app.GetSurveyBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			httpx.LogStoreError(w, "share_survey", err)
			return
		}

		render.JSON(w, r, newSurveySummary(survey, app.BaseURL()))
	}
}

func PublicGetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slugValue := chi.URLParam(r, "slug")

		survey, err := app.GetSurveyBySlug(r.Context(), slugValue)
		if err != nil {
			httpx.LogStoreError(w, "get_survey", err)
			return
		}

		render.JSON(w, r, newSurveyView(survey))
	}
}

func SubmitSurvey(app app.App, guard submitGuard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, err := app.GetSurveyBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			httpx.LogStoreError(w, "submit.get_survey", err)
			return
		}

		userID, authenticated := middlewares.UserID(r)
		if !authenticated && !survey.CanAnonymousUser {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "submit.anonymous")
			return
		}

		payload := submissionPayload{}
		if err = httpx.DecodeValid(r.Body, &payload); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}

		answers, err := checkAnswers(survey, payload.Answers)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.validate", "%s", err)
			return
		}

		ua := model.UserAnswer{SurveyID: survey.ID, Answers: answers}
		if authenticated {
			ua.UserID = &userID

			if !survey.DuplicateEntry {
				key := submitter{survey.ID, userID}
				// check user is not submitting now
				if !guard.acquire(key) {
					httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "submit.in_progress")
					return
				}
				defer guard.release(key)

				// check user did not already submit
				answered, err := app.HasUserAnswered(r.Context(), survey.ID, userID)
				if err != nil {
					httpx.LogInternalError(w, "submit.has_answered", err)
					return
				}
				if answered {
					httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "submit.already_answered")
					return
				}
			}
		}

		if err = app.CreateUserAnswer(r.Context(), &ua); err != nil {
			httpx.LogStoreError(w, "submit.insert", err)
			return
		}
		log.WithFields(log.Fields{"survey": survey.Slug, "user_answer": ua.ID}).Info("survey submitted")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": ua.ID,
		})
	}
}

func GetAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ua, survey, ok := loadUserAnswer(w, r, app, "get_answer")
		if !ok {
			return
		}

		if survey.PrivateResponse {
			userID, authenticated := middlewares.UserID(r)
			if !authenticated {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "get_answer.private")
				return
			}
			if !ua.OwnedBy(userID) && !middlewares.IsAdmin(r) {
				httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "get_answer.private")
				return
			}
		}

		view, err := newUserAnswerView(ua, app.Photos(), userLookupFor(r.Context(), app))
		if err != nil {
			httpx.LogInternalError(w, "get_answer.render", err)
			return
		}
		render.JSON(w, r, view)
	}
}

func UpdateAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ua, survey, ok := loadUserAnswer(w, r, app, "update_answer")
		if !ok {
			return
		}

		userID, _ := middlewares.UserID(r)
		if !ua.OwnedBy(userID) && !middlewares.IsAdmin(r) {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "update_answer.owner")
			return
		}
		if !survey.Editable {
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "update_answer.editable", "survey %q is not editable", survey.Slug)
			return
		}

		payload := submissionPayload{}
		if err := httpx.DecodeValid(r.Body, &payload); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "%s", err)
			return
		}

		answers, err := checkAnswers(survey, payload.Answers)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "update_answer.validate", "%s", err)
			return
		}

		ua.Answers = answers
		if err = app.UpdateUserAnswer(r.Context(), &ua); err != nil {
			httpx.LogStoreError(w, "update_answer", err)
			return
		}

		// reload to get the questions along with the answers
		ua, err = app.GetUserAnswer(r.Context(), ua.ID)
		if err != nil {
			httpx.LogStoreError(w, "update_answer.reload", err)
			return
		}
		view, err := newUserAnswerView(ua, app.Photos(), userLookupFor(r.Context(), app))
		if err != nil {
			httpx.LogInternalError(w, "update_answer.render", err)
			return
		}
		render.JSON(w, r, view)
	}
}

func DeleteAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ua, survey, ok := loadUserAnswer(w, r, app, "delete_answer")
		if !ok {
			return
		}

		if !middlewares.IsAdmin(r) {
			userID, _ := middlewares.UserID(r)
			if !ua.OwnedBy(userID) {
				httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "delete_answer.owner")
				return
			}
			if !survey.Deletable {
				httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "delete_answer.deletable", "survey %q is not deletable", survey.Slug)
				return
			}
		}

		if err := app.DeleteUserAnswer(r.Context(), ua.ID); err != nil {
			httpx.LogStoreError(w, "delete_answer", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func MyAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middlewares.UserID(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "my_answers.user")
			return
		}

		userAnswers, err := app.ListUserAnswersByUser(r.Context(), userID)
		if err != nil {
			httpx.LogInternalError(w, "my_answers", err)
			return
		}
		renderUserAnswers(w, r, app, "my_answers", userAnswers)
	}
}

// loadUserAnswer fetches the answer set in the {id} URL parameter and its
// survey, answering the request itself on failure.
func loadUserAnswer(w http.ResponseWriter, r *http.Request, app app.App, code string) (ua model.UserAnswer, survey model.Survey, ok bool) {
	id, err := urlID(r)
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return
	}

	ua, err = app.GetUserAnswer(r.Context(), id)
	if err != nil {
		httpx.LogStoreError(w, code, err)
		return
	}

	survey, err = app.GetSurvey(r.Context(), ua.SurveyID)
	if err != nil {
		httpx.LogStoreError(w, code+".survey", err)
		return
	}
	return ua, survey, true
}

func renderUserAnswers(w http.ResponseWriter, r *http.Request, app app.App, code string, userAnswers []model.UserAnswer) {
	lookup := userLookupFor(r.Context(), app)
	photos := app.Photos()

	views := make([]userAnswerView, 0, len(userAnswers))
	for _, ua := range userAnswers {
		view, err := newUserAnswerView(ua, photos, lookup)
		if err != nil {
			httpx.LogInternalError(w, code+".render", err)
			return
		}
		views = append(views, view)
	}

	render.JSON(w, r, map[string]any{
		"answers": views,
	})
}

func userLookupFor(ctx context.Context, app app.App) userLookup {
	users := map[int64]*model.User{}
	return func(id int64) (*model.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		u, err := app.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		users[id] = &u
		return &u, nil
	}
}
