package routes

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mbolis/survey-forms/app"
	"github.com/mbolis/survey-forms/log"
	"github.com/mbolis/survey-forms/routes/middlewares"
)

// Wire builds the HTTP handler. Background helpers of the handlers stop when
// ctx is done.
func Wire(ctx context.Context, app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
	)

	root.Mount("/api", apiRouter(ctx, app))

	return root
}

func apiRouter(ctx context.Context, app app.App) http.Handler {
	api := chi.NewRouter()
	secret := app.TokenSecret

	api.Group(func(r chi.Router) {
		r.Use(middlewares.OptionalAuth(secret))

		r.Get("/surveys", PublicListSurveys(app))
		r.Get("/surveys/{slug}", PublicGetSurvey(app))
		r.Get("/surveys/{slug}/share", ShareSurvey(app))
		r.Post("/surveys/{slug}/answers", SubmitSurvey(app, newSubmitGuard(ctx)))
		r.Get(`/answers/{id:^\d+$}`, GetAnswer(app))
	})

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated(secret))

		r.Put(`/answers/{id:^\d+$}`, UpdateAnswer(app))
		r.Delete(`/answers/{id:^\d+$}`, DeleteAnswer(app))
		r.Get("/me/answers", MyAnswers(app))
	})

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(secret))

		// CRUD survey
		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
		r.Put(`/surveys/{id:^\d+$}`, UpdateSurvey(app))
		r.Delete(`/surveys/{id:^\d+$}`, DeleteSurvey(app))

		// CRUD question
		r.Post(`/surveys/{id:^\d+$}/questions`, CreateQuestion(app))
		r.Put(`/questions/{id:^\d+$}`, UpdateQuestion(app))
		r.Delete(`/questions/{id:^\d+$}`, DeleteQuestion(app))
		r.Get("/question-types", ListQuestionTypes())

		r.Get(`/surveys/{id:^\d+$}/answers`, GetSurveyAnswers(app))
		r.Get(`/surveys/{id:^\d+$}/answers.csv`, ExportSurveyAnswers(app))
		r.Get(`/users/{id:^\d+$}/answers`, GetUserAnswers(app))

		r.Post("/users", CreateUser(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
