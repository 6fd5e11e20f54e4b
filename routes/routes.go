package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/scalesurvey/scale-survey/app"
	"github.com/scalesurvey/scale-survey/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// creator + respondent routes, addressed by public key
	api.Post("/surveys", CreateSurvey(app))
	api.Get("/surveys/{key}", PublicGetSurveyByKey(app))
	api.Get("/surveys/{key}/questions", PublicGetQuestions(app))
	api.Post("/surveys/{key}/responses", PublicSubmitResponse(app))
	api.Get("/surveys/{key}/responses/count", PublicGetResponseCount(app))
	api.Get("/surveys/{key}/live", PublicGetLiveResponses(app))
	api.Get("/surveys/{key}/live/results", PublicGetLiveResults(app))

	// admin routes, addressed by survey id + X-Admin-Code header
	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.AdminCode)

		r.Get("/survey", GetSurveyByAdminCode(app))
		r.Patch("/surveys/{id}", UpdateSurvey(app))
		r.Post("/surveys/{id}/publish", PublishSurvey(app))
		r.Post("/surveys/{id}/close", CloseSurvey(app))

		r.Post("/surveys/{id}/questions", AddQuestion(app))
		r.Put("/surveys/{id}/questions/order", ReorderQuestions(app))
		r.Patch("/questions/{id}", UpdateQuestion(app))
		r.Delete("/questions/{id}", RemoveQuestion(app))

		r.Get("/surveys/{id}/responses", GetSurveyResponses(app))
		r.Get("/surveys/{id}/results", GetSurveyResults(app))
	})

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}
