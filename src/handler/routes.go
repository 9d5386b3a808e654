package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// API groups the collaborators behind the settings endpoints.
type API struct {
	Resolver  settingsResolver
	Store     settingsStore
	Router    targetRouter
	Params    paramBuilder
	Positions positionStore
}

// Routes mounts the settings API on a fresh router.
func (a API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Put("/fields/{field}", PutUserFieldHandler(a.Store))
		r.Get("/positions", GetOpenPositionsHandler(a.Positions))
		r.Post("/positions", OpenPositionHandler(a.Positions))
		r.Post("/positions/{positionID}/close", ClosePositionHandler(a.Positions))

		r.Route("/strategies/{strategy}", func(r chi.Router) {
			r.Get("/settings", GetSettingsHandler(a.Resolver))
			r.Get("/settings/{field}", GetSettingHandler(a.Store))
			r.Put("/settings/{field}", PutSettingHandler(a.Store))
			r.Get("/targets", GetTargetsHandler(a.Router))
			r.Get("/params", GetParamsHandler(a.Resolver, a.Params))
		})
	})
	return r
}
