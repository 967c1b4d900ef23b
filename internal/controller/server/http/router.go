package http

import (
	"github.com/go-chi/chi/v5"
)

func newRouter(req *ServerReq) *chi.Mux {

	r := chi.NewRouter()
	r.Use(loggerMiddleware(req.Logger, req.HTTPAccessLogLevel))

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/jobs", jobsEndpoint{
			coordinator: req.Coordinator,
			state:       req.State,
		}.routes())
		r.Mount("/runs", allRunsEndpoint{
			state: req.State,
		}.routes())
		r.Mount("/queue", queueEndpoint{
			coordinator: req.Coordinator,
		}.routes())
	})

	return r
}
