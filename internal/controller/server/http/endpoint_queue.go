package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/coordinator"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/queue"
)

type queueEndpoint struct {
	coordinator *coordinator.Coordinator
}

func (q queueEndpoint) routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", q.list)
	return router
}

type QueueListResp struct {
	Items                []*queue.Item `json:"items"`
	internalResponseMeta `json:"-"`
}

func (q queueEndpoint) list(w http.ResponseWriter, r *http.Request) {
	resp := QueueListResp{
		Items:                q.coordinator.Pending(r.URL.Query().Get(jobQueryParam)),
		internalResponseMeta: newInternalResponseMeta(http.StatusOK),
	}
	httpWriteResponse(w, &resp)
}
