package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/coordinator"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/node"
)

type nodesEndpoint struct {
	coordinator *coordinator.Coordinator
}

func (ne nodesEndpoint) routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", ne.list)

	router.Route("/{node}", func(r chi.Router) {
		r.Get("/", ne.get)
		r.Post("/restart", ne.restart)
	})

	return router
}

type NodeListResp struct {
	Nodes                []*node.Stub `json:"nodes"`
	internalResponseMeta `json:"-"`
}

func (ne nodesEndpoint) list(w http.ResponseWriter, r *http.Request) {

	nodes, err := ne.coordinator.Nodes(getJobParam(r), getRunNumber(r))
	if err != nil {
		httpWriteError(w, err)
		return
	}

	stubs := make([]*node.Stub, len(nodes))
	for i, n := range nodes {
		stubs[i] = n.Stub()
	}

	resp := NodeListResp{
		Nodes:                stubs,
		internalResponseMeta: newInternalResponseMeta(http.StatusOK),
	}
	httpWriteResponse(w, &resp)
}

type NodeGetResp struct {
	Node                 *node.Stub `json:"node"`
	internalResponseMeta `json:"-"`
}

func (ne nodesEndpoint) get(w http.ResponseWriter, r *http.Request) {

	n, err := ne.coordinator.Node(getJobParam(r), getRunNumber(r), getNodeParam(r))
	if err != nil {
		httpWriteError(w, err)
		return
	}

	resp := NodeGetResp{
		Node:                 n.Stub(),
		internalResponseMeta: newInternalResponseMeta(http.StatusOK),
	}
	httpWriteResponse(w, &resp)
}

func (ne nodesEndpoint) restart(w http.ResponseWriter, r *http.Request) {

	result, err := ne.coordinator.RestartStage(r.Context(), getJobParam(r), getRunNumber(r), getNodeParam(r))
	if err != nil {
		httpWriteError(w, err)
		return
	}

	httpWriteResponse(w, newRunTriggerResp(result))
}
