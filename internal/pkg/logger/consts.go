package logger

const (
	ComponentNameServer      = "server"
	ComponentNameHTTPServer  = "http_server"
	ComponentNameRPCServer   = "rpc_server"
	ComponentNameCoordinator = "coordinator"
	ComponentNameQueue       = "queue"
	ComponentNameResolver    = "resolver"
	ComponentNameScheduler   = "scheduler"
	ComponentNameState       = "state"
)
