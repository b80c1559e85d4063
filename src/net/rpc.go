package net

// RPCResponse carries the reply to an RPC, or the error that prevented one.
type RPCResponse struct {
	Response interface{}
	Error    error
}

// RPC is a request pulled off a transport's consumer channel. The session
// node answers it through RespChan and the transport relays the answer back
// to the caller.
type RPC struct {
	Command  interface{}
	RespChan chan<- RPCResponse
}

// Respond answers the RPC with a response, an error, or both.
func (r *RPC) Respond(resp interface{}, err error) {
	r.RespChan <- RPCResponse{Response: resp, Error: err}
}
