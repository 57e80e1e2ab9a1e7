// MIT License
//
// Copyright (c) 2024-2026 Swarmsys Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package remote carries requests between the nodes of a grains cluster.
//
// The package defines the transport contract consumed by the grains core and
// two implementations: an in-process transport for tests and single-binary
// topologies, and a NATS request/reply transport for real clusters. Payloads
// are framed with the CBOR codec in this package.
package remote

import (
	"context"

	"github.com/swarmsys/grains/address"
)

// ActivateRequest asks a node to activate-or-get a grain it owns.
type ActivateRequest struct {
	Kind     string `cbor:"1,keyasint"`
	Identity string `cbor:"2,keyasint"`
}

// ActivateResponse carries the physical location of the activated grain.
type ActivateResponse struct {
	Ref  string `cbor:"1,keyasint"`
	Host string `cbor:"2,keyasint"`
	Port int    `cbor:"3,keyasint"`
}

// DispatchRequest delivers a message to a grain instance by its ref.
// The payload is a frame produced by Marshal.
type DispatchRequest struct {
	Ref     string `cbor:"1,keyasint"`
	Payload []byte `cbor:"2,keyasint"`
}

// DispatchResponse carries the grain's reply, framed by Marshal.
type DispatchResponse struct {
	Payload []byte `cbor:"1,keyasint"`
}

// HeartbeatRequest asks a node for its liveness sample.
type HeartbeatRequest struct{}

// HeartbeatResponse reports the number of grain instances currently active
// on the answering node.
type HeartbeatResponse struct {
	Count int `cbor:"1,keyasint"`
}

// Handler serves the inbound requests of a node. The grains engine is the
// only implementation in this codebase.
type Handler interface {
	// HandleActivate serves a placement request
	HandleActivate(ctx context.Context, req *ActivateRequest) (*ActivateResponse, error)
	// HandleDispatch serves a dispatch request
	HandleDispatch(ctx context.Context, req *DispatchRequest) (*DispatchResponse, error)
	// HandleHeartbeat serves a heartbeat request
	HandleHeartbeat(ctx context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error)
}

// Transport delivers requests to remote nodes and serves the local node.
//
// Implementations must surface errors.ErrNodeUnavailable when the target node
// cannot be reached and must honor the context deadline of every call.
type Transport interface {
	// Serve registers the handler of the local node under its address.
	Serve(addr address.Address, handler Handler) error
	// Activate sends a placement request to the given node.
	Activate(ctx context.Context, to address.Address, req *ActivateRequest) (*ActivateResponse, error)
	// Dispatch sends a dispatch request to the given node.
	Dispatch(ctx context.Context, to address.Address, req *DispatchRequest) (*DispatchResponse, error)
	// Heartbeat sends a heartbeat request to the given node.
	Heartbeat(ctx context.Context, to address.Address, req *HeartbeatRequest) (*HeartbeatResponse, error)
	// Close shuts the transport down.
	Close() error
}
