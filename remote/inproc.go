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

package remote

import (
	"context"

	"github.com/swarmsys/grains/address"
	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/internal/collection"
)

// InprocTransport connects the nodes of a single process. All nodes share the
// same InprocTransport instance; Serve registers a node's handler under its
// address and calls are plain function invocations.
//
// Requests still honor the caller's context so that deadline semantics match
// the networked transports.
type InprocTransport struct {
	handlers *collection.Map[string, Handler]
}

// enforce compilation error
var _ Transport = (*InprocTransport)(nil)

// NewInprocTransport creates an in-process transport.
func NewInprocTransport() *InprocTransport {
	return &InprocTransport{
		handlers: collection.NewMap[string, Handler](),
	}
}

// Serve implementation
func (t *InprocTransport) Serve(addr address.Address, handler Handler) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	t.handlers.Set(addr.String(), handler)
	return nil
}

// Unserve removes a node from the in-process network, simulating a node
// that became unreachable.
func (t *InprocTransport) Unserve(addr address.Address) {
	t.handlers.Delete(addr.String())
}

// Activate implementation
func (t *InprocTransport) Activate(ctx context.Context, to address.Address, req *ActivateRequest) (*ActivateResponse, error) {
	handler, err := t.handler(ctx, to)
	if err != nil {
		return nil, err
	}
	return handler.HandleActivate(ctx, req)
}

// Dispatch implementation
func (t *InprocTransport) Dispatch(ctx context.Context, to address.Address, req *DispatchRequest) (*DispatchResponse, error) {
	handler, err := t.handler(ctx, to)
	if err != nil {
		return nil, err
	}
	return handler.HandleDispatch(ctx, req)
}

// Heartbeat implementation
func (t *InprocTransport) Heartbeat(ctx context.Context, to address.Address, req *HeartbeatRequest) (*HeartbeatResponse, error) {
	handler, err := t.handler(ctx, to)
	if err != nil {
		return nil, err
	}
	return handler.HandleHeartbeat(ctx, req)
}

// Close implementation
func (t *InprocTransport) Close() error {
	t.handlers.Reset()
	return nil
}

func (t *InprocTransport) handler(ctx context.Context, to address.Address) (Handler, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handler, ok := t.handlers.Get(to.String())
	if !ok {
		return nil, gerrors.ErrNodeUnavailable
	}
	return handler, nil
}
