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

package grains

import (
	"context"
	"errors"

	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/remote"
)

// Router delivers request/response messages to grains by key.
//
// The router resolves the key through the directory, dispatches to the
// resolved instance and returns its reply. When the dispatch reports the
// instance gone it invalidates the stale handle and retries exactly once
// against a fresh resolution; this is the path that transparently respawns
// a grain that was killed.
type Router struct {
	engine *Engine
}

func newRouter(engine *Engine) *Router {
	return &Router{engine: engine}
}

// Send delivers the message to the grain identified by key and returns its
// reply. When the caller supplies no deadline the engine request timeout
// applies.
func (r *Router) Send(ctx context.Context, key GrainKey, message any) (any, error) {
	if !r.engine.started.Load() {
		return nil, gerrors.ErrEngineNotStarted
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.engine.requestTimeout)
		defer cancel()
	}

	response, err := r.attempt(ctx, key, message)
	if errors.Is(err, gerrors.ErrUndeliverable) {
		// the cached instance is gone. Resolve again and respawn.
		r.engine.directory.Invalidate(key)
		response, err = r.attempt(ctx, key, message)
	}

	switch {
	case err == nil:
		return response, nil
	case errors.Is(err, context.DeadlineExceeded):
		return nil, errors.Join(gerrors.ErrRequestTimeout, err)
	default:
		return nil, err
	}
}

// Kill terminates the live instance of the given key wherever it runs. The
// key remains routable; the next Send respawns a fresh instance.
func (r *Router) Kill(ctx context.Context, key GrainKey) error {
	_, err := r.Send(ctx, key, &Die{})
	return err
}

// Locate returns the node currently hosting the live instance of the key,
// activating one when none exists.
func (r *Router) Locate(ctx context.Context, key GrainKey) (*GrainLocation, error) {
	response, err := r.Send(ctx, key, &WhereAmI{})
	if err != nil {
		return nil, err
	}

	location, ok := response.(*GrainLocation)
	if !ok {
		return nil, gerrors.ErrUnhandledMessage
	}
	return location, nil
}

// attempt performs one resolve-then-dispatch round trip.
func (r *Router) attempt(ctx context.Context, key GrainKey, message any) (any, error) {
	handle, err := r.engine.directory.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	if handle.Address().Equal(r.engine.addr) {
		return r.engine.Dispatch(ctx, handle.Ref(), message)
	}

	payload, err := remote.Marshal(message)
	if err != nil {
		return nil, err
	}

	response, err := r.engine.transport.Dispatch(ctx, handle.Address(), &remote.DispatchRequest{
		Ref:     handle.Ref(),
		Payload: payload,
	})
	if err != nil {
		return nil, mapRemoteError(err)
	}

	return remote.Unmarshal(response.Payload)
}
