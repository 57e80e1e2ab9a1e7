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
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/swarmsys/grains/address"
	"github.com/swarmsys/grains/cluster"
	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/hash"
	"github.com/swarmsys/grains/internal/collection"
	"github.com/swarmsys/grains/log"
	"github.com/swarmsys/grains/remote"
)

const (
	// DefaultActivationRetries is the number of attempts of a grain activation hook
	DefaultActivationRetries = 5
	// DefaultActivationTimeout bounds a single grain activation
	DefaultActivationTimeout = time.Second
	// DefaultRequestTimeout bounds a routed request when the caller supplied no deadline
	DefaultRequestTimeout = 5 * time.Second
)

// Engine is the per-node virtual actor runtime.
//
// It owns the lifecycle of the grain instances activated on this node, serves
// the remote placement/dispatch/heartbeat requests of its peers, and exposes
// the Directory and Router views used to reach grains anywhere in the
// cluster. The instance table is mutated only by its own engine; cross-node
// coordination happens exclusively through the transport.
type Engine struct {
	addr      address.Address
	logger    log.Logger
	transport remote.Transport
	members   cluster.Registry
	placement *cluster.Placement
	hasher    hash.Hasher

	kinds     *collection.Map[string, Factory]
	instances *collection.Map[string, *grainPID]
	refs      *collection.Map[string, *grainPID]

	// activation collapses concurrent local activations of the same key
	activation singleflight.Group

	directory *Directory
	router    *Router

	started *atomic.Bool

	activationRetries int
	activationTimeout time.Duration
	requestTimeout    time.Duration
}

// enforce compilation error
var _ remote.Handler = (*Engine)(nil)

// NewEngine creates an engine bound to the given node address, transport and
// member registry. The engine must be started before use.
func NewEngine(addr address.Address, transport remote.Transport, members cluster.Registry, opts ...Option) *Engine {
	engine := &Engine{
		addr:              addr,
		logger:            log.DefaultLogger,
		transport:         transport,
		members:           members,
		hasher:            hash.DefaultHasher(),
		kinds:             collection.NewMap[string, Factory](),
		instances:         collection.NewMap[string, *grainPID](),
		refs:              collection.NewMap[string, *grainPID](),
		started:           atomic.NewBool(false),
		activationRetries: DefaultActivationRetries,
		activationTimeout: DefaultActivationTimeout,
		requestTimeout:    DefaultRequestTimeout,
	}

	for _, opt := range opts {
		opt.Apply(engine)
	}

	engine.placement = cluster.NewPlacement(engine.hasher)
	engine.directory = newDirectory(engine)
	engine.router = newRouter(engine)
	return engine
}

// Address returns the node address of the engine
func (e *Engine) Address() address.Address {
	return e.addr
}

// Logger returns the engine logger
func (e *Engine) Logger() log.Logger {
	return e.logger
}

// Directory returns the identity directory of this node
func (e *Engine) Directory() *Directory {
	return e.directory
}

// Router returns the request router of this node
func (e *Engine) Router() *Router {
	return e.router
}

// Running returns true when the engine has been started
func (e *Engine) Running() bool {
	return e.started.Load()
}

// Start registers the engine with the transport so that peers can reach it.
func (e *Engine) Start(_ context.Context) error {
	if err := e.addr.Validate(); err != nil {
		return err
	}

	if !e.started.CompareAndSwap(false, true) {
		return gerrors.ErrEngineAlreadyStarted
	}

	if err := e.transport.Serve(e.addr, e); err != nil {
		e.started.Store(false)
		return err
	}

	e.logger.Infof("Grain engine started on node (%s)", e.addr.String())
	return nil
}

// Stop deactivates every local grain instance and detaches the engine from
// the transport. The transport itself belongs to the caller and stays open.
func (e *Engine) Stop(ctx context.Context) error {
	if !e.started.CompareAndSwap(true, false) {
		return gerrors.ErrEngineNotStarted
	}

	var err error
	e.instances.Range(func(_ string, pid *grainPID) {
		if pid.isActive() {
			err = multierr.Append(err, pid.deactivate(ctx))
		}
	})

	e.instances.Reset()
	e.refs.Reset()
	e.directory.reset()

	type unserver interface{ Unserve(address.Address) }
	if u, ok := e.transport.(unserver); ok {
		u.Unserve(e.addr)
	}

	e.logger.Infof("Grain engine stopped on node (%s)", e.addr.String())
	return err
}

// RegisterKind associates a kind name with the factory used to instantiate
// that behavior on demand. Registration is local to this node; every node of
// the cluster registers the kinds it is willing to host.
func (e *Engine) RegisterKind(kind string, factory Factory) error {
	if err := validateKindName(kind); err != nil {
		return err
	}
	e.kinds.Set(kind, factory)
	return nil
}

// DeregisterKind removes a kind registration. Running instances of the kind
// are unaffected; only new activations are prevented.
func (e *Engine) DeregisterKind(kind string) {
	e.kinds.Delete(kind)
}

// ActivateOrGet returns the handle of the live instance serving the given
// key on this node, activating one when none exists. The operation is
// idempotent and concurrent calls for the same key collapse into a single
// activation.
func (e *Engine) ActivateOrGet(ctx context.Context, key GrainKey) (Handle, error) {
	if !e.started.Load() {
		return Handle{}, gerrors.ErrEngineNotStarted
	}

	if err := key.Validate(); err != nil {
		return Handle{}, gerrors.NewErrInvalidGrainKey(err)
	}

	pid, err := e.runActivation(key.String(), func() (*grainPID, error) {
		if pid, ok := e.instances.Get(key.String()); ok && pid.isActive() {
			return pid, nil
		}

		factory, ok := e.kinds.Get(key.Kind())
		if !ok {
			return nil, fmt.Errorf("%w: %s", gerrors.ErrKindNotRegistered, key.Kind())
		}

		grain, err := factory(ctx)
		if err != nil {
			return nil, gerrors.NewErrActivationFailed(err)
		}

		props := &Props{key: key, node: e.addr, logger: e.logger}
		pid := newGrainPID(key, grain, props, e.logger)
		if err := pid.activate(ctx, e.activationRetries, e.activationTimeout); err != nil {
			return nil, err
		}

		e.instances.Set(key.String(), pid)
		e.refs.Set(pid.ref, pid)
		return pid, nil
	})
	if err != nil {
		return Handle{}, err
	}

	return NewHandle(key, e.addr, pid.ref), nil
}

// Dispatch delivers a message to a local grain instance identified by its
// ref. Dispatching against a terminated or unknown ref returns
// ErrUndeliverable; this is the signal the router uses to trigger respawn.
// A grain replying nil is answered with an Ack.
func (e *Engine) Dispatch(ctx context.Context, ref string, message any) (any, error) {
	if !e.started.Load() {
		return nil, gerrors.ErrUndeliverable
	}

	pid, ok := e.refs.Get(ref)
	if !ok {
		return nil, gerrors.ErrUndeliverable
	}

	switch message.(type) {
	case *Die, Die:
		if err := e.terminate(ctx, pid); err != nil {
			return nil, err
		}
		return &Ack{}, nil
	case *WhereAmI, WhereAmI:
		if !pid.isActive() {
			return nil, gerrors.ErrUndeliverable
		}
		return &GrainLocation{Host: e.addr.Host(), Port: e.addr.Port()}, nil
	default:
		response, err := pid.receive(ctx, message)
		if err != nil {
			return nil, err
		}
		if response == nil {
			response = &Ack{}
		}
		return response, nil
	}
}

// Terminate explicitly kills the grain instance behind the given ref,
// deregistering it and freeing its key for a future activation.
func (e *Engine) Terminate(ctx context.Context, ref string) error {
	pid, ok := e.refs.Get(ref)
	if !ok {
		return gerrors.ErrUndeliverable
	}
	return e.terminate(ctx, pid)
}

// Report answers the heartbeat question: how many grain instances are
// currently active on this node.
func (e *Engine) Report() int {
	count := 0
	e.instances.Range(func(_ string, pid *grainPID) {
		if pid.isActive() {
			count++
		}
	})
	return count
}

// Keys returns the keys of the grain instances currently active on this node
func (e *Engine) Keys() []GrainKey {
	keys := make([]GrainKey, 0, e.instances.Len())
	e.instances.Range(func(_ string, pid *grainPID) {
		if pid.isActive() {
			keys = append(keys, pid.key)
		}
	})
	return keys
}

// HandleActivate serves a placement request from a peer node.
func (e *Engine) HandleActivate(ctx context.Context, req *remote.ActivateRequest) (*remote.ActivateResponse, error) {
	handle, err := e.ActivateOrGet(ctx, NewGrainKey(req.Kind, req.Identity))
	if err != nil {
		return nil, err
	}
	return &remote.ActivateResponse{
		Ref:  handle.Ref(),
		Host: e.addr.Host(),
		Port: e.addr.Port(),
	}, nil
}

// HandleDispatch serves a dispatch request from a peer node.
func (e *Engine) HandleDispatch(ctx context.Context, req *remote.DispatchRequest) (*remote.DispatchResponse, error) {
	message, err := remote.Unmarshal(req.Payload)
	if err != nil {
		return nil, err
	}

	response, err := e.Dispatch(ctx, req.Ref, message)
	if err != nil {
		return nil, err
	}

	payload, err := remote.Marshal(response)
	if err != nil {
		return nil, err
	}
	return &remote.DispatchResponse{Payload: payload}, nil
}

// HandleHeartbeat serves a heartbeat request from any caller.
func (e *Engine) HandleHeartbeat(_ context.Context, _ *remote.HeartbeatRequest) (*remote.HeartbeatResponse, error) {
	return &remote.HeartbeatResponse{Count: e.Report()}, nil
}

// runActivation ensures only one activation attempt per grain key executes at
// a time on this node. Concurrent callers share the same result.
func (e *Engine) runActivation(key string, fn func() (*grainPID, error)) (*grainPID, error) {
	res, err, _ := e.activation.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}

	pid, ok := res.(*grainPID)
	if !ok {
		return nil, fmt.Errorf("unexpected grain activation result for %s", key)
	}
	return pid, nil
}

// terminate deactivates the instance and removes it from the runtime tables.
// Deregistration happens regardless of the outcome of the deactivation hook
// so that the key is always freed for a respawn.
func (e *Engine) terminate(ctx context.Context, pid *grainPID) error {
	err := pid.deactivate(ctx)

	if current, ok := e.instances.Get(pid.key.String()); ok && current.ref == pid.ref {
		e.instances.Delete(pid.key.String())
	}
	e.refs.Delete(pid.ref)
	e.directory.Invalidate(pid.key)

	return err
}

// validateKindName checks that a kind name is well formed
func validateKindName(kind string) error {
	key := NewGrainKey(kind, "placeholder")
	if err := key.Validate(); err != nil {
		return gerrors.NewErrInvalidGrainKey(err)
	}
	return nil
}
