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

// Package grains implements a virtual-actor core: identity-addressed grains
// that are lazily activated on exactly one node of a cluster, transparently
// respawned after failure, and reachable from any node through a logical
// (identity, kind) address.
//
// The package is organized around four collaborators:
//
//   - Engine: the per-node runtime owning the local grain instances.
//   - Directory: the per-node cache mapping a grain key to the handle of the
//     node currently hosting it.
//   - Router: the public entry point resolving, dispatching and recovering
//     from stale directory entries.
//   - heartbeat aggregation: on-demand liveness counting across the cluster.
package grains

import (
	"context"

	"github.com/swarmsys/grains/address"
	"github.com/swarmsys/grains/log"
	"github.com/swarmsys/grains/remote"
)

// Grain defines the contract for grains (virtual actors).
//
// A grain encapsulates state and behavior behind a stable logical identity.
// Instances are activated on demand by the engine and deactivated when they
// are explicitly terminated. Each instance processes one message at a time,
// so implementations need no internal synchronization for their own state.
type Grain interface {
	// OnActivate is called when the grain is loaded into memory.
	// Use this to load state or initialize resources. Returning an error
	// fails the activation.
	OnActivate(ctx context.Context, props *Props) error

	// OnDeactivate is called before the grain is removed from memory.
	// Use this to persist state and release resources.
	OnDeactivate(ctx context.Context, props *Props) error

	// Receive processes an incoming message and returns a response.
	// Only one call is active at a time per grain instance.
	Receive(ctx context.Context, message any) (any, error)
}

// Factory produces a new grain behavior instance for a registered kind.
type Factory func(ctx context.Context) (Grain, error)

// Props carries the runtime context handed to a grain instance.
type Props struct {
	key    GrainKey
	node   address.Address
	logger log.Logger
}

// Key returns the grain key
func (p *Props) Key() GrainKey {
	return p.key
}

// Node returns the address of the hosting node
func (p *Props) Node() address.Address {
	return p.node
}

// Logger returns the logger of the hosting engine
func (p *Props) Logger() log.Logger {
	return p.logger
}

// Die instructs a grain instance to terminate. The runtime deactivates the
// instance, frees its key for a future activation and acknowledges with Ack
// once deregistration completed.
type Die struct{}

// Ack acknowledges a control message.
type Ack struct{}

// WhereAmI asks a grain instance for the address of its hosting node.
type WhereAmI struct{}

// GrainLocation answers a WhereAmI query.
type GrainLocation struct {
	Host string `cbor:"1,keyasint"`
	Port int    `cbor:"2,keyasint"`
}

// Node returns the hosting node address carried by the location answer
func (l *GrainLocation) Node() address.Address {
	return address.New(l.Host, l.Port)
}

func init() {
	remote.RegisterTypes(Die{}, Ack{}, WhereAmI{}, GrainLocation{})
}
