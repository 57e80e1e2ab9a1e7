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

package cluster

import (
	"context"

	"github.com/swarmsys/grains/address"
	"github.com/swarmsys/grains/discovery"
	gerrors "github.com/swarmsys/grains/errors"
)

// Registry supplies the current member roster of the cluster.
//
// Membership itself is an external concern; the grains core only requires a
// fresh snapshot per operation so that placement decisions use a consistent
// roster for the duration of a single request.
type Registry interface {
	// CurrentMembers returns a snapshot of the reachable members
	CurrentMembers(ctx context.Context) (*Snapshot, error)
}

// StaticRegistry is a Registry over a fixed member roster.
// It is suitable for tests and for deployments with a known topology.
type StaticRegistry struct {
	snapshot *Snapshot
}

var _ Registry = (*StaticRegistry)(nil)

// NewStaticRegistry creates a StaticRegistry from the given members.
func NewStaticRegistry(members ...address.Address) *StaticRegistry {
	return &StaticRegistry{snapshot: NewSnapshot(members...)}
}

// CurrentMembers implementation
func (r *StaticRegistry) CurrentMembers(_ context.Context) (*Snapshot, error) {
	if r.snapshot.Len() == 0 {
		return nil, gerrors.ErrEmptyRoster
	}
	return r.snapshot, nil
}

// ProviderRegistry adapts a discovery.Provider into a Registry.
// Every call discovers the peers again so membership changes are picked up
// by the next placement decision. Providers report peers only, so the local
// node address is folded into every snapshot.
type ProviderRegistry struct {
	provider discovery.Provider
	self     address.Address
}

var _ Registry = (*ProviderRegistry)(nil)

// NewProviderRegistry creates a ProviderRegistry backed by the given provider.
// The provider must have been initialized and registered beforehand.
func NewProviderRegistry(provider discovery.Provider, self address.Address) *ProviderRegistry {
	return &ProviderRegistry{provider: provider, self: self}
}

// CurrentMembers implementation
func (r *ProviderRegistry) CurrentMembers(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	peers, err := r.provider.DiscoverPeers()
	if err != nil {
		return nil, gerrors.NewErrNodeUnavailable(err)
	}

	members := make([]address.Address, 0, len(peers)+1)
	if !r.self.IsZero() {
		members = append(members, r.self)
	}
	for _, peer := range peers {
		member, err := address.From(peer)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if len(members) == 0 {
		return nil, gerrors.ErrEmptyRoster
	}

	return NewSnapshot(members...), nil
}
