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

// Package discovery defines the contract used to find the other nodes of a
// grains cluster. A provider only answers "who are my peers"; the placement
// layer turns the answer into a consistent roster snapshot.
package discovery

import "errors"

var (
	// ErrAlreadyInitialized is returned when initializing an already initialized provider
	ErrAlreadyInitialized = errors.New("provider already initialized")
	// ErrNotInitialized is returned when the provider has not been initialized
	ErrNotInitialized = errors.New("provider not initialized")
	// ErrAlreadyRegistered is returned when registering an already registered node
	ErrAlreadyRegistered = errors.New("node already registered")
	// ErrNotRegistered is returned when the node has not been registered
	ErrNotRegistered = errors.New("node not registered")
)

// Provider helps discover the other running nodes of the cluster
type Provider interface {
	// ID returns the discovery provider name
	ID() string
	// Initialize initializes the provider: internal data structures, clients etc.
	Initialize() error
	// Register registers this node to the discovery directory.
	Register() error
	// Deregister removes this node from the discovery directory.
	Deregister() error
	// DiscoverPeers returns the addresses of the known peer nodes.
	// The local node is not part of the answer.
	DiscoverPeers() ([]string, error)
	// Close closes the provider
	Close() error
}
