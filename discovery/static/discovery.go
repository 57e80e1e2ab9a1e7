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

// Package static provides a discovery provider over a fixed list of node
// addresses. It is meant for tests and deployments with a known topology.
package static

import (
	"go.uber.org/atomic"

	"github.com/swarmsys/grains/discovery"
	"github.com/swarmsys/grains/internal/validation"
)

// Config represents the static provider configuration
type Config struct {
	// Addresses defines the peer addresses in the format host:port
	Addresses []string
}

// Validate checks whether the given configuration is valid
func (c Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddAssertion(len(c.Addresses) > 0, "addresses are required").
		Validate()
}

// Discovery represents the static discovery provider
type Discovery struct {
	config      *Config
	initialized *atomic.Bool
}

// enforce compilation error
var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery returns an instance of the static discovery provider
func NewDiscovery(config *Config) *Discovery {
	return &Discovery{
		config:      config,
		initialized: atomic.NewBool(false),
	}
}

// ID returns the discovery provider id
func (d *Discovery) ID() string {
	return "static"
}

// Initialize initializes the provider
func (d *Discovery) Initialize() error {
	if d.initialized.Load() {
		return discovery.ErrAlreadyInitialized
	}
	if err := d.config.Validate(); err != nil {
		return err
	}
	d.initialized.Store(true)
	return nil
}

// Register registers this node to a service discovery directory
func (d *Discovery) Register() error {
	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}
	return nil
}

// Deregister removes this node from a service discovery directory
func (d *Discovery) Deregister() error {
	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}
	return nil
}

// DiscoverPeers returns the list of configured peers
func (d *Discovery) DiscoverPeers() ([]string, error) {
	if !d.initialized.Load() {
		return nil, discovery.ErrNotInitialized
	}
	return d.config.Addresses, nil
}

// Close closes the provider
func (d *Discovery) Close() error {
	d.initialized.Store(false)
	return nil
}
