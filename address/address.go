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

// Package address provides the canonical representation of a node address in
// a grains cluster.
//
// An Address identifies the network endpoint of a single node:
//
//   - Host: network host or IP where the node is reachable
//   - Port: TCP port where the node is reachable
//
// The canonical textual representation of an Address is "host:port".
package address

import (
	"net"
	"strconv"

	gerrors "github.com/swarmsys/grains/errors"
)

// Address represents the network address of a node hosting grains.
//
// Address values are immutable and safe for concurrent use.
type Address struct {
	host string
	port int
}

// New creates a new Address with the given host and port.
//
// New does not validate the inputs; call Validate to verify the
// resulting address.
func New(host string, port int) Address {
	return Address{host: host, port: port}
}

// From parses an Address from its canonical "host:port" representation.
func From(addr string) (Address, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return Address{}, gerrors.NewErrNodeUnavailable(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, gerrors.ErrInvalidHost
	}
	return Address{host: host, port: port}, nil
}

// Host returns the address host
func (a Address) Host() string {
	return a.host
}

// Port returns the address port
func (a Address) Port() int {
	return a.port
}

// String returns the canonical "host:port" representation of the address
func (a Address) String() string {
	return net.JoinHostPort(a.host, strconv.Itoa(a.port))
}

// Equal returns true when both addresses point to the same endpoint
func (a Address) Equal(other Address) bool {
	return a.host == other.host && a.port == other.port
}

// IsZero returns true when the address carries no endpoint
func (a Address) IsZero() bool {
	return a.host == "" && a.port == 0
}

// Validate checks that the address denotes a valid TCP endpoint
func (a Address) Validate() error {
	if a.host == "" || a.port <= 0 || a.port > 65535 {
		return gerrors.ErrInvalidHost
	}
	if _, err := net.ResolveTCPAddr("tcp", a.String()); err != nil {
		return gerrors.ErrInvalidHost
	}
	return nil
}
