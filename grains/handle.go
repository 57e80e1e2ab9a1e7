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
	"github.com/swarmsys/grains/address"
)

// Handle is the physical location currently serving a grain key: the owning
// node plus an opaque instance ref. Handles cached by remote directories are
// hints with no ownership; they are only revalidated through the router's
// undeliverable path.
type Handle struct {
	key  GrainKey
	addr address.Address
	ref  string
}

// NewHandle creates a handle for the given key, node address and instance ref.
func NewHandle(key GrainKey, addr address.Address, ref string) Handle {
	return Handle{key: key, addr: addr, ref: ref}
}

// Key returns the grain key this handle serves
func (h Handle) Key() GrainKey {
	return h.key
}

// Address returns the address of the hosting node
func (h Handle) Address() address.Address {
	return h.addr
}

// Ref returns the opaque ref of the grain instance
func (h Handle) Ref() string {
	return h.ref
}

// IsZero returns true when the handle carries no location
func (h Handle) IsZero() bool {
	return h.ref == "" && h.addr.IsZero()
}
