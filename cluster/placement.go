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
	"fmt"

	"github.com/swarmsys/grains/address"
	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/hash"
)

// Placement decides which node should host a given grain key.
//
// The decision uses rendezvous (highest-random-weight) hashing over the
// member roster: every node scores the (key, member) pair and the member with
// the highest score wins. Given the same snapshot, every node in the cluster
// derives the same owner without any coordination, and a membership change
// only relocates the keys owned by the affected nodes.
type Placement struct {
	hasher hash.Hasher
}

// NewPlacement creates a Placement backed by the given hasher.
// When hasher is nil the default hasher is used.
func NewPlacement(hasher hash.Hasher) *Placement {
	if hasher == nil {
		hasher = hash.DefaultHasher()
	}
	return &Placement{hasher: hasher}
}

// Owner returns the member of the snapshot that owns the given key.
func (p *Placement) Owner(snapshot *Snapshot, key string) (address.Address, error) {
	if snapshot == nil || snapshot.Len() == 0 {
		return address.Address{}, gerrors.ErrEmptyRoster
	}

	var (
		owner address.Address
		best  uint64
		found bool
	)

	for _, member := range snapshot.Members() {
		score := p.hasher.HashCode([]byte(fmt.Sprintf("%s@%s", key, member.String())))
		if !found || score > best {
			owner = member
			best = score
			found = true
		}
	}

	return owner, nil
}
