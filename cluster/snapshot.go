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
	"sort"

	goset "github.com/deckarep/golang-set/v2"

	"github.com/swarmsys/grains/address"
)

// Snapshot is an immutable view of the cluster member roster taken at a
// single point in time. Placement decisions made against the same snapshot
// are deterministic on every node.
type Snapshot struct {
	members []address.Address
}

// NewSnapshot builds a Snapshot from the given member addresses.
// Duplicates are removed and the roster is sorted so that two nodes building
// a snapshot from the same membership observe the same roster.
func NewSnapshot(members ...address.Address) *Snapshot {
	uniques := goset.NewSet[string]()
	deduped := make([]address.Address, 0, len(members))
	for _, member := range members {
		if uniques.Add(member.String()) {
			deduped = append(deduped, member)
		}
	}

	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].String() < deduped[j].String()
	})

	return &Snapshot{members: deduped}
}

// Members returns the roster of the snapshot
func (s *Snapshot) Members() []address.Address {
	return s.members
}

// Len returns the number of members in the snapshot
func (s *Snapshot) Len() int {
	return len(s.members)
}

// Contains returns true when the given address is part of the roster
func (s *Snapshot) Contains(addr address.Address) bool {
	for _, member := range s.members {
		if member.Equal(addr) {
			return true
		}
	}
	return false
}
