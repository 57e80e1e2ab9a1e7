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

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/remote"
)

// ClusterReport asks every member of the cluster how many grain instances it
// currently hosts and returns the total. The fan-out runs concurrently and
// the local node is counted without a network round trip.
func (e *Engine) ClusterReport(ctx context.Context) (int, error) {
	if !e.started.Load() {
		return 0, gerrors.ErrEngineNotStarted
	}

	snapshot, err := e.members.CurrentMembers(ctx)
	if err != nil {
		return 0, gerrors.NewErrNodeUnavailable(err)
	}

	if snapshot.Len() == 0 {
		return 0, gerrors.ErrEmptyRoster
	}

	total := atomic.NewInt64(0)
	eg, ctx := errgroup.WithContext(ctx)

	for _, member := range snapshot.Members() {
		if member.Equal(e.addr) {
			total.Add(int64(e.Report()))
			continue
		}

		eg.Go(func() error {
			response, err := e.transport.Heartbeat(ctx, member, &remote.HeartbeatRequest{})
			if err != nil {
				return mapRemoteError(err)
			}
			total.Add(int64(response.Count))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return 0, err
	}

	return int(total.Load()), nil
}
