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
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/internal/collection"
	"github.com/swarmsys/grains/remote"
)

// Directory resolves grain keys to the handle of the single live instance
// serving them anywhere in the cluster.
//
// Resolution is deterministic: the placement function elects an owner node
// from the current member roster and the directory asks that node to
// activate or return its instance. Successful resolutions are cached;
// entries are invalidated when a dispatch against them reports the instance
// gone, which is what drives respawn on the next lookup.
type Directory struct {
	engine *Engine
	cache  *collection.Map[string, Handle]

	// resolution collapses concurrent lookups of the same key
	resolution singleflight.Group
}

func newDirectory(engine *Engine) *Directory {
	return &Directory{
		engine: engine,
		cache:  collection.NewMap[string, Handle](),
	}
}

// Resolve returns the handle of the live grain instance for the given key,
// activating one on the owning node when none exists. Concurrent resolutions
// of the same key share a single placement round trip.
func (d *Directory) Resolve(ctx context.Context, key GrainKey) (Handle, error) {
	if !d.engine.started.Load() {
		return Handle{}, gerrors.ErrEngineNotStarted
	}

	if err := key.Validate(); err != nil {
		return Handle{}, gerrors.NewErrInvalidGrainKey(err)
	}

	if handle, ok := d.cache.Get(key.String()); ok {
		return handle, nil
	}

	res, err, _ := d.resolution.Do(key.String(), func() (any, error) {
		if handle, ok := d.cache.Get(key.String()); ok {
			return handle, nil
		}

		handle, err := d.resolve(ctx, key)
		if err != nil {
			return Handle{}, err
		}

		d.cache.Set(key.String(), handle)
		return handle, nil
	})
	if err != nil {
		return Handle{}, err
	}

	handle, ok := res.(Handle)
	if !ok {
		return Handle{}, fmt.Errorf("unexpected resolution result for %s", key.String())
	}
	return handle, nil
}

// Lookup returns the cached handle for the given key without resolving it.
func (d *Directory) Lookup(key GrainKey) (Handle, bool) {
	return d.cache.Get(key.String())
}

// Invalidate removes the cached handle of the given key. The next Resolve
// performs a fresh placement, which respawns the grain when its previous
// instance was terminated.
func (d *Directory) Invalidate(key GrainKey) {
	d.cache.Delete(key.String())
	d.resolution.Forget(key.String())
}

// reset drops every cached handle
func (d *Directory) reset() {
	d.cache.Reset()
}

// resolve performs a single placement round trip for the given key.
func (d *Directory) resolve(ctx context.Context, key GrainKey) (Handle, error) {
	snapshot, err := d.engine.members.CurrentMembers(ctx)
	if err != nil {
		return Handle{}, gerrors.NewErrNodeUnavailable(err)
	}

	owner, err := d.engine.placement.Owner(snapshot, key.String())
	if err != nil {
		return Handle{}, err
	}

	if owner.Equal(d.engine.addr) {
		return d.engine.ActivateOrGet(ctx, key)
	}

	response, err := d.engine.transport.Activate(ctx, owner, &remote.ActivateRequest{
		Kind:     key.Kind(),
		Identity: key.Identity(),
	})
	if err != nil {
		return Handle{}, mapRemoteError(err)
	}

	return NewHandle(key, owner, response.Ref), nil
}

// mapRemoteError keeps taxonomy errors intact and folds everything else into
// a node unavailability so that callers see one failure mode for dead peers.
func mapRemoteError(err error) error {
	switch {
	case errors.Is(err, gerrors.ErrUndeliverable),
		errors.Is(err, gerrors.ErrActivationFailed),
		errors.Is(err, gerrors.ErrKindNotRegistered),
		errors.Is(err, gerrors.ErrInvalidGrainKey),
		errors.Is(err, gerrors.ErrNodeUnavailable),
		errors.Is(err, gerrors.ErrRequestTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return err
	default:
		return gerrors.NewErrNodeUnavailable(err)
	}
}
