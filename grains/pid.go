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
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/log"
)

// grainPID is the runtime wrapper of a single activated grain instance.
//
// Lifecycle: Unactivated -> Active -> Terminated. The terminated state is
// terminal for the instance; the key becomes free for a fresh activation
// carrying a new ref.
type grainPID struct {
	grain Grain
	key   GrainKey
	ref   string
	props *Props

	logger log.Logger

	// activated is false both before activation and after termination
	activated *atomic.Bool

	// processing serializes message handling: one message at a time per instance
	processing sync.Mutex
}

func newGrainPID(key GrainKey, grain Grain, props *Props, logger log.Logger) *grainPID {
	return &grainPID{
		grain:     grain,
		key:       key,
		ref:       uuid.NewString(),
		props:     props,
		logger:    logger,
		activated: atomic.NewBool(false),
	}
}

// activate runs the grain's activation hook with retries.
func (pid *grainPID) activate(ctx context.Context, retries int, timeout time.Duration) error {
	logger := pid.logger
	logger.Infof("Activating Grain %s ...", pid.key.String())

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	retrier := retry.NewRetrier(retries, timeout, timeout)
	if err := retrier.RunContext(cctx, func(ctx context.Context) error {
		return pid.grain.OnActivate(ctx, pid.props)
	}); err != nil {
		logger.Errorf("Grain %s activation failed.", pid.key.String())
		return gerrors.NewErrActivationFailed(err)
	}

	pid.activated.Store(true)
	logger.Infof("Grain %s successfully activated.", pid.key.String())
	return nil
}

// deactivate runs the grain's deactivation hook and marks the instance
// terminated. The instance stops accepting messages before the hook runs.
func (pid *grainPID) deactivate(ctx context.Context) error {
	// the transition to Terminated happens exactly once; a concurrent
	// second kill finds the instance already gone and returns
	if !pid.activated.CompareAndSwap(true, false) {
		return nil
	}

	logger := pid.logger
	logger.Infof("Deactivating Grain %s ...", pid.key.String())

	// wait for an in-flight message to drain before running the hook
	pid.processing.Lock()
	defer pid.processing.Unlock()

	if err := pid.grain.OnDeactivate(ctx, pid.props); err != nil {
		logger.Errorf("Grain %s deactivation failed.", pid.key.String())
		return gerrors.NewErrDeactivationFailed(err)
	}

	logger.Infof("Grain %s successfully deactivated.", pid.key.String())
	return nil
}

// isActive returns true when the instance is ready to process messages
func (pid *grainPID) isActive() bool {
	return pid != nil && pid.activated.Load()
}

// receive hands a message to the grain behavior. Messages are processed one
// at a time; dispatching to a terminated instance is undeliverable.
func (pid *grainPID) receive(ctx context.Context, message any) (any, error) {
	if !pid.isActive() {
		return nil, gerrors.ErrUndeliverable
	}

	pid.processing.Lock()
	defer pid.processing.Unlock()

	if !pid.isActive() {
		return nil, gerrors.ErrUndeliverable
	}

	return pid.grain.Receive(ctx, message)
}
