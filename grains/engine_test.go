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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/swarmsys/grains/address"
	"github.com/swarmsys/grains/cluster"
	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/log"
	"github.com/swarmsys/grains/remote"
)

func TestEngineLifecycle(t *testing.T) {
	t.Run("With start and stop", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := NewEngine(addr, transport, cluster.NewStaticRegistry(addr), WithLogger(log.DiscardLogger))

		require.NoError(t, engine.Start(ctx))
		assert.True(t, engine.Running())
		require.ErrorIs(t, engine.Start(ctx), gerrors.ErrEngineAlreadyStarted)

		require.NoError(t, engine.Stop(ctx))
		assert.False(t, engine.Running())
		require.ErrorIs(t, engine.Stop(ctx), gerrors.ErrEngineNotStarted)
	})
	t.Run("With invalid node address", func(t *testing.T) {
		transport := remote.NewInprocTransport()
		engine := NewEngine(address.Address{}, transport, cluster.NewStaticRegistry(), WithLogger(log.DiscardLogger))
		require.Error(t, engine.Start(context.TODO()))
		assert.False(t, engine.Running())
	})
	t.Run("With not started engine", func(t *testing.T) {
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := NewEngine(addr, transport, cluster.NewStaticRegistry(addr), WithLogger(log.DiscardLogger))

		_, err := engine.ActivateOrGet(context.TODO(), NewGrainKey("Echo", "1"))
		require.ErrorIs(t, err, gerrors.ErrEngineNotStarted)
	})
	t.Run("With stop deactivating every instance", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		counter := atomic.NewInt64(0)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), counter)

		for _, identity := range []string{"1", "2", "3"} {
			_, err := engine.ActivateOrGet(ctx, NewGrainKey("Echo", identity))
			require.NoError(t, err)
		}
		assert.Equal(t, 3, engine.Report())

		require.NoError(t, engine.Stop(ctx))
		assert.Zero(t, engine.Report())
	})
}

func TestEngineActivateOrGet(t *testing.T) {
	t.Run("With idempotent activation", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		counter := atomic.NewInt64(0)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), counter)

		key := NewGrainKey("Echo", "1")
		first, err := engine.ActivateOrGet(ctx, key)
		require.NoError(t, err)
		second, err := engine.ActivateOrGet(ctx, key)
		require.NoError(t, err)

		assert.Equal(t, first.Ref(), second.Ref())
		assert.True(t, first.Address().Equal(addr))
		assert.EqualValues(t, 1, counter.Load())
	})
	t.Run("With concurrent activations collapsing into one", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		counter := atomic.NewInt64(0)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), counter)

		key := NewGrainKey("Echo", "1")
		refs := make([]string, 50)

		var wg sync.WaitGroup
		for i := range refs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				handle, err := engine.ActivateOrGet(ctx, key)
				require.NoError(t, err)
				refs[i] = handle.Ref()
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, counter.Load())
		for _, ref := range refs {
			assert.Equal(t, refs[0], ref)
		}
	})
	t.Run("With unregistered kind", func(t *testing.T) {
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)

		_, err := engine.ActivateOrGet(context.TODO(), NewGrainKey("Unknown", "1"))
		require.ErrorIs(t, err, gerrors.ErrKindNotRegistered)
	})
	t.Run("With invalid grain key", func(t *testing.T) {
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)

		_, err := engine.ActivateOrGet(context.TODO(), NewGrainKey("Echo", ""))
		require.ErrorIs(t, err, gerrors.ErrInvalidGrainKey)
	})
	t.Run("With failing activation hook", func(t *testing.T) {
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil,
			WithActivationRetries(1))
		require.NoError(t, engine.RegisterKind("Broken", func(context.Context) (Grain, error) {
			return brokenGrain{}, nil
		}))

		_, err := engine.ActivateOrGet(context.TODO(), NewGrainKey("Broken", "1"))
		require.ErrorIs(t, err, gerrors.ErrActivationFailed)
		assert.Zero(t, engine.Report())
	})
	t.Run("With activation after kill carrying a fresh ref", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		counter := atomic.NewInt64(0)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), counter)

		key := NewGrainKey("Echo", "1")
		first, err := engine.ActivateOrGet(ctx, key)
		require.NoError(t, err)

		response, err := engine.Dispatch(ctx, first.Ref(), &Die{})
		require.NoError(t, err)
		assert.IsType(t, &Ack{}, response)

		second, err := engine.ActivateOrGet(ctx, key)
		require.NoError(t, err)
		assert.NotEqual(t, first.Ref(), second.Ref())
		assert.EqualValues(t, 2, counter.Load())
	})
}

func TestEngineTerminate(t *testing.T) {
	t.Run("With concurrent kills deactivating once", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)

		deactivations := atomic.NewInt64(0)
		require.NoError(t, engine.RegisterKind("SlowStop", func(context.Context) (Grain, error) {
			return &slowStopGrain{deactivations: deactivations}, nil
		}))

		handle, err := engine.ActivateOrGet(ctx, NewGrainKey("SlowStop", "1"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(t, engine.Terminate(ctx, handle.Ref()))
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, deactivations.Load())
		assert.Zero(t, engine.Report())
	})
}

func TestEngineDispatch(t *testing.T) {
	t.Run("With unknown ref", func(t *testing.T) {
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)

		_, err := engine.Dispatch(context.TODO(), "no-such-ref", &ping{Message: "hi"})
		require.ErrorIs(t, err, gerrors.ErrUndeliverable)
	})
	t.Run("With terminated ref", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)

		handle, err := engine.ActivateOrGet(ctx, NewGrainKey("Echo", "1"))
		require.NoError(t, err)
		require.NoError(t, engine.Terminate(ctx, handle.Ref()))

		_, err = engine.Dispatch(ctx, handle.Ref(), &ping{Message: "hi"})
		require.ErrorIs(t, err, gerrors.ErrUndeliverable)
	})
	t.Run("With where am I", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)

		handle, err := engine.ActivateOrGet(ctx, NewGrainKey("Echo", "1"))
		require.NoError(t, err)

		response, err := engine.Dispatch(ctx, handle.Ref(), &WhereAmI{})
		require.NoError(t, err)
		location, ok := response.(*GrainLocation)
		require.True(t, ok)
		assert.True(t, location.Node().Equal(addr))
	})
	t.Run("With nil reply answered with ack", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)
		require.NoError(t, engine.RegisterKind("Silent", func(context.Context) (Grain, error) {
			return silentGrain{}, nil
		}))

		key := NewGrainKey("Silent", "1")
		handle, err := engine.ActivateOrGet(ctx, key)
		require.NoError(t, err)

		// the local path and the serialized remote path agree on the shape
		response, err := engine.Dispatch(ctx, handle.Ref(), &ping{Message: "hi"})
		require.NoError(t, err)
		assert.IsType(t, &Ack{}, response)

		payload, err := remote.Marshal(&ping{Message: "hi"})
		require.NoError(t, err)
		dispatched, err := engine.HandleDispatch(ctx, &remote.DispatchRequest{Ref: handle.Ref(), Payload: payload})
		require.NoError(t, err)
		reply, err := remote.Unmarshal(dispatched.Payload)
		require.NoError(t, err)
		assert.IsType(t, &Ack{}, reply)

		routed, err := engine.Router().Send(ctx, key, &ping{Message: "hi"})
		require.NoError(t, err)
		assert.IsType(t, &Ack{}, routed)
	})
	t.Run("With unhandled message", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)

		handle, err := engine.ActivateOrGet(ctx, NewGrainKey("Echo", "1"))
		require.NoError(t, err)

		_, err = engine.Dispatch(ctx, handle.Ref(), &pong{})
		require.ErrorIs(t, err, gerrors.ErrUnhandledMessage)
	})
}

func TestEngineHandler(t *testing.T) {
	t.Run("With serialized dispatch round trip", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)

		activation, err := engine.HandleActivate(ctx, &remote.ActivateRequest{Kind: "Echo", Identity: "42"})
		require.NoError(t, err)
		assert.Equal(t, addr.Host(), activation.Host)
		assert.Equal(t, addr.Port(), activation.Port)

		payload, err := remote.Marshal(&ping{Message: "hello"})
		require.NoError(t, err)

		response, err := engine.HandleDispatch(ctx, &remote.DispatchRequest{Ref: activation.Ref, Payload: payload})
		require.NoError(t, err)

		reply, err := remote.Unmarshal(response.Payload)
		require.NoError(t, err)
		assert.Equal(t, &pong{Identity: "42", Kind: "Echo", Message: "hello"}, reply)
	})
	t.Run("With heartbeat", func(t *testing.T) {
		ctx := context.TODO()
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)

		for _, identity := range []string{"1", "2"} {
			_, err := engine.ActivateOrGet(ctx, NewGrainKey("Echo", identity))
			require.NoError(t, err)
		}

		heartbeat, err := engine.HandleHeartbeat(ctx, &remote.HeartbeatRequest{})
		require.NoError(t, err)
		assert.Equal(t, 2, heartbeat.Count)
	})
}

func TestEngineKinds(t *testing.T) {
	t.Run("With invalid kind name", func(t *testing.T) {
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := NewEngine(addr, transport, cluster.NewStaticRegistry(addr), WithLogger(log.DiscardLogger))
		require.ErrorIs(t, engine.RegisterKind("", echoFactory(nil)), gerrors.ErrInvalidGrainKey)
	})
	t.Run("With deregistered kind", func(t *testing.T) {
		transport := remote.NewInprocTransport()
		addr := address.New("127.0.0.1", 8000)
		engine := newTestEngine(t, transport, addr, cluster.NewStaticRegistry(addr), nil)

		engine.DeregisterKind("Echo")
		_, err := engine.ActivateOrGet(context.TODO(), NewGrainKey("Echo", "1"))
		require.ErrorIs(t, err, gerrors.ErrKindNotRegistered)
	})
}
