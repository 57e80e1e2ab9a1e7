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
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/swarmsys/grains/address"
	"github.com/swarmsys/grains/cluster"
	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/internal/lib"
	"github.com/swarmsys/grains/log"
	"github.com/swarmsys/grains/remote"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
}

// ping asks an echo grain to repeat a message
type ping struct {
	Message string `cbor:"1,keyasint"`
}

// pong is the echo grain answer
type pong struct {
	Identity string `cbor:"1,keyasint"`
	Kind     string `cbor:"2,keyasint"`
	Message  string `cbor:"3,keyasint"`
}

func init() {
	remote.RegisterTypes(ping{}, pong{})
}

// echoGrain is the workhorse test grain. It records its activations on a
// shared counter and answers ping with a pong stamped with its own key.
type echoGrain struct {
	activations   *atomic.Int64
	deactivations *atomic.Int64
	props         *Props
}

var _ Grain = (*echoGrain)(nil)

func (g *echoGrain) OnActivate(_ context.Context, props *Props) error {
	g.props = props
	if g.activations != nil {
		g.activations.Inc()
	}
	return nil
}

func (g *echoGrain) OnDeactivate(context.Context, *Props) error {
	if g.deactivations != nil {
		g.deactivations.Inc()
	}
	return nil
}

func (g *echoGrain) Receive(_ context.Context, message any) (any, error) {
	switch msg := message.(type) {
	case *ping:
		return &pong{
			Identity: g.props.Key().Identity(),
			Kind:     g.props.Key().Kind(),
			Message:  msg.Message,
		}, nil
	default:
		return nil, gerrors.ErrUnhandledMessage
	}
}

// brokenGrain always fails to activate
type brokenGrain struct{}

var _ Grain = (*brokenGrain)(nil)

func (brokenGrain) OnActivate(context.Context, *Props) error {
	return errors.New("boom")
}
func (brokenGrain) OnDeactivate(context.Context, *Props) error { return nil }
func (brokenGrain) Receive(context.Context, any) (any, error)  { return nil, nil }

// sleepyGrain blocks on every message until the context expires
type sleepyGrain struct{}

var _ Grain = (*sleepyGrain)(nil)

func (sleepyGrain) OnActivate(context.Context, *Props) error   { return nil }
func (sleepyGrain) OnDeactivate(context.Context, *Props) error { return nil }
func (sleepyGrain) Receive(ctx context.Context, _ any) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(30 * time.Second):
		return nil, nil
	}
}

// slowStopGrain counts its deactivations and takes a while to run them
type slowStopGrain struct {
	deactivations *atomic.Int64
}

var _ Grain = (*slowStopGrain)(nil)

func (g *slowStopGrain) OnActivate(context.Context, *Props) error { return nil }
func (g *slowStopGrain) OnDeactivate(context.Context, *Props) error {
	lib.Pause(200 * time.Millisecond)
	g.deactivations.Inc()
	return nil
}
func (g *slowStopGrain) Receive(context.Context, any) (any, error) { return nil, nil }

// silentGrain acknowledges every message with a nil reply
type silentGrain struct{}

var _ Grain = (*silentGrain)(nil)

func (silentGrain) OnActivate(context.Context, *Props) error   { return nil }
func (silentGrain) OnDeactivate(context.Context, *Props) error { return nil }
func (silentGrain) Receive(context.Context, any) (any, error)  { return nil, nil }

func echoFactory(counter *atomic.Int64) Factory {
	return func(context.Context) (Grain, error) {
		return &echoGrain{activations: counter}, nil
	}
}

// newTestEngine starts an engine on the shared in-process transport with the
// "Echo" kind pre-registered. The engine is stopped on test cleanup.
func newTestEngine(t *testing.T, transport *remote.InprocTransport, self address.Address, members cluster.Registry, counter *atomic.Int64, opts ...Option) *Engine {
	t.Helper()

	opts = append([]Option{WithLogger(log.DiscardLogger)}, opts...)
	engine := NewEngine(self, transport, members, opts...)
	require.NoError(t, engine.RegisterKind("Echo", echoFactory(counter)))
	require.NoError(t, engine.Start(context.TODO()))

	t.Cleanup(func() {
		if engine.Running() {
			require.NoError(t, engine.Stop(context.TODO()))
		}
	})

	return engine
}

func startNatsServer(t *testing.T) *natsserver.Server {
	t.Helper()
	serv, err := natsserver.NewServer(&natsserver.Options{
		Host: "127.0.0.1",
		Port: -1,
	})

	require.NoError(t, err)

	ready := make(chan bool)
	go func() {
		ready <- true
		serv.Start()
	}()
	<-ready

	if !serv.ReadyForConnections(2 * time.Second) {
		t.Fatalf("nats-io server failed to start")
	}

	return serv
}

// newNatsEngine starts an engine backed by its own NATS transport.
// Both the engine and the transport are torn down on test cleanup.
func newNatsEngine(t *testing.T, serverURL string, self address.Address, members cluster.Registry, counter *atomic.Int64, opts ...Option) *Engine {
	t.Helper()

	transport, err := remote.NewNatsTransport(serverURL, remote.WithNatsLogger(log.DiscardLogger))
	require.NoError(t, err)

	opts = append([]Option{WithLogger(log.DiscardLogger)}, opts...)
	engine := NewEngine(self, transport, members, opts...)
	require.NoError(t, engine.RegisterKind("Echo", echoFactory(counter)))
	require.NoError(t, engine.Start(context.TODO()))

	t.Cleanup(func() {
		if engine.Running() {
			require.NoError(t, engine.Stop(context.TODO()))
		}
		require.NoError(t, transport.Close())
	})

	return engine
}

// twoNodeAddrs allocates two distinct node addresses
func twoNodeAddrs() (address.Address, address.Address) {
	ports := dynaport.Get(2)
	return address.New("127.0.0.1", ports[0]), address.New("127.0.0.1", ports[1])
}
