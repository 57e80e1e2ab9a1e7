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

package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/swarmsys/grains/address"
	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/log"
)

// NatsTransport is a Transport over NATS request/reply. Every node serves a
// subject derived from its address; a request to a subject with no live
// responder surfaces as ErrNodeUnavailable.
type NatsTransport struct {
	conn   *nats.Conn
	logger log.Logger
	closed *atomic.Bool

	mu            sync.Mutex
	subscriptions []*nats.Subscription
}

// enforce compilation error
var _ Transport = (*NatsTransport)(nil)

// NatsOption configures a NatsTransport
type NatsOption func(*NatsTransport)

// WithNatsLogger sets the transport logger
func WithNatsLogger(logger log.Logger) NatsOption {
	return func(t *NatsTransport) { t.logger = logger }
}

// NewNatsTransport connects to the given NATS server and returns a transport.
// The connection is attempted a few times with an exponential backoff so that
// a node can start slightly ahead of its nats server.
func NewNatsTransport(serverURL string, opts ...NatsOption) (*NatsTransport, error) {
	transport := &NatsTransport{
		logger: log.DefaultLogger,
		closed: atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt(transport)
	}

	options := nats.GetDefaultOptions()
	options.Url = serverURL
	options.ReconnectWait = 2 * time.Second
	options.MaxReconnect = -1

	var conn *nats.Conn

	const maxRetries = 5
	retrier := retry.NewRetrier(maxRetries, 100*time.Millisecond, options.ReconnectWait)
	err := retrier.Run(func() error {
		var err error
		conn, err = options.Connect()
		return err
	})
	if err != nil {
		return nil, err
	}

	transport.conn = conn
	return transport, nil
}

// Serve subscribes to the subject of the given node address and serves
// inbound requests with the handler. Requests are served concurrently.
func (t *NatsTransport) Serve(addr address.Address, handler Handler) error {
	if t.closed.Load() {
		return gerrors.ErrTransportClosed
	}

	if err := addr.Validate(); err != nil {
		return err
	}

	subscription, err := t.conn.Subscribe(subjectFor(addr), func(msg *nats.Msg) {
		go t.serve(handler, msg)
	})
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.subscriptions = append(t.subscriptions, subscription)
	t.mu.Unlock()
	return nil
}

// Activate implementation
func (t *NatsTransport) Activate(ctx context.Context, to address.Address, req *ActivateRequest) (*ActivateResponse, error) {
	response := new(ActivateResponse)
	if err := t.roundTrip(ctx, to, opActivate, req, response); err != nil {
		return nil, err
	}
	return response, nil
}

// Dispatch implementation
func (t *NatsTransport) Dispatch(ctx context.Context, to address.Address, req *DispatchRequest) (*DispatchResponse, error) {
	response := new(DispatchResponse)
	if err := t.roundTrip(ctx, to, opDispatch, req, response); err != nil {
		return nil, err
	}
	return response, nil
}

// Heartbeat implementation
func (t *NatsTransport) Heartbeat(ctx context.Context, to address.Address, req *HeartbeatRequest) (*HeartbeatResponse, error) {
	response := new(HeartbeatResponse)
	if err := t.roundTrip(ctx, to, opHeartbeat, req, response); err != nil {
		return nil, err
	}
	return response, nil
}

// Close implementation
func (t *NatsTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	t.mu.Lock()
	for _, subscription := range t.subscriptions {
		if subscription.IsValid() {
			err = multierr.Append(err, subscription.Unsubscribe())
		}
	}
	t.subscriptions = nil
	t.mu.Unlock()

	t.conn.Close()
	return err
}

// serve decodes an inbound frame, invokes the handler and replies with the
// outcome. Handler errors travel as reply codes so the caller can map them
// back onto the error taxonomy.
func (t *NatsTransport) serve(handler Handler, msg *nats.Msg) {
	var request frame
	if err := decMode.Unmarshal(msg.Data, &request); err != nil {
		t.logger.Errorf("failed to decode request frame: %v", err)
		return
	}

	ctx := context.Background()
	body, err := t.dispatchFrame(ctx, handler, &request)

	code, detail := toWireCode(err)
	response := reply{Code: code, Detail: detail, Body: body}

	payload, err := encMode.Marshal(response)
	if err != nil {
		t.logger.Errorf("failed to encode reply frame: %v", err)
		return
	}

	if err := msg.Respond(payload); err != nil {
		t.logger.Errorf("failed to respond to request: %v", err)
	}
}

func (t *NatsTransport) dispatchFrame(ctx context.Context, handler Handler, request *frame) ([]byte, error) {
	switch request.Op {
	case opActivate:
		req := new(ActivateRequest)
		if err := decMode.Unmarshal(request.Body, req); err != nil {
			return nil, err
		}
		resp, err := handler.HandleActivate(ctx, req)
		if err != nil {
			return nil, err
		}
		return encMode.Marshal(resp)
	case opDispatch:
		req := new(DispatchRequest)
		if err := decMode.Unmarshal(request.Body, req); err != nil {
			return nil, err
		}
		resp, err := handler.HandleDispatch(ctx, req)
		if err != nil {
			return nil, err
		}
		return encMode.Marshal(resp)
	case opHeartbeat:
		req := new(HeartbeatRequest)
		if err := decMode.Unmarshal(request.Body, req); err != nil {
			return nil, err
		}
		resp, err := handler.HandleHeartbeat(ctx, req)
		if err != nil {
			return nil, err
		}
		return encMode.Marshal(resp)
	default:
		return nil, fmt.Errorf("unknown operation code %d", request.Op)
	}
}

// roundTrip sends one request frame and decodes the reply into out.
func (t *NatsTransport) roundTrip(ctx context.Context, to address.Address, op uint8, req any, out any) error {
	if t.closed.Load() {
		return gerrors.ErrTransportClosed
	}

	body, err := encMode.Marshal(req)
	if err != nil {
		return err
	}

	payload, err := encMode.Marshal(frame{Op: op, Body: body})
	if err != nil {
		return err
	}

	msg, err := t.conn.RequestWithContext(ctx, subjectFor(to), payload)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return gerrors.NewErrNodeUnavailable(err)
		}
		return err
	}

	var response reply
	if err := decMode.Unmarshal(msg.Data, &response); err != nil {
		return err
	}

	if err := fromWireCode(response.Code, response.Detail); err != nil {
		return err
	}

	return decMode.Unmarshal(response.Body, out)
}

// subjectFor derives the NATS subject a node serves from its address
func subjectFor(addr address.Address) string {
	host := strings.NewReplacer(".", "_", ":", "_").Replace(addr.Host())
	return fmt.Sprintf("grains.node.%s.%d", host, addr.Port())
}
