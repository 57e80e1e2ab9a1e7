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

// Package nats provides a discovery provider where cluster nodes meet on a
// NATS subject. Every node subscribes to the subject, answers identification
// requests with its own address, and discovers peers by broadcasting such a
// request and collecting the answers.
package nats

import (
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	"github.com/swarmsys/grains/discovery"
	"github.com/swarmsys/grains/log"
)

const (
	messageTypeRegister   = "register"
	messageTypeDeregister = "deregister"
	messageTypeRequest    = "request"
	messageTypeResponse   = "response"
)

// message is the payload exchanged on the discovery subject
type message struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Discovery represents the nats discovery provider
type Discovery struct {
	config *Config
	mu     sync.Mutex

	initialized *atomic.Bool
	registered  *atomic.Bool

	connection    *nats.EncodedConn
	subscriptions []*nats.Subscription

	logger log.Logger
}

// enforce compilation error
var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery returns an instance of the nats discovery provider
func NewDiscovery(config *Config, opts ...Option) *Discovery {
	d := &Discovery{
		config:      config,
		initialized: atomic.NewBool(false),
		registered:  atomic.NewBool(false),
		logger:      log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(d)
	}

	return d
}

// ID returns the discovery provider id
func (d *Discovery) ID() string {
	return "nats"
}

// Initialize initializes the provider: validates the configuration and
// connects to the nats server with an exponential backoff.
func (d *Discovery) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized.Load() {
		return discovery.ErrAlreadyInitialized
	}

	if err := d.config.Validate(); err != nil {
		return err
	}

	if d.config.Timeout <= 0 {
		d.config.Timeout = time.Second
	}

	opts := nats.GetDefaultOptions()
	opts.Url = d.config.Server
	opts.Name = d.config.Name
	opts.ReconnectWait = 2 * time.Second
	opts.MaxReconnect = -1

	var connection *nats.Conn

	// attempt to connect a few times before giving up so that a node can
	// start slightly ahead of its nats server
	const maxRetries = 5
	retrier := retry.NewRetrier(maxRetries, 100*time.Millisecond, opts.ReconnectWait)
	err := retrier.Run(func() error {
		var err error
		connection, err = opts.Connect()
		return err
	})
	if err != nil {
		return err
	}

	encodedConn, err := nats.NewEncodedConn(connection, nats.JSON_ENCODER)
	if err != nil {
		return err
	}

	d.connection = encodedConn
	d.initialized.Store(true)
	return nil
}

// Register subscribes this node to the discovery subject so it can answer
// identification requests from its peers.
func (d *Discovery) Register() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}

	if d.registered.Load() {
		return discovery.ErrAlreadyRegistered
	}

	handler := func(_, reply string, msg *message) {
		switch msg.Type {
		case messageTypeDeregister:
			d.logger.Infof("received a deregistration request from peer[name=%s, host=%s, port=%d]",
				msg.Name, msg.Host, msg.Port)
		case messageTypeRegister:
			d.logger.Infof("received a registration request from peer[name=%s, host=%s, port=%d]",
				msg.Name, msg.Host, msg.Port)
		case messageTypeRequest:
			d.logger.Debugf("received an identification request from peer[name=%s, host=%s, port=%d]",
				msg.Name, msg.Host, msg.Port)

			replyMessage := &message{
				Host: d.config.Host,
				Port: d.config.Port,
				Name: d.config.Name,
				Type: messageTypeResponse,
			}

			if err := d.connection.Publish(reply, replyMessage); err != nil {
				d.logger.Errorf("failed to reply to identification request from peer[name=%s]: %v", msg.Name, err)
			}
		}
	}

	subscription, err := d.connection.Subscribe(d.config.Subject, handler)
	if err != nil {
		return err
	}

	d.subscriptions = append(d.subscriptions, subscription)
	d.registered.Store(true)
	return nil
}

// Deregister removes this node from the discovery directory and notifies the peers
func (d *Discovery) Deregister() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.registered.Load() {
		return discovery.ErrNotRegistered
	}

	for _, subscription := range d.subscriptions {
		if subscription != nil && subscription.IsValid() {
			if err := subscription.Unsubscribe(); err != nil {
				return err
			}
		}
	}
	d.subscriptions = nil

	d.registered.Store(false)
	if d.connection != nil {
		return d.connection.Publish(d.config.Subject, &message{
			Host: d.config.Host,
			Port: d.config.Port,
			Name: d.config.Name,
			Type: messageTypeDeregister,
		})
	}

	return nil
}

// DiscoverPeers broadcasts an identification request and collects as many
// responses as arrive within the configured timeout. The local node is not
// part of the answer.
func (d *Discovery) DiscoverPeers() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return nil, discovery.ErrNotInitialized
	}

	if !d.registered.Load() {
		return nil, discovery.ErrNotRegistered
	}

	inbox := nats.NewInbox()
	recv := make(chan *message, 64)

	sub, err := d.connection.BindRecvChan(inbox, recv)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sub.Unsubscribe() }()

	if err = d.connection.PublishRequest(d.config.Subject, inbox, &message{
		Host: d.config.Host,
		Port: d.config.Port,
		Name: d.config.Name,
		Type: messageTypeRequest,
	}); err != nil {
		return nil, err
	}

	var peers []string
	me := net.JoinHostPort(d.config.Host, strconv.Itoa(d.config.Port))
	timeout := time.After(d.config.Timeout)

	for {
		select {
		case m, ok := <-recv:
			if !ok {
				return peers, nil
			}

			addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
			if addr == me {
				continue
			}
			peers = append(peers, addr)

		case <-timeout:
			return peers, nil
		}
	}
}

// Close closes the provider
func (d *Discovery) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.initialized.Store(false)
	d.registered.Store(false)

	if d.connection != nil {
		defer func() {
			d.connection.Close()
			d.connection = nil
		}()

		for _, subscription := range d.subscriptions {
			if subscription != nil && subscription.IsValid() {
				if err := subscription.Unsubscribe(); err != nil {
					return err
				}
			}
		}

		return d.connection.Flush()
	}
	return nil
}
