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

package nats

import (
	"time"

	"github.com/swarmsys/grains/internal/validation"
)

// Config represents the nats provider configuration
type Config struct {
	// Server defines the nats server address in the format nats://host:port
	Server string
	// Subject defines the NATS subject the cluster nodes meet on
	Subject string
	// Host defines the host address of the local node
	Host string
	// Port defines the peer-visible port of the local node
	Port int
	// Name specifies the local node name
	Name string
	// Timeout defines the nodes discovery timeout
	Timeout time.Duration
}

// Validate checks whether the given configuration is valid
func (c Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Server", c.Server)).
		AddValidator(validation.NewEmptyStringValidator("Subject", c.Subject)).
		AddValidator(validation.NewEmptyStringValidator("Host", c.Host)).
		AddValidator(validation.NewEmptyStringValidator("Name", c.Name)).
		AddAssertion(c.Port > 0, "the [Port] is required").
		Validate()
}
