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
	"time"

	"github.com/swarmsys/grains/hash"
	"github.com/swarmsys/grains/log"
)

// Option is the interface that applies an engine option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(engine *Engine)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(engine *Engine)

// Apply applies the options to Engine
func (f OptionFunc) Apply(engine *Engine) {
	f(engine)
}

// WithLogger sets the engine logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(engine *Engine) {
		engine.logger = logger
	})
}

// WithHasher sets the hasher used for grain placement.
// Every node of a cluster must use the same hasher.
func WithHasher(hasher hash.Hasher) Option {
	return OptionFunc(func(engine *Engine) {
		engine.hasher = hasher
	})
}

// WithActivationRetries sets the number of attempts of a grain activation hook
func WithActivationRetries(retries int) Option {
	return OptionFunc(func(engine *Engine) {
		engine.activationRetries = retries
	})
}

// WithActivationTimeout bounds a single grain activation attempt
func WithActivationTimeout(timeout time.Duration) Option {
	return OptionFunc(func(engine *Engine) {
		engine.activationTimeout = timeout
	})
}

// WithRequestTimeout sets the timeout applied to routed requests that carry
// no deadline of their own
func WithRequestTimeout(timeout time.Duration) Option {
	return OptionFunc(func(engine *Engine) {
		engine.requestTimeout = timeout
	})
}
