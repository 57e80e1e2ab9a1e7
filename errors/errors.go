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

// Package errors defines the error taxonomy surfaced by the grains runtime.
//
// Callers of the request router only ever observe four kinds of failures:
// ErrNodeUnavailable, ErrUndeliverable, ErrRequestTimeout and
// ErrActivationFailed. The remaining sentinels support the internal layers
// and are wrapped into one of the public kinds before they reach a caller.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeUnavailable is returned when the node owning a grain cannot be reached.
	ErrNodeUnavailable = errors.New("node is unavailable")

	// ErrUndeliverable indicates that the target grain instance no longer exists
	// at the address used. The router recovers from a first occurrence by
	// re-resolving placement; a second occurrence is surfaced.
	ErrUndeliverable = errors.New("message is undeliverable")

	// ErrRequestTimeout indicates that a request timed out while waiting for a response.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrActivationFailed is returned when the hosting node rejected or failed a
	// grain activation.
	ErrActivationFailed = errors.New("grain activation failed")

	// ErrDeactivationFailed is returned when a grain deactivation hook failed.
	ErrDeactivationFailed = errors.New("grain deactivation failed")

	// ErrKindNotRegistered is returned when attempting to activate a grain kind
	// that has no registered factory.
	ErrKindNotRegistered = errors.New("grain kind is not registered")

	// ErrInvalidGrainKey is returned when a grain key is malformed or invalid.
	ErrInvalidGrainKey = errors.New("invalid grain key")

	// ErrEngineNotStarted indicates that a grain engine has not been started before use.
	ErrEngineNotStarted = errors.New("grain engine is not running")

	// ErrEngineAlreadyStarted is returned when attempting to start an engine that
	// is already running.
	ErrEngineAlreadyStarted = errors.New("grain engine has already started")

	// ErrEmptyRoster is returned when placement is attempted over an empty member roster.
	ErrEmptyRoster = errors.New("member roster is empty")

	// ErrInvalidHost is returned when a node address is invalid or cannot be resolved.
	ErrInvalidHost = errors.New("invalid host")

	// ErrTransportClosed is returned when operations are attempted on a closed transport.
	ErrTransportClosed = errors.New("transport is closed")

	// ErrTypeNotRegistered is returned when a wire message type is not registered
	// with the serialization registry.
	ErrTypeNotRegistered = errors.New("message type is not registered")

	// ErrUnhandledMessage is returned when a grain receives a message it does not handle.
	ErrUnhandledMessage = errors.New("unhandled message")
)

// NewErrActivationFailed wraps the given error into an ErrActivationFailed.
func NewErrActivationFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrActivationFailed, err)
}

// NewErrDeactivationFailed wraps the given error into an ErrDeactivationFailed.
func NewErrDeactivationFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrDeactivationFailed, err)
}

// NewErrNodeUnavailable wraps the given error into an ErrNodeUnavailable.
func NewErrNodeUnavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrNodeUnavailable, err)
}

// NewErrInvalidGrainKey wraps the given error into an ErrInvalidGrainKey.
func NewErrInvalidGrainKey(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidGrainKey, err)
}
