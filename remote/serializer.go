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
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/internal/registry"
)

// typesRegistry is the global type registry used by the codec to resolve Go
// types from their wire names on the receive path. Types must be registered
// with RegisterTypes before they can cross the wire.
var typesRegistry = registry.NewRegistry()

var (
	// ErrNilMessage is returned by Marshal when the supplied message is nil.
	ErrNilMessage = errors.New("remote: message is nil")

	// ErrSerializeFailed is returned when CBOR marshaling fails.
	ErrSerializeFailed = errors.New("remote: failed to serialize message")

	// ErrDeserializeFailed is returned when CBOR unmarshaling fails.
	ErrDeserializeFailed = errors.New("remote: failed to deserialize message")
)

var (
	cborEncOpts = cbor.EncOptions{
		Sort:        cbor.SortNone,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnixDynamic,
	}
	cborDecOpts = cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
		UTF8:            cbor.UTF8DecodeInvalid,
	}

	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cborEncOpts.EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = cborDecOpts.DecMode(); err != nil {
		panic(err)
	}
}

// wireMessage frames a serialized message together with its registry type
// name so the receiving node can reconstruct the concrete Go value.
type wireMessage struct {
	Type string `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint"`
}

// RegisterTypes registers the given message types with the codec registry.
// Registration is required on both the sending and receiving nodes.
func RegisterTypes(messages ...any) {
	for _, message := range messages {
		typesRegistry.Register(message)
	}
}

// Marshal serializes a registered message into its wire representation.
func Marshal(message any) ([]byte, error) {
	if message == nil {
		return nil, ErrNilMessage
	}

	if !typesRegistry.Exists(message) {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrTypeNotRegistered, registry.Name(message))
	}

	data, err := encMode.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializeFailed, err)
	}

	frame, err := encMode.Marshal(wireMessage{Type: registry.Name(message), Data: data})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializeFailed, err)
	}

	return frame, nil
}

// Unmarshal reconstructs a message from its wire representation.
// The returned value is a pointer to the registered concrete type.
func Unmarshal(payload []byte) (any, error) {
	var frame wireMessage
	if err := decMode.Unmarshal(payload, &frame); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserializeFailed, err)
	}

	rtype, ok := typesRegistry.TypeOf(frame.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrTypeNotRegistered, frame.Type)
	}

	message := reflect.New(rtype).Interface()
	if err := decMode.Unmarshal(frame.Data, message); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserializeFailed, err)
	}

	return message, nil
}
