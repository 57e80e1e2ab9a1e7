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

	gerrors "github.com/swarmsys/grains/errors"
)

// operation codes of the request frame
const (
	opActivate uint8 = iota + 1
	opDispatch
	opHeartbeat
)

// reply codes of the response frame
const (
	codeOK uint8 = iota
	codeUndeliverable
	codeActivationFailed
	codeKindNotRegistered
	codeInvalidGrainKey
	codeInternal
)

// frame is the request envelope of the NATS transport
type frame struct {
	Op   uint8  `cbor:"1,keyasint"`
	Body []byte `cbor:"2,keyasint"`
}

// reply is the response envelope of the NATS transport
type reply struct {
	Code   uint8  `cbor:"1,keyasint"`
	Detail string `cbor:"2,keyasint,omitempty"`
	Body   []byte `cbor:"3,keyasint,omitempty"`
}

// toWireCode maps a handler error onto a reply code
func toWireCode(err error) (uint8, string) {
	switch {
	case err == nil:
		return codeOK, ""
	case errors.Is(err, gerrors.ErrUndeliverable):
		return codeUndeliverable, err.Error()
	case errors.Is(err, gerrors.ErrActivationFailed):
		return codeActivationFailed, err.Error()
	case errors.Is(err, gerrors.ErrKindNotRegistered):
		return codeKindNotRegistered, err.Error()
	case errors.Is(err, gerrors.ErrInvalidGrainKey):
		return codeInvalidGrainKey, err.Error()
	default:
		return codeInternal, err.Error()
	}
}

// fromWireCode maps a reply code back onto the error taxonomy
func fromWireCode(code uint8, detail string) error {
	switch code {
	case codeOK:
		return nil
	case codeUndeliverable:
		return gerrors.ErrUndeliverable
	case codeActivationFailed:
		return fmt.Errorf("%w: %s", gerrors.ErrActivationFailed, detail)
	case codeKindNotRegistered:
		return fmt.Errorf("%w: %s", gerrors.ErrKindNotRegistered, detail)
	case codeInvalidGrainKey:
		return fmt.Errorf("%w: %s", gerrors.ErrInvalidGrainKey, detail)
	default:
		return fmt.Errorf("remote: %s", detail)
	}
}
