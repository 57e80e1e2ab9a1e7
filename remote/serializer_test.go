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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/swarmsys/grains/errors"
)

type testGreeting struct {
	Who   string
	Count int
}

type unregisteredMessage struct{}

func TestSerializer(t *testing.T) {
	RegisterTypes(&testGreeting{})

	t.Run("With round trip", func(t *testing.T) {
		payload, err := Marshal(&testGreeting{Who: "node1", Count: 3})
		require.NoError(t, err)

		decoded, err := Unmarshal(payload)
		require.NoError(t, err)

		greeting, ok := decoded.(*testGreeting)
		require.True(t, ok)
		assert.Equal(t, "node1", greeting.Who)
		assert.Equal(t, 3, greeting.Count)
	})
	t.Run("With nil message", func(t *testing.T) {
		_, err := Marshal(nil)
		require.ErrorIs(t, err, ErrNilMessage)
	})
	t.Run("With unregistered type", func(t *testing.T) {
		_, err := Marshal(&unregisteredMessage{})
		require.ErrorIs(t, err, gerrors.ErrTypeNotRegistered)
	})
	t.Run("With malformed payload", func(t *testing.T) {
		_, err := Unmarshal([]byte("not-cbor"))
		require.ErrorIs(t, err, ErrDeserializeFailed)
	})
}

func TestWireCodes(t *testing.T) {
	t.Run("With round trip of taxonomy errors", func(t *testing.T) {
		for _, sentinel := range []error{
			gerrors.ErrUndeliverable,
			gerrors.ErrActivationFailed,
			gerrors.ErrKindNotRegistered,
			gerrors.ErrInvalidGrainKey,
		} {
			code, detail := toWireCode(sentinel)
			err := fromWireCode(code, detail)
			assert.ErrorIs(t, err, sentinel)
		}
	})
	t.Run("With success", func(t *testing.T) {
		code, detail := toWireCode(nil)
		assert.Equal(t, codeOK, code)
		assert.Empty(t, detail)
		assert.NoError(t, fromWireCode(code, detail))
	})
}
