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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/swarmsys/grains/errors"
)

func TestGrainKey(t *testing.T) {
	t.Run("With valid key", func(t *testing.T) {
		key := NewGrainKey("Echo", "user-1")
		require.NoError(t, key.Validate())
		assert.Equal(t, "Echo", key.Kind())
		assert.Equal(t, "user-1", key.Identity())
		assert.Equal(t, "Echo/user-1", key.String())
	})
	t.Run("With equality", func(t *testing.T) {
		assert.True(t, NewGrainKey("Echo", "1").Equal(NewGrainKey("Echo", "1")))
		assert.False(t, NewGrainKey("Echo", "1").Equal(NewGrainKey("Echo", "2")))
		assert.False(t, NewGrainKey("Echo", "1").Equal(NewGrainKey("Mirror", "1")))
	})
	t.Run("With empty kind", func(t *testing.T) {
		require.Error(t, NewGrainKey("", "1").Validate())
	})
	t.Run("With empty identity", func(t *testing.T) {
		require.Error(t, NewGrainKey("Echo", "").Validate())
	})
	t.Run("With invalid characters", func(t *testing.T) {
		require.Error(t, NewGrainKey("Echo", "a/b").Validate())
		require.Error(t, NewGrainKey("Ec ho", "1").Validate())
		require.Error(t, NewGrainKey("-echo", "1").Validate())
	})
	t.Run("With identity too long", func(t *testing.T) {
		require.Error(t, NewGrainKey("Echo", strings.Repeat("a", 256)).Validate())
		require.NoError(t, NewGrainKey("Echo", strings.Repeat("a", 255)).Validate())
	})
}

func TestKeyFromString(t *testing.T) {
	t.Run("With round trip", func(t *testing.T) {
		key := NewGrainKey("Echo", "user-1")
		parsed, err := KeyFromString(key.String())
		require.NoError(t, err)
		assert.True(t, key.Equal(parsed))
	})
	t.Run("With missing separator", func(t *testing.T) {
		_, err := KeyFromString("echo")
		require.ErrorIs(t, err, gerrors.ErrInvalidGrainKey)
	})
	t.Run("With invalid parts", func(t *testing.T) {
		_, err := KeyFromString("/1")
		require.Error(t, err)
	})
}
