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

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	t.Run("With fail fast", func(t *testing.T) {
		err := New(FailFast()).
			AddValidator(NewEmptyStringValidator("name", "")).
			AddAssertion(false, "should not be reached first").
			Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name")
	})
	t.Run("With all errors", func(t *testing.T) {
		err := New(AllErrors()).
			AddValidator(NewEmptyStringValidator("name", "")).
			AddAssertion(false, "assertion failed").
			Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "assertion failed")
	})
	t.Run("With passing chain", func(t *testing.T) {
		err := New(FailFast()).
			AddValidator(NewEmptyStringValidator("name", "echo")).
			AddAssertion(true, "").
			Validate()
		require.NoError(t, err)
	})
	t.Run("With pattern validator", func(t *testing.T) {
		custom := errors.New("bad name")
		err := New(FailFast()).
			AddValidator(NewPatternValidator("^[a-z]+$", "Echo1", custom)).
			Validate()
		require.ErrorIs(t, err, custom)
	})
}
