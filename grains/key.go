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
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/swarmsys/grains/errors"
	"github.com/swarmsys/grains/internal/validation"
)

const grainKeySeparator = "/"

// GrainKey uniquely identifies a grain (virtual actor) within the cluster.
//
// It consists of:
//   - kind: the registered behavior name of the grain.
//   - identity: the caller-chosen unique identifier within the kind.
//
// Two kinds may share the same identity independently: the keys differ.
// GrainKeys are immutable and safe for concurrent use.
type GrainKey struct {
	kind     string
	identity string
}

// ensure GrainKey implements the validation.Validator interface
var _ validation.Validator = (*GrainKey)(nil)

// NewGrainKey constructs a GrainKey from a kind name and an identity.
func NewGrainKey(kind, identity string) GrainKey {
	return GrainKey{kind: kind, identity: identity}
}

// Kind returns the behavior name of the grain
func (k GrainKey) Kind() string {
	return k.kind
}

// Identity returns the unique identity of the grain within its kind
func (k GrainKey) Identity() string {
	return k.identity
}

// String returns the formatted string representation of the GrainKey as
// "kind/identity". This is the form used for placement hashing and caching.
func (k GrainKey) String() string {
	return fmt.Sprintf("%s%s%s", k.kind, grainKeySeparator, k.identity)
}

// Equal checks whether this GrainKey is equal to another.
func (k GrainKey) Equal(other GrainKey) bool {
	return k.kind == other.kind && k.identity == other.identity
}

// KeyFromString reconstructs a GrainKey from its string representation
func KeyFromString(s string) (GrainKey, error) {
	parts := strings.SplitN(s, grainKeySeparator, 2)
	if len(parts) != 2 {
		return GrainKey{}, gerrors.ErrInvalidGrainKey
	}
	key := GrainKey{kind: parts[0], identity: parts[1]}
	if err := key.Validate(); err != nil {
		return GrainKey{}, err
	}
	return key, nil
}

// Validate implements validation.Validator.
func (k GrainKey) Validate() error {
	pattern := "^[a-zA-Z0-9][a-zA-Z0-9-_\\.]*$"
	customErr := errors.New("must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")
	return validation.
		New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("kind", k.Kind())).
		AddValidator(validation.NewEmptyStringValidator("identity", k.Identity())).
		AddAssertion(len(k.Identity()) <= 255, "grain identity is too long. Maximum length is 255").
		AddValidator(validation.NewPatternValidator(pattern, strings.TrimSpace(k.Kind()), customErr)).
		AddValidator(validation.NewPatternValidator(pattern, strings.TrimSpace(k.Identity()), customErr)).
		Validate()
}
