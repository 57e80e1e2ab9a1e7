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
	"fmt"
	"regexp"

	"go.uber.org/multierr"
)

// Validator defines the validation contract
type Validator interface {
	// Validate returns an error when the validation fails
	Validate() error
}

// Chain runs a series of validators in order.
type Chain struct {
	validators []Validator
	failFast   bool
}

// ChainOption configures a validation chain
type ChainOption func(*Chain)

// FailFast stops the chain at the first failing validator
func FailFast() ChainOption {
	return func(c *Chain) { c.failFast = true }
}

// AllErrors runs every validator and folds the failures together
func AllErrors() ChainOption {
	return func(c *Chain) { c.failFast = false }
}

// New creates a validation chain
func New(opts ...ChainOption) *Chain {
	chain := &Chain{}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// AddValidator adds a validator to the chain
func (c *Chain) AddValidator(v Validator) *Chain {
	c.validators = append(c.validators, v)
	return c
}

// AddAssertion adds a boolean assertion to the chain
func (c *Chain) AddAssertion(assertion bool, message string) *Chain {
	c.validators = append(c.validators, assertionValidator{assertion: assertion, message: message})
	return c
}

// Validate runs the chain
func (c *Chain) Validate() error {
	var violations error
	for _, validator := range c.validators {
		if err := validator.Validate(); err != nil {
			if c.failFast {
				return err
			}
			violations = multierr.Append(violations, err)
		}
	}
	return violations
}

type assertionValidator struct {
	assertion bool
	message   string
}

func (v assertionValidator) Validate() error {
	if !v.assertion {
		return errors.New(v.message)
	}
	return nil
}

type emptyStringValidator struct {
	field string
	value string
}

// NewEmptyStringValidator validates that the given field value is not empty
func NewEmptyStringValidator(field, value string) Validator {
	return emptyStringValidator{field: field, value: value}
}

func (v emptyStringValidator) Validate() error {
	if v.value == "" {
		return fmt.Errorf("the [%s] is required", v.field)
	}
	return nil
}

type patternValidator struct {
	pattern   string
	value     string
	customErr error
}

// NewPatternValidator validates that the given value matches the pattern.
// When custom is not nil it is returned instead of the generic error.
func NewPatternValidator(pattern, value string, custom error) Validator {
	return patternValidator{pattern: pattern, value: value, customErr: custom}
}

func (v patternValidator) Validate() error {
	matched, err := regexp.MatchString(v.pattern, v.value)
	if err != nil {
		return err
	}
	if !matched {
		if v.customErr != nil {
			return v.customErr
		}
		return fmt.Errorf("value [%s] does not match pattern [%s]", v.value, v.pattern)
	}
	return nil
}
