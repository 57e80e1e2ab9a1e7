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

package registry

import (
	"reflect"
	"strings"
	"sync"
)

// Registry defines the types registry interface. It resolves Go types from
// their wire names on the receive path of the remote codec.
type Registry interface {
	// Register an object
	Register(v any)
	// Deregister removes the registered object from the registry
	Deregister(v any)
	// Exists return true when a given object is in the registry
	Exists(v any) bool
	// TypeOf returns the type registered under the given name
	TypeOf(name string) (reflect.Type, bool)
}

type registry struct {
	mu       sync.RWMutex
	typesMap map[string]reflect.Type
}

var _ Registry = (*registry)(nil)

// NewRegistry creates a new types registry
func NewRegistry() Registry {
	return &registry{
		typesMap: make(map[string]reflect.Type),
	}
}

// Register an object
func (r *registry) Register(v any) {
	rtype := reflectType(v)
	name := Name(v)
	r.mu.Lock()
	r.typesMap[name] = rtype
	r.mu.Unlock()
}

// Deregister removes the registered object from the registry
func (r *registry) Deregister(v any) {
	r.mu.Lock()
	delete(r.typesMap, Name(v))
	r.mu.Unlock()
}

// Exists return true when a given object is in the registry
func (r *registry) Exists(v any) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.typesMap[Name(v)]
	return ok
}

// TypeOf returns the type registered under the given name
func (r *registry) TypeOf(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rtype, ok := r.typesMap[lowTrim(name)]
	return rtype, ok
}

// Name returns the canonical registry name of the given value's type
func Name(v any) string {
	return lowTrim(reflectType(v).String())
}

// reflectType returns the unpointered type of the given value
func reflectType(v any) reflect.Type {
	rtype := reflect.TypeOf(v)
	if rtype.Kind() == reflect.Ptr {
		rtype = rtype.Elem()
	}
	return rtype
}

// lowTrim trims any space and lowers the string value
func lowTrim(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
