/*
 *    Copyright 2021 chenquan
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package registry holds the two process-wide, broker-lifetime maps the
// protocol processor needs outside of the durable stores: the
// connected-clients registry (clientId -> connection descriptor) and the
// will registry (clientId -> pending will message). Both need
// single-writer-per-key semantics and a conditional removeIfEqual so a
// connection-lost callback racing a takeover never clobbers the new
// connection it lost the race to (spec.md §4.2, §5).
package registry

import (
	"sync"

	"github.com/bytedance/gopkg/collection/skipmap"
)

// Map is a concurrent string-keyed map with atomic get/put/remove and a
// conditional remove, backed by bytedance/gopkg's lock-free skip list.
// The pinned bytedance/gopkg commit predates that package's
// type-parameterized rewrite, so skipmap.StringMap stores interface{}
// values; Map[V] recovers a typed API over it with a type assertion on
// every read. Compound operations (RemoveIfEqual) take a narrow
// per-instance mutex: the skip list gives us lock-free single-key reads
// and writes, but no atomic compare-and-delete primitive of its own.
type Map[V any] struct {
	mu sync.Mutex
	m  *skipmap.StringMap
}

// New returns an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{m: skipmap.NewString()}
}

// Put installs value for key, replacing any prior entry.
func (r *Map[V]) Put(key string, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.Store(key, value)
}

// Get returns the value for key and whether it was present.
func (r *Map[V]) Get(key string) (V, bool) {
	v, ok := r.m.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Remove unconditionally deletes key.
func (r *Map[V]) Remove(key string) {
	r.m.Delete(key)
}

// RemoveIfEqual deletes key only if its current value is considered the
// same entry as expected by same, returning whether it removed anything.
// Used by connection-lost handling to avoid deleting a registry entry
// that a concurrent takeover has already replaced.
func (r *Map[V]) RemoveIfEqual(key string, same func(current V) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.Get(key)
	if !ok || !same(current) {
		return false
	}
	r.m.Delete(key)
	return true
}

// Len reports the number of entries currently stored.
func (r *Map[V]) Len() int {
	return r.m.Len()
}

// Range calls f for every entry; f returning false stops iteration
// early, matching skipmap's own Range contract.
func (r *Map[V]) Range(f func(key string, value V) bool) {
	r.m.Range(func(key string, value interface{}) bool {
		return f(key, value.(V))
	})
}
