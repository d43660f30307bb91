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

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_PutGetRemove(t *testing.T) {
	m := New[int]()

	_, ok := m.Get("a")
	assert.False(t, ok)

	m.Put("a", 1)
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	m.Put("a", 2)
	v, ok = m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v, "Put replaces the prior entry for the same key")

	m.Remove("a")
	_, ok = m.Get("a")
	assert.False(t, ok)
}

func TestMap_RemoveIfEqualOnlyRemovesMatchingEntry(t *testing.T) {
	m := New[string]()
	m.Put("c1", "conn-1")

	removed := m.RemoveIfEqual("c1", func(current string) bool { return current == "conn-2" })
	assert.False(t, removed, "a mismatched current value must not be removed")
	v, ok := m.Get("c1")
	assert.True(t, ok)
	assert.Equal(t, "conn-1", v)

	removed = m.RemoveIfEqual("c1", func(current string) bool { return current == "conn-1" })
	assert.True(t, removed)
	_, ok = m.Get("c1")
	assert.False(t, ok)
}

func TestMap_RemoveIfEqualOnAbsentKey(t *testing.T) {
	m := New[string]()
	removed := m.RemoveIfEqual("ghost", func(string) bool { return true })
	assert.False(t, removed)
}

func TestMap_TakeoverRaceLeavesNewestEntryIntact(t *testing.T) {
	m := New[string]()
	m.Put("c1", "conn-1")

	// A takeover replaces the entry before the stale connection's own
	// teardown runs its RemoveIfEqual guard.
	m.Put("c1", "conn-2")
	removed := m.RemoveIfEqual("c1", func(current string) bool { return current == "conn-1" })
	assert.False(t, removed)

	v, ok := m.Get("c1")
	assert.True(t, ok)
	assert.Equal(t, "conn-2", v)
}

func TestMap_LenAndRange(t *testing.T) {
	m := New[int]()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("c", 3)
	assert.Equal(t, 3, m.Len())

	seen := map[string]int{}
	m.Range(func(key string, value int) bool {
		seen[key] = value
		return true
	})
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, seen)
}

func TestMap_RangeStopsEarlyWhenFFalse(t *testing.T) {
	m := New[int]()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("c", 3)

	count := 0
	m.Range(func(key string, value int) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}
