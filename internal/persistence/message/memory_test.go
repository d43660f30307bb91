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

package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_StorePublishForFutureAssignsGUID(t *testing.T) {
	m := NewMemory()

	guid, err := m.StorePublishForFuture(&Stored{Topic: "a/b", Payload: []byte("hi")})
	assert.NoError(t, err)
	assert.NotEmpty(t, guid)

	stored, ok := m.Get(guid)
	assert.True(t, ok)
	assert.Equal(t, "a/b", stored.Topic)
	assert.Equal(t, []byte("hi"), stored.Payload)
}

func TestMemoryStore_StorePublishForFutureReusesProvidedGUID(t *testing.T) {
	m := NewMemory()

	guid, err := m.StorePublishForFuture(&Stored{GUID: "fixed-guid", Topic: "a/b"})
	assert.NoError(t, err)
	assert.Equal(t, "fixed-guid", guid)

	// Re-storing under the same GUID does not overwrite the first copy.
	_, err = m.StorePublishForFuture(&Stored{GUID: "fixed-guid", Topic: "a/b/overwritten"})
	assert.NoError(t, err)

	stored, ok := m.Get("fixed-guid")
	assert.True(t, ok)
	assert.Equal(t, "a/b", stored.Topic)
}

func TestMemoryStore_GetMissingGUID(t *testing.T) {
	m := NewMemory()
	_, ok := m.Get("nope")
	assert.False(t, ok)
}

func TestMemoryStore_RetainedLifecycle(t *testing.T) {
	m := NewMemory()

	_, ok := m.Retained("a/b")
	assert.False(t, ok)

	assert.NoError(t, m.StoreRetained("a/b", "guid-1"))
	guid, ok := m.Retained("a/b")
	assert.True(t, ok)
	assert.Equal(t, "guid-1", guid)
	assert.Equal(t, []string{"a/b"}, m.RetainedTopics())

	assert.NoError(t, m.CleanRetained("a/b"))
	_, ok = m.Retained("a/b")
	assert.False(t, ok)
	assert.Empty(t, m.RetainedTopics())
}

func TestMemoryStore_SearchMatching(t *testing.T) {
	m := NewMemory()
	_, err := m.StorePublishForFuture(&Stored{Topic: "a/b", Payload: []byte("1")})
	assert.NoError(t, err)
	_, err = m.StorePublishForFuture(&Stored{Topic: "c/d", Payload: []byte("2")})
	assert.NoError(t, err)

	matched := m.SearchMatching(func(topic string) bool { return topic == "a/b" })
	assert.Len(t, matched, 1)
	assert.Equal(t, "a/b", matched[0].Topic)
}
