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

package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lighthousemq/core/config"
	"github.com/lighthousemq/core/internal/persistence/session"
	"github.com/lighthousemq/core/internal/persistence/subscription"
)

func TestGetSessionStore_ResolvesMemoryAndRedis(t *testing.T) {
	memFactory, ok := GetSessionStore("memory")
	assert.True(t, ok)
	store, err := memFactory(&config.SessionStoreConfig{Type: "memory"})
	assert.NoError(t, err)
	assert.NotNil(t, store)

	redisFactory, ok := GetSessionStore("redis")
	assert.True(t, ok)
	store, err = redisFactory(&config.SessionStoreConfig{Type: "redis", Redis: config.RedisConfig{Addr: "localhost:6379"}})
	assert.NoError(t, err)
	assert.NotNil(t, store)
}

func TestGetSessionStore_UnknownNameNotFound(t *testing.T) {
	_, ok := GetSessionStore("mongodb")
	assert.False(t, ok)
}

func TestGetSubscriptionStore_ResolvesMemory(t *testing.T) {
	factory, ok := GetSubscriptionStore("memory")
	assert.True(t, ok)
	store, err := factory(&config.SubscriptionStoreConfig{Type: "memory"})
	assert.NoError(t, err)
	assert.NotNil(t, store)
}

func TestRegisterSessionStore_InstallsAdditionalBackend(t *testing.T) {
	called := false
	RegisterSessionStore("test-backend", func(*config.SessionStoreConfig) (session.Store, error) {
		called = true
		return session.NewMemory(), nil
	})

	factory, ok := GetSessionStore("test-backend")
	assert.True(t, ok)
	_, err := factory(&config.SessionStoreConfig{Type: "test-backend"})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestRegisterSubscriptionStore_InstallsAdditionalBackend(t *testing.T) {
	called := false
	RegisterSubscriptionStore("test-backend", func(*config.SubscriptionStoreConfig) (subscription.Store, error) {
		called = true
		return subscription.NewMemory(), nil
	})

	factory, ok := GetSubscriptionStore("test-backend")
	assert.True(t, ok)
	_, err := factory(&config.SubscriptionStoreConfig{Type: "test-backend"})
	assert.NoError(t, err)
	assert.True(t, called)
}
