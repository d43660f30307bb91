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

// Package persistence registers the session and subscription store
// backends by name, so internal/server can select one from config
// without importing every backend directly.
package persistence

import (
	"github.com/lighthousemq/core/config"
	"github.com/lighthousemq/core/internal/persistence/session"
	"github.com/lighthousemq/core/internal/persistence/subscription"
)

// SessionStoreFactory builds a session.Store from its config section.
type SessionStoreFactory func(cfg *config.SessionStoreConfig) (session.Store, error)

// SubscriptionStoreFactory builds a subscription.Store from its config section.
type SubscriptionStoreFactory func(cfg *config.SubscriptionStoreConfig) (subscription.Store, error)

var sessionStores = map[string]SessionStoreFactory{
	"memory": func(*config.SessionStoreConfig) (session.Store, error) {
		return session.NewMemory(), nil
	},
	"redis": func(cfg *config.SessionStoreConfig) (session.Store, error) {
		return session.NewRedis(session.RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}), nil
	},
}

var subscriptionStores = map[string]SubscriptionStoreFactory{
	"memory": func(*config.SubscriptionStoreConfig) (subscription.Store, error) {
		return subscription.NewMemory(), nil
	},
}

// GetSessionStore resolves a registered session store factory by name.
func GetSessionStore(name string) (SessionStoreFactory, bool) {
	f, ok := sessionStores[name]
	return f, ok
}

// GetSubscriptionStore resolves a registered subscription store factory
// by name.
func GetSubscriptionStore(name string) (SubscriptionStoreFactory, bool) {
	f, ok := subscriptionStores[name]
	return f, ok
}

// RegisterSessionStore installs an additional named session store
// factory, for broker embedders supplying their own backend.
func RegisterSessionStore(name string, f SessionStoreFactory) {
	sessionStores[name] = f
}

// RegisterSubscriptionStore installs an additional named subscription
// store factory.
func RegisterSubscriptionStore(name string, f SubscriptionStoreFactory) {
	subscriptionStores[name] = f
}
