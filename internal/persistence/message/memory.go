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
	"sync"

	"github.com/lighthousemq/core/internal/xid"
)

// memoryStore is an in-memory Store, the default backend for a broker
// started without persistent storage configured.
type memoryStore struct {
	mu       sync.RWMutex
	messages map[string]*Stored
	retained map[string]string // topic -> guid
}

// NewMemory returns an in-memory Store.
func NewMemory() Store {
	return &memoryStore{
		messages: make(map[string]*Stored),
		retained: make(map[string]string),
	}
}

func (m *memoryStore) StorePublishForFuture(stored *Stored) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored.GUID == "" {
		stored.GUID = xid.New()
	}
	if _, ok := m.messages[stored.GUID]; !ok {
		cp := *stored
		m.messages[stored.GUID] = &cp
	}
	return stored.GUID, nil
}

func (m *memoryStore) Get(guid string) (*Stored, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.messages[guid]
	return s, ok
}

func (m *memoryStore) StoreRetained(topic, guid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retained[topic] = guid
	return nil
}

func (m *memoryStore) CleanRetained(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.retained, topic)
	return nil
}

func (m *memoryStore) Retained(topic string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.retained[topic]
	return g, ok
}

func (m *memoryStore) RetainedTopics() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	topics := make([]string, 0, len(m.retained))
	for t := range m.retained {
		topics = append(topics, t)
	}
	return topics
}

func (m *memoryStore) SearchMatching(predicate Predicate) []*Stored {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Stored
	for _, s := range m.messages {
		if predicate(s.Topic) {
			out = append(out, s)
		}
	}
	return out
}
