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

package subscription

import (
	"sync"

	"github.com/bytedance/gopkg/collection/skipmap"

	"github.com/lighthousemq/core/internal/packet"
	"github.com/lighthousemq/core/internal/xerror"
)

// memoryStore keeps filter -> (clientId -> QoS) in a skip list, the same
// lock-free map family internal/registry uses for the connected-clients
// and will registries, plus a reverse clientId -> filter set so
// RemoveClient doesn't have to walk every filter. The pinned
// bytedance/gopkg commit predates that package's type-parameterized
// rewrite, so skipmap.StringMap stores interface{} values here, recovered
// with a type assertion at every read (see internal/registry.Map for the
// same pattern).
type memoryStore struct {
	filters *skipmap.StringMap

	mu       sync.Mutex
	byClient map[string]map[string]struct{}
}

type clientSet struct {
	mu   sync.RWMutex
	subs map[string]Subscriber
}

// NewMemory returns an in-memory Store.
func NewMemory() Store {
	return &memoryStore{
		filters:  skipmap.NewString(),
		byClient: make(map[string]map[string]struct{}),
	}
}

func (m *memoryStore) Add(filter string, clientId string, qos packet.QoS) error {
	if !Validate(filter) {
		return xerror.ErrInvalidTopicFilter
	}

	set, ok := m.filters.Load(filter)
	if !ok {
		newSet := &clientSet{subs: make(map[string]Subscriber)}
		actual, loaded := m.filters.LoadOrStore(filter, newSet)
		if loaded {
			set = actual
		} else {
			set = newSet
		}
	}

	cs := set.(*clientSet)
	cs.mu.Lock()
	cs.subs[clientId] = Subscriber{ClientId: clientId, QoS: qos}
	cs.mu.Unlock()

	m.mu.Lock()
	filters, ok := m.byClient[clientId]
	if !ok {
		filters = make(map[string]struct{})
		m.byClient[clientId] = filters
	}
	filters[filter] = struct{}{}
	m.mu.Unlock()

	return nil
}

func (m *memoryStore) Remove(filter string, clientId string) {
	if set, ok := m.filters.Load(filter); ok {
		cs := set.(*clientSet)
		cs.mu.Lock()
		delete(cs.subs, clientId)
		empty := len(cs.subs) == 0
		cs.mu.Unlock()
		if empty {
			m.filters.Delete(filter)
		}
	}

	m.mu.Lock()
	if filters, ok := m.byClient[clientId]; ok {
		delete(filters, filter)
		if len(filters) == 0 {
			delete(m.byClient, clientId)
		}
	}
	m.mu.Unlock()
}

func (m *memoryStore) RemoveClient(clientId string) {
	m.mu.Lock()
	filters := m.byClient[clientId]
	delete(m.byClient, clientId)
	m.mu.Unlock()

	for filter := range filters {
		if set, ok := m.filters.Load(filter); ok {
			cs := set.(*clientSet)
			cs.mu.Lock()
			delete(cs.subs, clientId)
			empty := len(cs.subs) == 0
			cs.mu.Unlock()
			if empty {
				m.filters.Delete(filter)
			}
		}
	}
}

func (m *memoryStore) Match(topic string) []Subscriber {
	var out []Subscriber
	m.filters.Range(func(filter string, value interface{}) bool {
		if !matches(filter, topic) {
			return true
		}
		cs := value.(*clientSet)
		cs.mu.RLock()
		for _, sub := range cs.subs {
			out = append(out, sub)
		}
		cs.mu.RUnlock()
		return true
	})
	return out
}
