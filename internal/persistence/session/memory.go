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

package session

import (
	"sync"

	"github.com/lighthousemq/core/internal/packet"
	"github.com/lighthousemq/core/internal/xerror"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
}

// NewMemory returns an in-memory Store.
func NewMemory() Store {
	return &memoryStore{sessions: make(map[string]*memorySession)}
}

func (s *memoryStore) SessionForClient(clientId string) (ClientSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[clientId]
	if !ok {
		return nil, false
	}
	return sess, true
}

func (s *memoryStore) CreateNewSession(clientId string, cleanSession bool) ClientSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := newMemorySession(clientId, cleanSession)
	sess.ownerStore = s
	s.sessions[clientId] = sess
	return sess
}

func (s *memoryStore) NextPacketID(clientId string) (uint16, error) {
	s.mu.Lock()
	sess, ok := s.sessions[clientId]
	s.mu.Unlock()
	if !ok {
		return 0, xerror.ErrSessionAbsent
	}
	return sess.NextPacketId(), nil
}

// purge removes clientId's session entirely, used when a clean session
// disconnects (spec.md §3: cleanSession -> purged).
func (s *memoryStore) purge(clientId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, clientId)
}

type memorySession struct {
	mu sync.Mutex

	clientId     string
	cleanSession bool
	active       bool

	subscriptions map[string]packet.QoS

	inbound map[uint16]string // inbound QoS2 packetId -> guid, pending PUBREL

	enqueued []string // FIFO guids for an inactive session

	inflight     map[uint16]string // outbound packetId -> guid, pending PUBACK/PUBREC
	secondPhase  map[uint16]struct{}
	idGen        *idCounter
	ownerStore   *memoryStore

	// persist, when set (redisStore-backed sessions only), is called
	// after every change to structural, restart-durable state
	// (subscriptions, cleanSession flag). A plain memoryStore session
	// leaves this nil: it has no restart durability to maintain.
	persist func(*memorySession)
}

func newMemorySession(clientId string, cleanSession bool) *memorySession {
	return &memorySession{
		clientId:      clientId,
		cleanSession:  cleanSession,
		subscriptions: make(map[string]packet.QoS),
		inbound:       make(map[uint16]string),
		inflight:      make(map[uint16]string),
		secondPhase:   make(map[uint16]struct{}),
		idGen:         newIDCounter(),
	}
}

func (s *memorySession) ClientId() string { return s.clientId }

func (s *memorySession) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
}

func (s *memorySession) Deactivate() {
	s.mu.Lock()
	clean := s.cleanSession
	owner := s.ownerStore
	id := s.clientId
	persist := s.persist
	s.active = false
	s.mu.Unlock()

	if clean && owner != nil {
		owner.purge(id)
	}
	if persist != nil {
		persist(s)
	}
}

func (s *memorySession) Disconnect() {
	s.Deactivate()
}

func (s *memorySession) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *memorySession) CleanSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanSession
}

func (s *memorySession) SetCleanSession(clean bool) {
	s.mu.Lock()
	s.cleanSession = clean
	persist := s.persist
	s.mu.Unlock()
	if persist != nil {
		persist(s)
	}
}

func (s *memorySession) Subscribe(filter string, requestedQos packet.QoS) bool {
	if filter == "" || !requestedQos.Valid() {
		return false
	}
	s.mu.Lock()
	s.subscriptions[filter] = requestedQos
	persist := s.persist
	s.mu.Unlock()
	if persist != nil {
		persist(s)
	}
	return true
}

func (s *memorySession) UnsubscribeFrom(filter string) {
	s.mu.Lock()
	delete(s.subscriptions, filter)
	persist := s.persist
	s.mu.Unlock()
	if persist != nil {
		persist(s)
	}
}

func (s *memorySession) Subscriptions() map[string]packet.QoS {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]packet.QoS, len(s.subscriptions))
	for k, v := range s.subscriptions {
		out[k] = v
	}
	return out
}

func (s *memorySession) StoreInbound(packetId uint16, guid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbound[packetId] = guid
}

func (s *memorySession) TakeInbound(packetId uint16) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guid, ok := s.inbound[packetId]
	if ok {
		delete(s.inbound, packetId)
	}
	return guid, ok
}

func (s *memorySession) EnqueueToDeliver(guid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued = append(s.enqueued, guid)
}

func (s *memorySession) RemoveEnqueued(guid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.enqueued {
		if g == guid {
			s.enqueued = append(s.enqueued[:i], s.enqueued[i+1:]...)
			return
		}
	}
}

func (s *memorySession) Enqueued() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.enqueued))
	copy(out, s.enqueued)
	return out
}

func (s *memorySession) NextPacketId() uint16 {
	return s.idGen.NextID()
}

func (s *memorySession) InFlightAckWaiting(guid string, packetId uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[packetId] = guid
}

func (s *memorySession) InFlightAcknowledged(packetId uint16) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	guid, ok := s.inflight[packetId]
	if ok {
		delete(s.inflight, packetId)
	}
	return guid, ok
}

func (s *memorySession) SecondPhaseAckWaiting(packetId uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secondPhase[packetId] = struct{}{}
}

func (s *memorySession) SecondPhaseAcknowledged(packetId uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.secondPhase[packetId]
	if ok {
		delete(s.secondPhase, packetId)
	}
	return ok
}

func (s *memorySession) Clear() {
	s.mu.Lock()
	s.subscriptions = make(map[string]packet.QoS)
	s.inbound = make(map[uint16]string)
	s.enqueued = nil
	s.inflight = make(map[uint16]string)
	s.secondPhase = make(map[uint16]struct{})
	s.idGen.Reset()
	persist := s.persist
	s.mu.Unlock()
	if persist != nil {
		persist(s)
	}
}
