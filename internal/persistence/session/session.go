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

// Package session implements the SessionsStore/ClientSession capability
// from spec.md §3/§6.2: per-client subscriptions, inflight tracking and
// queued messages, independent of the message bodies they reference.
package session

import (
	"github.com/lighthousemq/core/internal/packet"
)

// Store is the SessionsStore capability.
type Store interface {
	// SessionForClient returns the session for clientId, if one exists.
	SessionForClient(clientId string) (ClientSession, bool)
	// CreateNewSession creates, stores and returns a fresh persistent
	// session for clientId.
	CreateNewSession(clientId string, cleanSession bool) ClientSession
	// NextPacketID allocates the next outbound packet id for clientId's
	// session. Returns xerror.ErrSessionAbsent if no session is stored.
	NextPacketID(clientId string) (uint16, error)
}

// ClientSession is the per-client session capability set: subscriptions,
// inflight/second-phase acknowledgment tracking, and the queue of
// messages enqueued for delivery while the client is offline.
type ClientSession interface {
	ClientId() string

	// Activate/Deactivate/Disconnect move the session across the
	// absent -> persistent -> active state machine of spec.md §3.
	Activate()
	Deactivate()
	Disconnect()
	IsActive() bool

	CleanSession() bool
	SetCleanSession(clean bool)

	// Subscribe registers filter at requestedQos, returning false if the
	// session rejects it (invalid filter, limits exceeded).
	Subscribe(filter string, requestedQos packet.QoS) bool
	UnsubscribeFrom(filter string)
	Subscriptions() map[string]packet.QoS

	// StoreInbound/TakeInbound track a client-originated QoS 2 publish
	// between PUBREC and PUBREL: the broker-side guid is parked under
	// the inbound packet id until PUBREL asks for it back.
	StoreInbound(packetId uint16, guid string)
	TakeInbound(packetId uint16) (string, bool)

	// EnqueueToDeliver/RemoveEnqueued/Enqueued manage the guid queue for
	// an inactive (offline, non-clean) session.
	EnqueueToDeliver(guid string)
	RemoveEnqueued(guid string)
	Enqueued() []string

	// NextPacketId allocates the next outbound packet id.
	NextPacketId() uint16

	// InFlightAckWaiting/InFlightAcknowledged track outbound QoS>0
	// publishes awaiting PUBACK (QoS1) or PUBREC (QoS2).
	InFlightAckWaiting(guid string, packetId uint16)
	InFlightAcknowledged(packetId uint16) (string, bool)

	// SecondPhaseAckWaiting/SecondPhaseAcknowledged track the QoS2
	// PUBREL/PUBCOMP second phase, broker acting as publisher.
	SecondPhaseAckWaiting(packetId uint16)
	SecondPhaseAcknowledged(packetId uint16) bool

	// Clear purges all subscriptions, inflight state and queued guids,
	// used when a clean session is torn down or a reconnecting client
	// requests a clean start.
	Clear()
}
