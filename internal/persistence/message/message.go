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

// Package message implements the MessageStore capability from spec.md
// §6.2: payload bodies keyed by a store-assigned guid, plus the
// topic -> guid retained map.
package message

import (
	"github.com/lighthousemq/core/internal/packet"
)

// Stored is a message body as held by the store, referenced by the
// processor core as spec.md's StoredMessage.
type Stored struct {
	GUID     string
	ClientId string
	Topic    string
	QoS      packet.QoS
	Payload  []byte
	Retained bool
	// PacketId is the inbound message id for QoS>0 publishes; zero for
	// QoS 0 or for messages not yet assigned one (e.g. outbound copies).
	PacketId uint16
}

// Predicate reports whether a stored message's topic should be included
// in a SearchMatching result.
type Predicate func(topic string) bool

// Store is the MessageStore capability: storePublishForFuture,
// storeRetained, cleanRetained, searchMatching.
type Store interface {
	// StorePublishForFuture persists stored (if not already present under
	// its GUID) and returns its guid.
	StorePublishForFuture(stored *Stored) (string, error)
	// Get resolves a previously stored message by guid.
	Get(guid string) (*Stored, bool)
	// StoreRetained records topic's retained message as guid.
	StoreRetained(topic, guid string) error
	// CleanRetained removes topic's retained entry, if any.
	CleanRetained(topic string) error
	// Retained returns the guid currently retained for topic, if any.
	Retained(topic string) (string, bool)
	// RetainedTopics returns every topic that currently has a retained
	// entry, for iterating the retained map directly (spec.md §9: replay
	// exactly the current retained entries).
	RetainedTopics() []string
	// SearchMatching returns every stored message whose topic satisfies
	// predicate.
	SearchMatching(predicate Predicate) []*Stored
}
