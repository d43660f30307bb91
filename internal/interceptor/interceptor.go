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

// Package interceptor implements the Interceptor capability from
// spec.md §6.2: broker-lifecycle notification hooks the processor core
// calls on connect, disconnect, publish and subscription changes,
// decoupled from any specific observability backend.
package interceptor

import "github.com/lighthousemq/core/internal/packet"

// Interceptor receives broker-lifecycle notifications. All methods must
// return quickly: the processor core calls them inline on the
// connection's processing goroutine, per spec.md §5's single-writer
// model.
type Interceptor interface {
	NotifyClientConnected(clientId string)
	NotifyClientDisconnected(clientId string, err error)
	NotifyTopicPublished(clientId, topic string, qos packet.QoS, payload []byte)
	NotifyTopicSubscribed(clientId, filter string, qos packet.QoS)
	NotifyTopicUnsubscribed(clientId, filter string)
}

// Multi fans every notification out to each Interceptor in order.
type Multi []Interceptor

func (m Multi) NotifyClientConnected(clientId string) {
	for _, i := range m {
		i.NotifyClientConnected(clientId)
	}
}

func (m Multi) NotifyClientDisconnected(clientId string, err error) {
	for _, i := range m {
		i.NotifyClientDisconnected(clientId, err)
	}
}

func (m Multi) NotifyTopicPublished(clientId, topic string, qos packet.QoS, payload []byte) {
	for _, i := range m {
		i.NotifyTopicPublished(clientId, topic, qos, payload)
	}
}

func (m Multi) NotifyTopicSubscribed(clientId, filter string, qos packet.QoS) {
	for _, i := range m {
		i.NotifyTopicSubscribed(clientId, filter, qos)
	}
}

func (m Multi) NotifyTopicUnsubscribed(clientId, filter string) {
	for _, i := range m {
		i.NotifyTopicUnsubscribed(clientId, filter)
	}
}
