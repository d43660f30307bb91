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

package processor

import (
	"go.uber.org/zap"

	"github.com/lighthousemq/core/internal/packet"
	"github.com/lighthousemq/core/internal/persistence/message"
)

// PublishInternal lets the embedding application publish a message as
// the broker itself, bypassing the usual client-originated PUBLISH
// handshake entirely (spec.md §4.3.3). It is not a MQTT-visible client
// and is never reported to the interceptor.
func (p *Processor) PublishInternal(topic string, qos packet.QoS, payload []byte, retain bool) {
	stored := &message.Stored{
		ClientId: brokerSelfClientId,
		Topic:    topic,
		QoS:      qos,
		Payload:  payload,
		Retained: retain,
		PacketId: 1,
	}

	if qos == packet.ExactlyOnce {
		guid, err := p.messages.StorePublishForFuture(stored)
		if err != nil {
			p.log.Error("embedded publish store failed", zap.String("topic", topic), zap.Error(err))
			return
		}
		stored.GUID = guid
	}

	p.route2Subscribers(stored)
	p.applyRetained(stored)
}
