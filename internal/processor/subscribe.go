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
	"context"

	"go.uber.org/zap"

	"github.com/lighthousemq/core/internal/packet"
	"github.com/lighthousemq/core/internal/persistence/subscription"
)

// HandleSubscribe processes a SUBSCRIBE (spec.md §4.4). SUBACK is
// written before any retained replay, so a slow or large retained set
// never delays the subscriber's acknowledgment.
func (p *Processor) HandleSubscribe(ctx context.Context, chctx *ChannelContext, sub *packet.Subscribe) error {
	_, span := p.tracer.Start(ctx, "processor.HandleSubscribe")
	defer span.End()

	sess, ok := p.sessions.SessionForClient(chctx.ClientId)
	if !ok {
		p.log.Warn("SUBSCRIBE with no session", zap.String("clientId", chctx.ClientId))
		return chctx.Channel.Close()
	}

	reasonCodes := make([]packet.QoS, len(sub.Topics))
	accepted := make([]packet.TopicQoS, 0, len(sub.Topics))
	for i, t := range sub.Topics {
		filter := string(t.Topic)
		if !subscription.ValidateWithWildcards(filter, p.limits.WildcardAvailable) || !sess.Subscribe(filter, t.QoS) {
			reasonCodes[i] = packet.Failure
			continue
		}
		reasonCodes[i] = t.QoS
		accepted = append(accepted, t)
	}

	if err := chctx.Channel.WritePacket(&packet.Suback{MessageId: sub.MessageId, ReasonCodes: reasonCodes}); err != nil {
		return err
	}

	for _, t := range accepted {
		filter := string(t.Topic)
		if err := p.subscriptions.Add(filter, chctx.ClientId, t.QoS); err != nil {
			p.log.Warn("subscription index add failed", zap.String("clientId", chctx.ClientId), zap.String("filter", filter), zap.Error(err))
			continue
		}
		p.notify.NotifyTopicSubscribed(chctx.ClientId, filter, t.QoS)
		p.replayRetained(chctx, filter, t.QoS)
	}
	return nil
}

// replayRetained sends filter's matching retained messages to chctx,
// downgrading each to min(stored qos, requested qos) as with any other
// delivery (spec.md §4.4, resolved open question: iterate the retained
// map directly rather than SearchMatching over the whole message store).
func (p *Processor) replayRetained(chctx *ChannelContext, filter string, requestedQos packet.QoS) {
	sess, ok := p.sessions.SessionForClient(chctx.ClientId)
	if !ok {
		return
	}
	for _, topic := range p.messages.RetainedTopics() {
		if !subscription.Matches(filter, topic) {
			continue
		}
		guid, ok := p.messages.Retained(topic)
		if !ok {
			continue
		}
		stored, ok := p.messages.Get(guid)
		if !ok {
			continue
		}
		effectiveQos := packet.MinQoS(stored.QoS, requestedQos)
		if err := p.sendToActive(chctx.Channel, sess, stored, effectiveQos, guid); err != nil {
			p.log.Warn("retained replay failed", zap.String("clientId", chctx.ClientId), zap.String("topic", topic), zap.Error(err))
		}
	}
}

// HandleUnsubscribe processes an UNSUBSCRIBE (spec.md §4.4). Every
// filter is validated before any are removed: a malformed filter is a
// protocol violation, so the channel is closed without touching state.
func (p *Processor) HandleUnsubscribe(ctx context.Context, chctx *ChannelContext, uns *packet.Unsubscribe) error {
	_, span := p.tracer.Start(ctx, "processor.HandleUnsubscribe")
	defer span.End()

	for _, t := range uns.Topics {
		if !subscription.ValidateWithWildcards(string(t), p.limits.WildcardAvailable) {
			return chctx.Channel.Close()
		}
	}

	sess, _ := p.sessions.SessionForClient(chctx.ClientId)
	for _, t := range uns.Topics {
		filter := string(t)
		p.subscriptions.Remove(filter, chctx.ClientId)
		if sess != nil {
			sess.UnsubscribeFrom(filter)
		}
		p.notify.NotifyTopicUnsubscribed(chctx.ClientId, filter)
	}

	return chctx.Channel.WritePacket(&packet.Unsuback{MessageId: uns.MessageId})
}
