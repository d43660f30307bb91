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
	"github.com/lighthousemq/core/internal/persistence/message"
)

// HandlePublish implements the QoS 0/1/2 inbound publish handshakes of
// spec.md §4.3. QoS 2 stores the message and parks it under the inbound
// packet id until PUBREL releases it; it is not routed until then.
func (p *Processor) HandlePublish(ctx context.Context, chctx *ChannelContext, pub *packet.Publish) error {
	_, span := p.tracer.Start(ctx, "processor.HandlePublish")
	defer span.End()

	stored := &message.Stored{
		ClientId: chctx.ClientId,
		Topic:    string(pub.Topic),
		QoS:      pub.QoS,
		Payload:  pub.Payload,
		Retained: pub.Retain,
		PacketId: pub.MessageId,
	}

	switch pub.QoS {
	case packet.AtMostOnce:
		p.route2Subscribers(stored)
		p.applyRetained(stored)

	case packet.AtLeastOnce:
		p.route2Subscribers(stored)
		if err := chctx.Channel.WritePacket(&packet.Puback{MessageId: pub.MessageId}); err != nil {
			return err
		}
		p.applyRetained(stored)

	case packet.ExactlyOnce:
		guid, err := p.messages.StorePublishForFuture(stored)
		if err != nil {
			p.log.Error("store QoS2 publish failed", zap.String("clientId", chctx.ClientId), zap.Error(err))
			return err
		}
		stored.GUID = guid
		if sess, ok := p.sessions.SessionForClient(chctx.ClientId); ok {
			sess.StoreInbound(pub.MessageId, guid)
		} else {
			p.log.Warn("QoS2 publish with no session", zap.String("clientId", chctx.ClientId))
		}
		if err := chctx.Channel.WritePacket(&packet.Pubrec{MessageId: pub.MessageId}); err != nil {
			return err
		}
		// Retained state is applied now, per spec.md §4.3.1; routing to
		// subscribers waits for PUBREL.
		p.applyRetained(stored)
	}

	p.notify.NotifyTopicPublished(chctx.ClientId, stored.Topic, stored.QoS, stored.Payload)
	return nil
}

// HandlePubAck completes a broker-to-client QoS 1 delivery.
func (p *Processor) HandlePubAck(ctx context.Context, chctx *ChannelContext, ack *packet.Puback) error {
	_, span := p.tracer.Start(ctx, "processor.HandlePubAck")
	defer span.End()

	sess, ok := p.sessions.SessionForClient(chctx.ClientId)
	if !ok {
		p.log.Warn("PUBACK with no session", zap.String("clientId", chctx.ClientId))
		return nil
	}
	if _, ok := sess.InFlightAcknowledged(ack.MessageId); !ok {
		p.log.Warn("PUBACK with no inflight entry", zap.String("clientId", chctx.ClientId), zap.Uint16("messageId", ack.MessageId))
	}
	return nil
}

// HandlePubRec advances a broker-to-client QoS 2 delivery to its second
// phase by sending PUBREL.
func (p *Processor) HandlePubRec(ctx context.Context, chctx *ChannelContext, rec *packet.Pubrec) error {
	_, span := p.tracer.Start(ctx, "processor.HandlePubRec")
	defer span.End()

	sess, ok := p.sessions.SessionForClient(chctx.ClientId)
	if !ok {
		p.log.Warn("PUBREC with no session", zap.String("clientId", chctx.ClientId))
	} else if _, ok := sess.InFlightAcknowledged(rec.MessageId); !ok {
		p.log.Warn("PUBREC with no inflight entry", zap.String("clientId", chctx.ClientId), zap.Uint16("messageId", rec.MessageId))
	} else {
		sess.SecondPhaseAckWaiting(rec.MessageId)
	}
	return chctx.Channel.WritePacket(&packet.Pubrel{MessageId: rec.MessageId})
}

// HandlePubRel releases a client-to-broker QoS 2 publish for routing,
// then completes the handshake with PUBCOMP regardless of whether the
// lookup succeeded: a missing session or inflight entry is logged and
// ignored, not fatal (spec.md §7).
func (p *Processor) HandlePubRel(ctx context.Context, chctx *ChannelContext, rel *packet.Pubrel) error {
	_, span := p.tracer.Start(ctx, "processor.HandlePubRel")
	defer span.End()

	sess, ok := p.sessions.SessionForClient(chctx.ClientId)
	if !ok {
		p.log.Warn("PUBREL with no session", zap.String("clientId", chctx.ClientId))
	} else if guid, ok := sess.TakeInbound(rel.MessageId); !ok {
		p.log.Warn("PUBREL with no inbound entry", zap.String("clientId", chctx.ClientId), zap.Uint16("messageId", rel.MessageId))
	} else if stored, ok := p.messages.Get(guid); !ok {
		p.log.Warn("PUBREL referenced missing stored message", zap.String("clientId", chctx.ClientId), zap.String("guid", guid))
	} else {
		p.route2Subscribers(stored)
		p.applyRetained(stored)
	}

	return chctx.Channel.WritePacket(&packet.Pubcomp{MessageId: rel.MessageId})
}

// HandlePubComp completes a broker-to-client QoS 2 delivery.
func (p *Processor) HandlePubComp(ctx context.Context, chctx *ChannelContext, comp *packet.Pubcomp) error {
	_, span := p.tracer.Start(ctx, "processor.HandlePubComp")
	defer span.End()

	sess, ok := p.sessions.SessionForClient(chctx.ClientId)
	if !ok {
		p.log.Warn("PUBCOMP with no session", zap.String("clientId", chctx.ClientId))
		return nil
	}
	if !sess.SecondPhaseAcknowledged(comp.MessageId) {
		p.log.Warn("PUBCOMP with no second-phase entry", zap.String("clientId", chctx.ClientId), zap.Uint16("messageId", comp.MessageId))
	}
	return nil
}
