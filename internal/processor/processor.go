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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lighthousemq/core/internal/auth"
	"github.com/lighthousemq/core/internal/interceptor"
	"github.com/lighthousemq/core/internal/packet"
	"github.com/lighthousemq/core/internal/persistence/message"
	"github.com/lighthousemq/core/internal/persistence/session"
	"github.com/lighthousemq/core/internal/persistence/subscription"
	"github.com/lighthousemq/core/internal/registry"
	"github.com/lighthousemq/core/internal/xlog"
	"github.com/lighthousemq/core/internal/xtrace"
)

// brokerSelfClientId tags a StoredMessage built from an embedded
// (broker-initiated) publish rather than a real client's PUBLISH.
const brokerSelfClientId = "BROKER_SELF"

// Processor is the Protocol Processor core.
type Processor struct {
	clients *registry.Map[*ChannelContext]
	wills   *registry.Map[*WillMessage]

	sessions      session.Store
	messages      message.Store
	subscriptions subscription.Store
	auth          auth.Service
	notify        interceptor.Interceptor
	limits        Limits

	tracer trace.Tracer
	log    *xlog.Log
}

// Limits is the subset of config.Mqtt the processor enforces itself,
// rather than a store or transport construction choice: CONNECT
// keep-alive clamping, zero-length clientId acceptance, whether retained
// messages and wildcard filters are honored at all, and how deep an
// offline session's delivery queue is allowed to grow.
type Limits struct {
	// MaxKeepAlive clamps a CONNECT's requested keep-alive, in seconds,
	// before the idle-timeout calculation runs. Zero means no clamp.
	MaxKeepAlive uint16
	// AllowZeroLenClientId accepts an empty CONNECT clientId (assigning
	// a broker-generated one) instead of rejecting it at step 2; only
	// honored alongside CleanSession, since a broker-generated identity
	// has nothing to resume.
	AllowZeroLenClientId bool
	// RetainAvailable gates whether a publish's retained flag is acted
	// on at all. False makes every retained flag a no-op.
	RetainAvailable bool
	// WildcardAvailable gates whether a SUBSCRIBE/UNSUBSCRIBE filter may
	// use '+' or '#'. False rejects any filter containing either.
	WildcardAvailable bool
	// MaxQueueMessages bounds how many guids an offline session's
	// delivery queue holds before the oldest is evicted. Zero means
	// unbounded.
	MaxQueueMessages int
}

// defaultLimits preserves the processor's pre-Limits behavior: retained
// messages and wildcards both work, no keep-alive clamp, no queue bound,
// and an empty clientId is rejected.
func defaultLimits() Limits {
	return Limits{
		RetainAvailable:   true,
		WildcardAvailable: true,
	}
}

// Option configures a Processor at construction time.
type Option func(*Processor)

// WithAuth overrides the default allow-all AuthService.
func WithAuth(a auth.Service) Option {
	return func(p *Processor) { p.auth = a }
}

// WithInterceptor overrides the default no-op Interceptor.
func WithInterceptor(i interceptor.Interceptor) Option {
	return func(p *Processor) { p.notify = i }
}

// WithTracer overrides the tracer pulled from the global TracerProvider.
func WithTracer(t trace.Tracer) Option {
	return func(p *Processor) { p.tracer = t }
}

// WithLimits overrides the default Limits wholesale, typically built
// from a loaded config.Mqtt.
func WithLimits(l Limits) Option {
	return func(p *Processor) { p.limits = l }
}

// NewProcessor builds a Processor over the given durable stores.
func NewProcessor(sessions session.Store, messages message.Store, subscriptions subscription.Store, opts ...Option) *Processor {
	p := &Processor{
		clients:       registry.New[*ChannelContext](),
		wills:         registry.New[*WillMessage](),
		sessions:      sessions,
		messages:      messages,
		subscriptions: subscriptions,
		auth:          auth.AllowAll{},
		notify:        interceptor.Multi(nil),
		limits:        defaultLimits(),
		tracer:        otel.GetTracerProvider().Tracer(xtrace.Name),
		log:           xlog.LoggerModule("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// teardownSession deactivates sess and, if it is a clean session,
// removes its entries from the subscription index — the session store
// purges its own record on a clean deactivate, but the index is a
// separate collaborator the processor owns (spec.md §6.2).
func (p *Processor) teardownSession(clientId string, sess session.ClientSession) {
	clean := sess.CleanSession()
	sess.Deactivate()
	if clean {
		p.subscriptions.RemoveClient(clientId)
	}
}

// sessionActive resolves clientId's session and reactivates it if the
// client currently holds a connected-clients registry entry, per
// spec.md §4.5 step 3b.
func (p *Processor) sessionActive(clientId string) (session.ClientSession, bool) {
	sess, ok := p.sessions.SessionForClient(clientId)
	if !ok {
		return nil, false
	}
	if _, registered := p.clients.Get(clientId); registered && !sess.IsActive() {
		sess.Activate()
	}
	return sess, sess.IsActive()
}

// sendToActive builds a Publish from stored at effectiveQos and writes
// it to ch, allocating and registering a packet id when QoS > 0. Each
// call gets its own copy of the payload so independent subscribers
// never observe each other's buffer (spec.md §5, §9 "buffer sharing").
func (p *Processor) sendToActive(ch ChannelHandle, sess session.ClientSession, stored *message.Stored, effectiveQos packet.QoS, guid string) error {
	payload := make([]byte, len(stored.Payload))
	copy(payload, stored.Payload)

	pub := &packet.Publish{
		QoS:     effectiveQos,
		Retain:  stored.Retained,
		Topic:   []byte(stored.Topic),
		Payload: payload,
	}
	if effectiveQos > packet.AtMostOnce {
		id := sess.NextPacketId()
		pub.MessageId = id
		sess.InFlightAckWaiting(guid, id)
	}
	return ch.WritePacket(pub)
}

// directSendActive resolves clientId's channel and writes stored to it,
// logging and dropping the send if the client has concurrently
// disconnected (spec.md §9, resolved open question: a logged drop, not
// a fatal error).
func (p *Processor) directSendActive(clientId string, sess session.ClientSession, stored *message.Stored, qos packet.QoS, guid string) {
	chctx, ok := p.clients.Get(clientId)
	if !ok {
		p.log.Warn("direct send: client not connected", zap.String("clientId", clientId))
		return
	}
	if err := p.sendToActive(chctx.Channel, sess, stored, qos, guid); err != nil {
		p.log.Warn("direct send failed", zap.String("clientId", clientId), zap.Error(err))
	}
}

// route2Subscribers is the fan-out dispatcher of spec.md §4.5. It
// persists stored if publishing at QoS>=1 and no guid is yet assigned,
// then applies the dispatch matrix to every subscription whose filter
// matches stored.Topic.
func (p *Processor) route2Subscribers(stored *message.Stored) {
	if stored.QoS >= packet.AtLeastOnce && stored.GUID == "" {
		guid, err := p.messages.StorePublishForFuture(stored)
		if err != nil {
			p.log.Error("store publish for future", zap.Error(err))
		}
		stored.GUID = guid
	}
	guid := stored.GUID

	for _, sub := range p.subscriptions.Match(stored.Topic) {
		effectiveQos := packet.MinQoS(stored.QoS, sub.QoS)
		targetSess, active := p.sessionActive(sub.ClientId)
		if targetSess == nil {
			continue
		}

		switch {
		case effectiveQos == packet.AtMostOnce && active:
			p.directSendActive(sub.ClientId, targetSess, stored, effectiveQos, guid)
		case effectiveQos == packet.AtMostOnce && !active:
			// QoS 0 is not stored per-subscriber.
		case effectiveQos >= packet.AtLeastOnce && active:
			p.directSendActive(sub.ClientId, targetSess, stored, effectiveQos, guid)
		case effectiveQos >= packet.AtLeastOnce && !active && !targetSess.CleanSession():
			p.enqueueBounded(targetSess, guid)
		default:
			// QoS >= 1, inactive, clean session: drop.
		}
	}
}

// enqueueBounded appends guid to sess's offline delivery queue, evicting
// the oldest queued guid first when config.Mqtt's MaxQueueMessages limit
// would otherwise be exceeded.
func (p *Processor) enqueueBounded(sess session.ClientSession, guid string) {
	if p.limits.MaxQueueMessages > 0 {
		if enqueued := sess.Enqueued(); len(enqueued) >= p.limits.MaxQueueMessages {
			sess.RemoveEnqueued(enqueued[0])
			p.log.Warn("offline delivery queue full, dropped oldest", zap.String("clientId", sess.ClientId()))
		}
	}
	sess.EnqueueToDeliver(guid)
}

// applyRetained implements spec.md §4.3.1's retained-handling table. A
// QoS 0 publish always clears any retained entry for its topic,
// regardless of payload; a QoS>=1 publish clears on an empty payload
// and otherwise ensures the message is stored before retaining it.
func (p *Processor) applyRetained(stored *message.Stored) {
	if !stored.Retained {
		return
	}
	if !p.limits.RetainAvailable {
		return
	}
	if stored.QoS == packet.AtMostOnce || len(stored.Payload) == 0 {
		if err := p.messages.CleanRetained(stored.Topic); err != nil {
			p.log.Warn("clean retained failed", zap.String("topic", stored.Topic), zap.Error(err))
		}
		return
	}

	guid := stored.GUID
	if guid == "" {
		g, err := p.messages.StorePublishForFuture(stored)
		if err != nil {
			p.log.Warn("store retained failed", zap.String("topic", stored.Topic), zap.Error(err))
			return
		}
		guid = g
		stored.GUID = g
	}
	if err := p.messages.StoreRetained(stored.Topic, guid); err != nil {
		p.log.Warn("store retained failed", zap.String("topic", stored.Topic), zap.Error(err))
	}
}

// publishWill builds a StoredMessage from will and routes it, per
// spec.md §4.3.3.
func (p *Processor) publishWill(clientId string, will *WillMessage) {
	stored := &message.Stored{
		ClientId: clientId,
		Topic:    will.Topic,
		QoS:      will.QoS,
		Payload:  will.Payload,
		Retained: will.Retained,
	}
	if will.QoS > packet.AtMostOnce {
		if id, err := p.sessions.NextPacketID(clientId); err == nil {
			stored.PacketId = id
		}
	}
	p.route2Subscribers(stored)
	p.applyRetained(stored)
}
