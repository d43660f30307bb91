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
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/lighthousemq/core/internal/code"
	"github.com/lighthousemq/core/internal/packet"
	"github.com/lighthousemq/core/internal/persistence/session"
	"github.com/lighthousemq/core/internal/xid"
)

// HandleConnect runs the CONNECT acceptance sequence of spec.md §4.1 and
// returns the new ChannelContext to be threaded into every subsequent
// handler call for ch. A nil ChannelContext with a nil error means the
// exchange terminated at CONNACK (protocol rejection); the caller should
// stop reading from ch (it has already been closed).
func (p *Processor) HandleConnect(ctx context.Context, ch ChannelHandle, c *packet.Connect) (*ChannelContext, error) {
	_, span := p.tracer.Start(ctx, "processor.HandleConnect")
	defer span.End()

	// 1. protocol version
	if c.Version != packet.Version31 && c.Version != packet.Version311 {
		_ = ch.WritePacket(c.NewConnackPacket(code.UnacceptableProtocolVersion, false))
		_ = ch.Close()
		return nil, nil
	}

	clientId := string(c.ClientId)

	// 2. clientId presence. Resolved open question (spec.md §9): close
	// the channel and do not fire the connected notification. When
	// config.Mqtt.AllowZeroLenClientId is set, an empty clientId is
	// accepted and assigned a broker-generated one instead of rejected
	// — but only alongside CleanSession, since a generated identity has
	// no prior session to resume.
	if clientId == "" {
		if !p.limits.AllowZeroLenClientId || !c.CleanSession {
			_ = ch.WritePacket(c.NewConnackPacket(code.IdentifierRejected, false))
			_ = ch.Close()
			return nil, nil
		}
		clientId = xid.New()
	}

	// 3. credentials
	var authenticated bool
	switch {
	case c.UsernameFlag && !c.PasswordFlag:
		// Resolved open question (spec.md §9): never forwarded to the
		// auth service with a null password.
		authenticated = false
	case c.UsernameFlag:
		authenticated = p.auth.Login(clientId, string(c.Username), string(c.Password))
	default:
		authenticated = p.auth.Login(clientId, "", "")
	}
	if !authenticated {
		_ = ch.WritePacket(c.NewConnackPacket(code.BadUsernameOrPassword, false))
		_ = ch.Close()
		return nil, nil
	}

	// 4. takeover
	if prior, ok := p.clients.Get(clientId); ok {
		prior.MarkStolen()
		if priorSess, ok := p.sessions.SessionForClient(clientId); ok {
			priorSess.Disconnect()
		}
		_ = prior.Channel.Close()
	}

	// 5. register + idle timeout. config.Mqtt.MaxKeepAlive clamps
	// whatever the client requested before the ceil(keepAlive*1.5) idle
	// timeout is derived from it.
	keepAlive := c.KeepAlive
	if p.limits.MaxKeepAlive > 0 && keepAlive > p.limits.MaxKeepAlive {
		keepAlive = p.limits.MaxKeepAlive
	}

	chctx := &ChannelContext{
		ClientId:         clientId,
		Username:         string(c.Username),
		CleanSession:     c.CleanSession,
		KeepAliveSeconds: keepAlive,
		Channel:          ch,
	}
	p.clients.Put(clientId, chctx)

	if keepAlive > 0 {
		timeout := time.Duration(math.Ceil(float64(keepAlive)*1.5)) * time.Second
		ch.SetIdleTimeout(timeout)
	} else {
		ch.SetIdleTimeout(0)
	}

	// 6. will
	if c.WillFlag {
		p.wills.Put(clientId, &WillMessage{
			Topic:    string(c.WillTopic),
			Payload:  c.WillMessage,
			Retained: c.WillRetain,
			QoS:      c.WillQoS,
		})
	}

	// 7. session materialization
	existing, ok := p.sessions.SessionForClient(clientId)
	sessionPresent := false
	var active session.ClientSession
	switch {
	case ok && !c.CleanSession:
		existing.SetCleanSession(c.CleanSession)
		sessionPresent = true
		active = existing
	case ok && c.CleanSession:
		existing.Clear()
		existing.SetCleanSession(true)
		p.subscriptions.RemoveClient(clientId)
		active = existing
	default:
		active = p.sessions.CreateNewSession(clientId, c.CleanSession)
	}

	// 8. CONNACK, activate, replay
	ack := c.NewConnackPacket(code.Success, sessionPresent)
	if err := ch.WritePacket(ack); err != nil {
		return chctx, err
	}
	active.Activate()
	p.notify.NotifyClientConnected(clientId)

	if !c.CleanSession {
		for _, guid := range active.Enqueued() {
			stored, ok := p.messages.Get(guid)
			if !ok {
				active.RemoveEnqueued(guid)
				continue
			}
			if err := p.sendToActive(ch, active, stored, stored.QoS, guid); err != nil {
				p.log.Warn("replay enqueued message failed", zap.String("clientId", clientId), zap.Error(err))
			}
			active.RemoveEnqueued(guid)
		}
	}

	return chctx, nil
}
