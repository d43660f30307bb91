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

// Package processor implements the Protocol Processor core: one entry
// point per inbound MQTT packet kind, driving the broker-side state
// machine for CONNECT/DISCONNECT/connection-lost, the QoS 0/1/2 publish
// handshakes, SUBSCRIBE/UNSUBSCRIBE with retained replay, and the
// route2Subscribers fan-out dispatcher. It owns only the two
// process-wide, broker-lifetime maps (connected clients, pending
// wills); everything else is delegated to the session/message/
// subscription stores passed into NewProcessor.
package processor

import (
	"sync/atomic"
	"time"

	"github.com/lighthousemq/core/internal/packet"
)

// ChannelHandle is the transport-side capability the processor holds
// for a connection: write one packet, close the connection, and adjust
// the idle timer the transport enforces. The processor never reads from
// a channel directly or blocks on it.
type ChannelHandle interface {
	WritePacket(p packet.Packet) error
	Close() error
	// SetIdleTimeout installs the transport's idle-connection timer.
	// Zero disables it. Replaces any prior timeout (spec.md §4.1 step 5).
	SetIdleTimeout(d time.Duration)
}

// ChannelContext is the per-channel attribute set the transport attaches
// once CONNECT is accepted and passes into every subsequent handler for
// that channel (spec.md §9 "per-channel attributes"). It also serves as
// the connected-clients registry's ConnectionDescriptor value.
type ChannelContext struct {
	ClientId         string
	Username         string
	CleanSession     bool
	KeepAliveSeconds uint16
	Channel          ChannelHandle

	// stolen is set by a concurrent takeover (spec.md §4.1 step 4) so
	// this channel's own connection-lost handling knows to suppress the
	// will publication it would otherwise perform.
	stolen int32
}

// MarkStolen tags the channel as superseded by a takeover CONNECT.
func (c *ChannelContext) MarkStolen() {
	atomic.StoreInt32(&c.stolen, 1)
}

// Stolen reports whether a takeover has superseded this channel.
func (c *ChannelContext) Stolen() bool {
	return atomic.LoadInt32(&c.stolen) == 1
}

// WillMessage is the will registry's value type (spec.md §3).
type WillMessage struct {
	Topic    string
	Payload  []byte
	Retained bool
	QoS      packet.QoS
}
