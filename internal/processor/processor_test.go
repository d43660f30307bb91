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
	"sync"
	"time"

	"github.com/lighthousemq/core/internal/packet"
	"github.com/lighthousemq/core/internal/persistence/message"
	"github.com/lighthousemq/core/internal/persistence/session"
	"github.com/lighthousemq/core/internal/persistence/subscription"
)

// fakeChannel is an in-memory ChannelHandle double recording every
// packet written to it, used instead of a real net.Conn across the
// processor test suite.
type fakeChannel struct {
	mu          sync.Mutex
	written     []packet.Packet
	closed      bool
	idleTimeout time.Duration
}

func (f *fakeChannel) WritePacket(p packet.Packet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, p)
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeChannel) SetIdleTimeout(d time.Duration) {
	f.idleTimeout = d
}

func (f *fakeChannel) packets() []packet.Packet {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]packet.Packet, len(f.written))
	copy(out, f.written)
	return out
}

func (f *fakeChannel) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestProcessor() *Processor {
	return NewProcessor(session.NewMemory(), message.NewMemory(), subscription.NewMemory())
}

func newTestProcessorWithLimits(limits Limits) *Processor {
	return NewProcessor(session.NewMemory(), message.NewMemory(), subscription.NewMemory(), WithLimits(limits))
}

// connectClient runs a minimal CONNECT through p and returns the
// resulting channel/context, failing the enclosing test on error.
func connectClient(p *Processor, clientId string, clean bool) (*fakeChannel, *ChannelContext) {
	ch := &fakeChannel{}
	c := &packet.Connect{
		Version:      packet.Version311,
		ClientId:     []byte(clientId),
		ConnectFlags: packet.ConnectFlags{CleanSession: clean},
	}
	chctx, err := p.HandleConnect(context.Background(), ch, c)
	if err != nil {
		panic(err)
	}
	return ch, chctx
}

// subscribeDirect registers clientId's channel as an active subscriber
// of filter at qos, bypassing the SUBSCRIBE packet handshake so tests
// can focus on route2Subscribers/applyRetained behavior in isolation.
// The CONNACK is discarded, so the returned channel starts out empty.
func subscribeDirect(p *Processor, clientId, filter string, qos packet.QoS) *fakeChannel {
	ch, chctx := connectClient(p, clientId, false)
	_ = chctx
	ch.written = nil
	sess, _ := p.sessions.SessionForClient(clientId)
	sess.Subscribe(filter, qos)
	_ = p.subscriptions.Add(filter, clientId, qos)
	return ch
}
