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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lighthousemq/core/internal/packet"
)

func TestHandleDisconnect_ClearsRegistryAndClosesChannel(t *testing.T) {
	p := newTestProcessor()
	ch, chctx := connectClient(p, "c1", true)

	err := p.HandleDisconnect(context.Background(), chctx)
	assert.NoError(t, err)
	assert.True(t, ch.isClosed())

	_, ok := p.clients.Get("c1")
	assert.False(t, ok)
}

func TestHandleDisconnect_NeverPublishesWill(t *testing.T) {
	p := newTestProcessor()
	subCh := subscribeDirect(p, "sub1", "last/will", packet.AtMostOnce)

	ch := &fakeChannel{}
	c := &packet.Connect{
		Version:      packet.Version311,
		ClientId:     []byte("c1"),
		ConnectFlags: packet.ConnectFlags{CleanSession: true, WillFlag: true},
		WillTopic:    []byte("last/will"),
		WillMessage:  []byte("bye"),
	}
	chctx, err := p.HandleConnect(context.Background(), ch, c)
	assert.NoError(t, err)

	assert.NoError(t, p.HandleDisconnect(context.Background(), chctx))
	assert.Empty(t, subCh.packets())
}

func TestHandleConnectionLost_PublishesWill(t *testing.T) {
	p := newTestProcessor()
	subCh := subscribeDirect(p, "sub1", "last/will", packet.AtMostOnce)

	ch := &fakeChannel{}
	c := &packet.Connect{
		Version:      packet.Version311,
		ClientId:     []byte("c1"),
		ConnectFlags: packet.ConnectFlags{CleanSession: true, WillFlag: true},
		WillTopic:    []byte("last/will"),
		WillMessage:  []byte("bye"),
	}
	chctx, err := p.HandleConnect(context.Background(), ch, c)
	assert.NoError(t, err)

	p.HandleConnectionLost(context.Background(), chctx, errors.New("read: connection reset"))

	found := false
	for _, pk := range subCh.packets() {
		if pub, ok := pk.(*packet.Publish); ok && string(pub.Topic) == "last/will" {
			found = true
		}
	}
	assert.True(t, found)

	_, ok := p.wills.Get("c1")
	assert.False(t, ok)
}

func TestHandleConnectionLost_StolenChannelSuppressesWill(t *testing.T) {
	p := newTestProcessor()
	subCh := subscribeDirect(p, "sub1", "last/will", packet.AtMostOnce)

	ch1 := &fakeChannel{}
	c := &packet.Connect{
		Version:      packet.Version311,
		ClientId:     []byte("c1"),
		ConnectFlags: packet.ConnectFlags{CleanSession: false, WillFlag: true},
		WillTopic:    []byte("last/will"),
		WillMessage:  []byte("bye"),
	}
	chctx1, err := p.HandleConnect(context.Background(), ch1, c)
	assert.NoError(t, err)

	// A second CONNECT steals the channel before the first's connection
	// loss is reported.
	_, _ = connectClient(p, "c1", false)
	assert.True(t, chctx1.Stolen())

	p.HandleConnectionLost(context.Background(), chctx1, errors.New("i/o timeout"))
	assert.Empty(t, subCh.packets())
}

func TestHandleConnectionLost_RaceWithTakeoverIsANoop(t *testing.T) {
	p := newTestProcessor()
	_, chctx1 := connectClient(p, "c1", false)
	_, chctx2 := connectClient(p, "c1", false)

	// chctx1 no longer matches the registry entry; its own connection-lost
	// handling must not disturb chctx2's state.
	p.HandleConnectionLost(context.Background(), chctx1, errors.New("stale"))

	current, ok := p.clients.Get("c1")
	assert.True(t, ok)
	assert.Same(t, chctx2, current)
}
