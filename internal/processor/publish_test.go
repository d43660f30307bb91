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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lighthousemq/core/internal/packet"
)

func TestHandlePublish_QoS0RoutesWithoutAck(t *testing.T) {
	p := newTestProcessor()
	subCh := subscribeDirect(p, "sub1", "a/b", packet.AtMostOnce)
	_, pubCtx := connectClient(p, "pub1", true)
	ch(pubCtx).written = nil

	err := p.HandlePublish(context.Background(), pubCtx, &packet.Publish{
		QoS: packet.AtMostOnce, Topic: []byte("a/b"), Payload: []byte("hi"),
	})
	assert.NoError(t, err)

	pubChPackets := ch(pubCtx).packets()
	assert.Empty(t, pubChPackets, "QoS 0 publisher gets no ack")

	subPkts := subCh.packets()
	assert.Len(t, subPkts, 1)
	pub := subPkts[0].(*packet.Publish)
	assert.Equal(t, "a/b", string(pub.Topic))
	assert.Equal(t, []byte("hi"), pub.Payload)
}

func TestHandlePublish_QoS1SendsPuback(t *testing.T) {
	p := newTestProcessor()
	_, pubCtx := connectClient(p, "pub1", true)
	ch(pubCtx).written = nil

	err := p.HandlePublish(context.Background(), pubCtx, &packet.Publish{
		QoS: packet.AtLeastOnce, MessageId: 7, Topic: []byte("a/b"), Payload: []byte("hi"),
	})
	assert.NoError(t, err)

	pks := ch(pubCtx).packets()
	assert.Len(t, pks, 1)
	ack := pks[0].(*packet.Puback)
	assert.EqualValues(t, 7, ack.MessageId)
}

func TestHandlePublish_QoS2StoresAndSendsPubrec(t *testing.T) {
	p := newTestProcessor()
	subCh := subscribeDirect(p, "sub1", "a/b", packet.ExactlyOnce)
	_, pubCtx := connectClient(p, "pub1", true)
	ch(pubCtx).written = nil

	err := p.HandlePublish(context.Background(), pubCtx, &packet.Publish{
		QoS: packet.ExactlyOnce, MessageId: 11, Topic: []byte("a/b"), Payload: []byte("hi"),
	})
	assert.NoError(t, err)

	pks := ch(pubCtx).packets()
	assert.Len(t, pks, 1)
	_, isPubrec := pks[0].(*packet.Pubrec)
	assert.True(t, isPubrec)

	// not yet routed: PUBREL has not arrived
	assert.Empty(t, subCh.packets())

	sess, ok := p.sessions.SessionForClient("pub1")
	assert.True(t, ok)
	guid, ok := sess.TakeInbound(11)
	assert.True(t, ok)
	assert.NotEmpty(t, guid)
}

func TestHandlePubRel_RoutesAndSendsPubcomp(t *testing.T) {
	p := newTestProcessor()
	subCh := subscribeDirect(p, "sub1", "a/b", packet.ExactlyOnce)
	_, pubCtx := connectClient(p, "pub1", true)

	assert.NoError(t, p.HandlePublish(context.Background(), pubCtx, &packet.Publish{
		QoS: packet.ExactlyOnce, MessageId: 11, Topic: []byte("a/b"), Payload: []byte("hi"),
	}))
	ch(pubCtx).written = nil

	assert.NoError(t, p.HandlePubRel(context.Background(), pubCtx, &packet.Pubrel{MessageId: 11}))

	pks := ch(pubCtx).packets()
	assert.Len(t, pks, 1)
	_, isPubcomp := pks[0].(*packet.Pubcomp)
	assert.True(t, isPubcomp)

	found := false
	for _, pk := range subCh.packets() {
		if pub, ok := pk.(*packet.Publish); ok && string(pub.Topic) == "a/b" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestHandlePubRel_MissingEntryStillSendsPubcomp(t *testing.T) {
	p := newTestProcessor()
	_, pubCtx := connectClient(p, "pub1", true)
	ch(pubCtx).written = nil

	err := p.HandlePubRel(context.Background(), pubCtx, &packet.Pubrel{MessageId: 999})
	assert.NoError(t, err)

	pks := ch(pubCtx).packets()
	assert.Len(t, pks, 1)
	_, isPubcomp := pks[0].(*packet.Pubcomp)
	assert.True(t, isPubcomp)
}

func TestHandlePubAck_CompletesInFlight(t *testing.T) {
	p := newTestProcessor()
	subCh, subChctx := connectClient(p, "sub1", false)
	_ = subCh
	sess, _ := p.sessions.SessionForClient("sub1")
	sess.InFlightAckWaiting("guid-1", 42)

	err := p.HandlePubAck(context.Background(), subChctx, &packet.Puback{MessageId: 42})
	assert.NoError(t, err)

	_, ok := sess.InFlightAcknowledged(42)
	assert.False(t, ok, "second ack for the same id should find nothing left")
}

func TestHandlePubRec_SendsPubrelAndArmsSecondPhase(t *testing.T) {
	p := newTestProcessor()
	_, chctx := connectClient(p, "pub1", false)
	ch(chctx).written = nil
	sess, _ := p.sessions.SessionForClient("pub1")
	sess.InFlightAckWaiting("guid-1", 5)

	err := p.HandlePubRec(context.Background(), chctx, &packet.Pubrec{MessageId: 5})
	assert.NoError(t, err)

	pks := ch(chctx).packets()
	assert.Len(t, pks, 1)
	rel := pks[0].(*packet.Pubrel)
	assert.EqualValues(t, 5, rel.MessageId)

	assert.True(t, sess.SecondPhaseAcknowledged(5))
}

func TestHandlePubComp_MissingEntryIsLoggedNotFatal(t *testing.T) {
	p := newTestProcessor()
	_, chctx := connectClient(p, "pub1", true)

	err := p.HandlePubComp(context.Background(), chctx, &packet.Pubcomp{MessageId: 123})
	assert.NoError(t, err)
}

func TestHandlePublish_RetainedQoS0AlwaysClears(t *testing.T) {
	p := newTestProcessor()
	_, chctx := connectClient(p, "pub1", true)

	assert.NoError(t, p.messages.StoreRetained("a/b", "some-guid"))

	err := p.HandlePublish(context.Background(), chctx, &packet.Publish{
		QoS: packet.AtMostOnce, Topic: []byte("a/b"), Payload: []byte("x"), Retain: true,
	})
	assert.NoError(t, err)

	_, ok := p.messages.Retained("a/b")
	assert.False(t, ok)
}

func TestHandlePublish_RetainedQoS1EmptyPayloadClears(t *testing.T) {
	p := newTestProcessor()
	_, chctx := connectClient(p, "pub1", true)
	assert.NoError(t, p.messages.StoreRetained("a/b", "some-guid"))

	err := p.HandlePublish(context.Background(), chctx, &packet.Publish{
		QoS: packet.AtLeastOnce, MessageId: 1, Topic: []byte("a/b"), Payload: nil, Retain: true,
	})
	assert.NoError(t, err)

	_, ok := p.messages.Retained("a/b")
	assert.False(t, ok)
}

func TestHandlePublish_RetainedQoS1StoresAndRetains(t *testing.T) {
	p := newTestProcessor()
	_, chctx := connectClient(p, "pub1", true)

	err := p.HandlePublish(context.Background(), chctx, &packet.Publish{
		QoS: packet.AtLeastOnce, MessageId: 1, Topic: []byte("a/b"), Payload: []byte("keep"), Retain: true,
	})
	assert.NoError(t, err)

	guid, ok := p.messages.Retained("a/b")
	assert.True(t, ok)
	stored, ok := p.messages.Get(guid)
	assert.True(t, ok)
	assert.Equal(t, []byte("keep"), stored.Payload)
}

// ch returns the fakeChannel backing chctx, panicking if it isn't one
// (every test in this package wires a fakeChannel).
func ch(chctx *ChannelContext) *fakeChannel {
	return chctx.Channel.(*fakeChannel)
}
